package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"archivo-storage-api/config"
	"archivo-storage-api/internal/application/ports"
	domain "archivo-storage-api/internal/domain/archivo"
	"archivo-storage-api/internal/domain/procesamiento"
	"archivo-storage-api/internal/infrastructure/cache"
)

const sweepBatchSize = 200

// reportCacheTTL keeps the last weekly report available between runs.
const reportCacheTTL = 8 * 24 * time.Hour

type LimpiezaService struct {
	archivoRepository domain.Repository
	tareaRepository   procesamiento.Repository
	blob              ports.BlobStore
	cache             ports.Cache
	mCounter          *prometheus.CounterVec
	logger            *zap.Logger
	storage           config.Storage
}

func NewLimpiezaService(
	archivoRepository domain.Repository,
	tareaRepository procesamiento.Repository,
	blob ports.BlobStore,
	cacheLayer ports.Cache,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
	storage config.Storage,
) ports.Limpiador {
	return &LimpiezaService{
		archivoRepository: archivoRepository,
		tareaRepository:   tareaRepository,
		blob:              blob,
		cache:             cacheLayer,
		mCounter:          mCounter,
		logger:            logger,
		storage:           storage,
	}
}

// SweepEliminados hard-deletes soft-deleted records older than the retention
// window: blob object first, then the row. A failed blob removal leaves the
// row in place for the next pass.
func (ls *LimpiezaService) SweepEliminados(ctx context.Context) ports.SweepReport {
	cutoff := time.Now().Add(-ls.storage.RetentionWindow)

	batch, err := ls.archivoRepository.FetchEliminadosBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		ls.logger.Error("retention sweep fetch failed", zap.Error(err))
		return ports.SweepReport{}
	}

	return ls.reclaim(ctx, batch, "retention")
}

// SweepPendientes reclaims PENDIENTE records whose upload window expired.
// The metadata row always goes; an object that landed without a confirm is
// removed from the store as well.
func (ls *LimpiezaService) SweepPendientes(ctx context.Context) ports.SweepReport {
	cutoff := time.Now().Add(-ls.storage.OrphanWindow)

	batch, err := ls.archivoRepository.FetchPendientesBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		ls.logger.Error("orphan sweep fetch failed", zap.Error(err))
		return ports.SweepReport{}
	}

	rep := ports.SweepReport{Revisados: len(batch)}
	for _, a := range batch {
		info, err := ls.blob.Stat(ctx, a.Bucket, a.ObjectKey)
		if err != nil {
			ls.logger.Warn("orphan sweep stat failed",
				zap.String("archivo_id", a.ID.String()), zap.Error(err))
			rep.Fallidos++
			continue
		}
		if info != nil {
			ls.logger.Info("pending upload landed but was never confirmed, removing",
				zap.String("archivo_id", a.ID.String()),
				zap.String("object_key", a.ObjectKey))
			if err = ls.blob.Remove(ctx, a.Bucket, a.ObjectKey); err != nil {
				ls.logger.Warn("orphan object removal failed",
					zap.String("archivo_id", a.ID.String()), zap.Error(err))
				rep.Fallidos++
				continue
			}
		}
		if err = ls.dropRecord(ctx, a); err != nil {
			rep.Fallidos++
			continue
		}
		rep.Eliminados++
	}

	ls.mCounter.WithLabelValues("sweep_orphans_total").Add(float64(rep.Eliminados))
	return rep
}

// SweepExpiredURLs clears the eager download-url columns whose expiry passed.
// The redis copies expire on their own.
func (ls *LimpiezaService) SweepExpiredURLs(ctx context.Context) (int64, error) {
	n, err := ls.archivoRepository.ClearExpiredURLs(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	ls.mCounter.WithLabelValues("sweep_expired_urls_total").Add(float64(n))
	return n, nil
}

// SweepFailedJobs requeues post-processing jobs that errored with attempts
// left.
func (ls *LimpiezaService) SweepFailedJobs(ctx context.Context) (int64, error) {
	n, err := ls.tareaRepository.ResetFailed(ctx)
	if err != nil {
		return 0, err
	}
	ls.mCounter.WithLabelValues("sweep_requeued_jobs_total").Add(float64(n))
	return n, nil
}

// WeeklyStorageReport reconciles metadata byte totals against what the
// buckets actually hold and flags any discrepancy. The report is cached so
// the admin endpoint can serve the latest run.
func (ls *LimpiezaService) WeeklyStorageReport(ctx context.Context) (*ports.StorageReport, error) {
	usage, err := ls.archivoRepository.TotalBytesByBucket(ctx)
	if err != nil {
		return nil, err
	}

	rep := &ports.StorageReport{GeneradoEn: time.Now()}
	for _, u := range usage {
		observed, count, err := ls.blob.BucketSize(ctx, u.Bucket)
		if err != nil {
			ls.logger.Warn("bucket reconciliation failed",
				zap.String("bucket", u.Bucket), zap.Error(err))
			continue
		}
		entry := ports.BucketReportEntry{
			Bucket:        u.Bucket,
			MetadataBytes: u.TotalBytes,
			ObservedBytes: observed,
			MetadataCount: u.Cantidad,
			Discrepancia:  observed - u.TotalBytes,
		}
		entry.HayDiscrepancia = entry.Discrepancia != 0
		if entry.HayDiscrepancia {
			ls.logger.Warn("storage discrepancy",
				zap.String("bucket", u.Bucket),
				zap.Int64("metadata_bytes", u.TotalBytes),
				zap.Int64("observed_bytes", observed),
				zap.Int64("observed_objects", count))
		}
		rep.Buckets = append(rep.Buckets, entry)
	}

	if raw, err := json.Marshal(rep); err == nil {
		if err = ls.cache.SetEx(ctx, cache.KeyReporte, string(raw), reportCacheTTL); err != nil {
			ls.logger.Warn("storage report cache failed", zap.Error(err))
		}
	}

	return rep, nil
}

// RunAll is the nightly bundle; each pass is independent and a failing one
// never blocks the rest.
func (ls *LimpiezaService) RunAll(ctx context.Context) *ports.CleanupSummary {
	sum := &ports.CleanupSummary{}

	sum.Retencion = ls.SweepEliminados(ctx)
	sum.Huerfanos = ls.SweepPendientes(ctx)

	if n, err := ls.SweepExpiredURLs(ctx); err != nil {
		ls.logger.Error("expired url sweep failed", zap.Error(err))
	} else {
		sum.URLsInvalidadas = n
	}
	if n, err := ls.SweepFailedJobs(ctx); err != nil {
		ls.logger.Error("failed job sweep failed", zap.Error(err))
	} else {
		sum.TareasReenviadas = n
	}

	ls.logger.Info("cleanup run finished",
		zap.Int("retencion_eliminados", sum.Retencion.Eliminados),
		zap.Int("huerfanos_eliminados", sum.Huerfanos.Eliminados),
		zap.Int64("urls_invalidadas", sum.URLsInvalidadas),
		zap.Int64("tareas_reenviadas", sum.TareasReenviadas),
	)

	return sum
}

func (ls *LimpiezaService) reclaim(ctx context.Context, batch domain.Archivos, pass string) ports.SweepReport {
	rep := ports.SweepReport{Revisados: len(batch)}
	for _, a := range batch {
		if err := ls.blob.Remove(ctx, a.Bucket, a.ObjectKey); err != nil {
			ls.logger.Warn("object removal failed",
				zap.String("pass", pass),
				zap.String("archivo_id", a.ID.String()),
				zap.String("object_key", a.ObjectKey),
				zap.Error(err))
			rep.Fallidos++
			continue
		}
		if err := ls.dropRecord(ctx, a); err != nil {
			rep.Fallidos++
			continue
		}
		rep.Eliminados++
	}

	ls.mCounter.WithLabelValues("sweep_reclaimed_total").Add(float64(rep.Eliminados))
	return rep
}

func (ls *LimpiezaService) dropRecord(ctx context.Context, a *domain.Archivo) error {
	if err := ls.tareaRepository.DeleteByArchivo(ctx, a.ID); err != nil {
		ls.logger.Warn("job cleanup failed", zap.String("archivo_id", a.ID.String()), zap.Error(err))
		return err
	}
	if err := ls.archivoRepository.HardDelete(ctx, a.ID); err != nil {
		ls.logger.Warn("row delete failed", zap.String("archivo_id", a.ID.String()), zap.Error(err))
		return err
	}
	if err := ls.cache.Del(ctx, cache.KeyURL+a.ID.String(), cache.KeyPendiente+a.ID.String()); err != nil {
		ls.logger.Warn("cache invalidation failed", zap.String("archivo_id", a.ID.String()), zap.Error(err))
	}
	return nil
}
