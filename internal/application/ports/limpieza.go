package ports

import (
	"context"
	"time"
)

// SweepReport counts what a cleanup pass did. Failures are per-item: they
// increment Fallidos and never abort the batch.
type SweepReport struct {
	Revisados  int
	Eliminados int
	Fallidos   int
}

type BucketReportEntry struct {
	Bucket          string
	MetadataBytes   int64
	ObservedBytes   int64
	MetadataCount   int64
	Discrepancia    int64
	HayDiscrepancia bool
}

type StorageReport struct {
	GeneradoEn time.Time
	Buckets    []BucketReportEntry
}

type CleanupSummary struct {
	Retencion        SweepReport
	Huerfanos        SweepReport
	URLsInvalidadas  int64
	TareasReenviadas int64
}

type Limpiador interface {
	SweepEliminados(ctx context.Context) SweepReport
	SweepPendientes(ctx context.Context) SweepReport
	SweepExpiredURLs(ctx context.Context) (int64, error)
	SweepFailedJobs(ctx context.Context) (int64, error)
	WeeklyStorageReport(ctx context.Context) (*StorageReport, error)
	RunAll(ctx context.Context) *CleanupSummary
}
