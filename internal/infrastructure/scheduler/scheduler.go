package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"archivo-storage-api/internal/application/ports"
	"archivo-storage-api/pkg/safe"
)

// Job schedules. Single-instance assumption: there is no distributed lock,
// so running two schedulers doubles every sweep.
const (
	specRetencion  = "0 3 * * *"
	specHuerfanos  = "@every 6h"
	specURLs       = "@hourly"
	specReintentos = "@every 30m"
	specReporte    = "@weekly"
)

type Scheduler struct {
	logger    *zap.Logger
	cron      *cron.Cron
	limpiador ports.Limpiador
}

func New(logger *zap.Logger, limpiador ports.Limpiador) (*Scheduler, error) {
	s := &Scheduler{
		logger:    logger,
		cron:      cron.New(),
		limpiador: limpiador,
	}

	jobs := []struct {
		spec string
		name string
		fn   func(context.Context)
	}{
		{specRetencion, "sweep_eliminados", func(ctx context.Context) {
			r := s.limpiador.SweepEliminados(ctx)
			s.logSweep("sweep_eliminados", r)
		}},
		{specHuerfanos, "sweep_pendientes", func(ctx context.Context) {
			r := s.limpiador.SweepPendientes(ctx)
			s.logSweep("sweep_pendientes", r)
		}},
		{specURLs, "sweep_urls", func(ctx context.Context) {
			n, err := s.limpiador.SweepExpiredURLs(ctx)
			if err != nil {
				s.logger.Error("sweep_urls failed", zap.Error(err))
				return
			}
			s.logger.Info("sweep_urls done", zap.Int64("invalidated", n))
		}},
		{specReintentos, "sweep_reintentos", func(ctx context.Context) {
			n, err := s.limpiador.SweepFailedJobs(ctx)
			if err != nil {
				s.logger.Error("sweep_reintentos failed", zap.Error(err))
				return
			}
			s.logger.Info("sweep_reintentos done", zap.Int64("requeued", n))
		}},
		{specReporte, "reporte_almacenamiento", func(ctx context.Context) {
			if _, err := s.limpiador.WeeklyStorageReport(ctx); err != nil {
				s.logger.Error("reporte_almacenamiento failed", zap.Error(err))
			}
		}},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			safe.Run(s.logger, job.name, func() {
				job.fn(context.Background())
			})
		}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) logSweep(name string, r ports.SweepReport) {
	s.logger.Info(name+" done",
		zap.Int("checked", r.Revisados),
		zap.Int("removed", r.Eliminados),
		zap.Int("failed", r.Fallidos),
	)
}

// Run blocks until ctx is cancelled, then waits for in-flight jobs.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("starting cleanup scheduler")
	s.cron.Start()

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("cleanup scheduler gracefully stopped")
}
