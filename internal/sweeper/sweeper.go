package sweeper

import (
	"context"
	"time"

	"github.com/tradesim/settlement/internal/config"
	"github.com/tradesim/settlement/internal/logger"
	"github.com/tradesim/settlement/internal/model"
)

type Engine interface {
	EvaluateAllPending(ctx context.Context) model.SweepReport
	Cleanup(ctx context.Context) model.CleanupReport
}

// Sweeper periodically drives the settlement engine: a sweep every
// interval and a cleanup pass on the longer cleanup interval. One pass
// runs at a time; external triggers through the HTTP surface are
// independent of this loop.
type Sweeper struct {
	engine Engine
	cfg    config.SweepConfig

	logger logger.Logger
}

func NewSweeper(engine Engine, cfg config.SweepConfig, logger logger.Logger) *Sweeper {
	return &Sweeper{
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	sweep := time.NewTicker(s.cfg.Interval)
	defer sweep.Stop()
	cleanup := time.NewTicker(s.cfg.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			report := s.engine.EvaluateAllPending(ctx)
			if report.Processed > 0 || len(report.Errors) > 0 {
				s.logger.Infof("sweep: processed=%d executed=%d expired=%d cancelled=%d errors=%d",
					report.Processed, report.Executed, report.Expired, report.Cancelled, len(report.Errors))
			}
		case <-cleanup.C:
			report := s.engine.Cleanup(ctx)
			if report.Expired > 0 || report.Cancelled > 0 || len(report.Errors) > 0 {
				s.logger.Infof("cleanup: expired=%d cancelled=%d errors=%d",
					report.Expired, report.Cancelled, len(report.Errors))
			}
		}
	}
}
