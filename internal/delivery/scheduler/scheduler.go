// Package scheduler runs the periodic refresh token sweep inside the API process.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"gatehouse/config"
	"gatehouse/internal/delivery"
	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/lifecycle"
	"gatehouse/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	productionInterval  = 24 * time.Hour
	developmentInterval = time.Hour
)

type sweepScheduler struct {
	uc       usecase.AuthUsecase
	logger   *slog.Logger
	interval time.Duration
	enabled  bool

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool
}

// Params holds dependencies for the sweep scheduler, injected by Fx.
type Params struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     *config.Config
	Usecase usecase.AuthUsecase
	Logger  *slog.Logger
}

// NewScheduler creates the sweep scheduler. The interval defaults to 24h in production and 1h otherwise.
func NewScheduler(params Params) (delivery.Delivery, error) {
	s := newSweepScheduler(params.Cfg, params.Usecase, params.Logger)

	params.Lc.Append(fx.Hook{
		OnStop: s.stop,
	})

	return s, nil
}

func newSweepScheduler(cfg *config.Config, uc usecase.AuthUsecase, logger *slog.Logger) *sweepScheduler {
	interval := developmentInterval
	if cfg.IsProduction() {
		interval = productionInterval
	}

	enabled := true
	if cfg.Sweep != nil {
		enabled = cfg.Sweep.Enabled
		if cfg.Sweep.Interval > 0 {
			interval = cfg.Sweep.Interval
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &sweepScheduler{
		uc:       uc,
		logger:   logger.With(slog.String("component", "sweep_scheduler")),
		interval: interval,
		enabled:  enabled,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Serve runs the sweep on every tick until the scheduler is stopped or ctx is done.
func (s *sweepScheduler) Serve(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("sweep scheduler already started")
	}
	defer close(s.done)

	if !s.enabled {
		s.logger.Info("Refresh token sweep disabled")

		return nil
	}

	s.logger.Info("Starting refresh token sweep scheduler", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce sweeps once. Failures are logged and retried on the next tick.
func (s *sweepScheduler) runOnce() {
	requestID := uuid.New().String()
	logger := s.logger.With(slog.String("request_id", requestID))

	ctx, cancel := context.WithTimeout(s.ctx, lifecycle.DefaultTimeout)
	defer cancel()
	ctx = deliverycontext.NewRequestScope(ctx, requestID, logger)

	if _, err := s.uc.SweepExpiredTokens(ctx); err != nil {
		logger.Warn("Scheduled refresh token sweep failed", slog.Any("error", err))
	}
}

func (s *sweepScheduler) stop(ctx context.Context) error {
	s.cancel()
	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for sweep scheduler to stop")
	}
}
