package service

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionSweeperStore is the part of the session store the sweeper uses.
type SessionSweeperStore interface {
	SweepExpired(ctx context.Context) (int, error)
}

// SessionSweeper periodically deletes expired and invalidated sessions.
type SessionSweeper struct {
	store    SessionSweeperStore
	interval time.Duration
	logger   *slog.Logger

	swept  prometheus.Counter
	errors prometheus.Counter
}

// NewSessionSweeper creates a sweeper. A nil reg disables its metrics.
func NewSessionSweeper(store SessionSweeperStore, interval time.Duration, logger *slog.Logger, reg prometheus.Registerer) *SessionSweeper {
	s := &SessionSweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessions_swept_total",
			Help: "Total number of expired or invalidated sessions deleted by the sweeper.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_sweep_errors_total",
			Help: "Total number of failed session sweeps.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.swept, s.errors)
	}
	return s
}

// Run sweeps every interval until ctx is cancelled.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "session sweeper started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "session sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs one sweep. Failures and panics are logged and counted,
// never returned, so the next tick still runs.
func (s *SessionSweeper) SweepOnce(ctx context.Context) (swept int) {
	defer func() {
		if rec := recover(); rec != nil {
			s.errors.Inc()
			s.logger.ErrorContext(ctx, "session sweep panicked",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			swept = 0
		}
	}()

	start := time.Now()
	n, err := s.store.SweepExpired(ctx)
	if err != nil {
		s.errors.Inc()
		s.logger.ErrorContext(ctx, "session sweep failed", slog.String("error", err.Error()))
		return 0
	}

	s.swept.Add(float64(n))
	s.logger.InfoContext(ctx, "session sweep completed",
		slog.Int("deleted", n),
		slog.Duration("duration", time.Since(start)),
	)
	return n
}
