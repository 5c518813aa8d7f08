// Package sweeper runs the periodic expiry pass that force-releases
// reservations whose window elapsed without a confirmed arrival.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smart-parking-engine/internal/pkg/clock"

	"github.com/robfig/cron/v3"
)

// Expirer is implemented by the reservation manager.
type Expirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) int
}

type Sweeper struct {
	cron     *cron.Cron
	expirer  Expirer
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

func New(expirer Expirer, interval time.Duration, clk clock.Clock, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		expirer:  expirer,
		interval: interval,
		clock:    clk,
		logger:   logger,
	}
}

func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, s.sweep)
	if err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("expiry sweep scheduled", slog.Duration("interval", s.interval))
	return nil
}

// Stop waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("expiry sweep stopped")
}

func (s *Sweeper) sweep() {
	released := s.expirer.ExpireOverdue(context.Background(), s.clock.Now())
	if released > 0 {
		s.logger.Info("expiry sweep released overdue slots", slog.Int("released", released))
	}
}
