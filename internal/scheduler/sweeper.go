// Package scheduler runs the periodic job that expires idle job views.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ExpireFunc expires every session idle at now and returns how many
// messages it updated.
type ExpireFunc func(ctx context.Context, now time.Time) int

// Sweeper wraps robfig/cron and runs ExpireFunc on a fixed spec.
type Sweeper struct {
	cron   *cron.Cron
	expire ExpireFunc
	spec   string // cron spec, e.g. "@every 30s"
	logger zerolog.Logger
}

func NewSweeper(spec string, expire ExpireFunc, logger zerolog.Logger) *Sweeper {
	logger = logger.With().Str("component", "sweeper").Logger()
	cl := cronLogger{logger: logger}

	return &Sweeper{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		expire: expire,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the sweep and starts the scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.Sweep(ctx, time.Now())
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Msg("sweeper started")
	return nil
}

// Sweep runs one expiry pass.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) int {
	n := s.expire(ctx, now)
	if n > 0 {
		s.logger.Debug().Int("expired", n).Msg("disabled idle job views")
	}
	return n
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("sweeper stopped")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
