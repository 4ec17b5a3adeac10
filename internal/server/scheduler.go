package server

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// startScheduler starts periodic rebuilds when server.rebuild_interval is set. It returns a
// nil scheduler otherwise.
func (s *Server) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	raw := s.cfg.Server.RebuildInterval
	if raw == "" {
		return nil, nil
	}
	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		return nil, derrors.ConfigError("server.rebuild_interval must be a positive duration").
			WithContext("value", raw).UserAction().Build()
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRuntime, "create scheduler").Build()
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			s.logger.Info("Scheduled rebuild")
			_ = s.Rebuild(ctx)
		}),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, derrors.WrapError(err, derrors.CategoryRuntime, "schedule periodic rebuild").Build()
	}
	sched.Start()
	s.logger.Info("Periodic rebuilds scheduled", logfields.DurationMS(float64(interval.Milliseconds())))
	return sched, nil
}
