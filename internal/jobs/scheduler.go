package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"platewatch/internal/archive"
)

// Scheduler runs the periodic archive sync. When no archiver is configured it
// is inert.
type Scheduler struct {
	cron     *cron.Cron
	archiver *archive.Archiver
	schedule string
	log      zerolog.Logger
}

func NewScheduler(archiver *archive.Archiver, schedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		archiver: archiver,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.archiver == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runArchiveSync); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("archive scheduler started")
	return nil
}

// Stop halts scheduling and waits briefly for a running sync to finish.
func (s *Scheduler) Stop() {
	if s.archiver == nil {
		return
	}
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("archive sync still running at shutdown")
	}
}

func (s *Scheduler) runArchiveSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	if err := s.archiver.Sync(ctx); err != nil {
		s.log.Error().Err(err).Msg("archive sync failed")
	}
}
