// Package jobs runs the scheduled background work of the back office.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"SisContratacoes/internal/clock"
	"SisContratacoes/internal/config"
	"SisContratacoes/internal/logger"
	"SisContratacoes/internal/serviceiface"
)

// Recorder persists one status snapshot for the given day.
type Recorder interface {
	Record(ctx context.Context, day time.Time) (*Snapshot, error)
}

type CronService struct {
	config   map[string]interface{}
	recorder Recorder
	clock    clock.Clock
	loc      *time.Location
	schedule string
	cron     *cron.Cron
}

// NewCronService schedules the plan status snapshot. services.yaml may
// override the schedule with "snapshot_schedule" and request an immediate run
// with "run_on_start".
func NewCronService(cfg map[string]interface{}, pool *pgxpool.Pool, clk clock.Clock, app *config.Config) serviceiface.Service {
	var loc *time.Location
	schedule := ""
	if app != nil {
		loc, schedule = app.Location, app.SnapshotSchedule
	}
	if clk == nil {
		clk = clock.New(loc)
	}
	return newCronService(cfg, NewPgRecorder(pool), clk, loc, schedule)
}

func newCronService(cfg map[string]interface{}, rec Recorder, clk clock.Clock, loc *time.Location, schedule string) *CronService {
	if s, ok := cfg["snapshot_schedule"].(string); ok && s != "" {
		schedule = s
	}
	if schedule == "" {
		schedule = config.DefaultSnapshotSchedule
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CronService{config: cfg, recorder: rec, clock: clk, loc: loc, schedule: schedule}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.schedule, s.runSnapshot); err != nil {
		return fmt.Errorf("unable to schedule status snapshot: %w", err)
	}
	c.Start()
	s.cron = c
	logger.Audit("status snapshot scheduled (%s, %s)", s.schedule, s.loc)

	if run, _ := s.config["run_on_start"].(bool); run {
		go s.runSnapshot()
	}
	return nil
}

// Stop waits for a running snapshot to finish.
func (s *CronService) Stop() error {
	if s.cron == nil {
		return nil
	}
	<-s.cron.Stop().Done()
	return nil
}

func (s *CronService) runSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	day := s.clock.Today()
	snap, err := s.recorder.Record(ctx, day)
	if err != nil {
		log.Error().Err(err).Time("day", day).Msg("status snapshot failed")
		logger.Audit("status snapshot for %s failed: %v", day.Format("2006-01-02"), err)
		return
	}
	log.Info().
		Time("day", day).
		Int("total", snap.Total).
		Int("atrasadas", snap.Atrasadas).
		Int("vencidas", snap.Vencidas).
		Msg("status snapshot recorded")
}
