package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/courtside/pickem/internal/models"
	"github.com/courtside/pickem/pkg/database"
)

// JobRunner owns the scheduled background work: a nightly sweep that scores
// every group's picks from the previous day, a morning warm of the day's
// schedule cache, and a periodic refresh of sportsbook lines for today's
// picks when a provider is configured.
type JobRunner struct {
	db        *database.DB
	scorer    *Scorer
	schedule  *ScheduleService
	lines     *LinesService
	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool

	scoreSweepSpec   string
	scheduleWarmSpec string
	lineRefreshSpec  string
	logger           *logrus.Logger
}

func NewJobRunner(db *database.DB, scorer *Scorer, schedule *ScheduleService, lines *LinesService, scoreSweepSpec, scheduleWarmSpec, lineRefreshSpec string, logger *logrus.Logger) *JobRunner {
	return &JobRunner{
		db:               db,
		scorer:           scorer,
		schedule:         schedule,
		lines:            lines,
		cron:             cron.New(),
		scoreSweepSpec:   scoreSweepSpec,
		scheduleWarmSpec: scheduleWarmSpec,
		lineRefreshSpec:  lineRefreshSpec,
		logger:           logger,
	}
}

// Start schedules the jobs and kicks off the cron loop.
func (j *JobRunner) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		return fmt.Errorf("job runner is already running")
	}

	if _, err := j.cron.AddFunc(j.scoreSweepSpec, j.sweepYesterday); err != nil {
		return fmt.Errorf("failed to schedule score sweep: %w", err)
	}
	if _, err := j.cron.AddFunc(j.scheduleWarmSpec, j.warmSchedule); err != nil {
		return fmt.Errorf("failed to schedule warm job: %w", err)
	}
	if j.lines != nil && j.lines.Enabled() {
		if _, err := j.cron.AddFunc(j.lineRefreshSpec, j.refreshLines); err != nil {
			return fmt.Errorf("failed to schedule line refresh: %w", err)
		}
	}

	j.cron.Start()
	j.isRunning = true
	j.logger.Info("Background job runner started")
	return nil
}

// Stop halts the cron loop and waits for in-flight jobs.
func (j *JobRunner) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.isRunning {
		return
	}

	ctx := j.cron.Stop()
	<-ctx.Done()

	j.isRunning = false
	j.logger.Info("Background job runner stopped")
}

// sweepYesterday retries scoring for every group that picked yesterday.
// Picks that still cannot be scored stay picked and are retried on the next
// sweep or on an explicit score-day call.
func (j *JobRunner) sweepYesterday() {
	date := DateOnly(time.Now().UTC().AddDate(0, 0, -1))
	j.logger.Infof("Starting score sweep for %s", date.Format("2006-01-02"))

	var groupIDs []uint
	err := j.db.Model(&models.Pick{}).
		Where("date = ? AND status = ?", date, models.PickStatusPicked).
		Distinct("group_id").
		Pluck("group_id", &groupIDs).Error
	if err != nil {
		j.logger.WithError(err).Error("Score sweep: failed to list groups")
		return
	}

	for _, groupID := range groupIDs {
		if _, err := j.scorer.ScoreDay(context.Background(), groupID, date); err != nil {
			j.logger.WithError(err).Errorf("Score sweep failed for group %d", groupID)
		}
	}
	j.logger.Infof("Score sweep completed for %d groups", len(groupIDs))
}

// refreshLines re-fetches sportsbook lines for every player picked today so
// the projection endpoint serves warm cache rows.
func (j *JobRunner) refreshLines() {
	date := DateOnly(time.Now().UTC())

	var picks []models.Pick
	err := j.db.Model(&models.Pick{}).
		Where("date = ?", date).
		Distinct("player_id", "player_name").
		Find(&picks).Error
	if err != nil {
		j.logger.WithError(err).Error("Line refresh: failed to list picks")
		return
	}

	for _, pick := range picks {
		j.lines.PlayerLines(context.Background(), pick.PlayerID, pick.PlayerName, date)
	}
	j.logger.Debugf("Refreshed sportsbook lines for %d players", len(picks))
}

func (j *JobRunner) warmSchedule() {
	date := DateOnly(time.Now().UTC())
	if _, err := j.schedule.GamesForDate(context.Background(), date); err != nil {
		j.logger.WithError(err).Warn("Schedule warm failed")
		return
	}
	j.logger.Infof("Warmed schedule cache for %s", date.Format("2006-01-02"))
}
