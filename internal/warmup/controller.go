// internal/warmup/controller.go
package warmup

import (
	"context"
	"time"

	appErrors "github.com/sendramp/sendramp-backend/internal/errors"
	"github.com/sendramp/sendramp-backend/internal/model"
	"github.com/sendramp/sendramp-backend/internal/repository"
)

// MetricsSource is what the controller needs from the health evaluator.
type MetricsSource interface {
	Evaluate(ctx context.Context) (*Metrics, error)
}

// Controller owns the warmup state machine. Every operation loads the
// persisted state fresh and writes it back; nothing warmup-related lives in
// process memory between calls.
type Controller struct {
	Repo   repository.WarmupRepositoryInterface
	Health MetricsSource

	now func() time.Time
}

func NewController(repo repository.WarmupRepositoryInterface, health MetricsSource) *Controller {
	return &Controller{Repo: repo, Health: health, now: time.Now}
}

// Start begins the warmup on day 1. Valid only from not_started.
func (c *Controller) Start(ctx context.Context) error {
	cfg, err := c.Repo.Get(ctx)
	if err != nil {
		return err
	}
	if cfg.Status != model.WarmupStatusNotStarted {
		return appErrors.NewInvalidState(cfg.Status, "start")
	}

	now := c.now()
	cfg.Status = model.WarmupStatusWarmingUp
	cfg.CurrentDay = 1
	cfg.SentToday = 0
	cfg.StartedAt = &now
	return c.Repo.Update(ctx, cfg)
}

// Pause halts sending under warmup quota rules. Valid only while warming up.
func (c *Controller) Pause(ctx context.Context, reason string) error {
	cfg, err := c.Repo.Get(ctx)
	if err != nil {
		return err
	}
	if cfg.Status != model.WarmupStatusWarmingUp {
		return appErrors.NewInvalidState(cfg.Status, "pause")
	}

	now := c.now()
	cfg.Status = model.WarmupStatusPaused
	cfg.PausedAt = &now
	cfg.PauseReason = reason
	return c.Repo.Update(ctx, cfg)
}

// Resume returns a paused warmup to warming_up, keeping the current day and
// today's counter intact.
func (c *Controller) Resume(ctx context.Context) error {
	cfg, err := c.Repo.Get(ctx)
	if err != nil {
		return err
	}
	if cfg.Status != model.WarmupStatusPaused {
		return appErrors.NewInvalidState(cfg.Status, "resume")
	}

	cfg.Status = model.WarmupStatusWarmingUp
	cfg.PausedAt = nil
	cfg.PauseReason = ""
	return c.Repo.Update(ctx, cfg)
}

// AdvanceDay closes out the current warmup day: it writes a WarmupLog row
// summarizing the day from the health evaluator's window, then moves to the
// next day (or to targetDay when the operator overrides, bypassing health
// gating). Past the last schedule day the identity becomes warmed.
// sent_today resets on every transition.
func (c *Controller) AdvanceDay(ctx context.Context, targetDay *int) (*model.WarmupConfig, error) {
	cfg, err := c.Repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Status != model.WarmupStatusWarmingUp {
		return nil, appErrors.NewInvalidState(cfg.Status, "advance day")
	}

	metrics, err := c.Health.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	entry := ScheduleFor(cfg.CurrentDay)
	if err := c.Repo.InsertLog(ctx, &model.WarmupLog{
		Day:        cfg.CurrentDay,
		Phase:      entry.Phase,
		DailyLimit: entry.DailyLimit,
		ActualSent: cfg.SentToday,
		OpenRate:   metrics.OpenRate,
		BounceRate: metrics.BounceRate,
		SpamRate:   metrics.SpamRate,
	}); err != nil {
		return nil, err
	}

	if targetDay != nil {
		day := *targetDay
		if day < 1 {
			day = 1
		}
		if day > MaxDay() {
			cfg.CurrentDay = MaxDay()
			cfg.Status = model.WarmupStatusWarmed
		} else {
			cfg.CurrentDay = day
		}
	} else {
		cfg.CurrentDay++
		if cfg.CurrentDay > MaxDay() {
			cfg.Status = model.WarmupStatusWarmed
		}
	}

	cfg.SentToday = 0
	if err := c.Repo.Update(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RemainingToday returns how many messages may still go out under today's
// quota, or Unlimited when no quota applies (not warming up, or an
// uncapped schedule day).
func (c *Controller) RemainingToday(ctx context.Context) (int, error) {
	cfg, err := c.Repo.Get(ctx)
	if err != nil {
		return 0, err
	}
	if cfg.Status != model.WarmupStatusWarmingUp {
		return Unlimited, nil
	}

	entry := ScheduleFor(cfg.CurrentDay)
	if entry.DailyLimit == Unlimited {
		return Unlimited, nil
	}

	remaining := entry.DailyLimit - cfg.SentToday
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// RecordSent adds n accepted sends to today's counter. The increment happens
// in the database so concurrent dispatchers never lose counts.
func (c *Controller) RecordSent(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	return c.Repo.IncrementSentToday(ctx, n)
}

// AllowedTiers returns the engagement tiers that may be mailed right now:
// the current schedule day's tiers while warming up, every tier otherwise.
func (c *Controller) AllowedTiers(ctx context.Context) ([]string, error) {
	cfg, err := c.Repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Status != model.WarmupStatusWarmingUp {
		return model.AllTiers, nil
	}
	return ScheduleFor(cfg.CurrentDay).AllowedTiers, nil
}

// Active reports whether warmup quota and tier rules currently apply.
func (c *Controller) Active(ctx context.Context) (bool, error) {
	cfg, err := c.Repo.Get(ctx)
	if err != nil {
		return false, err
	}
	return cfg.Status == model.WarmupStatusWarmingUp, nil
}

// Progress is the admin-facing view of the warmup.
type Progress struct {
	Config   *model.WarmupConfig `json:"config"`
	Day      ScheduleEntry       `json:"day"`
	Metrics  *Metrics            `json:"metrics"`
	Recent   []model.WarmupLog   `json:"recent_logs"`
	TotalDay int                 `json:"total_days"`
}

// Status assembles the current state, schedule position, health metrics and
// recent day logs for the admin surface.
func (c *Controller) Status(ctx context.Context) (*Progress, error) {
	cfg, err := c.Repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	metrics, err := c.Health.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	logs, err := c.Repo.Logs(ctx, 14)
	if err != nil {
		return nil, err
	}

	return &Progress{
		Config:   cfg,
		Day:      ScheduleFor(cfg.CurrentDay),
		Metrics:  metrics,
		Recent:   logs,
		TotalDay: MaxDay(),
	}, nil
}
