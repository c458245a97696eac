// internal/model/warmup.go
package model

import "time"

// Warmup statuses. cooling_down and cold are driven by an external
// reputation monitor; the controller here never enters them itself.
const (
	WarmupStatusNotStarted  = "not_started"
	WarmupStatusWarmingUp   = "warming_up"
	WarmupStatusPaused      = "paused"
	WarmupStatusWarmed      = "warmed"
	WarmupStatusCoolingDown = "cooling_down"
	WarmupStatusCold        = "cold"
)

// WarmupConfig is the singleton state row for the sending identity.
type WarmupConfig struct {
	ID          int        `db:"id" json:"id"`
	Status      string     `db:"status" json:"status"`
	CurrentDay  int        `db:"current_day" json:"current_day"`
	SentToday   int        `db:"sent_today" json:"sent_today"`
	LastSentAt  *time.Time `db:"last_sent_at" json:"last_sent_at,omitempty"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	PausedAt    *time.Time `db:"paused_at" json:"paused_at,omitempty"`
	PauseReason string     `db:"pause_reason" json:"pause_reason,omitempty"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// WarmupLog is an append-only row written every time a warmup day is
// advanced, summarizing the day just completed.
type WarmupLog struct {
	ID         int       `db:"id" json:"id"`
	Day        int       `db:"day" json:"day"`
	Phase      string    `db:"phase" json:"phase"`
	DailyLimit int       `db:"daily_limit" json:"daily_limit"`
	ActualSent int       `db:"actual_sent" json:"actual_sent"`
	OpenRate   float64   `db:"open_rate" json:"open_rate"`
	BounceRate float64   `db:"bounce_rate" json:"bounce_rate"`
	SpamRate   float64   `db:"spam_rate" json:"spam_rate"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
