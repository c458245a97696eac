// internal/warmup/health.go
package warmup

import (
	"context"
	"time"

	"github.com/sendramp/sendramp-backend/internal/repository"
)

// Health classifications for the trailing delivery window.
const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
	HealthUnknown  = "unknown"
)

// Progression thresholds. These are advisory: they gate nothing by
// themselves, operators see them and decide whether to advance the day.
const (
	OpenRateFloor     = 0.15
	BounceRateCeiling = 0.03
	SpamRateCeiling   = 0.001
)

// Metrics summarizes delivery health over the evaluator's window.
type Metrics struct {
	Sent       int     `json:"sent"`
	Delivered  int     `json:"delivered"`
	Opened     int     `json:"opened"`
	Clicked    int     `json:"clicked"`
	Bounced    int     `json:"bounced"`
	Complained int     `json:"complained"`
	OpenRate   float64 `json:"open_rate"`
	ClickRate  float64 `json:"click_rate"`
	BounceRate float64 `json:"bounce_rate"`
	SpamRate   float64 `json:"spam_rate"`
	Health     string  `json:"health"`
	CanAdvance bool    `json:"can_advance"`
}

// HealthEvaluator derives delivery metrics from email_logs over a trailing
// window (48h by default).
type HealthEvaluator struct {
	Logs   repository.EmailLogRepositoryInterface
	Window time.Duration
}

func NewHealthEvaluator(logs repository.EmailLogRepositoryInterface) *HealthEvaluator {
	return &HealthEvaluator{Logs: logs, Window: 48 * time.Hour}
}

func (h *HealthEvaluator) Evaluate(ctx context.Context) (*Metrics, error) {
	counts, err := h.Logs.CountsSince(ctx, time.Now().Add(-h.Window))
	if err != nil {
		return nil, err
	}
	return Classify(counts), nil
}

// Classify turns raw window counters into rates and a health verdict.
func Classify(c *repository.HealthCounts) *Metrics {
	m := &Metrics{
		Sent:       c.Sent,
		Delivered:  c.Delivered,
		Opened:     c.Opened,
		Clicked:    c.Clicked,
		Bounced:    c.Bounced,
		Complained: c.Complained,
	}

	if m.Sent == 0 {
		m.Health = HealthUnknown
		return m
	}

	sent := float64(m.Sent)
	m.OpenRate = float64(m.Opened) / sent
	m.ClickRate = float64(m.Clicked) / sent
	m.BounceRate = float64(m.Bounced) / sent
	m.SpamRate = float64(m.Complained) / sent

	switch {
	case m.BounceRate > 2*BounceRateCeiling || m.SpamRate > 2*SpamRateCeiling:
		m.Health = HealthCritical
	case m.BounceRate > BounceRateCeiling || m.SpamRate > SpamRateCeiling:
		m.Health = HealthWarning
	default:
		m.Health = HealthHealthy
	}

	m.CanAdvance = m.OpenRate >= OpenRateFloor &&
		m.BounceRate <= BounceRateCeiling &&
		m.SpamRate <= SpamRateCeiling
	return m
}
