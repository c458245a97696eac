// internal/repository/email_log_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// HealthCounts are the raw delivery counters over a trailing window.
type HealthCounts struct {
	Sent       int
	Delivered  int
	Opened     int
	Clicked    int
	Bounced    int
	Complained int
}

type EmailLogRepositoryInterface interface {
	CountsSince(ctx context.Context, since time.Time) (*HealthCounts, error)
	MarkEvent(ctx context.Context, messageID, event string, at time.Time) error
}

type EmailLogRepository struct {
	DB *sql.DB
}

// Delivery events the provider webhook reports.
const (
	EventDelivered  = "delivered"
	EventOpened     = "opened"
	EventClicked    = "clicked"
	EventBounced    = "bounced"
	EventComplained = "complained"
)

var eventColumns = map[string]string{
	EventDelivered:  "delivered_at",
	EventOpened:     "opened_at",
	EventClicked:    "clicked_at",
	EventBounced:    "bounced_at",
	EventComplained: "complained_at",
}

func (r *EmailLogRepository) CountsSince(ctx context.Context, since time.Time) (*HealthCounts, error) {
	query := `
        SELECT COUNT(*),
               COUNT(delivered_at),
               COUNT(opened_at),
               COUNT(clicked_at),
               COUNT(bounced_at),
               COUNT(complained_at)
        FROM email_logs
        WHERE sent_at >= $1
    `
	var c HealthCounts
	err := r.DB.QueryRowContext(ctx, query, since).Scan(
		&c.Sent, &c.Delivered, &c.Opened, &c.Clicked, &c.Bounced, &c.Complained,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// MarkEvent stamps a delivery event onto the log row for a message. The
// first report wins; repeated webhook deliveries do not move the timestamp.
func (r *EmailLogRepository) MarkEvent(ctx context.Context, messageID, event string, at time.Time) error {
	column, ok := eventColumns[event]
	if !ok {
		return fmt.Errorf("unknown delivery event: %s", event)
	}
	query := fmt.Sprintf(`UPDATE email_logs SET %s = $1 WHERE message_id = $2 AND %s IS NULL`, column, column)
	_, err := r.DB.ExecContext(ctx, query, at, messageID)
	return err
}

var _ EmailLogRepositoryInterface = (*EmailLogRepository)(nil)
