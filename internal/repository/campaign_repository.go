// internal/repository/campaign_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/sendramp/sendramp-backend/internal/errors"
	"github.com/sendramp/sendramp-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	List(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateStatus(ctx context.Context, id int, status string) error
	Schedule(ctx context.Context, id int, at time.Time) error
	StartSending(ctx context.Context, id int) error
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	ListSending(ctx context.Context) ([]model.Campaign, error)
	IncrementSentCount(ctx context.Context, id, n int) error
	MarkCompleted(ctx context.Context, id int) (bool, error)
	Stats(ctx context.Context, id int) (map[string]int, error)
	TryLock(ctx context.Context, id int) (func(), bool, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, status, subject, html_body, text_body,
    COALESCE(preview_text, ''), from_name, from_email, COALESCE(reply_to, ''),
    sent_count, scheduled_at, sending_started_at, completed_at, created_at, updated_at`

// Advisory-lock class for per-campaign dispatch locks. The second key is the
// campaign id, so two overlapping dispatch invocations for the same campaign
// cannot both fetch its pending recipients.
const campaignLockClass = 4217

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.Status, &c.Subject, &c.HTMLBody, &c.TextBody,
		&c.PreviewText, &c.FromName, &c.FromEmail, &c.ReplyTo, &c.SentCount,
		&c.ScheduledAt, &c.SendingStartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	query := `
        INSERT INTO campaigns (name, status, subject, html_body, text_body, preview_text,
                               from_name, from_email, reply_to, scheduled_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		c.Name, c.Status, c.Subject, c.HTMLBody, c.TextBody, c.PreviewText,
		c.FromName, c.FromEmail, c.ReplyTo, c.ScheduledAt, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id=$1`, campaignColumns)
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, err
}

func (r *CampaignRepository) List(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE 1=1`, campaignColumns)
	args := []any{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	countArgs := []any{}
	if status != "" {
		countQuery += " AND status=$1"
		countArgs = append(countArgs, status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, status, id)
	return err
}

// Schedule moves a draft (or re-schedules a scheduled campaign) to the
// scheduled state with the given send time.
func (r *CampaignRepository) Schedule(ctx context.Context, id int, at time.Time) error {
	query := `
        UPDATE campaigns
        SET status=$1, scheduled_at=$2, updated_at=NOW()
        WHERE id=$3 AND status IN ($4, $1)
    `
	res, err := r.DB.ExecContext(ctx, query, model.CampaignStatusScheduled, at, id, model.CampaignStatusDraft)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %d cannot be scheduled from its current status", id)
	}
	return nil
}

// StartSending is the immediate "send now" transition. A paused campaign
// resumes without losing its original sending_started_at, which keeps its
// FIFO position.
func (r *CampaignRepository) StartSending(ctx context.Context, id int) error {
	query := `
        UPDATE campaigns
        SET status=$1,
            sending_started_at = COALESCE(sending_started_at, NOW()),
            updated_at = NOW()
        WHERE id=$2 AND status IN ($3, $4, $5)
    `
	res, err := r.DB.ExecContext(ctx, query, model.CampaignStatusSending, id,
		model.CampaignStatusDraft, model.CampaignStatusScheduled, model.CampaignStatusPaused)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %d cannot start sending from its current status", id)
	}
	return nil
}

// PromoteDue flips every scheduled campaign whose send time has arrived to
// sending, stamping sending_started_at once. Returns how many were promoted.
func (r *CampaignRepository) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	query := `
        UPDATE campaigns
        SET status=$1, sending_started_at=$2, updated_at=NOW()
        WHERE status=$3 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
    `
	res, err := r.DB.ExecContext(ctx, query, model.CampaignStatusSending, now, model.CampaignStatusScheduled)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ListSending returns sending campaigns ordered oldest-first by
// sending_started_at, which is the FIFO order the scheduler relies on.
func (r *CampaignRepository) ListSending(ctx context.Context) ([]model.Campaign, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM campaigns
        WHERE status=$1
        ORDER BY sending_started_at ASC NULLS LAST, id ASC
    `, campaignColumns)
	rows, err := r.DB.QueryContext(ctx, query, model.CampaignStatusSending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) IncrementSentCount(ctx context.Context, id, n int) error {
	query := `UPDATE campaigns SET sent_count = sent_count + $1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, n, id)
	return err
}

// MarkCompleted transitions sending -> completed and stamps completed_at.
// The status guard makes it idempotent: only the first call wins.
func (r *CampaignRepository) MarkCompleted(ctx context.Context, id int) (bool, error) {
	query := `
        UPDATE campaigns
        SET status=$1, completed_at=NOW(), updated_at=NOW()
        WHERE id=$2 AND status=$3
    `
	res, err := r.DB.ExecContext(ctx, query, model.CampaignStatusCompleted, id, model.CampaignStatusSending)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *CampaignRepository) Stats(ctx context.Context, id int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM campaign_recipients WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"total": 0, "pending": 0, "sent": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}
	return stats, rows.Err()
}

// TryLock takes the per-campaign advisory lock on a dedicated connection.
// When the lock is busy another invocation is already dispatching this
// campaign; the caller skips the batch instead of double-fetching.
func (r *CampaignRepository) TryLock(ctx context.Context, id int) (func(), bool, error) {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return nil, false, err
	}

	var acquired bool
	err = conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1, $2)`, campaignLockClass, id).Scan(&acquired)
	if err != nil || !acquired {
		conn.Close()
		return nil, false, err
	}

	unlock := func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1, $2)`, campaignLockClass, id)
		conn.Close()
	}
	return unlock, true, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
