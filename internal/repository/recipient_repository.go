// internal/repository/recipient_repository.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/sendramp/sendramp-backend/internal/model"
)

// ContactAction is the suppression side effect a provider result code maps to.
type ContactAction int

const (
	ContactActionNone ContactAction = iota
	// ContactActionSuppress: hard bounce, contact leaves the marketing pool.
	ContactActionSuppress
	// ContactActionMarkBounced: invalid address, contact flagged bounced.
	ContactActionMarkBounced
)

// RecipientOutcome is one recipient's reconciled result for a batch.
type RecipientOutcome struct {
	RecipientID int
	Email       string
	Status      string // sent or failed
	MessageID   string
	SentAt      time.Time
	Error       string
	Action      ContactAction
}

type RecipientRepositoryInterface interface {
	CreateBatch(ctx context.Context, campaignID int, recipients []model.CampaignRecipient) (int, error)
	GetPending(ctx context.Context, campaignID, limit int) ([]model.CampaignRecipient, error)
	CountPending(ctx context.Context, campaignID int) (int, error)
	RecordBatch(ctx context.Context, campaignID int, batchID string, outcomes []RecipientOutcome) error
	MarkBatchFailed(ctx context.Context, ids []int, errMsg string) error
}

type RecipientRepository struct {
	DB *sql.DB
}

// CreateBatch inserts recipients for a campaign, skipping emails that are
// already on it. Returns how many rows were actually inserted.
func (r *RecipientRepository) CreateBatch(ctx context.Context, campaignID int, recipients []model.CampaignRecipient) (int, error) {
	if len(recipients) == 0 {
		return 0, nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO campaign_recipients (campaign_id, email, variables, status, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (campaign_id, email) DO NOTHING
    `
	inserted := 0
	for _, rec := range recipients {
		vars, err := json.Marshal(rec.Variables)
		if err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, query, campaignID, rec.Email, vars, model.RecipientStatusPending)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *RecipientRepository) GetPending(ctx context.Context, campaignID, limit int) ([]model.CampaignRecipient, error) {
	query := `
        SELECT id, campaign_id, email, variables, status,
               COALESCE(message_id, ''), sent_at, COALESCE(last_error, ''), created_at, updated_at
        FROM campaign_recipients
        WHERE campaign_id=$1 AND status=$2
        ORDER BY id ASC
        LIMIT $3
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID, model.RecipientStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.CampaignRecipient{}
	for rows.Next() {
		var rec model.CampaignRecipient
		var vars []byte
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.Email, &vars, &rec.Status,
			&rec.MessageID, &rec.SentAt, &rec.LastError, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if len(vars) > 0 {
			if err := json.Unmarshal(vars, &rec.Variables); err != nil {
				return nil, err
			}
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *RecipientRepository) CountPending(ctx context.Context, campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id=$1 AND status=$2`,
		campaignID, model.RecipientStatusPending,
	).Scan(&count)
	return count, err
}

// RecordBatch applies every per-recipient result of one provider call in a
// single transaction: recipient status transitions, email_log rows for
// accepted sends, and contact suppression side effects. A crash mid-batch
// therefore never leaves half a batch visible. The status guard on the
// UPDATE keeps transitions monotonic: a row already sent or failed is never
// rewritten.
func (r *RecipientRepository) RecordBatch(ctx context.Context, campaignID int, batchID string, outcomes []RecipientOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, o := range outcomes {
		switch o.Status {
		case model.RecipientStatusSent:
			_, err = tx.ExecContext(ctx, `
                UPDATE campaign_recipients
                SET status=$1, message_id=$2, sent_at=$3, updated_at=NOW()
                WHERE id=$4 AND status=$5
            `, model.RecipientStatusSent, o.MessageID, o.SentAt, o.RecipientID, model.RecipientStatusPending)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
                INSERT INTO email_logs (message_id, campaign_id, recipient_id, email, batch_id, sent_at)
                VALUES ($1, $2, $3, $4, $5, $6)
            `, o.MessageID, campaignID, o.RecipientID, o.Email, batchID, o.SentAt)
			if err != nil {
				return err
			}
		default:
			_, err = tx.ExecContext(ctx, `
                UPDATE campaign_recipients
                SET status=$1, last_error=$2, updated_at=NOW()
                WHERE id=$3 AND status=$4
            `, model.RecipientStatusFailed, o.Error, o.RecipientID, model.RecipientStatusPending)
			if err != nil {
				return err
			}
		}

		switch o.Action {
		case ContactActionSuppress:
			_, err = tx.ExecContext(ctx, `
                UPDATE contacts
                SET marketing_status=$1, suppression_reason=$2
                WHERE email=$3
            `, model.MarketingStatusSuppressed, "hard bounce", o.Email)
		case ContactActionMarkBounced:
			_, err = tx.ExecContext(ctx, `
                UPDATE contacts SET status=$1 WHERE email=$2
            `, model.ContactStatusBounced, o.Email)
		}
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// MarkBatchFailed is the whole-call failure path: every recipient of the
// batch gets the same error in one statement.
func (r *RecipientRepository) MarkBatchFailed(ctx context.Context, ids []int, errMsg string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
        UPDATE campaign_recipients
        SET status=$1, last_error=$2, updated_at=NOW()
        WHERE id = ANY($3) AND status=$4
    `
	_, err := r.DB.ExecContext(ctx, query,
		model.RecipientStatusFailed, errMsg, pq.Array(ids), model.RecipientStatusPending)
	return err
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)
