// internal/repository/contact_repository.go
package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/sendramp/sendramp-backend/internal/model"
)

type ContactRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*model.Contact, error)
	TiersByEmail(ctx context.Context, emails []string) (map[string]string, error)
	Suppress(ctx context.Context, email, reason string) error
}

type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, email, first_name, last_name, engagement_tier,
    status, marketing_status, COALESCE(suppression_reason, '')`

// GetByEmail fetches a contact by email, nil if none exists.
func (r *ContactRepository) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE email=$1`
	var c model.Contact
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.EngagementTier,
		&c.Status, &c.MarketingStatus, &c.SuppressionReason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// TiersByEmail maps each known email to its engagement tier. Emails with no
// contact row are simply absent from the map; the router defaults them.
func (r *ContactRepository) TiersByEmail(ctx context.Context, emails []string) (map[string]string, error) {
	tiers := map[string]string{}
	if len(emails) == 0 {
		return tiers, nil
	}

	query := `SELECT email, engagement_tier FROM contacts WHERE email = ANY($1)`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(emails))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email, tier string
		if err := rows.Scan(&email, &tier); err != nil {
			return nil, err
		}
		tiers[email] = tier
	}
	return tiers, rows.Err()
}

// Suppress removes a contact from the marketing pool. Used by the spam
// complaint webhook; batch-time suppression goes through RecordBatch.
func (r *ContactRepository) Suppress(ctx context.Context, email, reason string) error {
	query := `
        UPDATE contacts
        SET marketing_status=$1, suppression_reason=$2
        WHERE email=$3
    `
	_, err := r.DB.ExecContext(ctx, query, model.MarketingStatusSuppressed, reason, email)
	return err
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
