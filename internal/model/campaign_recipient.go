// internal/model/campaign_recipient.go
package model

import "time"

// Recipient statuses. Transitions are monotonic: pending -> sent or
// pending -> failed, never back.
const (
	RecipientStatusPending = "pending"
	RecipientStatusSent    = "sent"
	RecipientStatusFailed  = "failed"
)

type CampaignRecipient struct {
	ID         int               `db:"id" json:"id"`
	CampaignID int               `db:"campaign_id" json:"campaign_id"`
	Email      string            `db:"email" json:"email"`
	Variables  map[string]string `db:"variables" json:"variables,omitempty"`
	Status     string            `db:"status" json:"status"`
	MessageID  string            `db:"message_id" json:"message_id,omitempty"`
	SentAt     *time.Time        `db:"sent_at" json:"sent_at,omitempty"`
	LastError  string            `db:"last_error" json:"last_error,omitempty"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time        `db:"updated_at" json:"updated_at,omitempty"`
}
