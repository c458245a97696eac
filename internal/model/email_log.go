// internal/model/email_log.go
package model

import "time"

// EmailLog records one accepted send. Event columns are filled in later by
// the provider webhook and feed the warmup health evaluator.
type EmailLog struct {
	ID           int        `db:"id" json:"id"`
	MessageID    string     `db:"message_id" json:"message_id"`
	CampaignID   int        `db:"campaign_id" json:"campaign_id"`
	RecipientID  int        `db:"recipient_id" json:"recipient_id"`
	Email        string     `db:"email" json:"email"`
	BatchID      string     `db:"batch_id" json:"batch_id"`
	SentAt       time.Time  `db:"sent_at" json:"sent_at"`
	DeliveredAt  *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	OpenedAt     *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	ClickedAt    *time.Time `db:"clicked_at" json:"clicked_at,omitempty"`
	BouncedAt    *time.Time `db:"bounced_at" json:"bounced_at,omitempty"`
	ComplainedAt *time.Time `db:"complained_at" json:"complained_at,omitempty"`
}
