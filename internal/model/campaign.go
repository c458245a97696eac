// internal/model/campaign.go
package model

import "time"

// Campaign statuses. A campaign is created as a draft, becomes scheduled
// once it has a scheduled_at, and moves scheduled -> sending -> completed.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSending   = "sending"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
)

type Campaign struct {
	ID               int        `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	Status           string     `db:"status" json:"status"`
	Subject          string     `db:"subject" json:"subject"`
	HTMLBody         string     `db:"html_body" json:"html_body"`
	TextBody         string     `db:"text_body" json:"text_body"`
	PreviewText      string     `db:"preview_text" json:"preview_text,omitempty"`
	FromName         string     `db:"from_name" json:"from_name"`
	FromEmail        string     `db:"from_email" json:"from_email"`
	ReplyTo          string     `db:"reply_to" json:"reply_to,omitempty"`
	SentCount        int        `db:"sent_count" json:"sent_count"`
	ScheduledAt      *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	SendingStartedAt *time.Time `db:"sending_started_at" json:"sending_started_at,omitempty"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
