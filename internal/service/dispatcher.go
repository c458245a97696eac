// internal/service/dispatcher.go
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sendramp/sendramp-backend/internal/config"
	"github.com/sendramp/sendramp-backend/internal/model"
	"github.com/sendramp/sendramp-backend/internal/postmark"
	"github.com/sendramp/sendramp-backend/internal/repository"
)

// BatchSender is the provider boundary the dispatcher depends on.
type BatchSender interface {
	SendBatch(ctx context.Context, messages []postmark.Message) ([]postmark.Result, error)
}

// DispatchResult is the aggregate outcome of one batch.
type DispatchResult struct {
	Sent   int
	Failed int
	Errors []string
}

// BatchDispatcher turns a routed recipient batch into one provider API call
// and reconciles the per-recipient results into the data store.
type BatchDispatcher struct {
	Client     BatchSender
	Recipients repository.RecipientRepositoryInterface
	Cfg        *config.Config
}

// SendBatch renders and submits one batch for a campaign. Per-recipient
// failures never surface as an error: they are recorded on the recipient
// rows and counted in the result. A whole-call failure (non-2xx, network
// error, timeout) marks every recipient in the batch failed and is likewise
// folded into the result.
func (d *BatchDispatcher) SendBatch(ctx context.Context, campaign *model.Campaign, recipients []model.CampaignRecipient) (*DispatchResult, error) {
	result := &DispatchResult{}
	if len(recipients) == 0 {
		return result, nil
	}

	batchID := uuid.NewString()
	messages := make([]postmark.Message, 0, len(recipients))
	for _, rec := range recipients {
		messages = append(messages, d.buildMessage(campaign, rec, batchID))
	}

	results, err := d.Client.SendBatch(ctx, messages)
	if err != nil {
		// Whole-call failure: no partial success is assumed.
		log.Printf("batch %s for campaign %d failed: %v", batchID, campaign.ID, err)
		ids := make([]int, len(recipients))
		for i, rec := range recipients {
			ids[i] = rec.ID
		}
		if markErr := d.Recipients.MarkBatchFailed(ctx, ids, err.Error()); markErr != nil {
			return nil, markErr
		}
		result.Failed = len(recipients)
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	outcomes := make([]repository.RecipientOutcome, 0, len(results))
	for i, res := range results {
		rec := recipients[i]
		if res.Accepted() {
			sentAt := res.SubmittedAt
			if sentAt.IsZero() {
				sentAt = time.Now()
			}
			outcomes = append(outcomes, repository.RecipientOutcome{
				RecipientID: rec.ID,
				Email:       rec.Email,
				Status:      model.RecipientStatusSent,
				MessageID:   res.MessageID,
				SentAt:      sentAt,
			})
			result.Sent++
			continue
		}

		outcome := repository.RecipientOutcome{
			RecipientID: rec.ID,
			Email:       rec.Email,
			Status:      model.RecipientStatusFailed,
			Error:       res.Message,
		}
		switch res.ErrorCode {
		case postmark.CodeInactiveRecipient:
			outcome.Action = repository.ContactActionSuppress
		case postmark.CodeInvalidEmail:
			outcome.Action = repository.ContactActionMarkBounced
		}
		outcomes = append(outcomes, outcome)
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", rec.Email, res.Message))
	}

	if err := d.Recipients.RecordBatch(ctx, campaign.ID, batchID, outcomes); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *BatchDispatcher) buildMessage(campaign *model.Campaign, rec model.CampaignRecipient, batchID string) postmark.Message {
	fromName := campaign.FromName
	if fromName == "" {
		fromName = d.Cfg.FromName
	}
	fromEmail := campaign.FromEmail
	if fromEmail == "" {
		fromEmail = d.Cfg.FromEmail
	}
	replyTo := campaign.ReplyTo
	if replyTo == "" {
		replyTo = d.Cfg.ReplyTo
	}

	subject := RenderTemplate(campaign.Subject, rec.Variables, false)
	htmlBody := RenderTemplate(campaign.HTMLBody, rec.Variables, true)
	textBody := RenderTemplate(campaign.TextBody, rec.Variables, false)

	if campaign.PreviewText != "" {
		htmlBody = injectPreviewText(htmlBody, campaign.PreviewText)
	}
	unsubscribeURL := fmt.Sprintf("%s?rid=%d", d.Cfg.UnsubscribeBaseURL, rec.ID)
	htmlBody = injectHTMLFooter(htmlBody, unsubscribeURL, d.Cfg.CompanyName, d.Cfg.CompanyAddress)
	textBody = injectTextFooter(textBody, unsubscribeURL, d.Cfg.CompanyName, d.Cfg.CompanyAddress)

	return postmark.Message{
		From:          fmt.Sprintf("%s <%s>", fromName, fromEmail),
		To:            rec.Email,
		Subject:       subject,
		HTMLBody:      htmlBody,
		TextBody:      textBody,
		ReplyTo:       replyTo,
		MessageStream: d.Cfg.MessageStream,
		TrackOpens:    true,
		TrackLinks:    "HtmlAndText",
		Metadata: map[string]string{
			"campaign_id":  fmt.Sprintf("%d", campaign.ID),
			"recipient_id": fmt.Sprintf("%d", rec.ID),
			"batch_id":     batchID,
		},
	}
}

// injectPreviewText prepends hidden markup so inbox preview panes show the
// configured teaser instead of the first body line.
func injectPreviewText(htmlBody, preview string) string {
	hidden := fmt.Sprintf(
		`<div style="display:none;font-size:1px;color:#ffffff;max-height:0;max-width:0;opacity:0;overflow:hidden;">%s</div>`,
		preview,
	)
	return hidden + htmlBody
}

// hasUnsubscribeMarker guards against double footers on templates that
// already carry their own compliant unsubscribe block.
func hasUnsubscribeMarker(body string) bool {
	return strings.Contains(strings.ToLower(body), "unsubscribe")
}

func injectHTMLFooter(body, unsubscribeURL, companyName, companyAddress string) string {
	if hasUnsubscribeMarker(body) {
		return body
	}
	footer := fmt.Sprintf(
		`<hr style="border:none;border-top:1px solid #e0e0e0;margin:24px 0;">`+
			`<p style="font-size:12px;color:#888888;">%s, %s<br>`+
			`<a href="%s" style="color:#888888;">Unsubscribe</a></p>`,
		companyName, companyAddress, unsubscribeURL,
	)
	return body + footer
}

func injectTextFooter(body, unsubscribeURL, companyName, companyAddress string) string {
	if body == "" || hasUnsubscribeMarker(body) {
		return body
	}
	return fmt.Sprintf("%s\n\n--\n%s, %s\nUnsubscribe: %s\n", body, companyName, companyAddress, unsubscribeURL)
}
