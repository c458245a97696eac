package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendramp/sendramp-backend/internal/config"
	"github.com/sendramp/sendramp-backend/internal/model"
	"github.com/sendramp/sendramp-backend/internal/postmark"
	"github.com/sendramp/sendramp-backend/internal/repository"
)

type fakeSender struct {
	results  []postmark.Result
	err      error
	messages []postmark.Message
	calls    int
}

func (f *fakeSender) SendBatch(ctx context.Context, messages []postmark.Message) ([]postmark.Result, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeRecipientRepo struct {
	pending       []model.CampaignRecipient
	pendingCount  int
	countQueue    []int
	gotLimit      int
	recordedBatch []repository.RecipientOutcome
	batchID       string
	failedIDs     []int
	failedMsg     string
}

func (f *fakeRecipientRepo) CreateBatch(ctx context.Context, campaignID int, recipients []model.CampaignRecipient) (int, error) {
	return len(recipients), nil
}

func (f *fakeRecipientRepo) GetPending(ctx context.Context, campaignID, limit int) ([]model.CampaignRecipient, error) {
	f.gotLimit = limit
	if limit < len(f.pending) {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeRecipientRepo) CountPending(ctx context.Context, campaignID int) (int, error) {
	if len(f.countQueue) > 0 {
		n := f.countQueue[0]
		f.countQueue = f.countQueue[1:]
		return n, nil
	}
	return f.pendingCount, nil
}

func (f *fakeRecipientRepo) RecordBatch(ctx context.Context, campaignID int, batchID string, outcomes []repository.RecipientOutcome) error {
	f.batchID = batchID
	f.recordedBatch = outcomes
	return nil
}

func (f *fakeRecipientRepo) MarkBatchFailed(ctx context.Context, ids []int, errMsg string) error {
	f.failedIDs = ids
	f.failedMsg = errMsg
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		FromName:           "Sendramp",
		FromEmail:          "hello@sendramp.example",
		ReplyTo:            "reply@sendramp.example",
		MessageStream:      "broadcast",
		CompanyName:        "Sendramp Inc",
		CompanyAddress:     "1 Main St, Springfield",
		UnsubscribeBaseURL: "https://sendramp.example/unsubscribe",
	}
}

func testCampaign() *model.Campaign {
	return &model.Campaign{
		ID:       7,
		Status:   model.CampaignStatusSending,
		Subject:  "Hello {{first_name|there}}",
		HTMLBody: "<p>Hi {{first_name|there}}</p>",
		TextBody: "Hi {{first_name|there}}",
	}
}

func TestSendBatchEmptyIsNoop(t *testing.T) {
	sender := &fakeSender{}
	d := &BatchDispatcher{Client: sender, Recipients: &fakeRecipientRepo{}, Cfg: testConfig()}

	res, err := d.SendBatch(context.Background(), testCampaign(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Sent)
	assert.Zero(t, res.Failed)
	assert.Zero(t, sender.calls)
}

func TestSendBatchWholeCallFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	repo := &fakeRecipientRepo{}
	d := &BatchDispatcher{Client: sender, Recipients: repo, Cfg: testConfig()}

	recipients := []model.CampaignRecipient{
		{ID: 1, Email: "a@x.com"},
		{ID: 2, Email: "b@x.com"},
		{ID: 3, Email: "c@x.com"},
	}
	res, err := d.SendBatch(context.Background(), testCampaign(), recipients)
	require.NoError(t, err)

	assert.Zero(t, res.Sent)
	assert.Equal(t, 3, res.Failed)
	assert.Equal(t, []int{1, 2, 3}, repo.failedIDs)
	assert.Equal(t, "connection refused", repo.failedMsg)
	assert.Empty(t, repo.recordedBatch)
}

func TestSendBatchMixedResults(t *testing.T) {
	now := time.Now()
	sender := &fakeSender{results: []postmark.Result{
		{To: "ok@x.com", MessageID: "msg-1", SubmittedAt: now, ErrorCode: postmark.CodeSuccess},
		{To: "gone@x.com", ErrorCode: postmark.CodeInactiveRecipient, Message: "inactive recipient"},
		{To: "bad@x.com", ErrorCode: postmark.CodeInvalidEmail, Message: "invalid email address"},
	}}
	repo := &fakeRecipientRepo{}
	d := &BatchDispatcher{Client: sender, Recipients: repo, Cfg: testConfig()}

	recipients := []model.CampaignRecipient{
		{ID: 1, Email: "ok@x.com"},
		{ID: 2, Email: "gone@x.com"},
		{ID: 3, Email: "bad@x.com"},
	}
	res, err := d.SendBatch(context.Background(), testCampaign(), recipients)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, res.Errors, 2)
	assert.NotEmpty(t, repo.batchID)
	require.Len(t, repo.recordedBatch, 3)

	sent := repo.recordedBatch[0]
	assert.Equal(t, model.RecipientStatusSent, sent.Status)
	assert.Equal(t, "msg-1", sent.MessageID)
	assert.Equal(t, now, sent.SentAt)
	assert.Equal(t, repository.ContactActionNone, sent.Action)

	suppressed := repo.recordedBatch[1]
	assert.Equal(t, model.RecipientStatusFailed, suppressed.Status)
	assert.Equal(t, repository.ContactActionSuppress, suppressed.Action)
	assert.Equal(t, "inactive recipient", suppressed.Error)

	bounced := repo.recordedBatch[2]
	assert.Equal(t, model.RecipientStatusFailed, bounced.Status)
	assert.Equal(t, repository.ContactActionMarkBounced, bounced.Action)
}

func TestSendBatchRendersPersonalization(t *testing.T) {
	sender := &fakeSender{results: []postmark.Result{{ErrorCode: postmark.CodeSuccess, MessageID: "m"}}}
	d := &BatchDispatcher{Client: sender, Recipients: &fakeRecipientRepo{}, Cfg: testConfig()}

	recipients := []model.CampaignRecipient{
		{ID: 42, Email: "alice@x.com", Variables: map[string]string{"first_name": "Alice"}},
	}
	_, err := d.SendBatch(context.Background(), testCampaign(), recipients)
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, "Sendramp <hello@sendramp.example>", msg.From)
	assert.Equal(t, "alice@x.com", msg.To)
	assert.Equal(t, "Hello Alice", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "<p>Hi Alice</p>")
	assert.Contains(t, msg.TextBody, "Hi Alice")
	assert.Equal(t, "broadcast", msg.MessageStream)
	assert.Equal(t, "7", msg.Metadata["campaign_id"])
	assert.Equal(t, "42", msg.Metadata["recipient_id"])
	assert.NotEmpty(t, msg.Metadata["batch_id"])
}

func TestSendBatchInjectsComplianceFooter(t *testing.T) {
	sender := &fakeSender{results: []postmark.Result{{ErrorCode: postmark.CodeSuccess, MessageID: "m"}}}
	d := &BatchDispatcher{Client: sender, Recipients: &fakeRecipientRepo{}, Cfg: testConfig()}

	recipients := []model.CampaignRecipient{{ID: 9, Email: "a@x.com"}}
	_, err := d.SendBatch(context.Background(), testCampaign(), recipients)
	require.NoError(t, err)

	msg := sender.messages[0]
	assert.Contains(t, msg.HTMLBody, "Unsubscribe")
	assert.Contains(t, msg.HTMLBody, "https://sendramp.example/unsubscribe?rid=9")
	assert.Contains(t, msg.HTMLBody, "Sendramp Inc")
	assert.Contains(t, msg.TextBody, "Unsubscribe: https://sendramp.example/unsubscribe?rid=9")
}

func TestSendBatchSkipsFooterWhenTemplateHasUnsubscribe(t *testing.T) {
	sender := &fakeSender{results: []postmark.Result{{ErrorCode: postmark.CodeSuccess, MessageID: "m"}}}
	d := &BatchDispatcher{Client: sender, Recipients: &fakeRecipientRepo{}, Cfg: testConfig()}

	campaign := testCampaign()
	campaign.HTMLBody = `<p>Hi</p><a href="https://x.com/opt-out">Unsubscribe here</a>`
	campaign.TextBody = "Hi\nUnsubscribe: https://x.com/opt-out"

	_, err := d.SendBatch(context.Background(), campaign, []model.CampaignRecipient{{ID: 1, Email: "a@x.com"}})
	require.NoError(t, err)

	msg := sender.messages[0]
	assert.Equal(t, 1, strings.Count(strings.ToLower(msg.HTMLBody), "unsubscribe"))
	assert.Equal(t, 1, strings.Count(strings.ToLower(msg.TextBody), "unsubscribe"))
}

func TestSendBatchInjectsPreviewText(t *testing.T) {
	sender := &fakeSender{results: []postmark.Result{{ErrorCode: postmark.CodeSuccess, MessageID: "m"}}}
	d := &BatchDispatcher{Client: sender, Recipients: &fakeRecipientRepo{}, Cfg: testConfig()}

	campaign := testCampaign()
	campaign.PreviewText = "A quick teaser"

	_, err := d.SendBatch(context.Background(), campaign, []model.CampaignRecipient{{ID: 1, Email: "a@x.com"}})
	require.NoError(t, err)

	msg := sender.messages[0]
	assert.True(t, strings.HasPrefix(msg.HTMLBody, `<div style="display:none`))
	assert.Contains(t, msg.HTMLBody, "A quick teaser")
}

func TestSendBatchCampaignSenderOverridesConfig(t *testing.T) {
	sender := &fakeSender{results: []postmark.Result{{ErrorCode: postmark.CodeSuccess, MessageID: "m"}}}
	d := &BatchDispatcher{Client: sender, Recipients: &fakeRecipientRepo{}, Cfg: testConfig()}

	campaign := testCampaign()
	campaign.FromName = "Product Team"
	campaign.FromEmail = "product@sendramp.example"
	campaign.ReplyTo = "product-replies@sendramp.example"

	_, err := d.SendBatch(context.Background(), campaign, []model.CampaignRecipient{{ID: 1, Email: "a@x.com"}})
	require.NoError(t, err)

	msg := sender.messages[0]
	assert.Equal(t, "Product Team <product@sendramp.example>", msg.From)
	assert.Equal(t, "product-replies@sendramp.example", msg.ReplyTo)
}
