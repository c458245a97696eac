// internal/service/scheduler.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	appErrors "github.com/sendramp/sendramp-backend/internal/errors"
	"github.com/sendramp/sendramp-backend/internal/model"
	"github.com/sendramp/sendramp-backend/internal/postmark"
	"github.com/sendramp/sendramp-backend/internal/repository"
	"github.com/sendramp/sendramp-backend/internal/warmup"
)

// WarmupGate is what the scheduler needs from the warmup controller.
type WarmupGate interface {
	Active(ctx context.Context) (bool, error)
	RemainingToday(ctx context.Context) (int, error)
	AllowedTiers(ctx context.Context) ([]string, error)
	RecordSent(ctx context.Context, n int) error
}

// Dispatcher abstracts the batch dispatcher for the scheduler.
type Dispatcher interface {
	SendBatch(ctx context.Context, campaign *model.Campaign, recipients []model.CampaignRecipient) (*DispatchResult, error)
}

// CampaignScheduler decides which campaigns may run and drives their batch
// steps under the warmup's quota and tier rules.
type CampaignScheduler struct {
	Campaigns  repository.CampaignRepositoryInterface
	Recipients repository.RecipientRepositoryInterface
	Contacts   repository.ContactRepositoryInterface
	Dispatcher Dispatcher
	Warmup     WarmupGate
	BatchSize  int           // defaults to the provider cap
	BatchDelay time.Duration // inter-batch delay for the drain loop
}

// eligibilityStrategy selects which sending campaigns a tick may process.
// The warmup phase picks the implementation, keeping the state-dependent
// behavior explicit and testable on its own.
type eligibilityStrategy interface {
	selectCampaigns(ctx context.Context) ([]model.Campaign, error)
}

// sequentialEligibility: one campaign at a time, oldest sending_started_at
// first. While warming up, campaign A fully drains before B starts, so the
// daily quota is always attributable to a single campaign.
type sequentialEligibility struct {
	campaigns repository.CampaignRepositoryInterface
}

func (s sequentialEligibility) selectCampaigns(ctx context.Context) ([]model.Campaign, error) {
	sending, err := s.campaigns.ListSending(ctx)
	if err != nil {
		return nil, err
	}
	if len(sending) == 0 {
		return nil, nil
	}
	return sending[:1], nil
}

// parallelEligibility: once warmed, every sending campaign runs.
type parallelEligibility struct {
	campaigns repository.CampaignRepositoryInterface
}

func (p parallelEligibility) selectCampaigns(ctx context.Context) ([]model.Campaign, error) {
	return p.campaigns.ListSending(ctx)
}

// GetCampaignsToProcess promotes due scheduled campaigns to sending, then
// selects the campaigns the current tick may work on.
func (s *CampaignScheduler) GetCampaignsToProcess(ctx context.Context) ([]model.Campaign, error) {
	promoted, err := s.Campaigns.PromoteDue(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	if promoted > 0 {
		log.Printf("promoted %d scheduled campaign(s) to sending", promoted)
	}

	active, err := s.Warmup.Active(ctx)
	if err != nil {
		return nil, err
	}

	var strategy eligibilityStrategy = parallelEligibility{campaigns: s.Campaigns}
	if active {
		strategy = sequentialEligibility{campaigns: s.Campaigns}
	}
	return strategy.selectCampaigns(ctx)
}

// BatchStepResult reports one ProcessCampaignBatch invocation.
type BatchStepResult struct {
	CampaignID    int  `json:"campaign_id"`
	Sent          int  `json:"sent"`
	Failed        int  `json:"failed"`
	HasMore       bool `json:"has_more"`
	WarmupLimited bool `json:"warmup_limited"`
	Completed     bool `json:"completed"`
	Skipped       bool `json:"skipped"`
}

// ProcessCampaignBatch performs one bounded dispatch step for a campaign.
// It is safe to invoke repeatedly and concurrently: state is reloaded fresh,
// and a per-campaign advisory lock makes overlapping invocations skip
// rather than double-fetch the same pending recipients.
func (s *CampaignScheduler) ProcessCampaignBatch(ctx context.Context, campaignID int) (*BatchStepResult, error) {
	step := &BatchStepResult{CampaignID: campaignID}

	campaign, err := s.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			return step, nil
		}
		return nil, err
	}
	if campaign.Status != model.CampaignStatusSending {
		return step, nil
	}

	unlock, acquired, err := s.Campaigns.TryLock(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		step.Skipped = true
		step.HasMore = true
		return step, nil
	}
	defer unlock()

	active, err := s.Warmup.Active(ctx)
	if err != nil {
		return nil, err
	}

	batchSize := s.batchSize()
	if active {
		remaining, err := s.Warmup.RemainingToday(ctx)
		if err != nil {
			return nil, err
		}
		if remaining != warmup.Unlimited {
			if remaining <= 0 {
				// Today's quota is spent; the next day's tick picks it up.
				step.WarmupLimited = true
				step.HasMore = true
				return step, nil
			}
			if remaining < batchSize {
				batchSize = remaining
			}
		}
	}

	pending, err := s.Recipients.GetPending(ctx, campaignID, batchSize)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		if _, err := s.Campaigns.MarkCompleted(ctx, campaignID); err != nil {
			return nil, err
		}
		step.Completed = true
		return step, nil
	}

	allowedTiers := model.AllTiers
	if active {
		if allowedTiers, err = s.Warmup.AllowedTiers(ctx); err != nil {
			return nil, err
		}
	}

	emails := make([]string, len(pending))
	for i, rec := range pending {
		emails[i] = rec.Email
	}
	tiers, err := s.Contacts.TiersByEmail(ctx, emails)
	if err != nil {
		return nil, err
	}

	routed := RouteRecipients(pending, tiers, allowedTiers)
	if len(routed) == 0 {
		// Pending recipients exist but none are in an allowed tier yet; they
		// wait for a later, less restrictive warmup phase.
		step.WarmupLimited = true
		step.HasMore = true
		return step, nil
	}

	dispatched, err := s.Dispatcher.SendBatch(ctx, campaign, routed)
	if err != nil {
		return nil, err
	}
	step.Sent = dispatched.Sent
	step.Failed = dispatched.Failed

	if dispatched.Sent > 0 {
		if err := s.Campaigns.IncrementSentCount(ctx, campaignID, dispatched.Sent); err != nil {
			return nil, err
		}
		if active {
			if err := s.Warmup.RecordSent(ctx, dispatched.Sent); err != nil {
				return nil, err
			}
		}
	}

	remainingPending, err := s.Recipients.CountPending(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if remainingPending == 0 {
		if _, err := s.Campaigns.MarkCompleted(ctx, campaignID); err != nil {
			return nil, err
		}
		step.Completed = true
		return step, nil
	}

	step.HasMore = true
	return step, nil
}

// DrainResult aggregates a continuous ProcessCampaign run.
type DrainResult struct {
	CampaignID    int  `json:"campaign_id"`
	Batches       int  `json:"batches"`
	Sent          int  `json:"sent"`
	Failed        int  `json:"failed"`
	Completed     bool `json:"completed"`
	WarmupLimited bool `json:"warmup_limited"`
}

// ProcessCampaign loops batch steps with an inter-batch delay until the
// campaign drains, hits the warmup quota, or stops being in the sending
// state (each step re-reads the campaign, so an external pause is observed
// before the next batch; a batch already in flight completes normally).
func (s *CampaignScheduler) ProcessCampaign(ctx context.Context, campaignID int) (*DrainResult, error) {
	result := &DrainResult{CampaignID: campaignID}

	for {
		step, err := s.ProcessCampaignBatch(ctx, campaignID)
		if err != nil {
			return result, err
		}

		result.Batches++
		result.Sent += step.Sent
		result.Failed += step.Failed
		result.Completed = step.Completed

		if step.WarmupLimited {
			result.WarmupLimited = true
			return result, nil
		}
		if !step.HasMore {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(s.batchDelay()):
		}
	}
}

func (s *CampaignScheduler) batchSize() int {
	if s.BatchSize > 0 && s.BatchSize <= postmark.MaxBatchSize {
		return s.BatchSize
	}
	return postmark.MaxBatchSize
}

func (s *CampaignScheduler) batchDelay() time.Duration {
	if s.BatchDelay > 0 {
		return s.BatchDelay
	}
	return time.Second
}
