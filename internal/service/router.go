// internal/service/router.go
package service

import (
	"sort"

	"github.com/sendramp/sendramp-backend/internal/model"
)

// RouteRecipients filters a candidate batch down to the recipients whose
// engagement tier is currently allowed and orders them safest-first
// (hot < new < warm < cool < cold). The sort is stable, so recipients in
// the same tier keep their fetch order. Recipients with no matching contact
// default to the "new" tier. When every tier is allowed the batch passes
// through untouched in its original order.
func RouteRecipients(recipients []model.CampaignRecipient, tiersByEmail map[string]string, allowedTiers []string) []model.CampaignRecipient {
	if coversAllTiers(allowedTiers) {
		return recipients
	}

	allowed := map[string]bool{}
	for _, tier := range allowedTiers {
		allowed[tier] = true
	}

	routed := []model.CampaignRecipient{}
	for _, rec := range recipients {
		if allowed[tierFor(rec.Email, tiersByEmail)] {
			routed = append(routed, rec)
		}
	}

	sort.SliceStable(routed, func(i, j int) bool {
		return tierPriority(tierFor(routed[i].Email, tiersByEmail)) <
			tierPriority(tierFor(routed[j].Email, tiersByEmail))
	})
	return routed
}

func tierFor(email string, tiersByEmail map[string]string) string {
	if tier, ok := tiersByEmail[email]; ok && tier != "" {
		return tier
	}
	return model.TierNew
}

func tierPriority(tier string) int {
	if p, ok := model.TierPriority[tier]; ok {
		return p
	}
	return len(model.TierPriority) + 1
}

func coversAllTiers(allowedTiers []string) bool {
	seen := map[string]bool{}
	for _, tier := range allowedTiers {
		seen[tier] = true
	}
	for _, tier := range model.AllTiers {
		if !seen[tier] {
			return false
		}
	}
	return true
}
