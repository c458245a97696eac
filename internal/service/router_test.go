package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendramp/sendramp-backend/internal/model"
)

func recipientsFor(emails ...string) []model.CampaignRecipient {
	recs := make([]model.CampaignRecipient, len(emails))
	for i, email := range emails {
		recs[i] = model.CampaignRecipient{ID: i + 1, Email: email}
	}
	return recs
}

func routedEmails(recs []model.CampaignRecipient) []string {
	emails := make([]string, len(recs))
	for i, rec := range recs {
		emails[i] = rec.Email
	}
	return emails
}

func TestRouteRecipientsFiltersToAllowedTiers(t *testing.T) {
	recs := recipientsFor("hot@x.com", "cold@x.com", "warm@x.com")
	tiers := map[string]string{
		"hot@x.com":  model.TierHot,
		"cold@x.com": model.TierCold,
		"warm@x.com": model.TierWarm,
	}

	routed := RouteRecipients(recs, tiers, []string{model.TierHot})
	assert.Equal(t, []string{"hot@x.com"}, routedEmails(routed))
}

func TestRouteRecipientsAllTiersPassthrough(t *testing.T) {
	recs := recipientsFor("cold@x.com", "hot@x.com", "new@x.com")
	tiers := map[string]string{
		"cold@x.com": model.TierCold,
		"hot@x.com":  model.TierHot,
		"new@x.com":  model.TierNew,
	}

	routed := RouteRecipients(recs, tiers, model.AllTiers)
	// Original fetch order is preserved when no tier is excluded.
	assert.Equal(t, []string{"cold@x.com", "hot@x.com", "new@x.com"}, routedEmails(routed))
}

func TestRouteRecipientsOrdersSafestFirst(t *testing.T) {
	recs := recipientsFor("cool@x.com", "hot@x.com", "warm@x.com", "new@x.com")
	tiers := map[string]string{
		"cool@x.com": model.TierCool,
		"hot@x.com":  model.TierHot,
		"warm@x.com": model.TierWarm,
		"new@x.com":  model.TierNew,
	}

	routed := RouteRecipients(recs, tiers, []string{model.TierHot, model.TierNew, model.TierWarm, model.TierCool})
	assert.Equal(t, []string{"hot@x.com", "new@x.com", "warm@x.com", "cool@x.com"}, routedEmails(routed))
}

func TestRouteRecipientsStableWithinTier(t *testing.T) {
	recs := recipientsFor("b@x.com", "a@x.com", "c@x.com")
	tiers := map[string]string{
		"b@x.com": model.TierHot,
		"a@x.com": model.TierHot,
		"c@x.com": model.TierHot,
	}

	routed := RouteRecipients(recs, tiers, []string{model.TierHot, model.TierNew})
	assert.Equal(t, []string{"b@x.com", "a@x.com", "c@x.com"}, routedEmails(routed))
}

func TestRouteRecipientsUnknownContactDefaultsToNew(t *testing.T) {
	recs := recipientsFor("stranger@x.com")

	routed := RouteRecipients(recs, map[string]string{}, []string{model.TierHot})
	assert.Empty(t, routed)

	routed = RouteRecipients(recs, map[string]string{}, []string{model.TierHot, model.TierNew})
	require.Len(t, routed, 1)
	assert.Equal(t, "stranger@x.com", routed[0].Email)
}
