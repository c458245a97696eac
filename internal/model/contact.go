// internal/model/contact.go
package model

// Engagement tiers, ordered by routing priority during warmup. Lower
// priority number means safer to mail early.
const (
	TierHot  = "hot"
	TierNew  = "new"
	TierWarm = "warm"
	TierCool = "cool"
	TierCold = "cold"
)

// TierPriority maps a tier to its routing priority. Unknown tiers sort last.
var TierPriority = map[string]int{
	TierHot:  1,
	TierNew:  2,
	TierWarm: 3,
	TierCool: 4,
	TierCold: 5,
}

// AllTiers in priority order.
var AllTiers = []string{TierHot, TierNew, TierWarm, TierCool, TierCold}

const (
	ContactStatusActive  = "active"
	ContactStatusBounced = "bounced"

	MarketingStatusSubscribed = "subscribed"
	MarketingStatusSuppressed = "suppressed"
)

// Contact is owned by the CRM side of the system; the dispatcher only reads
// engagement_tier and writes the suppression fields.
type Contact struct {
	ID                int    `db:"id" json:"id"`
	Email             string `db:"email" json:"email"`
	FirstName         string `db:"first_name" json:"first_name"`
	LastName          string `db:"last_name" json:"last_name"`
	EngagementTier    string `db:"engagement_tier" json:"engagement_tier"`
	Status            string `db:"status" json:"status"`
	MarketingStatus   string `db:"marketing_status" json:"marketing_status"`
	SuppressionReason string `db:"suppression_reason" json:"suppression_reason,omitempty"`
}
