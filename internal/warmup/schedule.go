// internal/warmup/schedule.go
package warmup

import "github.com/sendramp/sendramp-backend/internal/model"

// Unlimited is the daily-limit sentinel meaning "no cap".
const Unlimited = -1

const (
	PhaseFoundation = "foundation"
	PhaseGrowth     = "growth"
	PhaseScaling    = "scaling"
	PhaseMaturation = "maturation"
	PhaseFull       = "full"
)

// ScheduleEntry is one day of the warmup ramp.
type ScheduleEntry struct {
	Day          int
	DailyLimit   int
	Phase        string
	AllowedTiers []string
	Description  string
}

var (
	tiersHot     = []string{model.TierHot}
	tiersHotNew  = []string{model.TierHot, model.TierNew}
	tiersThrough = []string{model.TierHot, model.TierNew, model.TierWarm}
	tiersCool    = []string{model.TierHot, model.TierNew, model.TierWarm, model.TierCool}
	tiersAll     = model.AllTiers
)

// schedule is the static 30-day ramp. Early days mail only the most engaged
// contacts to keep bounce and complaint rates low while the sending identity
// has no reputation yet.
var schedule = []ScheduleEntry{
	{1, 50, PhaseFoundation, tiersHot, "first sends, most engaged contacts only"},
	{2, 75, PhaseFoundation, tiersHot, "hold volume low, hot contacts only"},
	{3, 100, PhaseFoundation, tiersHot, "hot contacts only"},
	{4, 150, PhaseFoundation, tiersHotNew, "introduce new contacts"},
	{5, 200, PhaseFoundation, tiersHotNew, "steady ramp"},
	{6, 300, PhaseFoundation, tiersHotNew, "steady ramp"},
	{7, 400, PhaseFoundation, tiersHotNew, "end of foundation week"},
	{8, 500, PhaseGrowth, tiersThrough, "open up warm contacts"},
	{9, 650, PhaseGrowth, tiersThrough, "growth ramp"},
	{10, 800, PhaseGrowth, tiersThrough, "growth ramp"},
	{11, 1000, PhaseGrowth, tiersThrough, "first four-digit day"},
	{12, 1250, PhaseGrowth, tiersThrough, "growth ramp"},
	{13, 1500, PhaseGrowth, tiersThrough, "growth ramp"},
	{14, 2000, PhaseGrowth, tiersThrough, "end of growth week"},
	{15, 2500, PhaseScaling, tiersCool, "open up cool contacts"},
	{16, 3200, PhaseScaling, tiersCool, "scaling ramp"},
	{17, 4000, PhaseScaling, tiersCool, "scaling ramp"},
	{18, 5000, PhaseScaling, tiersCool, "scaling ramp"},
	{19, 6500, PhaseScaling, tiersCool, "scaling ramp"},
	{20, 8000, PhaseScaling, tiersCool, "scaling ramp"},
	{21, 10000, PhaseScaling, tiersCool, "end of scaling week"},
	{22, 12000, PhaseMaturation, tiersAll, "all tiers allowed"},
	{23, 15000, PhaseMaturation, tiersAll, "maturation ramp"},
	{24, 18000, PhaseMaturation, tiersAll, "maturation ramp"},
	{25, 22000, PhaseMaturation, tiersAll, "maturation ramp"},
	{26, 26000, PhaseMaturation, tiersAll, "maturation ramp"},
	{27, 30000, PhaseMaturation, tiersAll, "maturation ramp"},
	{28, 35000, PhaseMaturation, tiersAll, "end of maturation week"},
	{29, Unlimited, PhaseFull, tiersAll, "no daily cap, final observation day"},
	{30, Unlimited, PhaseFull, tiersAll, "warmup complete after today"},
}

// MaxDay is the last day of the ramp; past it the identity is fully warmed.
func MaxDay() int {
	return schedule[len(schedule)-1].Day
}

// ScheduleFor returns the entry for the given day. Days past the end of the
// table get a synthetic "full" entry with no cap and all tiers, matching the
// warmed state.
func ScheduleFor(day int) ScheduleEntry {
	if day < 1 {
		day = 1
	}
	if day > MaxDay() {
		return ScheduleEntry{
			Day:          day,
			DailyLimit:   Unlimited,
			Phase:        PhaseFull,
			AllowedTiers: tiersAll,
			Description:  "fully warmed",
		}
	}
	return schedule[day-1]
}

// Schedule returns the full ramp, for the admin surface.
func Schedule() []ScheduleEntry {
	out := make([]ScheduleEntry, len(schedule))
	copy(out, schedule)
	return out
}
