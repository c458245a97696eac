package warmup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendramp/sendramp-backend/internal/model"
)

func TestScheduleForFirstDay(t *testing.T) {
	entry := ScheduleFor(1)
	assert.Equal(t, 1, entry.Day)
	assert.Equal(t, PhaseFoundation, entry.Phase)
	assert.Equal(t, 50, entry.DailyLimit)
	assert.Equal(t, []string{model.TierHot}, entry.AllowedTiers)
}

func TestScheduleForClampsBelowOne(t *testing.T) {
	assert.Equal(t, ScheduleFor(1), ScheduleFor(0))
	assert.Equal(t, ScheduleFor(1), ScheduleFor(-3))
}

func TestScheduleForLastDayIsUncapped(t *testing.T) {
	entry := ScheduleFor(MaxDay())
	assert.Equal(t, PhaseFull, entry.Phase)
	assert.Equal(t, Unlimited, entry.DailyLimit)
	assert.Equal(t, model.AllTiers, entry.AllowedTiers)
}

func TestScheduleForBeyondTable(t *testing.T) {
	entry := ScheduleFor(MaxDay() + 10)
	assert.Equal(t, PhaseFull, entry.Phase)
	assert.Equal(t, Unlimited, entry.DailyLimit)
	assert.Equal(t, model.AllTiers, entry.AllowedTiers)
}

func TestScheduleLimitsNeverShrink(t *testing.T) {
	prev := 0
	for day := 1; day <= MaxDay(); day++ {
		entry := ScheduleFor(day)
		if entry.DailyLimit == Unlimited {
			continue
		}
		require.GreaterOrEqual(t, entry.DailyLimit, prev, "day %d", day)
		prev = entry.DailyLimit
	}
}

func TestScheduleTiersOnlyWiden(t *testing.T) {
	prev := 0
	for day := 1; day <= MaxDay(); day++ {
		tiers := len(ScheduleFor(day).AllowedTiers)
		require.GreaterOrEqual(t, tiers, prev, "day %d", day)
		prev = tiers
	}
}
