package warmup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/sendramp/sendramp-backend/internal/errors"
	"github.com/sendramp/sendramp-backend/internal/model"
)

// fakeWarmupRepo keeps the singleton row in memory.
type fakeWarmupRepo struct {
	cfg        model.WarmupConfig
	logs       []model.WarmupLog
	increments []int
}

func newFakeWarmupRepo() *fakeWarmupRepo {
	return &fakeWarmupRepo{cfg: model.WarmupConfig{ID: 1, Status: model.WarmupStatusNotStarted}}
}

func (f *fakeWarmupRepo) Get(ctx context.Context) (*model.WarmupConfig, error) {
	cfg := f.cfg
	return &cfg, nil
}

func (f *fakeWarmupRepo) Update(ctx context.Context, cfg *model.WarmupConfig) error {
	f.cfg = *cfg
	return nil
}

func (f *fakeWarmupRepo) IncrementSentToday(ctx context.Context, n int) error {
	f.cfg.SentToday += n
	f.increments = append(f.increments, n)
	return nil
}

func (f *fakeWarmupRepo) InsertLog(ctx context.Context, entry *model.WarmupLog) error {
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeWarmupRepo) Logs(ctx context.Context, limit int) ([]model.WarmupLog, error) {
	return f.logs, nil
}

type fakeMetrics struct {
	metrics Metrics
}

func (f *fakeMetrics) Evaluate(ctx context.Context) (*Metrics, error) {
	m := f.metrics
	return &m, nil
}

func newTestController(repo *fakeWarmupRepo) *Controller {
	return NewController(repo, &fakeMetrics{metrics: Metrics{
		Sent: 100, OpenRate: 0.3, BounceRate: 0.01, Health: HealthHealthy,
	}})
}

func TestStartFromNotStarted(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, model.WarmupStatusWarmingUp, repo.cfg.Status)
	assert.Equal(t, 1, repo.cfg.CurrentDay)
	assert.Equal(t, 0, repo.cfg.SentToday)
	assert.NotNil(t, repo.cfg.StartedAt)
}

func TestStartTwiceIsInvalid(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)
	require.NoError(t, c.Start(context.Background()))

	err := c.Start(context.Background())
	var invalid *appErrors.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.WarmupStatusWarmingUp, invalid.Current)
}

func TestPauseBeforeStartLeavesStateUntouched(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)

	err := c.Pause(context.Background(), "bad metrics")
	var invalid *appErrors.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.WarmupStatusNotStarted, repo.cfg.Status)
	assert.Nil(t, repo.cfg.PausedAt)
}

func TestPauseAndResumeKeepProgress(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	repo.cfg.CurrentDay = 5
	repo.cfg.SentToday = 120

	require.NoError(t, c.Pause(ctx, "operator hold"))
	assert.Equal(t, model.WarmupStatusPaused, repo.cfg.Status)
	assert.Equal(t, "operator hold", repo.cfg.PauseReason)

	// Pausing twice is rejected, not silently absorbed.
	var invalid *appErrors.InvalidStateError
	require.ErrorAs(t, c.Pause(ctx, "again"), &invalid)

	require.NoError(t, c.Resume(ctx))
	assert.Equal(t, model.WarmupStatusWarmingUp, repo.cfg.Status)
	assert.Equal(t, 5, repo.cfg.CurrentDay)
	assert.Equal(t, 120, repo.cfg.SentToday)
	assert.Empty(t, repo.cfg.PauseReason)
}

func TestAdvanceDayWritesLogAndResetsCounter(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	repo.cfg.SentToday = 42

	cfg, err := c.AdvanceDay(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.CurrentDay)
	assert.Equal(t, 0, cfg.SentToday)
	assert.Equal(t, model.WarmupStatusWarmingUp, cfg.Status)

	require.Len(t, repo.logs, 1)
	assert.Equal(t, 1, repo.logs[0].Day)
	assert.Equal(t, 42, repo.logs[0].ActualSent)
	assert.Equal(t, PhaseFoundation, repo.logs[0].Phase)
	assert.InDelta(t, 0.3, repo.logs[0].OpenRate, 1e-9)
}

func TestAdvanceDayEventuallyWarms(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	for i := 0; i < MaxDay(); i++ {
		_, err := c.AdvanceDay(ctx, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, model.WarmupStatusWarmed, repo.cfg.Status)
	assert.Len(t, repo.logs, MaxDay())

	// Warmed is terminal for the controller.
	_, err := c.AdvanceDay(ctx, nil)
	var invalid *appErrors.InvalidStateError
	require.ErrorAs(t, err, &invalid)
}

func TestAdvanceDayTargetOverride(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	target := 15
	cfg, err := c.AdvanceDay(ctx, &target)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.CurrentDay)
	assert.Equal(t, model.WarmupStatusWarmingUp, cfg.Status)

	past := MaxDay() + 5
	cfg, err = c.AdvanceDay(ctx, &past)
	require.NoError(t, err)
	assert.Equal(t, MaxDay(), cfg.CurrentDay)
	assert.Equal(t, model.WarmupStatusWarmed, cfg.Status)
}

func TestAdvanceDayNotWarmingUp(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)

	_, err := c.AdvanceDay(context.Background(), nil)
	var invalid *appErrors.InvalidStateError
	require.ErrorAs(t, err, &invalid)
}

func TestRemainingTodayUnlimitedWhenInactive(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)

	remaining, err := c.RemainingToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unlimited, remaining)

	repo.cfg.Status = model.WarmupStatusWarmed
	remaining, err = c.RemainingToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unlimited, remaining)
}

func TestRemainingTodayQuotaMath(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	remaining, err := c.RemainingToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, remaining)

	require.NoError(t, c.RecordSent(ctx, 30))
	remaining, err = c.RemainingToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, remaining)

	// Overshoot never goes negative.
	require.NoError(t, c.RecordSent(ctx, 100))
	remaining, err = c.RemainingToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestRecordSentIgnoresNonPositive(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)

	require.NoError(t, c.RecordSent(context.Background(), 0))
	require.NoError(t, c.RecordSent(context.Background(), -4))
	assert.Empty(t, repo.increments)
}

func TestAllowedTiersFollowSchedule(t *testing.T) {
	repo := newFakeWarmupRepo()
	c := newTestController(repo)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	tiers, err := c.AllowedTiers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{model.TierHot}, tiers)

	repo.cfg.Status = model.WarmupStatusWarmed
	tiers, err = c.AllowedTiers(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.AllTiers, tiers)
}
