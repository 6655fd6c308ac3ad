package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OptRisk/internal/domain/models"
)

func trackedPercentPlan(t *testing.T, w *ReplanWatcher, uc *PlanUseCase) models.PlanRequest {
	t.Helper()
	return trackPlan(t, w, uc, models.PlanRequest{Symbol: "SPY", EntryPrice: 100, Mode: "percent"})
}

func trackPlan(t *testing.T, w *ReplanWatcher, uc *PlanUseCase, req models.PlanRequest) models.PlanRequest {
	t.Helper()
	res, err := uc.ComputePlan(context.Background(), req)
	require.NoError(t, err)
	w.NotePlan(req, res)
	time.Sleep(5 * time.Millisecond)
	return req
}

func TestReplanTriggersOnDrift(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{MinInterval: time.Nanosecond}, nil)
	trackedPercentPlan(t, w, uc)

	// 1% off the reference price, past the 0.5% drift threshold
	w.Observe(context.Background(), &models.Quote{Symbol: "SPY", Timestamp: time.Now().Unix(), Price: 101, Volume: 1})

	assert.Equal(t, 1, m.replans["drift"])
}

func TestReplanTriggersNearLevel(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	// drift effectively disabled so only level proximity can fire
	w := NewReplanWatcher(uc, m, ReplanPolicy{DriftPercent: 90, LevelTolerance: 0.2, MinInterval: time.Nanosecond}, nil)
	trackedPercentPlan(t, w, uc)

	// percent-mode target is 150; 149.9 is within 0.2% of it
	w.Observe(context.Background(), &models.Quote{Symbol: "SPY", Timestamp: time.Now().Unix(), Price: 149.9, Volume: 1})

	assert.Equal(t, 1, m.replans["level"])
	assert.Zero(t, m.replans["drift"])
}

func TestReplanHoldsInsideThresholds(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{MinInterval: time.Nanosecond}, nil)
	trackedPercentPlan(t, w, uc)

	w.Observe(context.Background(), &models.Quote{Symbol: "SPY", Timestamp: time.Now().Unix(), Price: 100.2, Volume: 1})

	assert.Empty(t, m.replans)
}

func TestReplanThrottledByMinInterval(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{MinInterval: time.Hour}, nil)
	trackedPercentPlan(t, w, uc)

	w.Observe(context.Background(), &models.Quote{Symbol: "SPY", Timestamp: time.Now().Unix(), Price: 105, Volume: 1})

	assert.Empty(t, m.replans)
}

func TestReplanIgnoresUntrackedSymbol(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{MinInterval: time.Nanosecond}, nil)
	trackedPercentPlan(t, w, uc)

	w.Observe(context.Background(), &models.Quote{Symbol: "QQQ", Timestamp: time.Now().Unix(), Price: 500, Volume: 1})

	assert.Empty(t, m.replans)
}

func TestReplanForget(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{MinInterval: time.Nanosecond}, nil)
	trackedPercentPlan(t, w, uc)

	w.Forget("SPY")
	w.Observe(context.Background(), &models.Quote{Symbol: "SPY", Timestamp: time.Now().Unix(), Price: 105, Volume: 1})

	assert.Empty(t, m.replans)
}

func TestReplanSameDayExpiryTightensDrift(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{DriftPercent: 0.5, ZeroDTEDrift: 0.2, MinInterval: time.Nanosecond}, nil)
	trackPlan(t, w, uc, models.PlanRequest{
		Symbol:        "SPY",
		EntryPrice:    100,
		Mode:          "percent",
		ExpirationISO: time.Now().UTC().Format("2006-01-02"),
	})

	// 0.3% drift: under the normal 0.5% threshold, over the same-day 0.2%
	w.Observe(context.Background(), &models.Quote{Symbol: "SPY", Timestamp: time.Now().Unix(), Price: 100.3, Volume: 1})

	assert.Equal(t, 1, m.replans["drift"])
}

func TestReplanFarExpiryKeepsNormalDrift(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{DriftPercent: 0.5, ZeroDTEDrift: 0.2, MinInterval: time.Nanosecond}, nil)
	trackPlan(t, w, uc, models.PlanRequest{
		Symbol:        "SPY",
		EntryPrice:    100,
		Mode:          "percent",
		ExpirationISO: time.Now().UTC().AddDate(0, 0, 30).Format("2006-01-02"),
	})

	w.Observe(context.Background(), &models.Quote{Symbol: "SPY", Timestamp: time.Now().Unix(), Price: 100.3, Volume: 1})

	assert.Empty(t, m.replans)
}

func TestReplanOnBarClose(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{MinInterval: time.Nanosecond}, nil)
	trackedPercentPlan(t, w, uc)

	w.OnBarClose(context.Background(), "SPY")

	assert.Equal(t, 1, m.replans["bar"])
}

func TestReplanOnBarCloseIgnoresUntracked(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{MinInterval: time.Nanosecond}, nil)
	trackedPercentPlan(t, w, uc)

	w.OnBarClose(context.Background(), "QQQ")

	assert.Empty(t, m.replans)
}

func TestReplanOnBarCloseThrottled(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{MinInterval: time.Hour}, nil)
	trackedPercentPlan(t, w, uc)

	w.OnBarClose(context.Background(), "SPY")

	assert.Empty(t, m.replans)
}

func TestReplanRefreshesReference(t *testing.T) {
	m := newStubMetrics()
	uc := NewPlanUseCase(&stubCandleStore{bars: flatBars(30, 100)}, m)
	w := NewReplanWatcher(uc, m, ReplanPolicy{MinInterval: time.Nanosecond}, nil)
	trackedPercentPlan(t, w, uc)

	w.Observe(context.Background(), &models.Quote{Symbol: "SPY", Timestamp: time.Now().Unix(), Price: 101, Volume: 1})
	require.Equal(t, 1, m.replans["drift"])

	// reference moved to 101; the same price no longer drifts
	time.Sleep(5 * time.Millisecond)
	w.Observe(context.Background(), &models.Quote{Symbol: "SPY", Timestamp: time.Now().Unix(), Price: 101, Volume: 1})
	assert.Equal(t, 1, m.replans["drift"])
}
