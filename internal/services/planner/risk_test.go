package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OptRisk/internal/domain/models"
)

func TestCalculateRiskPercentMode(t *testing.T) {
	res := CalculateRisk(models.RiskCalculationInput{
		Symbol:     "SPY",
		EntryPrice: 100,
		Direction:  models.DirectionLong,
		Defaults:   models.RiskDefaults{Mode: ModePercent, TPPercent: 50, SLPercent: 20},
		Now:        time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC),
	})

	assert.InDelta(t, 150.0, res.TargetPrice, 1e-9)
	assert.InDelta(t, 80.0, res.StopLoss, 1e-9)
	assert.InDelta(t, 2.5, res.RiskRewardRatio, 1e-9)
	assert.Equal(t, []string{"percent"}, res.UsedLevels)
	assert.Equal(t, time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC), res.CalculatedAt)
}

func TestCalculateRiskPercentModeShort(t *testing.T) {
	res := CalculateRisk(models.RiskCalculationInput{
		EntryPrice: 100,
		Direction:  models.DirectionShort,
		Defaults:   models.RiskDefaults{Mode: ModePercent, TPPercent: 50, SLPercent: 20},
	})

	assert.InDelta(t, 50.0, res.TargetPrice, 1e-9)
	assert.InDelta(t, 120.0, res.StopLoss, 1e-9)
	assert.InDelta(t, 2.5, res.RiskRewardRatio, 1e-9)
}

func TestCalculateRiskPercentModePremiums(t *testing.T) {
	res := CalculateRisk(models.RiskCalculationInput{
		EntryPrice:       100,
		CurrentOptionMid: 2.0,
		Defaults:         models.RiskDefaults{Mode: ModePercent, TPPercent: 50, SLPercent: 25},
	})

	assert.InDelta(t, 3.0, res.TargetPremium, 1e-9)
	assert.InDelta(t, 1.5, res.StopPremium, 1e-9)
}

func TestCalculateRiskClassifiesFromExpiration(t *testing.T) {
	now := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	exp := now.Add(20 * 24 * time.Hour)

	res := CalculateRisk(models.RiskCalculationInput{
		EntryPrice: 100,
		Expiration: &exp,
		ATR:        2,
		Now:        now,
	})

	assert.Equal(t, models.TradeSwing, res.TradeType)
	assert.Equal(t, 20, res.DTE)
}

func TestCalculateRiskExplicitTypeWins(t *testing.T) {
	now := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	exp := now.Add(400 * 24 * time.Hour)

	res := CalculateRisk(models.RiskCalculationInput{
		EntryPrice: 100,
		Expiration: &exp,
		TradeType:  models.TradeScalp,
		ATR:        2,
		Now:        now,
	})

	assert.Equal(t, models.TradeScalp, res.TradeType)
	assert.Equal(t, 400, res.DTE, "DTE still reported from expiration")
}

func TestCalculateRiskDefaultsToDayType(t *testing.T) {
	res := CalculateRisk(models.RiskCalculationInput{EntryPrice: 100, ATR: 2})
	assert.Equal(t, models.TradeDay, res.TradeType)
}

func TestCalculateRiskCalculatedMode(t *testing.T) {
	now := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	exp := now.Add(5 * 24 * time.Hour)

	res := CalculateRisk(models.RiskCalculationInput{
		Symbol:                 "SPY",
		EntryPrice:             100,
		CurrentUnderlyingPrice: 100.2,
		CurrentOptionMid:       2.5,
		Direction:              models.DirectionLong,
		KeyLevels: models.KeyLevels{
			VWAP:        101.2,
			ORBHigh:     102,
			ORBLow:      99,
			PriorDayLow: 98.5,
		},
		ATR:        2,
		Delta:      0.5,
		Gamma:      0.04,
		Expiration: &exp,
		Confluence: 70,
		DataAge:    5 * time.Second,
		Liquidity:  "good",
		HasIVData:  true,
		Now:        now,
	})

	require.NotNil(t, res.Anchors)
	assert.Greater(t, res.TargetPrice, res.StopLoss)
	assert.Greater(t, res.TargetPrice, 100.0)
	assert.Less(t, res.StopLoss, 100.0)
	assert.Greater(t, res.RiskRewardRatio, 0.0)
	assert.Greater(t, res.TargetPremium, 2.5, "winning premium above entry mid")
	assert.Less(t, res.StopPremium, 2.5)
	assert.NotEmpty(t, res.UsedLevels)
	assert.NotEmpty(t, res.Reasoning)
	assert.Contains(t, []string{models.ConfidenceLow, models.ConfidenceMedium, models.ConfidenceHigh}, res.Confidence)
}

func TestCalculateRiskNeverPanicsOnEmptyInput(t *testing.T) {
	res := CalculateRisk(models.RiskCalculationInput{EntryPrice: 100})
	assert.NotZero(t, res.TargetPrice, "percent tier guarantees a target")
	assert.NotZero(t, res.StopLoss)
}

func TestCalculateRiskIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	in := models.RiskCalculationInput{
		EntryPrice:             100,
		CurrentUnderlyingPrice: 100.2,
		KeyLevels:              models.KeyLevels{VWAP: 101.2, PriorDayLow: 98.5},
		ATR:                    2,
		Confluence:             60,
		Now:                    now,
	}
	a := CalculateRisk(in)
	b := CalculateRisk(in)
	assert.Equal(t, a, b)
}

func TestRiskReward(t *testing.T) {
	assert.InDelta(t, 2.5, riskReward(100, 150, 80, models.DirectionLong), 1e-9)
	assert.InDelta(t, 2.5, riskReward(100, 50, 120, models.DirectionShort), 1e-9)
	assert.Equal(t, 0.0, riskReward(100, 150, 100, models.DirectionLong), "zero risk is not infinite reward")
	assert.InDelta(t, -0.5, riskReward(100, 90, 80, models.DirectionLong), 1e-9, "inverted target surfaces as a negative ratio")
}

func TestCalculateRiskUsedLevelNames(t *testing.T) {
	res := CalculateRisk(models.RiskCalculationInput{
		EntryPrice:             100,
		CurrentUnderlyingPrice: 100.2,
		KeyLevels:              models.KeyLevels{VWAP: 101.2, PriorDayLow: 98.5},
		ATR:                    2,
		Now:                    time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC),
	})

	// Stop first, then targets nearest-first. Level-backed anchors report the
	// level name; ATR-synthesized targets report their tier.
	assert.Equal(t, []string{"priorDay", "vwap", "atr", "atr"}, res.UsedLevels)
}

func TestCalculateRiskExitHints(t *testing.T) {
	in := models.RiskCalculationInput{
		EntryPrice:             100,
		CurrentUnderlyingPrice: 100.2,
		KeyLevels:              models.KeyLevels{VWAP: 101.2, PriorDayLow: 98.5},
		ATR:                    2,
		Now:                    time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC),
	}

	res := CalculateRisk(in)
	assert.InDelta(t, 1.0, res.TrailingDistance, 1e-9, "half an ATR per step for DAY")
	assert.InDelta(t, 99.2, res.TrailingStop, 1e-9, "trail behind the in-profit price")
	assert.Equal(t, "15:55", res.EODExit)
	assert.Contains(t, res.Reasoning, "close by 15:55 ET")

	// At or below the entry the trail is not active yet.
	in.CurrentUnderlyingPrice = 100
	res = CalculateRisk(in)
	assert.Zero(t, res.TrailingStop)
	assert.InDelta(t, 1.0, res.TrailingDistance, 1e-9)
}

func TestCalculateRiskNoEODCutoffForSwing(t *testing.T) {
	now := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	exp := now.Add(20 * 24 * time.Hour)
	res := CalculateRisk(models.RiskCalculationInput{
		EntryPrice: 100,
		Expiration: &exp,
		ATR:        2,
		Now:        now,
	})

	assert.Equal(t, models.TradeSwing, res.TradeType)
	assert.Empty(t, res.EODExit)
	assert.NotContains(t, res.Reasoning, "Time exit")
}
