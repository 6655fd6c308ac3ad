package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OptRisk/internal/domain/models"
)

func dayProfile() models.RiskProfile { return ProfileFor(models.TradeDay) }

func TestSelectPlanAnchorsPrefersStructural(t *testing.T) {
	in := AnchorInput{
		Entry:     100,
		Current:   100,
		Direction: models.DirectionLong,
		KeyLevels: models.KeyLevels{
			VWAP:        101.2,
			PriorDayLow: 98.5,
		},
		Profile:   dayProfile(),
		ATR:       2,
		TradeType: models.TradeDay,
	}
	out := SelectPlanAnchors(in)

	assert.Equal(t, models.AnchorStructural, out.Stop.Type)
	assert.False(t, out.Stop.IsFallback)
	assert.InDelta(t, 98.5, out.Stop.Price, 1e-9)

	require.NotEmpty(t, out.Targets)
	assert.Equal(t, models.AnchorStructural, out.Targets[0].Type)
	assert.False(t, out.Targets[0].IsFallback)
	assert.InDelta(t, 101.2, out.Targets[0].Price, 1e-9)
}

func TestSelectPlanAnchorsATRFallback(t *testing.T) {
	in := AnchorInput{
		Entry:     100,
		Current:   100,
		Direction: models.DirectionLong,
		Profile:   dayProfile(),
		ATR:       2,
		TradeType: models.TradeDay,
	}
	out := SelectPlanAnchors(in)

	assert.Equal(t, models.AnchorATR, out.Stop.Type)
	assert.True(t, out.Stop.IsFallback)
	assert.InDelta(t, 97.0, out.Stop.Price, 1e-9) // entry - 1.5*ATR for DAY

	require.Len(t, out.Targets, 2)
	assert.InDelta(t, 102.0, out.Targets[0].Price, 1e-9) // entry + 1.0*ATR
	assert.InDelta(t, 103.0, out.Targets[1].Price, 1e-9) // entry + 1.5*ATR
	for _, tgt := range out.Targets {
		assert.True(t, tgt.IsFallback)
	}
}

func TestSelectPlanAnchorsPercentGuarantee(t *testing.T) {
	in := AnchorInput{
		Entry:     100,
		Direction: models.DirectionLong,
		Profile:   dayProfile(),
		TradeType: models.TradeDay,
	}
	out := SelectPlanAnchors(in)

	assert.Equal(t, models.AnchorPercent, out.Stop.Type)
	assert.InDelta(t, 75.0, out.Stop.Price, 1e-9) // default 25% on the underlying

	require.Len(t, out.Targets, 1)
	assert.Equal(t, models.AnchorPercent, out.Targets[0].Type)
	assert.InDelta(t, 150.0, out.Targets[0].Price, 1e-9) // default 50%
}

func TestSelectPlanAnchorsPercentMapsPremiumThroughDelta(t *testing.T) {
	in := AnchorInput{
		Entry:     100,
		Direction: models.DirectionLong,
		Profile:   dayProfile(),
		TradeType: models.TradeDay,
		Premium:   2.0,
		Delta:     0.5,
		TPPercent: 50,
		SLPercent: 25,
	}
	out := SelectPlanAnchors(in)

	// 50% of a 2.00 premium through a 0.50 delta is a 2.00 underlying move.
	require.Len(t, out.Targets, 1)
	assert.InDelta(t, 102.0, out.Targets[0].Price, 1e-9)
	assert.InDelta(t, 99.0, out.Stop.Price, 1e-9)
}

func TestSelectPlanAnchorsTargetOrdering(t *testing.T) {
	in := AnchorInput{
		Entry:     100,
		Current:   100,
		Direction: models.DirectionLong,
		KeyLevels: models.KeyLevels{
			VWAP:          103,
			ORBHigh:       101.5,
			ORBLow:        99.2,
			PreMarketHigh: 105,
		},
		Profile:   dayProfile(),
		ATR:       4,
		TradeType: models.TradeDay,
	}
	out := SelectPlanAnchors(in)

	require.Len(t, out.Targets, 3)
	assert.Equal(t, "TP1", out.Targets[0].Label)
	assert.Equal(t, "TP2", out.Targets[1].Label)
	assert.Equal(t, "TP3", out.Targets[2].Label)
	assert.InDelta(t, 101.5, out.Targets[0].Price, 1e-9)
	assert.InDelta(t, 103.0, out.Targets[1].Price, 1e-9)
	assert.InDelta(t, 105.0, out.Targets[2].Price, 1e-9)
	for i := 1; i < len(out.Targets); i++ {
		assert.LessOrEqual(t, out.Targets[i-1].DistancePercent, out.Targets[i].DistancePercent)
	}
}

func TestSelectPlanAnchorsShortDirection(t *testing.T) {
	in := AnchorInput{
		Entry:     100,
		Current:   100,
		Direction: models.DirectionShort,
		KeyLevels: models.KeyLevels{
			VWAP:    98,
			ORBHigh: 101.5,
		},
		Profile:   dayProfile(),
		ATR:       2,
		TradeType: models.TradeDay,
	}
	out := SelectPlanAnchors(in)

	assert.Greater(t, out.Stop.Price, in.Entry, "short stop sits above entry")
	require.NotEmpty(t, out.Targets)
	assert.Less(t, out.Targets[0].Price, in.Entry, "short target sits below entry")
}

func TestPlanQualityFallbackScoresLower(t *testing.T) {
	structural := SelectPlanAnchors(AnchorInput{
		Entry: 100, Current: 100, Direction: models.DirectionLong,
		KeyLevels: models.KeyLevels{VWAP: 101.2, PriorDayLow: 98.5},
		Profile:   dayProfile(), ATR: 2, TradeType: models.TradeDay,
	})
	fallback := SelectPlanAnchors(AnchorInput{
		Entry: 100, Current: 100, Direction: models.DirectionLong,
		Profile: dayProfile(), ATR: 2, TradeType: models.TradeDay,
	})

	assert.Greater(t, structural.Quality.Score, fallback.Quality.Score)
	assert.Equal(t, models.QualityWeak, fallback.Quality.Level)
	assert.NotEmpty(t, fallback.Quality.Warnings)
}

func TestSelectPlanAnchorsGammaWall(t *testing.T) {
	in := AnchorInput{
		Entry:     100,
		Current:   100,
		Direction: models.DirectionLong,
		KeyLevels: models.KeyLevels{
			VWAP: 101.2,
			Flow: &models.OptionsFlow{CallWall: 102.5, PutWall: 98.0},
		},
		Profile:   dayProfile(),
		ATR:       3,
		TradeType: models.TradeDay,
	}
	out := SelectPlanAnchors(in)

	assert.Equal(t, models.AnchorGamma, out.Stop.Type, "put wall outranks generic levels")
	assert.InDelta(t, 98.0, out.Stop.Price, 1e-9)

	require.NotEmpty(t, out.Targets)
	var sawGamma bool
	for _, tgt := range out.Targets {
		if tgt.Type == models.AnchorGamma {
			sawGamma = true
		}
	}
	assert.True(t, sawGamma, "call wall should appear among targets")
}

func TestSelectPlanAnchorsDeterministic(t *testing.T) {
	in := AnchorInput{
		Entry: 100, Current: 100.4, Direction: models.DirectionLong,
		KeyLevels: models.KeyLevels{VWAP: 101.2, ORBHigh: 102, ORBLow: 99, PriorDayLow: 98.5},
		Profile:   dayProfile(), ATR: 2, TradeType: models.TradeDay,
	}
	a := SelectPlanAnchors(in)
	b := SelectPlanAnchors(in)
	assert.Equal(t, a, b)
}
