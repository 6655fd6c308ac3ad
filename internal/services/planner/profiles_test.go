package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"OptRisk/internal/domain/models"
)

func TestProfileForReturnsCopy(t *testing.T) {
	a := ProfileFor(models.TradeScalp)
	a.LevelWeights[models.LevelVWAP] = 0.1
	a.EligibleLevels[0] = models.LevelMaxPain

	b := ProfileFor(models.TradeScalp)
	assert.InDelta(t, 0.90, b.LevelWeights[models.LevelVWAP], 1e-9)
	assert.Equal(t, models.LevelVWAP, b.EligibleLevels[0])
}

func TestProfileForUnknownDefaultsToDay(t *testing.T) {
	p := ProfileFor(models.TradeType("bogus"))
	assert.Equal(t, models.TradeDay, p.Type)
}

func TestAdjustProfileForConfluence(t *testing.T) {
	base := ProfileFor(models.TradeDay)

	boosted := AdjustProfileForConfluence(base, 100)
	assert.Greater(t, boosted.LevelWeights[models.LevelVWAP], base.LevelWeights[models.LevelVWAP])

	dampened := AdjustProfileForConfluence(base, 0)
	assert.InDelta(t, base.LevelWeights[models.LevelVWAP], dampened.LevelWeights[models.LevelVWAP], 1e-9, "zero confluence leaves weights untouched")

	low := AdjustProfileForConfluence(base, 10)
	assert.Less(t, low.LevelWeights[models.LevelVWAP], base.LevelWeights[models.LevelVWAP])

	// Base registry must stay untouched.
	assert.InDelta(t, 0.90, ProfileFor(models.TradeDay).LevelWeights[models.LevelVWAP], 1e-9)

	capped := AdjustProfileForConfluence(base, 100)
	for _, w := range capped.LevelWeights {
		assert.LessOrEqual(t, w, 1.0)
	}
}

func TestATRStopMultiplier(t *testing.T) {
	assert.InDelta(t, 1.0, atrStopMultiplier(models.TradeScalp), 1e-9)
	assert.InDelta(t, 1.5, atrStopMultiplier(models.TradeDay), 1e-9)
	assert.InDelta(t, 2.0, atrStopMultiplier(models.TradeSwing), 1e-9)
	assert.InDelta(t, 2.0, atrStopMultiplier(models.TradeLeap), 1e-9)
}
