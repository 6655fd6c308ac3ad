package confluence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"OptRisk/internal/domain/models"
)

func trendingBars(n int, step float64) []models.Candle {
	bars := make([]models.Candle, n)
	price := 100.0
	for i := range bars {
		bars[i] = models.Candle{Open: price, High: price + 0.5, Low: price - 0.5, Close: price + step, Volume: 1000}
		price += step
	}
	return bars
}

func TestComputeUptrendFavorsLong(t *testing.T) {
	bars := trendingBars(40, 0.5)
	kl := models.KeyLevels{VWAP: bars[len(bars)-1].Close - 2}

	long := Compute(bars, kl, models.DirectionLong)
	short := Compute(bars, kl, models.DirectionShort)

	assert.Greater(t, long.Value, 50.0)
	assert.Greater(t, long.Value, short.Value)
}

func TestComputeNeutralOnShortHistory(t *testing.T) {
	s := Compute(nil, models.KeyLevels{}, models.DirectionLong)
	assert.InDelta(t, 15.0, s.Components["trend"], 1e-9)
	assert.InDelta(t, 15.0, s.Components["momentum"], 1e-9)
	assert.InDelta(t, 10.0, s.Components["vwap"], 1e-9)
	assert.Zero(t, s.Components["structure"])
}

func TestComputeBoundedComponents(t *testing.T) {
	bars := trendingBars(60, 2.0)
	kl := models.KeyLevels{
		VWAP: 10, // price far above: vwap component must stay capped
	}
	s := Compute(bars, kl, models.DirectionLong)
	assert.LessOrEqual(t, s.Components["trend"], 30.0)
	assert.LessOrEqual(t, s.Components["momentum"], 30.0)
	assert.LessOrEqual(t, s.Components["vwap"], 20.0)
	assert.LessOrEqual(t, s.Value, 100.0)
}

func TestRealizedVolatility(t *testing.T) {
	flat := trendingBars(50, 0)
	assert.Zero(t, RealizedVolatility(flat, 20, BarsPerYearForTF("1m")))

	choppy := make([]models.Candle, 50)
	price := 100.0
	for i := range choppy {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price *= 0.99
		}
		choppy[i] = models.Candle{Close: price}
	}
	assert.Greater(t, RealizedVolatility(choppy, 20, BarsPerYearForTF("1m")), 0.0)
}
