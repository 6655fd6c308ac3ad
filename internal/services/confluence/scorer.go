package confluence

import (
	"math"

	"OptRisk/internal/domain/models"
	"OptRisk/internal/indicators"
)

// Score is the 0-100 agreement measure between trend, momentum, and level
// structure. 50 is neutral; direction determines which side of each check
// counts as agreement.
type Score struct {
	Value      float64
	Components map[string]float64
}

// Compute grades how strongly the bar history supports a directional entry.
// Each component contributes a bounded slice of the score so no single
// indicator can dominate. Insufficient history leaves a component at its
// neutral midpoint.
func Compute(bars []models.Candle, kl models.KeyLevels, dir models.Direction) Score {
	s := Score{Components: make(map[string]float64, 4)}
	sign := 1.0
	if dir == models.DirectionShort {
		sign = -1
	}

	var price float64
	if len(bars) > 0 {
		price = bars[len(bars)-1].Close
	}

	// Trend: fast EMA vs slow EMA, up to 30 points.
	trend := 15.0
	if fast, err := indicators.EMA(bars, 9); err == nil {
		if slow, err := indicators.EMA(bars, 21); err == nil && slow > 0 {
			spread := sign * (fast - slow) / slow
			trend = 15 + clamp(spread*3000, -15, 15)
		}
	}
	s.Components["trend"] = trend

	// Momentum: RSI distance from the neutral 50 line, up to 30 points.
	momentum := 15.0
	if rsi, err := indicators.RSI(bars, 14); err == nil {
		momentum = 15 + clamp(sign*(rsi-50)*0.6, -15, 15)
	}
	s.Components["momentum"] = momentum

	// VWAP side: trading on the right side of VWAP, up to 20 points.
	vwapSide := 10.0
	if kl.VWAP > 0 && price > 0 {
		dist := sign * (price - kl.VWAP) / kl.VWAP
		vwapSide = 10 + clamp(dist*2000, -10, 10)
	}
	s.Components["vwap"] = vwapSide

	// Structure: how much level vocabulary is available, up to 20 points.
	structure := clamp(float64(kl.Count())*2.5, 0, 20)
	s.Components["structure"] = structure

	s.Value = clamp(trend+momentum+vwapSide+structure, 0, 100)
	return s
}

// RealizedVolatility computes annualized realized volatility of log returns
// over a rolling window. Returns the latest window sigma, 0 on short history.
func RealizedVolatility(bars []models.Candle, window int, barsPerYear float64) float64 {
	if window <= 1 || len(bars) < window+1 {
		return 0
	}
	rets := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Close, bars[i].Close
		if prev <= 0 || cur <= 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, math.Log(cur/prev))
	}

	sum, sum2 := 0.0, 0.0
	for i := len(rets) - window; i < len(rets); i++ {
		r := rets[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// BarsPerYearForTF returns the approximate number of bars per year for a timeframe.
func BarsPerYearForTF(tf string) float64 {
	switch tf {
	case "1s":
		return 365 * 24 * 60 * 60
	case "1m":
		return 365 * 24 * 60
	case "5m":
		return 365 * 24 * 12
	case "15m":
		return 365 * 24 * 4
	case "1h":
		return 365 * 24
	case "1d":
		return 365
	default:
		return 365 * 24 * 60
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
