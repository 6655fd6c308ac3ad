package planner

import (
	"math"

	"OptRisk/internal/domain/models"
)

// PremiumAtMove estimates the option premium after an underlying move using
// the first-order delta term, plus the half-gamma convexity term for
// short-dated (SCALP/DAY) trades where it is material. The result is floored
// at zero.
func PremiumAtMove(premium, delta, gamma, move float64, t models.TradeType) float64 {
	p := premium + delta*move
	if t == models.TradeScalp || t == models.TradeDay {
		p += 0.5 * gamma * move * move
	}
	if p < 0 {
		return 0
	}
	return p
}

// UnderlyingMoveForPremium inverts the first-order mapping: the underlying
// move implied by a premium change. A zero delta yields zero rather than a
// division blow-up.
func UnderlyingMoveForPremium(premiumChange, delta float64) float64 {
	if math.Abs(delta) < 1e-9 {
		return 0
	}
	return premiumChange / delta
}

// CalculateTrailingStop is the trailing rule used on every recompute:
// the running high minus an ATR multiple.
func CalculateTrailingStop(high, atr, mult float64) float64 {
	return high - atr*mult
}
