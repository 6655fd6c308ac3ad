package planner

import (
	"time"

	"OptRisk/internal/domain/models"
)

// DefaultDTEThresholds is the authoritative classification table: a contract
// expiring in 0-2 days is a scalp, 3-14 a day trade, 15-60 a swing, beyond
// that a LEAP.
var DefaultDTEThresholds = models.DTEThresholds{Scalp: 2, Day: 14, Swing: 60}

// IntradayDTEThresholds is a tighter preset for desks that treat anything
// past a month as a LEAP. Selectable via config, never the silent default.
var IntradayDTEThresholds = models.DTEThresholds{Scalp: 0, Day: 4, Swing: 29}

// DaysToExpiration computes whole days between now and expiration, clamped
// to zero for already-expired contracts.
func DaysToExpiration(expiration, now time.Time) int {
	dte := int(expiration.Sub(now).Hours() / 24)
	if dte < 0 {
		return 0
	}
	return dte
}

// ClassifyDTE maps a DTE to a trade type by comparing thresholds in
// ascending order.
func ClassifyDTE(dte int, th models.DTEThresholds) models.TradeType {
	switch {
	case dte <= th.Scalp:
		return models.TradeScalp
	case dte <= th.Day:
		return models.TradeDay
	case dte <= th.Swing:
		return models.TradeSwing
	default:
		return models.TradeLeap
	}
}

// ClassifyExpiration resolves both the trade type and the DTE it was derived
// from.
func ClassifyExpiration(expiration, now time.Time, th models.DTEThresholds) (models.TradeType, int) {
	dte := DaysToExpiration(expiration, now)
	return ClassifyDTE(dte, th), dte
}
