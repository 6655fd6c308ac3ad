package planner

import (
	"fmt"

	"OptRisk/internal/domain/models"
)

// AssembleChartLevels flattens a trade record, its key levels, and an
// optional computed plan into the ordered display list. ENTRY/TP/SL always
// come first; the key-level rows follow in a fixed order. Rows are never
// reordered or deduplicated; an unavailable field silently omits its row.
func AssembleChartLevels(trade models.TradeRecord, kl models.KeyLevels, res *models.RiskCalculationResult) []models.ChartLevel {
	out := make([]models.ChartLevel, 0, 16)

	if trade.EntryPrice > 0 {
		out = append(out, models.ChartLevel{Type: models.ChartEntry, Label: "Entry", Price: trade.EntryPrice})
	}

	out = appendTarget(out, 1, firstPositive(trade.TargetPrice, resultTarget(res, 1), derivedUnderlying(trade, trade.OptionTarget)), res)
	out = appendTarget(out, 2, firstPositive(trade.TargetPrice2, resultTarget(res, 2)), res)
	out = appendTarget(out, 3, trade.TargetPrice3, res)

	if stop := firstPositive(trade.StopPrice, resultStop(res), derivedUnderlying(trade, trade.OptionStop)); stop > 0 {
		lvl := models.ChartLevel{Type: models.ChartSL, Label: "Stop", Price: stop}
		if res != nil && res.Anchors != nil {
			lvl.Meta = &models.ChartLevelMeta{IsFallback: res.Anchors.Stop.IsFallback, Reason: res.Anchors.Stop.Reason}
		}
		out = append(out, lvl)
	}

	// Key-level rows, fixed order: premarket, ORB, prior-day, VWAP and its
	// bands, Bollinger.
	out = appendLevel(out, models.ChartPreMarketHigh, "Premarket High", kl.PreMarketHigh)
	out = appendLevel(out, models.ChartPreMarketLow, "Premarket Low", kl.PreMarketLow)
	out = appendLevel(out, models.ChartORBHigh, "ORB High", kl.ORBHigh)
	out = appendLevel(out, models.ChartORBLow, "ORB Low", kl.ORBLow)
	out = appendLevel(out, models.ChartPriorDayHigh, "Prior Day High", kl.PriorDayHigh)
	out = appendLevel(out, models.ChartPriorDayLow, "Prior Day Low", kl.PriorDayLow)
	out = appendLevel(out, models.ChartVWAP, "VWAP", kl.VWAP)
	out = appendLevel(out, models.ChartVWAPBand, "VWAP Upper Band", kl.VWAPUpperBand)
	out = appendLevel(out, models.ChartVWAPBand, "VWAP Lower Band", kl.VWAPLowerBand)
	out = appendLevel(out, models.ChartBollingerUpper, "Bollinger Upper", kl.BollingerUpper)
	out = appendLevel(out, models.ChartBollingerLower, "Bollinger Lower", kl.BollingerLower)
	return out
}

func appendTarget(out []models.ChartLevel, n int, price float64, res *models.RiskCalculationResult) []models.ChartLevel {
	if price <= 0 {
		return out
	}
	lvl := models.ChartLevel{Type: models.ChartTP, Label: fmt.Sprintf("TP%d", n), Price: price}
	if res != nil && res.Anchors != nil && n <= len(res.Anchors.Targets) {
		t := res.Anchors.Targets[n-1]
		lvl.Meta = &models.ChartLevelMeta{IsFallback: t.IsFallback, Reason: t.Reason}
	}
	return append(out, lvl)
}

func appendLevel(out []models.ChartLevel, typ models.ChartLevelType, label string, price float64) []models.ChartLevel {
	if price <= 0 {
		return out
	}
	return append(out, models.ChartLevel{Type: typ, Label: label, Price: price})
}

// derivedUnderlying recovers an underlying target from a stored option price
// through the inverse premium mapping. Requires a usable delta.
func derivedUnderlying(trade models.TradeRecord, optionPrice float64) float64 {
	if optionPrice <= 0 || trade.OptionEntry <= 0 || trade.EntryPrice <= 0 {
		return 0
	}
	move := UnderlyingMoveForPremium(optionPrice-trade.OptionEntry, trade.Delta)
	if move == 0 {
		return 0
	}
	return trade.EntryPrice + move
}

func resultTarget(res *models.RiskCalculationResult, n int) float64 {
	if res == nil {
		return 0
	}
	if n == 1 {
		return res.TargetPrice
	}
	return res.TargetPrice2
}

func resultStop(res *models.RiskCalculationResult) float64 {
	if res == nil {
		return 0
	}
	return res.StopLoss
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
