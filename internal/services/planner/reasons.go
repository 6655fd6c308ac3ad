package planner

import "OptRisk/internal/domain/models"

// anchorReasons is the static reason lookup. One fixed string per level so
// downstream consumers can key UI copy off it; never composed at runtime.
var anchorReasons = map[models.LevelName]string{
	models.LevelVWAP:          "VWAP acts as magnetic mean-reversion target",
	models.LevelVWAPUpperBand: "VWAP upper band caps intraday extensions",
	models.LevelVWAPLowerBand: "VWAP lower band catches intraday flushes",
	models.LevelORB:           "Opening range edge marks the first accepted value area",
	models.LevelPreMarket:     "Premarket extreme carries overnight positioning",
	models.LevelPriorDay:      "Prior-day extreme is defended by trapped positions",
	models.LevelPriorDayClose: "Prior-day close anchors unfinished business",
	models.LevelPriorWeek:     "Prior-week extreme frames the higher-timeframe range",
	models.LevelPriorMonth:    "Prior-month extreme is a major swing boundary",
	models.LevelPriorQuarter:  "Prior-quarter extreme marks institutional rebalancing zones",
	models.LevelPriorYear:     "Prior-year extreme is a long-horizon battleground",
	models.LevelBollinger:     "Bollinger band edge flags statistical overextension",
	models.LevelDailyPivot:    "Daily pivot is the session's balance point",
	models.LevelGammaWall:     "Gamma wall pins price through dealer hedging",
	models.LevelCallWall:      "Call wall resistance from dealer short-gamma hedging",
	models.LevelPutWall:       "Put wall support from dealer long-gamma hedging",
	models.LevelMaxPain:       "Max pain gravitates price into expiration",
}

const (
	reasonATRTarget     = "ATR-projected extension, no structural level in range"
	reasonATRStop       = "ATR-sized stop matched to current volatility"
	reasonPercentTarget = "Fixed-percent premium target, no level or volatility data"
	reasonPercentStop   = "Fixed-percent premium stop, no level or volatility data"
)

func reasonFor(c LevelCandidate) string {
	if c.Type == models.AnchorATR {
		return reasonATRTarget
	}
	if r, ok := anchorReasons[c.Name]; ok {
		return r
	}
	return "Structural level"
}
