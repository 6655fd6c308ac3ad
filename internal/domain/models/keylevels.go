package models

// LevelName identifies a named reference price inside KeyLevels.
type LevelName string

const (
	LevelVWAP          LevelName = "vwap"
	LevelVWAPUpperBand LevelName = "vwapUpperBand"
	LevelVWAPLowerBand LevelName = "vwapLowerBand"
	LevelORB           LevelName = "orb"
	LevelPreMarket     LevelName = "preMarket"
	LevelPriorDay      LevelName = "priorDay"
	LevelPriorDayClose LevelName = "priorDayClose"
	LevelPriorWeek     LevelName = "priorWeek"
	LevelPriorMonth    LevelName = "priorMonth"
	LevelPriorQuarter  LevelName = "priorQuarter"
	LevelPriorYear     LevelName = "priorYear"
	LevelBollinger     LevelName = "bollinger"
	LevelDailyPivot    LevelName = "dailyPivot"
	LevelGammaWall     LevelName = "gammaWall"
	LevelCallWall      LevelName = "callWall"
	LevelPutWall       LevelName = "putWall"
	LevelMaxPain       LevelName = "maxPain"
)

// OptionsFlow carries dealer-positioning levels when flow data is available.
type OptionsFlow struct {
	GammaWall float64
	CallWall  float64
	PutWall   float64
	MaxPain   float64
}

// KeyLevels is a sparse record of reference prices. A field that is zero (or
// negative) means "not available" and must never be treated as a valid anchor.
// Values are computed wholesale per bar set and never mutated in place.
type KeyLevels struct {
	VWAP          float64
	VWAPUpperBand float64
	VWAPLowerBand float64

	ORBHigh float64
	ORBLow  float64

	PreMarketHigh float64
	PreMarketLow  float64

	PriorDayHigh  float64
	PriorDayLow   float64
	PriorDayClose float64

	PriorWeekHigh    float64
	PriorWeekLow     float64
	PriorMonthHigh   float64
	PriorMonthLow    float64
	PriorQuarterHigh float64
	PriorQuarterLow  float64
	PriorYearHigh    float64
	PriorYearLow     float64

	BollingerUpper  float64
	BollingerMiddle float64
	BollingerLower  float64

	DailyPivot float64

	Flow *OptionsFlow
}

// Count returns how many level prices are actually populated.
func (k KeyLevels) Count() int {
	n := 0
	for _, v := range []float64{
		k.VWAP, k.VWAPUpperBand, k.VWAPLowerBand,
		k.ORBHigh, k.ORBLow,
		k.PreMarketHigh, k.PreMarketLow,
		k.PriorDayHigh, k.PriorDayLow, k.PriorDayClose,
		k.PriorWeekHigh, k.PriorWeekLow,
		k.PriorMonthHigh, k.PriorMonthLow,
		k.PriorQuarterHigh, k.PriorQuarterLow,
		k.PriorYearHigh, k.PriorYearLow,
		k.BollingerUpper, k.BollingerMiddle, k.BollingerLower,
		k.DailyPivot,
	} {
		if v > 0 {
			n++
		}
	}
	if k.Flow != nil {
		for _, v := range []float64{k.Flow.GammaWall, k.Flow.CallWall, k.Flow.PutWall, k.Flow.MaxPain} {
			if v > 0 {
				n++
			}
		}
	}
	return n
}

// HasFlow reports whether any options-flow level is populated.
func (k KeyLevels) HasFlow() bool {
	return k.Flow != nil && (k.Flow.GammaWall > 0 || k.Flow.CallWall > 0 || k.Flow.PutWall > 0 || k.Flow.MaxPain > 0)
}
