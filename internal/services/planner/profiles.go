package planner

import "OptRisk/internal/domain/models"

// riskProfiles is the static registry. Entries are treated as constants:
// ProfileFor hands out deep copies so callers can never mutate the registry.
var riskProfiles = map[models.TradeType]models.RiskProfile{
	models.TradeScalp: {
		Type:               models.TradeScalp,
		PrimaryTimeframe:   "1m",
		SecondaryTimeframe: "5m",
		ATRPeriod:          14,
		EligibleLevels: []models.LevelName{
			models.LevelVWAP, models.LevelVWAPUpperBand, models.LevelVWAPLowerBand,
			models.LevelORB, models.LevelPreMarket, models.LevelPriorDayClose,
			models.LevelDailyPivot,
			models.LevelGammaWall, models.LevelCallWall, models.LevelPutWall,
		},
		LevelWeights: map[models.LevelName]float64{
			models.LevelVWAP:          0.90,
			models.LevelVWAPUpperBand: 0.85,
			models.LevelVWAPLowerBand: 0.85,
			models.LevelORB:           0.88,
			models.LevelPreMarket:     0.82,
			models.LevelPriorDayClose: 0.78,
			models.LevelDailyPivot:    0.75,
			models.LevelGammaWall:     0.95,
			models.LevelCallWall:      0.92,
			models.LevelPutWall:       0.92,
		},
		TPFractions:  [2]float64{0.5, 1.0},
		SLFraction:   0.5,
		TrailingStep: 0.25,
		EODCutoff:    "15:45",
	},
	models.TradeDay: {
		Type:               models.TradeDay,
		PrimaryTimeframe:   "5m",
		SecondaryTimeframe: "15m",
		ATRPeriod:          14,
		EligibleLevels: []models.LevelName{
			models.LevelVWAP, models.LevelVWAPUpperBand, models.LevelVWAPLowerBand,
			models.LevelORB, models.LevelPreMarket,
			models.LevelPriorDay, models.LevelPriorDayClose, models.LevelDailyPivot,
			models.LevelGammaWall, models.LevelCallWall, models.LevelPutWall, models.LevelMaxPain,
		},
		LevelWeights: map[models.LevelName]float64{
			models.LevelVWAP:          0.90,
			models.LevelVWAPUpperBand: 0.85,
			models.LevelVWAPLowerBand: 0.85,
			models.LevelORB:           0.88,
			models.LevelPreMarket:     0.82,
			models.LevelPriorDay:      0.80,
			models.LevelPriorDayClose: 0.78,
			models.LevelDailyPivot:    0.75,
			models.LevelGammaWall:     0.95,
			models.LevelCallWall:      0.92,
			models.LevelPutWall:       0.92,
			models.LevelMaxPain:       0.90,
		},
		TPFractions:  [2]float64{1.0, 1.5},
		SLFraction:   1.0,
		TrailingStep: 0.5,
		EODCutoff:    "15:55",
	},
	models.TradeSwing: {
		Type:               models.TradeSwing,
		PrimaryTimeframe:   "1h",
		SecondaryTimeframe: "1d",
		ATRPeriod:          14,
		EligibleLevels: []models.LevelName{
			models.LevelPriorDay, models.LevelPriorWeek, models.LevelPriorMonth,
			models.LevelBollinger, models.LevelDailyPivot,
			models.LevelGammaWall, models.LevelCallWall, models.LevelPutWall, models.LevelMaxPain,
		},
		LevelWeights: map[models.LevelName]float64{
			models.LevelPriorDay:   0.80,
			models.LevelPriorWeek:  0.70,
			models.LevelPriorMonth: 0.65,
			models.LevelBollinger:  0.72,
			models.LevelDailyPivot: 0.75,
			models.LevelGammaWall:  0.95,
			models.LevelCallWall:   0.92,
			models.LevelPutWall:    0.92,
			models.LevelMaxPain:    0.90,
		},
		TPFractions:  [2]float64{1.5, 2.5},
		SLFraction:   1.5,
		TrailingStep: 0.75,
	},
	models.TradeLeap: {
		Type:               models.TradeLeap,
		PrimaryTimeframe:   "1d",
		SecondaryTimeframe: "1w",
		ATRPeriod:          21,
		EligibleLevels: []models.LevelName{
			models.LevelPriorWeek, models.LevelPriorMonth,
			models.LevelPriorQuarter, models.LevelPriorYear,
			models.LevelBollinger, models.LevelMaxPain,
		},
		LevelWeights: map[models.LevelName]float64{
			models.LevelPriorWeek:    0.70,
			models.LevelPriorMonth:   0.65,
			models.LevelPriorQuarter: 0.60,
			models.LevelPriorYear:    0.55,
			models.LevelBollinger:    0.72,
			models.LevelMaxPain:      0.90,
		},
		TPFractions:  [2]float64{2.0, 3.0},
		SLFraction:   2.0,
		TrailingStep: 1.0,
	},
}

// ProfileFor returns a copy of the registry entry for the trade type,
// defaulting to the DAY profile for unknown types.
func ProfileFor(t models.TradeType) models.RiskProfile {
	p, ok := riskProfiles[t]
	if !ok {
		p = riskProfiles[models.TradeDay]
	}
	return copyProfile(p)
}

func copyProfile(p models.RiskProfile) models.RiskProfile {
	out := p
	out.EligibleLevels = append([]models.LevelName(nil), p.EligibleLevels...)
	out.LevelWeights = make(map[models.LevelName]float64, len(p.LevelWeights))
	for k, v := range p.LevelWeights {
		out.LevelWeights[k] = v
	}
	return out
}

// AdjustProfileForConfluence scales level weights toward or away from their
// base value depending on how strongly the broader signals agree. Returns a
// new profile; the registry entry is never touched.
func AdjustProfileForConfluence(p models.RiskProfile, confluence float64) models.RiskProfile {
	out := copyProfile(p)
	if confluence <= 0 {
		return out
	}
	factor := 1 + (confluence-50)/500
	for name, w := range out.LevelWeights {
		w *= factor
		if w > 1 {
			w = 1
		}
		if w < 0 {
			w = 0
		}
		out.LevelWeights[name] = w
	}
	return out
}

// atrStopMultiplier sizes the ATR-tier fallback stop: tight for scalps,
// wider as the holding period grows.
func atrStopMultiplier(t models.TradeType) float64 {
	switch t {
	case models.TradeScalp:
		return 1.0
	case models.TradeDay:
		return 1.5
	default:
		return 2.0
	}
}
