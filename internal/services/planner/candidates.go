package planner

import (
	"math"
	"sort"

	"OptRisk/internal/domain/models"
)

// LevelCandidate is an ephemeral, per-call ranking entry. It never outlives
// anchor selection.
type LevelCandidate struct {
	Name     models.LevelName
	Type     models.AnchorType
	Price    float64
	Weight   float64
	Distance float64
}

// resolvedLevel is one eligible level materialized from KeyLevels. Levels
// with a high/low pair carry both; single-price levels set High == Low.
type resolvedLevel struct {
	Name models.LevelName
	Type models.AnchorType
	High float64
	Low  float64
}

func resolveLevels(kl models.KeyLevels, eligible []models.LevelName) []resolvedLevel {
	out := make([]resolvedLevel, 0, len(eligible))
	add := func(name models.LevelName, typ models.AnchorType, high, low float64) {
		if high <= 0 && low <= 0 {
			return
		}
		if high <= 0 {
			high = low
		}
		if low <= 0 {
			low = high
		}
		out = append(out, resolvedLevel{Name: name, Type: typ, High: high, Low: low})
	}

	for _, name := range eligible {
		switch name {
		case models.LevelVWAP:
			add(name, models.AnchorStructural, kl.VWAP, kl.VWAP)
		case models.LevelVWAPUpperBand:
			add(name, models.AnchorStructural, kl.VWAPUpperBand, kl.VWAPUpperBand)
		case models.LevelVWAPLowerBand:
			add(name, models.AnchorStructural, kl.VWAPLowerBand, kl.VWAPLowerBand)
		case models.LevelORB:
			add(name, models.AnchorStructural, kl.ORBHigh, kl.ORBLow)
		case models.LevelPreMarket:
			add(name, models.AnchorStructural, kl.PreMarketHigh, kl.PreMarketLow)
		case models.LevelPriorDay:
			add(name, models.AnchorStructural, kl.PriorDayHigh, kl.PriorDayLow)
		case models.LevelPriorDayClose:
			add(name, models.AnchorStructural, kl.PriorDayClose, kl.PriorDayClose)
		case models.LevelPriorWeek:
			add(name, models.AnchorStructural, kl.PriorWeekHigh, kl.PriorWeekLow)
		case models.LevelPriorMonth:
			add(name, models.AnchorStructural, kl.PriorMonthHigh, kl.PriorMonthLow)
		case models.LevelPriorQuarter:
			add(name, models.AnchorStructural, kl.PriorQuarterHigh, kl.PriorQuarterLow)
		case models.LevelPriorYear:
			add(name, models.AnchorStructural, kl.PriorYearHigh, kl.PriorYearLow)
		case models.LevelBollinger:
			add(name, models.AnchorStructural, kl.BollingerUpper, kl.BollingerLower)
		case models.LevelDailyPivot:
			add(name, models.AnchorStructural, kl.DailyPivot, kl.DailyPivot)
		case models.LevelGammaWall:
			if kl.Flow != nil {
				add(name, models.AnchorGamma, kl.Flow.GammaWall, kl.Flow.GammaWall)
			}
		case models.LevelCallWall:
			if kl.Flow != nil {
				add(name, models.AnchorGamma, kl.Flow.CallWall, kl.Flow.CallWall)
			}
		case models.LevelPutWall:
			if kl.Flow != nil {
				add(name, models.AnchorGamma, kl.Flow.PutWall, kl.Flow.PutWall)
			}
		case models.LevelMaxPain:
			if kl.Flow != nil {
				add(name, models.AnchorGamma, kl.Flow.MaxPain, kl.Flow.MaxPain)
			}
		}
	}
	return out
}

// ProjectCandidates combines key levels, the risk profile, and current ATR
// into ranked target and stop candidate lists around a reference price.
// Direction picks the high vs low variant of paired levels. With a missing
// ATR the distance caps are waived so structural levels still qualify; the
// tighter proximity windows of anchor selection still apply downstream.
func ProjectCandidates(ref float64, dir models.Direction, kl models.KeyLevels, p models.RiskProfile, atr float64) (targets, stops []LevelCandidate) {
	if ref <= 0 {
		return nil, nil
	}
	tpCap := atr * p.TPFractions[1]
	slCap := atr * p.SLFraction

	for _, lvl := range resolveLevels(kl, p.EligibleLevels) {
		weight, ok := p.LevelWeights[lvl.Name]
		if !ok {
			weight = 0.5
		}
		profitPx, riskPx := lvl.High, lvl.Low
		if dir == models.DirectionShort {
			profitPx, riskPx = lvl.Low, lvl.High
		}

		if onProfitSide(ref, profitPx, dir) {
			d := math.Abs(profitPx - ref)
			if atr <= 0 || d <= tpCap {
				targets = append(targets, LevelCandidate{Name: lvl.Name, Type: lvl.Type, Price: profitPx, Weight: weight, Distance: d})
			}
		}
		if onRiskSide(ref, riskPx, dir) {
			d := math.Abs(riskPx - ref)
			if atr <= 0 || d <= slCap {
				stops = append(stops, LevelCandidate{Name: lvl.Name, Type: lvl.Type, Price: riskPx, Weight: weight, Distance: d})
			}
		}
	}

	// ATR multiples are always appended as guaranteed fallbacks.
	if atr > 0 {
		sign := 1.0
		if dir == models.DirectionShort {
			sign = -1.0
		}
		targets = append(targets,
			LevelCandidate{Name: "atr", Type: models.AnchorATR, Price: ref + sign*atr*p.TPFractions[0], Weight: 0.8, Distance: atr * p.TPFractions[0]},
			LevelCandidate{Name: "atr", Type: models.AnchorATR, Price: ref + sign*atr*p.TPFractions[1], Weight: 0.6, Distance: atr * p.TPFractions[1]},
		)
		stops = append(stops,
			LevelCandidate{Name: "atr", Type: models.AnchorATR, Price: ref - sign*atr*p.SLFraction, Weight: 0.7, Distance: atr * p.SLFraction},
		)
	}

	sortCandidates(targets)
	sortCandidates(stops)
	return targets, stops
}

func onProfitSide(ref, price float64, dir models.Direction) bool {
	if price <= 0 {
		return false
	}
	if dir == models.DirectionShort {
		return price < ref
	}
	return price > ref
}

func onRiskSide(ref, price float64, dir models.Direction) bool {
	if price <= 0 {
		return false
	}
	if dir == models.DirectionShort {
		return price > ref
	}
	return price < ref
}

// sortCandidates orders by weight descending, then distance ascending, so
// closer structural levels win among equals.
func sortCandidates(cs []LevelCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Weight != cs[j].Weight {
			return cs[i].Weight > cs[j].Weight
		}
		return cs[i].Distance < cs[j].Distance
	})
}
