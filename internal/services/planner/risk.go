package planner

import (
	"fmt"
	"strings"
	"time"

	"OptRisk/internal/domain/models"
)

const (
	ModePercent    = "percent"
	ModeCalculated = "calculated"
)

// CalculateRisk is the planning pipeline entry point. It never returns an
// error: missing inputs degrade through the fallback tiers instead. The
// function is pure; identical input produces an identical plan.
func CalculateRisk(in models.RiskCalculationInput) models.RiskCalculationResult {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	if in.Direction == "" {
		in.Direction = models.DirectionLong
	}

	if in.Defaults.Mode == ModePercent {
		return percentPlan(in, now)
	}
	return calculatedPlan(in, now)
}

// percentPlan applies fixed percentages to the entry price. No key levels, no
// volatility, no grading beyond the resulting risk/reward.
func percentPlan(in models.RiskCalculationInput, now time.Time) models.RiskCalculationResult {
	tp := in.Defaults.TPPercent
	if tp <= 0 {
		tp = defaultTPPercent
	}
	sl := in.Defaults.SLPercent
	if sl <= 0 {
		sl = defaultSLPercent
	}

	sign := 1.0
	if in.Direction == models.DirectionShort {
		sign = -1
	}
	target := in.EntryPrice * (1 + sign*tp/100)
	stop := in.EntryPrice * (1 - sign*sl/100)

	res := models.RiskCalculationResult{
		TargetPrice:     target,
		StopLoss:        stop,
		RiskRewardRatio: riskReward(in.EntryPrice, target, stop, in.Direction),
		Confidence:      models.ConfidenceLow,
		Reasoning:       fmt.Sprintf("Fixed-percent plan: +%.1f%% target, -%.1f%% stop", tp, sl),
		CalculatedAt:    now,
		UsedLevels:      []string{"percent"},
		TradeType:       in.TradeType,
	}
	if in.Expiration != nil {
		res.DTE = DaysToExpiration(*in.Expiration, now)
	}
	if in.CurrentOptionMid > 0 {
		res.TargetPremium = in.CurrentOptionMid * (1 + tp/100)
		res.StopPremium = in.CurrentOptionMid * (1 - sl/100)
		if res.StopPremium < 0 {
			res.StopPremium = 0
		}
	}
	return res
}

func calculatedPlan(in models.RiskCalculationInput, now time.Time) models.RiskCalculationResult {
	thresholds := DefaultDTEThresholds
	if in.Defaults.DTEThresholds != nil {
		thresholds = *in.Defaults.DTEThresholds
	}

	// Explicit trade type wins, then expiration-derived, then DAY.
	tradeType := in.TradeType
	typeKnown := tradeType != ""
	dte := 0
	if !typeKnown && in.Expiration != nil {
		tradeType, dte = ClassifyExpiration(*in.Expiration, now, thresholds)
		typeKnown = true
	} else if in.Expiration != nil {
		dte = DaysToExpiration(*in.Expiration, now)
	}
	if tradeType == "" {
		tradeType = models.TradeDay
	}

	profile := AdjustProfileForConfluence(ProfileFor(tradeType), in.Confluence)

	anchors := SelectPlanAnchors(AnchorInput{
		Entry:     in.EntryPrice,
		Current:   in.CurrentUnderlyingPrice,
		Direction: in.Direction,
		KeyLevels: in.KeyLevels,
		Profile:   profile,
		ATR:       in.ATR,
		TradeType: tradeType,
		Premium:   in.CurrentOptionMid,
		Delta:     in.Delta,
		Gamma:     in.Gamma,
		TPPercent: in.Defaults.TPPercent,
		SLPercent: in.Defaults.SLPercent,
	})

	res := models.RiskCalculationResult{
		StopLoss:     anchors.Stop.Price,
		StopPremium:  anchors.Stop.PremiumPrice,
		CalculatedAt: now,
		TradeType:    tradeType,
		DTE:          dte,
		Anchors:      &anchors,
	}
	if len(anchors.Targets) > 0 {
		res.TargetPrice = anchors.Targets[0].Price
		res.TargetPremium = anchors.Targets[0].PremiumPrice
	}
	if len(anchors.Targets) > 1 {
		res.TargetPrice2 = anchors.Targets[1].Price
		res.TargetPremium2 = anchors.Targets[1].PremiumPrice
	}
	res.RiskRewardRatio = riskReward(in.EntryPrice, res.TargetPrice, res.StopLoss, in.Direction)
	res.UsedLevels = usedLevels(anchors)
	applyExitHints(&res, in, profile)

	report := GradeConfidence(models.ConfidenceContext{
		LevelCount:           in.KeyLevels.Count(),
		HasATR:               in.ATR > 0,
		DataAge:              in.DataAge,
		Liquidity:            in.Liquidity,
		HasIVData:            in.HasIVData,
		HasFlowData:          in.KeyLevels.HasFlow(),
		HasGammaData:         in.KeyLevels.Flow != nil && in.KeyLevels.Flow.GammaWall > 0,
		ConfluenceScore:      in.Confluence,
		TradeTypeKnown:       typeKnown,
		RiskReward:           res.RiskRewardRatio,
		StructuralLevelsUsed: structuralCount(anchors),
	})
	res.Confidence = report.Grade
	res.Reasoning = buildReasoning(tradeType, dte, anchors, report)
	if res.EODExit != "" {
		res.Reasoning += fmt.Sprintf(" Time exit: close by %s ET.", res.EODExit)
	}
	return res
}

// applyExitHints fills the profile-derived trailing and time exits. The
// trailing stop only activates once the position is in profit and only when
// it is tighter than the selected stop; the current price stands in for the
// running high so repeated calls stay pure.
func applyExitHints(res *models.RiskCalculationResult, in models.RiskCalculationInput, profile models.RiskProfile) {
	res.EODExit = profile.EODCutoff
	if profile.TrailingStep <= 0 || in.ATR <= 0 {
		return
	}
	res.TrailingDistance = in.ATR * profile.TrailingStep

	cur := in.CurrentUnderlyingPrice
	if cur <= 0 {
		return
	}
	if in.Direction == models.DirectionShort {
		if cur < in.EntryPrice {
			if ts := cur + res.TrailingDistance; ts < res.StopLoss {
				res.TrailingStop = ts
			}
		}
		return
	}
	if cur > in.EntryPrice {
		if ts := CalculateTrailingStop(cur, in.ATR, profile.TrailingStep); ts > res.StopLoss {
			res.TrailingStop = ts
		}
	}
}

// riskReward relates the first objective to the stop distance. Zero-or-worse
// risk yields 0, not infinity; a target on the wrong side of the entry
// surfaces as a negative ratio.
func riskReward(entry, target, stop float64, dir models.Direction) float64 {
	var reward, risk float64
	if dir == models.DirectionShort {
		reward = entry - target
		risk = stop - entry
	} else {
		reward = target - entry
		risk = entry - stop
	}
	if risk <= 0 {
		return 0
	}
	return reward / risk
}

// usedLevels names the levels the anchors were built from, stop first.
// Fallback anchors without a source level report their tier instead.
func usedLevels(a models.TradePlanAnchors) []string {
	out := make([]string, 0, 1+len(a.Targets))
	out = append(out, levelTag(a.Stop))
	for _, t := range a.Targets {
		out = append(out, levelTag(t.PlanAnchor))
	}
	return out
}

func levelTag(a models.PlanAnchor) string {
	if a.LevelName != "" {
		return string(a.LevelName)
	}
	return string(a.Type)
}

func structuralCount(a models.TradePlanAnchors) int {
	n := 0
	if a.Stop.Type == models.AnchorStructural || a.Stop.Type == models.AnchorGamma {
		n++
	}
	for _, t := range a.Targets {
		if t.Type == models.AnchorStructural || t.Type == models.AnchorGamma {
			n++
		}
	}
	return n
}

func buildReasoning(t models.TradeType, dte int, a models.TradePlanAnchors, rep models.ConfidenceReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s plan (%d DTE), %s quality %d/100. ", t, dte, a.Quality.Level, a.Quality.Score)
	fmt.Fprintf(&b, "Stop: %s.", a.Stop.Reason)
	for _, tgt := range a.Targets {
		fmt.Fprintf(&b, " %s: %s.", tgt.Label, tgt.Reason)
	}
	if len(rep.Reasons) > 0 {
		b.WriteString(" Confidence: ")
		b.WriteString(strings.Join(rep.Reasons, "; "))
	}
	return b.String()
}
