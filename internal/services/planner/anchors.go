package planner

import (
	"fmt"
	"math"

	"OptRisk/internal/domain/models"
)

// Proximity windows for the structural tier, as a fraction of current price.
const (
	stopProximity   = 0.05
	targetProximity = 0.10

	defaultTPPercent = 50
	defaultSLPercent = 25

	maxTargets = 3
)

// AnchorInput feeds anchor selection.
type AnchorInput struct {
	Entry     float64
	Current   float64
	Direction models.Direction
	KeyLevels models.KeyLevels
	Profile   models.RiskProfile
	ATR       float64
	TradeType models.TradeType
	Premium   float64
	Delta     float64
	Gamma     float64
	TPPercent float64
	SLPercent float64
}

// SelectPlanAnchors picks the stop and up to three targets through the
// four-tier fallback hierarchy: structural level, gamma-derived level, ATR
// multiple, fixed percent. A non-fallback candidate that satisfies the
// proximity constraints always beats any fallback.
func SelectPlanAnchors(in AnchorInput) models.TradePlanAnchors {
	if in.Direction == "" {
		in.Direction = models.DirectionLong
	}
	current := in.Current
	if current <= 0 {
		current = in.Entry
	}

	targetPool, stopPool := ProjectCandidates(in.Entry, in.Direction, in.KeyLevels, in.Profile, in.ATR)

	var out models.TradePlanAnchors
	out.Stop = in.selectStop(stopPool, current)
	out.Targets = in.selectTargets(targetPool, current)
	out.Quality = scorePlanQuality(out.Stop, out.Targets)
	return out
}

func (in AnchorInput) selectStop(pool []LevelCandidate, current float64) models.PlanAnchor {
	// Tier 1/2: structural and gamma candidates, ranked together with gamma
	// weighted above generic levels, restricted to 5% of current price.
	for _, c := range pool {
		if c.Type == models.AnchorATR {
			continue
		}
		if math.Abs(c.Price-current)/current > stopProximity {
			continue
		}
		return in.anchorFromCandidate(c, false, "")
	}

	// Tier 3: ATR multiple, tighter for scalps.
	if in.ATR > 0 {
		price := in.Entry - in.sign()*in.ATR*atrStopMultiplier(in.TradeType)
		return in.makeAnchor(models.AnchorATR, price, reasonATRStop, true)
	}

	// Tier 4: fixed percent on the premium, mapped back to an underlying move.
	move := in.percentMove(in.SLPercent, defaultSLPercent)
	return in.makeAnchor(models.AnchorPercent, in.Entry-in.sign()*move, reasonPercentStop, true)
}

func (in AnchorInput) selectTargets(pool []LevelCandidate, current float64) []models.TargetAnchor {
	chosen := make([]models.PlanAnchor, 0, maxTargets)
	used := make([]float64, 0, maxTargets)

	distinct := func(price float64) bool {
		for _, p := range used {
			if math.Abs(p-price) < 1e-9 {
				return false
			}
		}
		return true
	}

	// Structural and gamma candidates first, within 10% of current price.
	for _, c := range pool {
		if len(chosen) == maxTargets {
			break
		}
		if c.Type == models.AnchorATR {
			continue
		}
		if math.Abs(c.Price-current)/current > targetProximity {
			continue
		}
		if !distinct(c.Price) {
			continue
		}
		chosen = append(chosen, in.anchorFromCandidate(c, false, ""))
		used = append(used, c.Price)
	}

	// ATR-synthesized candidates fill the remaining slots.
	for _, c := range pool {
		if len(chosen) == maxTargets {
			break
		}
		if c.Type != models.AnchorATR || !distinct(c.Price) {
			continue
		}
		chosen = append(chosen, in.anchorFromCandidate(c, true, reasonATRTarget))
		used = append(used, c.Price)
	}

	// Percent tier guarantees at least one target.
	if len(chosen) == 0 {
		move := in.percentMove(in.TPPercent, defaultTPPercent)
		chosen = append(chosen, in.makeAnchor(models.AnchorPercent, in.Entry+in.sign()*move, reasonPercentTarget, true))
	}

	// Nearest first, so TP1 is the first objective hit on the way.
	for i := 1; i < len(chosen); i++ {
		for j := i; j > 0 && chosen[j].DistancePercent < chosen[j-1].DistancePercent; j-- {
			chosen[j], chosen[j-1] = chosen[j-1], chosen[j]
		}
	}

	targets := make([]models.TargetAnchor, len(chosen))
	for i, a := range chosen {
		targets[i] = models.TargetAnchor{PlanAnchor: a, Label: fmt.Sprintf("TP%d", i+1)}
	}
	return targets
}

func (in AnchorInput) anchorFromCandidate(c LevelCandidate, fallback bool, reason string) models.PlanAnchor {
	if reason == "" {
		reason = reasonFor(c)
	}
	a := in.makeAnchor(c.Type, c.Price, reason, fallback)
	a.LevelName = c.Name
	return a
}

func (in AnchorInput) makeAnchor(typ models.AnchorType, price float64, reason string, fallback bool) models.PlanAnchor {
	a := models.PlanAnchor{
		Type:            typ,
		Price:           price,
		UnderlyingPrice: price,
		Reason:          reason,
		IsFallback:      fallback,
	}
	if in.Entry > 0 {
		a.DistancePercent = math.Abs(price-in.Entry) / in.Entry * 100
	}
	if in.Premium > 0 {
		a.PremiumPrice = PremiumAtMove(in.Premium, in.Delta, in.Gamma, price-in.Entry, in.TradeType)
	}
	return a
}

func (in AnchorInput) sign() float64 {
	if in.Direction == models.DirectionShort {
		return -1
	}
	return 1
}

// percentMove converts a premium percentage into an underlying-price move.
// Without a usable delta the percentage applies to the underlying directly.
func (in AnchorInput) percentMove(pct, def float64) float64 {
	if pct <= 0 {
		pct = def
	}
	if in.Premium > 0 && math.Abs(in.Delta) > 1e-9 {
		return in.Premium * pct / 100 / math.Abs(in.Delta)
	}
	return in.Entry * pct / 100
}

// scorePlanQuality grades how structurally grounded the plan is. Base 50,
// rewarded for non-fallback anchors and gamma confirmation, penalized when
// everything degraded to a fallback tier.
func scorePlanQuality(stop models.PlanAnchor, targets []models.TargetAnchor) models.PlanQuality {
	q := models.PlanQuality{Score: 50}

	if !stop.IsFallback {
		q.Score += 20
		q.Reasons = append(q.Reasons, "stop anchored to a structural level")
	} else {
		q.Warnings = append(q.Warnings, fmt.Sprintf("stop degraded to %s tier", stop.Type))
	}
	if stop.Type == models.AnchorGamma {
		q.Score += 10
		q.Reasons = append(q.Reasons, "stop confirmed by options positioning")
	}

	allFallback := stop.IsFallback
	for _, t := range targets {
		if !t.IsFallback {
			q.Score += 10
			allFallback = false
			q.Reasons = append(q.Reasons, fmt.Sprintf("%s anchored to a structural level", t.Label))
		} else {
			q.Warnings = append(q.Warnings, fmt.Sprintf("%s degraded to %s tier", t.Label, t.Type))
		}
		if t.Type == models.AnchorGamma {
			q.Score += 5
		}
	}
	if allFallback {
		q.Score -= 20
		q.Warnings = append(q.Warnings, "no structural level available; plan is volatility-derived only")
	}

	if q.Score > 100 {
		q.Score = 100
	}
	if q.Score < 0 {
		q.Score = 0
	}
	switch {
	case q.Score >= 70:
		q.Level = models.QualityStrong
	case q.Score >= 50:
		q.Level = models.QualityModerate
	default:
		q.Level = models.QualityWeak
	}
	return q
}
