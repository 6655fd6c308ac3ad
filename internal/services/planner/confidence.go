package planner

import (
	"fmt"
	"time"

	"OptRisk/internal/domain/models"
)

// Confidence grade boundaries on the 0-100 sum of the four factors.
const (
	confidenceHighMin   = 85
	confidenceMediumMin = 60
)

// GradeConfidence scores four independent 0-25 factors - data quality,
// market conditions, technical alignment, risk/reward quality - and sums
// them into a 0-100 grade. Every contributing check appends a reasoning
// line; the list is part of the output contract, not a log.
func GradeConfidence(ctx models.ConfidenceContext) models.ConfidenceReport {
	var rep models.ConfidenceReport

	dq := gradeDataQuality(ctx, &rep)
	mc := gradeMarketConditions(ctx, &rep)
	ta := gradeTechnicalAlignment(ctx, &rep)
	rr := gradeRiskReward(ctx, &rep)

	rep.Score = dq + mc + ta + rr
	switch {
	case rep.Score >= confidenceHighMin:
		rep.Grade = models.ConfidenceHigh
	case rep.Score >= confidenceMediumMin:
		rep.Grade = models.ConfidenceMedium
	default:
		rep.Grade = models.ConfidenceLow
	}
	return rep
}

func gradeDataQuality(ctx models.ConfidenceContext, rep *models.ConfidenceReport) int {
	score := 0
	switch {
	case ctx.LevelCount >= 8:
		score += 10
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✓ %d key levels available", ctx.LevelCount))
	case ctx.LevelCount >= 5:
		score += 8
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✓ %d key levels available", ctx.LevelCount))
	case ctx.LevelCount >= 3:
		score += 6
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("~ only %d key levels available", ctx.LevelCount))
	case ctx.LevelCount >= 1:
		score += 3
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("~ only %d key levels available", ctx.LevelCount))
	default:
		rep.Reasons = append(rep.Reasons, "✗ no key levels available")
	}

	if ctx.HasATR {
		score += 5
		rep.Reasons = append(rep.Reasons, "✓ ATR available")
	} else {
		rep.Reasons = append(rep.Reasons, "✗ no ATR; volatility sizing degraded")
	}

	switch {
	case ctx.DataAge < 10*time.Second:
		score += 10
		rep.Reasons = append(rep.Reasons, "✓ market data is fresh")
	case ctx.DataAge < time.Minute:
		score += 6
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("~ market data is %ds old", int(ctx.DataAge.Seconds())))
	default:
		score += 2
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✗ market data is %ds old", int(ctx.DataAge.Seconds())))
	}
	return score
}

func gradeMarketConditions(ctx models.ConfidenceContext, rep *models.ConfidenceReport) int {
	score := 0
	switch ctx.Liquidity {
	case "excellent":
		score += 10
		rep.Reasons = append(rep.Reasons, "✓ excellent liquidity")
	case "good":
		score += 7
		rep.Reasons = append(rep.Reasons, "✓ good liquidity")
	case "fair":
		score += 4
		rep.Reasons = append(rep.Reasons, "~ fair liquidity")
	default:
		score++
		rep.Reasons = append(rep.Reasons, "✗ poor liquidity")
	}

	if ctx.HasIVData {
		score += 5
		rep.Reasons = append(rep.Reasons, "✓ implied volatility data present")
	} else {
		rep.Reasons = append(rep.Reasons, "✗ no implied volatility data")
	}
	if ctx.HasFlowData {
		score += 5
		rep.Reasons = append(rep.Reasons, "✓ options flow data present")
	} else {
		rep.Reasons = append(rep.Reasons, "✗ no options flow data")
	}
	if ctx.HasGammaData {
		score += 5
		rep.Reasons = append(rep.Reasons, "✓ gamma exposure data present")
	} else {
		rep.Reasons = append(rep.Reasons, "✗ no gamma exposure data")
	}
	return score
}

func gradeTechnicalAlignment(ctx models.ConfidenceContext, rep *models.ConfidenceReport) int {
	score := 0
	switch {
	case ctx.ConfluenceScore >= 80:
		score += 15
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✓ strong confluence (%.0f)", ctx.ConfluenceScore))
	case ctx.ConfluenceScore >= 60:
		score += 11
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✓ decent confluence (%.0f)", ctx.ConfluenceScore))
	case ctx.ConfluenceScore >= 40:
		score += 7
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("~ mixed confluence (%.0f)", ctx.ConfluenceScore))
	default:
		score += 3
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✗ weak confluence (%.0f)", ctx.ConfluenceScore))
	}

	if ctx.TradeTypeKnown {
		score += 10
		rep.Reasons = append(rep.Reasons, "✓ trade horizon classified from expiration")
	} else {
		rep.Reasons = append(rep.Reasons, "~ trade horizon assumed, no expiration supplied")
	}
	return score
}

func gradeRiskReward(ctx models.ConfidenceContext, rep *models.ConfidenceReport) int {
	score := 0
	switch {
	case ctx.RiskReward >= 3:
		score += 20
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✓ excellent risk/reward %.1f:1", ctx.RiskReward))
	case ctx.RiskReward >= 2:
		score += 16
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✓ solid risk/reward %.1f:1", ctx.RiskReward))
	case ctx.RiskReward >= 1.5:
		score += 12
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✓ acceptable risk/reward %.1f:1", ctx.RiskReward))
	case ctx.RiskReward >= 1:
		score += 8
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("~ thin risk/reward %.1f:1", ctx.RiskReward))
	default:
		score += 3
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✗ poor risk/reward %.1f:1", ctx.RiskReward))
	}

	if ctx.StructuralLevelsUsed >= 2 {
		score += 5
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("✓ %d structural levels back the plan", ctx.StructuralLevelsUsed))
	}
	return score
}
