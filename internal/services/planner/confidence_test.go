package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"OptRisk/internal/domain/models"
)

func TestGradeConfidenceHighBoundary(t *testing.T) {
	rep := GradeConfidence(models.ConfidenceContext{
		LevelCount:      8,
		HasATR:          true,
		DataAge:         5 * time.Second,
		Liquidity:       "excellent",
		HasIVData:       true,
		HasFlowData:     true,
		HasGammaData:    true,
		ConfluenceScore: 80,
		TradeTypeKnown:  false,
		RiskReward:      3.0,
	})
	assert.Equal(t, 85, rep.Score)
	assert.Equal(t, models.ConfidenceHigh, rep.Grade)
	assert.NotEmpty(t, rep.Reasons)
}

func TestGradeConfidenceMediumBoundary(t *testing.T) {
	rep := GradeConfidence(models.ConfidenceContext{
		LevelCount:      8,
		HasATR:          true,
		DataAge:         5 * time.Second,
		Liquidity:       "excellent",
		ConfluenceScore: 40,
		TradeTypeKnown:  true,
		RiskReward:      1.0,
	})
	assert.Equal(t, 60, rep.Score)
	assert.Equal(t, models.ConfidenceMedium, rep.Grade)
}

func TestGradeConfidenceJustBelowMedium(t *testing.T) {
	rep := GradeConfidence(models.ConfidenceContext{
		LevelCount:      8,
		HasATR:          true,
		DataAge:         5 * time.Second,
		Liquidity:       "excellent",
		HasIVData:       true,
		ConfluenceScore: 60,
		TradeTypeKnown:  false,
		RiskReward:      1.0,
	})
	assert.Equal(t, 59, rep.Score)
	assert.Equal(t, models.ConfidenceLow, rep.Grade)
}

func TestGradeConfidenceEmptyContext(t *testing.T) {
	rep := GradeConfidence(models.ConfidenceContext{})
	assert.Equal(t, models.ConfidenceLow, rep.Grade)
	assert.Greater(t, rep.Score, 0, "floor scores still accrue")
	assert.Less(t, rep.Score, confidenceMediumMin)
}

func TestGradeConfidenceDeterministic(t *testing.T) {
	ctx := models.ConfidenceContext{
		LevelCount: 5, HasATR: true, DataAge: 30 * time.Second,
		Liquidity: "good", ConfluenceScore: 55, RiskReward: 1.8,
	}
	a := GradeConfidence(ctx)
	b := GradeConfidence(ctx)
	assert.Equal(t, a, b)
}
