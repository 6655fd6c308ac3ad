package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"OptRisk/internal/domain/models"
)

func TestClassifyDTEDefaultTable(t *testing.T) {
	cases := []struct {
		dte  int
		want models.TradeType
	}{
		{0, models.TradeScalp},
		{1, models.TradeScalp},
		{2, models.TradeScalp},
		{3, models.TradeDay},
		{14, models.TradeDay},
		{15, models.TradeSwing},
		{60, models.TradeSwing},
		{61, models.TradeLeap},
		{365, models.TradeLeap},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyDTE(c.dte, DefaultDTEThresholds), "dte=%d", c.dte)
	}
}

func TestClassifyDTEIntradayTable(t *testing.T) {
	assert.Equal(t, models.TradeScalp, ClassifyDTE(0, IntradayDTEThresholds))
	assert.Equal(t, models.TradeDay, ClassifyDTE(1, IntradayDTEThresholds))
	assert.Equal(t, models.TradeDay, ClassifyDTE(4, IntradayDTEThresholds))
	assert.Equal(t, models.TradeSwing, ClassifyDTE(5, IntradayDTEThresholds))
	assert.Equal(t, models.TradeSwing, ClassifyDTE(29, IntradayDTEThresholds))
	assert.Equal(t, models.TradeLeap, ClassifyDTE(30, IntradayDTEThresholds))
}

func TestDaysToExpiration(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysToExpiration(now, now))
	assert.Equal(t, 0, DaysToExpiration(now.Add(-48*time.Hour), now), "expired clamps to zero")
	assert.Equal(t, 0, DaysToExpiration(now.Add(23*time.Hour), now), "partial day floors")
	assert.Equal(t, 7, DaysToExpiration(now.Add(7*24*time.Hour), now))
}

func TestClassifyExpiration(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	exp := now.Add(20 * 24 * time.Hour)

	typ, dte := ClassifyExpiration(exp, now, DefaultDTEThresholds)
	assert.Equal(t, models.TradeSwing, typ)
	assert.Equal(t, 20, dte)
}
