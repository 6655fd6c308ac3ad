package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OptRisk/internal/domain/models"
)

func TestAssembleChartLevelsTradeRows(t *testing.T) {
	trade := models.TradeRecord{
		EntryPrice:  5.0,
		TargetPrice: 6.5,
		StopPrice:   4.0,
	}
	levels := AssembleChartLevels(trade, models.KeyLevels{}, nil)

	require.Len(t, levels, 3)
	assert.Equal(t, models.ChartEntry, levels[0].Type)
	assert.InDelta(t, 5.0, levels[0].Price, 1e-9)
	assert.Equal(t, models.ChartTP, levels[1].Type)
	assert.Equal(t, "TP1", levels[1].Label)
	assert.InDelta(t, 6.5, levels[1].Price, 1e-9)
	assert.Equal(t, models.ChartSL, levels[2].Type)
	assert.InDelta(t, 4.0, levels[2].Price, 1e-9)
}

func TestAssembleChartLevelsKeyLevelOrder(t *testing.T) {
	kl := models.KeyLevels{
		VWAP:          100.5,
		VWAPUpperBand: 101.5,
		VWAPLowerBand: 99.5,
		ORBHigh:       102,
		ORBLow:        99,
		PreMarketHigh: 103,
		PreMarketLow:  98,
		PriorDayHigh:  104,
		PriorDayLow:   97,
		BollingerUpper: 105,
		BollingerLower: 96,
	}
	levels := AssembleChartLevels(models.TradeRecord{}, kl, nil)

	want := []models.ChartLevelType{
		models.ChartPreMarketHigh, models.ChartPreMarketLow,
		models.ChartORBHigh, models.ChartORBLow,
		models.ChartPriorDayHigh, models.ChartPriorDayLow,
		models.ChartVWAP,
		models.ChartVWAPBand, models.ChartVWAPBand,
		models.ChartBollingerUpper, models.ChartBollingerLower,
	}
	require.Len(t, levels, len(want))
	for i, typ := range want {
		assert.Equal(t, typ, levels[i].Type, "row %d", i)
	}
	assert.Equal(t, "VWAP Upper Band", levels[7].Label)
	assert.Equal(t, "VWAP Lower Band", levels[8].Label)
}

func TestAssembleChartLevelsSkipsZeroFields(t *testing.T) {
	kl := models.KeyLevels{VWAP: 100.5}
	levels := AssembleChartLevels(models.TradeRecord{EntryPrice: 100}, kl, nil)

	require.Len(t, levels, 2)
	assert.Equal(t, models.ChartEntry, levels[0].Type)
	assert.Equal(t, models.ChartVWAP, levels[1].Type)
}

func TestAssembleChartLevelsDerivesFromOptionPrices(t *testing.T) {
	trade := models.TradeRecord{
		EntryPrice:   100,
		OptionEntry:  2.0,
		OptionTarget: 3.0,
		OptionStop:   1.5,
		Delta:        0.5,
	}
	levels := AssembleChartLevels(trade, models.KeyLevels{}, nil)

	require.Len(t, levels, 3)
	assert.InDelta(t, 102.0, levels[1].Price, 1e-9, "TP1 from (3.0-2.0)/0.5 above entry")
	assert.InDelta(t, 99.0, levels[2].Price, 1e-9, "SL from (1.5-2.0)/0.5 below entry")
}

func TestAssembleChartLevelsUsesPlanResult(t *testing.T) {
	res := &models.RiskCalculationResult{
		TargetPrice:  103,
		TargetPrice2: 105,
		StopLoss:     98,
		Anchors: &models.TradePlanAnchors{
			Stop: models.PlanAnchor{Type: models.AnchorATR, IsFallback: true, Reason: reasonATRStop},
			Targets: []models.TargetAnchor{
				{PlanAnchor: models.PlanAnchor{Type: models.AnchorStructural, Reason: "VWAP acts as magnetic mean-reversion target"}, Label: "TP1"},
				{PlanAnchor: models.PlanAnchor{Type: models.AnchorATR, IsFallback: true, Reason: reasonATRTarget}, Label: "TP2"},
			},
		},
	}
	levels := AssembleChartLevels(models.TradeRecord{EntryPrice: 100}, models.KeyLevels{}, res)

	require.Len(t, levels, 4)
	assert.Equal(t, "TP1", levels[1].Label)
	require.NotNil(t, levels[1].Meta)
	assert.False(t, levels[1].Meta.IsFallback)
	assert.Equal(t, "TP2", levels[2].Label)
	require.NotNil(t, levels[2].Meta)
	assert.True(t, levels[2].Meta.IsFallback)
	require.NotNil(t, levels[3].Meta)
	assert.True(t, levels[3].Meta.IsFallback)
}
