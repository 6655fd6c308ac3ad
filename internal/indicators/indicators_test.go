package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"OptRisk/internal/domain/models"
)

func createTestCandles() []models.Candle {
	return []models.Candle{
		{Open: 100, High: 105, Low: 99, Close: 102},
		{Open: 102, High: 107, Low: 101, Close: 105},
		{Open: 105, High: 108, Low: 104, Close: 106},
		{Open: 106, High: 110, Low: 105, Close: 108},
		{Open: 108, High: 112, Low: 107, Close: 110},
		{Open: 110, High: 113, Low: 109, Close: 111},
		{Open: 111, High: 115, Low: 110, Close: 113},
		{Open: 113, High: 116, Low: 112, Close: 114},
		{Open: 114, High: 118, Low: 113, Close: 116},
		{Open: 116, High: 120, Low: 115, Close: 118},
	}
}

func TestSMA(t *testing.T) {
	candles := createTestCandles()

	sma, err := SMA(candles, 5)
	assert.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.InDelta(t, 114.4, sma, 0.001)
}

func TestSMANotEnoughCandles(t *testing.T) {
	_, err := SMA(createTestCandles(), 11)
	assert.Error(t, err)

	_, err = SMA(createTestCandles(), 0)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	candles := createTestCandles()

	ema, err := EMA(candles, 5)
	assert.NoError(t, err)
	assert.Greater(t, ema, 0.0)

	// Steadily rising closes keep the EMA below the last close.
	assert.Less(t, ema, candles[len(candles)-1].Close)
}

func TestATRDetailed(t *testing.T) {
	candles := []models.Candle{
		{High: 10, Low: 8, Close: 9},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
		{High: 13, Low: 11, Close: 12},
	}
	atr, err := ATR(candles, 3)
	assert.NoError(t, err)
	assert.InDelta(t, 2.0, atr, 0.001)
}

func TestATRNotEnoughCandles(t *testing.T) {
	_, err := ATR(createTestCandles(), 10)
	assert.Error(t, err, "ATR needs period+1 candles")
}

func TestRSIAllGains(t *testing.T) {
	rsi, err := RSI(createTestCandles(), 5)
	assert.NoError(t, err)
	assert.InDelta(t, 100.0, rsi, 0.001, "no losses pins RSI at 100")
}

func TestRSIMixed(t *testing.T) {
	candles := []models.Candle{
		{Close: 100}, {Close: 102}, {Close: 101}, {Close: 103},
		{Close: 102}, {Close: 104}, {Close: 103}, {Close: 105},
	}
	rsi, err := RSI(candles, 5)
	assert.NoError(t, err)
	assert.Greater(t, rsi, 50.0)
	assert.Less(t, rsi, 100.0)
}

func TestTrueRange(t *testing.T) {
	current := models.Candle{High: 110, Low: 100, Close: 105}
	previous := models.Candle{Close: 104}
	assert.InDelta(t, 10.0, trueRange(current, previous), 0.001)
}

func TestStreamingATRMatchesBatch(t *testing.T) {
	candles := createTestCandles()

	batch, err := ATR(candles, 5)
	assert.NoError(t, err)

	s := NewStreamingATR(5)
	for _, c := range candles {
		s.Update(c)
	}
	assert.True(t, s.Ready())
	assert.InDelta(t, batch, s.Value(), 1e-9)
}

func TestStreamingATRWarmup(t *testing.T) {
	s := NewStreamingATR(5)
	assert.Equal(t, 6, s.Warmup())
	assert.False(t, s.Ready())
	assert.Zero(t, s.Value())

	for _, c := range createTestCandles()[:5] {
		s.Update(c)
	}
	assert.False(t, s.Ready(), "period+1 candles required")

	s.Reset()
	assert.False(t, s.Ready())
	assert.Zero(t, s.Value())
}
