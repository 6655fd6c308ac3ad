package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OptRisk/internal/domain/models"
	domrepo "OptRisk/internal/domain/repository"
)

func quoteAt(ts int64, price, vol float64) *models.Quote {
	return &models.Quote{Symbol: "SPY", Timestamp: ts, Price: price, Volume: vol}
}

func TestAggregatorFoldsSameBucket(t *testing.T) {
	store := &stubCandleStore{}
	agg := NewCandleAggregator(store, newStubMetrics(), domrepo.TF1m)
	ctx := context.Background()

	base := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC).Unix()
	require.NoError(t, agg.Add(ctx, quoteAt(base, 100, 10)))
	require.NoError(t, agg.Add(ctx, quoteAt(base+10, 102, 5)))
	require.NoError(t, agg.Add(ctx, quoteAt(base+20, 99, 5)))

	// nothing closed yet
	assert.Empty(t, store.stored)

	require.NoError(t, agg.Flush(ctx))
	require.Len(t, store.stored, 1)
	c := store.stored[0]
	assert.Equal(t, 100.0, c.Open)
	assert.Equal(t, 102.0, c.High)
	assert.Equal(t, 99.0, c.Low)
	assert.Equal(t, 99.0, c.Close)
	assert.Equal(t, 20.0, c.Volume)
}

func TestAggregatorFlushesOnBucketRoll(t *testing.T) {
	store := &stubCandleStore{}
	agg := NewCandleAggregator(store, newStubMetrics(), domrepo.TF1m)
	ctx := context.Background()

	base := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC).Unix()
	require.NoError(t, agg.Add(ctx, quoteAt(base, 100, 10)))
	require.NoError(t, agg.Add(ctx, quoteAt(base+60, 101, 10)))

	require.Len(t, store.stored, 1)
	assert.Equal(t, 100.0, store.stored[0].Close)
	assert.Equal(t, time.Unix(base, 0).UTC(), store.stored[0].Bucket)
}

func TestAggregatorBarCloseHook(t *testing.T) {
	store := &stubCandleStore{}
	agg := NewCandleAggregator(store, newStubMetrics(), domrepo.TF1m)
	var closed []string
	agg.OnBarClose(func(_ context.Context, symbol string) { closed = append(closed, symbol) })
	ctx := context.Background()

	base := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC).Unix()
	require.NoError(t, agg.Add(ctx, quoteAt(base, 100, 10)))
	assert.Empty(t, closed, "open bucket does not fire the hook")

	require.NoError(t, agg.Add(ctx, quoteAt(base+30, 101, 5)))
	assert.Empty(t, closed, "folding into the same bucket does not fire the hook")

	require.NoError(t, agg.Add(ctx, quoteAt(base+60, 102, 5)))
	assert.Equal(t, []string{"SPY"}, closed)
}

func TestAggregatorDropsLateTicks(t *testing.T) {
	store := &stubCandleStore{}
	m := newStubMetrics()
	agg := NewCandleAggregator(store, m, domrepo.TF1m)
	ctx := context.Background()

	base := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC).Unix()
	require.NoError(t, agg.Add(ctx, quoteAt(base+60, 101, 10)))
	require.NoError(t, agg.Add(ctx, quoteAt(base, 100, 10)))

	assert.Equal(t, 1, m.errors["candle_late_tick"])
	require.NoError(t, agg.Flush(ctx))
	require.Len(t, store.stored, 1)
	assert.Equal(t, 101.0, store.stored[0].Close)
}

func TestAggregatorRejectsInvalidQuote(t *testing.T) {
	agg := NewCandleAggregator(&stubCandleStore{}, newStubMetrics(), domrepo.TF1m)
	assert.Error(t, agg.Add(context.Background(), nil))
	assert.Error(t, agg.Add(context.Background(), &models.Quote{Symbol: "", Timestamp: 1}))
	assert.Error(t, agg.Add(context.Background(), &models.Quote{Symbol: "SPY", Timestamp: 0}))
}

func TestAggregatorTracksSymbolsIndependently(t *testing.T) {
	store := &stubCandleStore{}
	agg := NewCandleAggregator(store, newStubMetrics(), domrepo.TF1m)
	ctx := context.Background()

	base := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC).Unix()
	require.NoError(t, agg.Add(ctx, &models.Quote{Symbol: "SPY", Timestamp: base, Price: 100, Volume: 1}))
	require.NoError(t, agg.Add(ctx, &models.Quote{Symbol: "QQQ", Timestamp: base, Price: 400, Volume: 1}))

	require.NoError(t, agg.Flush(ctx))
	assert.Len(t, store.stored, 2)
}
