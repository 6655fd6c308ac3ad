package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"OptRisk/internal/domain/models"
	domrepo "OptRisk/internal/domain/repository"
	"OptRisk/pkg/util"
)

// CandleAggregator folds live quotes into fixed-width OHLCV buckets and
// persists each bucket when the next one opens. One open candle per symbol.
type CandleAggregator struct {
	store   domrepo.CandleStore
	metrics domrepo.Metrics
	width   time.Duration
	tf      domrepo.Timeframe

	mu         sync.Mutex
	open       map[string]*models.Candle
	onBarClose func(context.Context, string)
}

func NewCandleAggregator(store domrepo.CandleStore, metrics domrepo.Metrics, tf domrepo.Timeframe) *CandleAggregator {
	tf = domrepo.NormalizeTimeframe(string(tf))
	return &CandleAggregator{
		store:   store,
		metrics: metrics,
		width:   util.TimeframeDuration(string(tf)),
		tf:      tf,
		open:    make(map[string]*models.Candle),
	}
}

// OnBarClose registers a callback invoked with the symbol after a rolled
// candle is persisted. Not safe to call once quotes are flowing.
func (a *CandleAggregator) OnBarClose(fn func(context.Context, string)) {
	a.onBarClose = fn
}

// Add applies one quote. A quote that opens a new bucket flushes the previous
// candle for the symbol to the store first.
func (a *CandleAggregator) Add(ctx context.Context, q *models.Quote) error {
	if q == nil || q.Symbol == "" || q.Timestamp <= 0 {
		return fmt.Errorf("invalid quote")
	}
	bucket := time.Unix(q.Timestamp, 0).UTC().Truncate(a.width)

	a.mu.Lock()
	cur := a.open[q.Symbol]
	var done *models.Candle
	switch {
	case cur == nil:
		a.open[q.Symbol] = newCandle(q, bucket)
	case bucket.After(cur.Bucket):
		done = cur
		a.open[q.Symbol] = newCandle(q, bucket)
	case bucket.Before(cur.Bucket):
		// Late tick for an already-closed bucket; dropped rather than
		// reopening history.
		a.metrics.RecordError("candle_late_tick")
	default:
		fold(cur, q)
	}
	a.mu.Unlock()

	if done == nil {
		return nil
	}
	start := time.Now()
	if err := a.store.Store(ctx, done); err != nil {
		a.metrics.RecordError("candle_store")
		return fmt.Errorf("store candle %s@%s: %w", done.Symbol, done.Bucket, err)
	}
	a.metrics.RecordLatency("candle_store", time.Since(start).Seconds())
	if a.onBarClose != nil {
		a.onBarClose(ctx, done.Symbol)
	}
	return nil
}

// Flush persists every open candle. Called on shutdown so the in-progress
// bucket is not lost.
func (a *CandleAggregator) Flush(ctx context.Context) error {
	a.mu.Lock()
	pending := make([]*models.Candle, 0, len(a.open))
	for _, c := range a.open {
		pending = append(pending, c)
	}
	a.open = make(map[string]*models.Candle)
	a.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	if err := a.store.StoreBatch(ctx, pending); err != nil {
		a.metrics.RecordError("candle_flush")
		return fmt.Errorf("flush candles: %w", err)
	}
	return nil
}

func newCandle(q *models.Quote, bucket time.Time) *models.Candle {
	return &models.Candle{
		Bucket: bucket,
		Symbol: q.Symbol,
		Open:   q.Price,
		High:   q.Price,
		Low:    q.Price,
		Close:  q.Price,
		Volume: q.Volume,
	}
}

func fold(c *models.Candle, q *models.Quote) {
	if q.Price > c.High {
		c.High = q.Price
	}
	if q.Price < c.Low {
		c.Low = q.Price
	}
	c.Close = q.Price
	c.Volume += q.Volume
}
