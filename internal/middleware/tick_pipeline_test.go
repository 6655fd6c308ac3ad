package middleware

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OptRisk/internal/domain/models"
)

type fakeProc struct {
	mu   sync.Mutex
	err  error
	seen []*models.Quote
}

func (f *fakeProc) Process(_ context.Context, q *models.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.seen = append(f.seen, q)
	return nil
}

func (f *fakeProc) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: make(map[string]int)} }

func (m *fakeMetrics) RecordPlanComputed(string, string, string) {}
func (m *fakeMetrics) RecordReplan(string, string)               {}
func (m *fakeMetrics) RecordLastPrice(string, float64)           {}
func (m *fakeMetrics) RecordConfidence(string, float64)          {}
func (m *fakeMetrics) RecordLatency(string, float64)             {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func tick(symbol string, price float64) *models.Quote {
	return &models.Quote{Symbol: symbol, Timestamp: time.Now().Unix(), Price: price, Volume: 1}
}

func TestPipelineRejectsInvalidQuotes(t *testing.T) {
	proc := &fakeProc{}
	m := newFakeMetrics()
	p := NewTickPipeline(proc, m)
	ctx := context.Background()

	assert.Error(t, p.Process(ctx, nil))
	assert.Error(t, p.Process(ctx, &models.Quote{Timestamp: 1, Price: 1}))
	assert.Error(t, p.Process(ctx, &models.Quote{Symbol: "SPY", Price: 1}))
	assert.Error(t, p.Process(ctx, &models.Quote{Symbol: "SPY", Timestamp: 1, Price: -1}))

	assert.Zero(t, proc.count())
	assert.Equal(t, 4, m.errCount("pipeline_validate"))
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &fakeProc{}
	m := newFakeMetrics()
	p := NewTickPipeline(proc, m, WithMaxRPS(1))
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, tick("SPY", 100)))
	// second quote for the same symbol inside the window drops silently
	require.NoError(t, p.Process(ctx, tick("SPY", 100.1)))
	// a different symbol has its own window
	require.NoError(t, p.Process(ctx, tick("QQQ", 400)))

	assert.Equal(t, 2, proc.count())
	assert.Equal(t, 1, m.errCount("pipeline_throttle"))
}

func TestPipelineAppliesTransform(t *testing.T) {
	proc := &fakeProc{}
	p := NewTickPipeline(proc, newFakeMetrics(), WithTransform(func(q *models.Quote) *models.Quote {
		q.Symbol = strings.ToUpper(q.Symbol)
		return q
	}))

	require.NoError(t, p.Process(context.Background(), tick("spy", 100)))
	require.Equal(t, 1, proc.count())
	assert.Equal(t, "SPY", proc.seen[0].Symbol)
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &fakeProc{err: errors.New("kafka unavailable")}
	m := newFakeMetrics()
	p := NewTickPipeline(proc, m, WithBufferSize(2))
	ctx := context.Background()

	assert.Error(t, p.Process(ctx, tick("SPY", 100)))
	assert.Error(t, p.Process(ctx, tick("QQQ", 400)))
	assert.Equal(t, 2, len(p.bufCh))

	// buffer is full now; the next failure is counted as dropped
	assert.Error(t, p.Process(ctx, tick("AAPL", 200)))
	assert.Equal(t, 1, m.errCount("pipeline_buffer_full"))
}

func TestPipelineFlushesBufferWhenDownstreamRecovers(t *testing.T) {
	proc := &fakeProc{err: errors.New("kafka unavailable")}
	m := newFakeMetrics()
	p := NewTickPipeline(proc, m, WithBufferSize(4))
	ctx := context.Background()

	assert.Error(t, p.Process(ctx, tick("SPY", 100)))
	require.Equal(t, 1, len(p.bufCh))

	proc.mu.Lock()
	proc.err = nil
	proc.mu.Unlock()

	p.Start(ctx)
	defer p.Stop()

	require.Eventually(t, func() bool { return proc.count() == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "SPY", proc.seen[0].Symbol)
}

func TestPipelineStartIsIdempotent(t *testing.T) {
	p := NewTickPipeline(&fakeProc{}, newFakeMetrics())
	ctx := context.Background()
	p.Start(ctx)
	p.Start(ctx)
	p.Stop()
	p.Stop()
}
