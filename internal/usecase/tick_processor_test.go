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

type stubTickPublisher struct {
	ticks   []*models.Quote
	batches int
	closed  bool
}

func (p *stubTickPublisher) PublishTick(_ context.Context, q *models.Quote) error {
	p.ticks = append(p.ticks, q)
	return nil
}

func (p *stubTickPublisher) PublishTickBatch(_ context.Context, quotes []*models.Quote) error {
	p.ticks = append(p.ticks, quotes...)
	p.batches++
	return nil
}

func (p *stubTickPublisher) Close() error {
	p.closed = true
	return nil
}

func TestProcessorKafkaBackendPublishes(t *testing.T) {
	pub := &stubTickPublisher{}
	store := &stubCandleStore{}
	agg := NewCandleAggregator(store, newStubMetrics(), domrepo.TF1m)
	proc := NewTickProcessor(pub, agg, newStubMetrics(), "kafka")

	q := quoteAt(time.Now().Unix(), 100, 1)
	require.NoError(t, proc.Process(context.Background(), q))

	assert.Len(t, pub.ticks, 1)
	assert.Empty(t, store.stored)
}

func TestProcessorDirectBackendAggregates(t *testing.T) {
	pub := &stubTickPublisher{}
	store := &stubCandleStore{}
	agg := NewCandleAggregator(store, newStubMetrics(), domrepo.TF1m)
	proc := NewTickProcessor(pub, agg, newStubMetrics(), "direct")
	ctx := context.Background()

	base := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC).Unix()
	require.NoError(t, proc.Process(ctx, quoteAt(base, 100, 1)))
	require.NoError(t, proc.Process(ctx, quoteAt(base+60, 101, 1)))

	assert.Empty(t, pub.ticks)
	assert.Len(t, store.stored, 1)
}

func TestProcessorBatchRoutesByBackend(t *testing.T) {
	pub := &stubTickPublisher{}
	proc := NewTickProcessor(pub, nil, newStubMetrics(), "kafka")

	quotes := []*models.Quote{quoteAt(1, 100, 1), quoteAt(2, 100.5, 1)}
	require.NoError(t, proc.ProcessBatch(context.Background(), quotes))

	assert.Len(t, pub.ticks, 2)
	assert.Equal(t, 1, pub.batches)
}

func TestProcessorRejectsUnknownBackend(t *testing.T) {
	m := newStubMetrics()
	proc := NewTickProcessor(&stubTickPublisher{}, nil, m, "rabbitmq")

	err := proc.Process(context.Background(), quoteAt(1, 100, 1))
	assert.Error(t, err)
	assert.Equal(t, 1, m.errors["process_tick"])
}

func TestProcessorCloseFlushesOpenCandles(t *testing.T) {
	pub := &stubTickPublisher{}
	store := &stubCandleStore{}
	agg := NewCandleAggregator(store, newStubMetrics(), domrepo.TF1m)
	proc := NewTickProcessor(pub, agg, newStubMetrics(), "direct")

	require.NoError(t, proc.Process(context.Background(), quoteAt(time.Now().Unix(), 100, 1)))
	proc.Close()

	assert.True(t, pub.closed)
	assert.Len(t, store.stored, 1)
}
