package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domrepo "OptRisk/internal/domain/repository"
)

func TestTicksHandlerAggregates(t *testing.T) {
	store := &stubCandleStore{}
	agg := NewCandleAggregator(store, newStubMetrics(), domrepo.TF1m)
	h := NewKafkaTicksHandler("optrisk.ticks", agg, newStubMetrics())
	ctx := context.Background()

	base := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC).Unix()
	payload := fmt.Sprintf(`{"symbol":"SPY","t":%d,"p":101.5,"v":10}`, base)
	require.NoError(t, h.Handle(ctx, []byte(payload)))

	require.NoError(t, agg.Flush(ctx))
	require.Len(t, store.stored, 1)
	assert.Equal(t, "SPY", store.stored[0].Symbol)
	assert.Equal(t, 101.5, store.stored[0].Close)
}

func TestTicksHandlerConvertsMillisTimestamps(t *testing.T) {
	store := &stubCandleStore{}
	agg := NewCandleAggregator(store, newStubMetrics(), domrepo.TF1m)
	h := NewKafkaTicksHandler("optrisk.ticks", agg, newStubMetrics())
	ctx := context.Background()

	base := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC)
	payload := fmt.Sprintf(`{"symbol":"SPY","t":%d,"p":100,"v":1}`, base.UnixMilli())
	require.NoError(t, h.Handle(ctx, []byte(payload)))

	require.NoError(t, agg.Flush(ctx))
	require.Len(t, store.stored, 1)
	assert.Equal(t, base, store.stored[0].Bucket)
}

func TestTicksHandlerRejectsMalformedPayload(t *testing.T) {
	m := newStubMetrics()
	agg := NewCandleAggregator(&stubCandleStore{}, newStubMetrics(), domrepo.TF1m)
	h := NewKafkaTicksHandler("optrisk.ticks", agg, m)

	assert.Error(t, h.Handle(context.Background(), []byte("not json")))
	assert.Equal(t, 1, m.errors["consumer_unmarshal"])
}

func TestTicksHandlerTopic(t *testing.T) {
	h := NewKafkaTicksHandler("optrisk.ticks", nil, newStubMetrics())
	assert.Equal(t, "optrisk.ticks", h.Topic())
}
