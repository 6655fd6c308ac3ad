package usecase

import (
	"context"
	"encoding/json"
	"time"

	"OptRisk/internal/domain/models"
	domrepo "OptRisk/internal/domain/repository"
	pkgkafka "OptRisk/pkg/kafka"
)

// KafkaTicksHandler consumes raw ticks from Kafka and folds them into candles.
type KafkaTicksHandler struct {
	topic   string
	agg     *CandleAggregator
	metrics domrepo.Metrics
}

func NewKafkaTicksHandler(topic string, agg *CandleAggregator, metrics domrepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, agg: agg, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, p, v}
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		P      float64 `json:"p"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	if err := h.agg.Add(ctx, &models.Quote{
		Symbol:    m.Symbol,
		Timestamp: m.T,
		Price:     m.P,
		Volume:    m.V,
	}); err != nil {
		h.metrics.RecordError("consumer_aggregate")
		return err
	}
	h.metrics.RecordLastPrice(m.Symbol, m.P)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
