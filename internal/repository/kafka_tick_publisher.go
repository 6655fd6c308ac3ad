package repository

import (
	"context"

	"OptRisk/internal/domain/models"
	"OptRisk/internal/domain/repository"
	pkgkafka "OptRisk/pkg/kafka"
)

// KafkaTickPublisher ships raw quotes to the ingest topic, keyed by symbol.
type KafkaTickPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTickPublisher creates a Kafka-backed tick publisher.
func NewKafkaTickPublisher(producer *pkgkafka.Producer, topic string) repository.TickPublisher {
	return &KafkaTickPublisher{producer: producer, topic: topic}
}

// wire schema: {symbol, t (unix seconds), p, v}
type tickMessage struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"t"`
	Price     float64 `json:"p"`
	Volume    float64 `json:"v"`
}

func (p *KafkaTickPublisher) PublishTick(ctx context.Context, q *models.Quote) error {
	if q == nil {
		return nil
	}
	return p.producer.Publish(ctx, p.topic, []byte(q.Symbol), tickMessage{
		Symbol:    q.Symbol,
		Timestamp: q.Timestamp,
		Price:     q.Price,
		Volume:    q.Volume,
	})
}

func (p *KafkaTickPublisher) PublishTickBatch(ctx context.Context, quotes []*models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(quotes))
	for _, q := range quotes {
		if q == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(q.Symbol),
			Value: tickMessage{Symbol: q.Symbol, Timestamp: q.Timestamp, Price: q.Price, Volume: q.Volume},
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaTickPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
