package repository

import (
	"context"

	"OptRisk/internal/domain/models"
	"OptRisk/internal/domain/repository"
	pkgkafka "OptRisk/pkg/kafka"
)

// KafkaPlanPublisher ships computed plans to a Kafka topic, keyed by symbol
// so per-symbol ordering is preserved.
type KafkaPlanPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPlanPublisher creates a Kafka-backed plan publisher.
func NewKafkaPlanPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPlanPublisher{producer: producer, topic: topic}
}

func (p *KafkaPlanPublisher) PublishPlan(ctx context.Context, symbol string, plan *models.RiskCalculationResult) error {
	if plan == nil {
		return nil
	}
	return p.producer.Publish(ctx, p.topic, []byte(symbol), map[string]interface{}{
		"symbol":      symbol,
		"trade_type":  plan.TradeType,
		"dte":         plan.DTE,
		"target":      plan.TargetPrice,
		"target2":     plan.TargetPrice2,
		"stop":        plan.StopLoss,
		"rr":          plan.RiskRewardRatio,
		"confidence":  plan.Confidence,
		"used_levels": plan.UsedLevels,
		"computed_at": plan.CalculatedAt.Unix(),
	})
}

func (p *KafkaPlanPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
