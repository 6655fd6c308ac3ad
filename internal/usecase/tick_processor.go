package usecase

import (
	"context"
	"fmt"
	"time"

	"OptRisk/internal/domain/models"
	drepo "OptRisk/internal/domain/repository"
)

// TickProcessor routes live quotes to the configured ingest backend: "kafka"
// publishes raw ticks for the consumer side to aggregate, "direct" folds them
// into candles in-process.
type TickProcessor struct {
	pub     drepo.TickPublisher
	agg     *CandleAggregator
	metrics drepo.Metrics
	backend string
}

func NewTickProcessor(pub drepo.TickPublisher, agg *CandleAggregator, metrics drepo.Metrics, backend string) *TickProcessor {
	if backend == "" {
		backend = "direct"
	}
	return &TickProcessor{pub: pub, agg: agg, metrics: metrics, backend: backend}
}

// Process routes a single quote to the configured backend.
func (p *TickProcessor) Process(ctx context.Context, q *models.Quote) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishTick(ctx, q)
	case "direct":
		err = p.agg.Add(ctx, q)
	default:
		err = fmt.Errorf("unknown ingest backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process_tick")
		return fmt.Errorf("process tick: %w", err)
	}
	p.metrics.RecordLatency("process_tick", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple quotes in one call.
func (p *TickProcessor) ProcessBatch(ctx context.Context, quotes []*models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishTickBatch(ctx, quotes)
	case "direct":
		for _, q := range quotes {
			if aerr := p.agg.Add(ctx, q); aerr != nil {
				err = aerr
			}
		}
	default:
		err = fmt.Errorf("unknown ingest backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process_tick_batch")
		return fmt.Errorf("process tick batch: %w", err)
	}
	p.metrics.RecordLatency("process_tick_batch", time.Since(start).Seconds())
	return nil
}

// Close closes the underlying publisher and flushes the open candles.
func (p *TickProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.agg != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.agg.Flush(ctx)
	}
}
