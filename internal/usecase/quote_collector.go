package usecase

import (
	"context"

	"OptRisk/internal/domain/models"
	drepo "OptRisk/internal/domain/repository"
	mid "OptRisk/internal/middleware"
)

// QuoteCollector pulls quotes from the market stream, pushes them through the
// tick pipeline, and feeds the replan watcher.
type QuoteCollector struct {
	stream  drepo.MarketStream
	proc    *TickProcessor
	watcher *ReplanWatcher
	metrics drepo.Metrics
	pipe    *mid.TickPipeline
}

// NewQuoteCollector creates a new QuoteCollector instance. The watcher is
// optional; without it quotes only feed ingestion.
func NewQuoteCollector(stream drepo.MarketStream, proc *TickProcessor, watcher *ReplanWatcher, metrics drepo.Metrics, pipe *mid.TickPipeline) *QuoteCollector {
	return &QuoteCollector{stream: stream, proc: proc, watcher: watcher, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *QuoteCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *QuoteCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	qCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, qCh, errCh)
	return nil
}

func (c *QuoteCollector) consume(ctx context.Context, qCh <-chan *models.Quote, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case q := <-qCh:
			if q == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, q)
			} else {
				_ = c.proc.Process(ctx, q)
			}
			c.metrics.RecordLastPrice(q.Symbol, q.Price)
			if c.watcher != nil {
				c.watcher.Observe(ctx, q)
			}
		}
	}
}

func (c *QuoteCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying TickProcessor for lifecycle management.
func (c *QuoteCollector) Processor() *TickProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *QuoteCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
