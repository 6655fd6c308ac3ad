package repository

import (
	"context"
	"time"

	"OptRisk/internal/domain/models"
)

// MarketStream is the live underlying-quote feed.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher ships computed plans to downstream consumers.
type Publisher interface {
	PublishPlan(ctx context.Context, symbol string, plan *models.RiskCalculationResult) error
	Close() error
}

// TickPublisher ships raw quotes to the ingest topic.
type TickPublisher interface {
	PublishTick(ctx context.Context, q *models.Quote) error
	PublishTickBatch(ctx context.Context, quotes []*models.Quote) error
	Close() error
}

// CandleStore persists and serves OHLCV bars.
type CandleStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, c *models.Candle) error
	StoreBatch(ctx context.Context, candles []*models.Candle) error
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
	Health(ctx context.Context) error
	Close() error
}

// PlanStore persists computed plans for audit and chart assembly.
type PlanStore interface {
	Init(ctx context.Context) error
	StorePlan(ctx context.Context, symbol string, plan *models.RiskCalculationResult) error
	LatestPlan(ctx context.Context, symbol string) (*models.RiskCalculationResult, error)
	Close() error
}

// FlowProvider serves dealer-positioning levels for a symbol.
type FlowProvider interface {
	GetFlow(ctx context.Context, symbol string) (*models.OptionsFlow, error)
}

// Metrics is the engine's metrics sink.
type Metrics interface {
	RecordPlanComputed(symbol, tradeType, mode string)
	RecordReplan(symbol, trigger string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordConfidence(symbol string, score float64)
	RecordLatency(op string, seconds float64)
}
