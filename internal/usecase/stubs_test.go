package usecase

import (
	"context"
	"sync"
	"time"

	"OptRisk/internal/domain/models"
	domrepo "OptRisk/internal/domain/repository"
)

type stubCandleStore struct {
	mu      sync.Mutex
	bars    []models.Candle
	err     error
	stored  []*models.Candle
	batches int
}

func (s *stubCandleStore) Init(context.Context) error { return nil }

func (s *stubCandleStore) Store(_ context.Context, c *models.Candle) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, c)
	return nil
}

func (s *stubCandleStore) StoreBatch(_ context.Context, candles []*models.Candle) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, candles...)
	s.batches++
	return nil
}

func (s *stubCandleStore) GetCandles(_ context.Context, _ string, _, _ time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	return s.bars, s.err
}

func (s *stubCandleStore) GetLatestNCandles(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.bars) > n {
		return s.bars[len(s.bars)-n:], nil
	}
	return s.bars, nil
}

func (s *stubCandleStore) Health(context.Context) error { return nil }
func (s *stubCandleStore) Close() error                 { return nil }

type stubMetrics struct {
	mu      sync.Mutex
	plans   int
	replans map[string]int
	errors  map[string]int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{replans: make(map[string]int), errors: make(map[string]int)}
}

func (m *stubMetrics) RecordPlanComputed(string, string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans++
}

func (m *stubMetrics) RecordReplan(_, trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replans[trigger]++
}

func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *stubMetrics) RecordLastPrice(string, float64)  {}
func (m *stubMetrics) RecordConfidence(string, float64) {}
func (m *stubMetrics) RecordLatency(string, float64)    {}

type stubPlanStore struct {
	mu     sync.Mutex
	stored []*models.RiskCalculationResult
	latest *models.RiskCalculationResult
}

func (s *stubPlanStore) Init(context.Context) error { return nil }

func (s *stubPlanStore) StorePlan(_ context.Context, _ string, plan *models.RiskCalculationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, plan)
	return nil
}

func (s *stubPlanStore) LatestPlan(context.Context, string) (*models.RiskCalculationResult, error) {
	return s.latest, nil
}

func (s *stubPlanStore) Close() error { return nil }

type stubPublisher struct {
	mu        sync.Mutex
	published []*models.RiskCalculationResult
}

func (p *stubPublisher) PublishPlan(_ context.Context, _ string, plan *models.RiskCalculationResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, plan)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

type stubFlow struct {
	flow *models.OptionsFlow
	err  error
}

func (f *stubFlow) GetFlow(context.Context, string) (*models.OptionsFlow, error) {
	return f.flow, f.err
}

// flatBars returns n one-minute bars ending now, oscillating around base.
func flatBars(n int, base float64) []models.Candle {
	bars := make([]models.Candle, n)
	start := time.Now().UTC().Truncate(time.Minute).Add(-time.Duration(n) * time.Minute)
	for i := range bars {
		drift := float64(i%3) * 0.1
		bars[i] = models.Candle{
			Bucket: start.Add(time.Duration(i) * time.Minute),
			Symbol: "SPY",
			Open:   base + drift,
			High:   base + drift + 0.5,
			Low:    base + drift - 0.5,
			Close:  base + drift,
			Volume: 1000,
		}
	}
	return bars
}
