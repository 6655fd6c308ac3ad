package usecase

import (
	"context"
	"fmt"
	"time"

	"OptRisk/internal/domain/models"
	domrepo "OptRisk/internal/domain/repository"
)

const (
	defaultCandleLimit = 10000
	maxCandleLimit     = 50000
)

// CandlesUseCase serves candle range queries for the read API.
type CandlesUseCase struct {
	store domrepo.CandleStore
}

func NewCandlesUseCase(store domrepo.CandleStore) *CandlesUseCase {
	return &CandlesUseCase{store: store}
}

type GetCandlesParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Symbol    string
	Timeframe string
	From      time.Time
	To        time.Time
	Count     int
	Candles   []models.Candle
}

func (p *GetCandlesParams) normalize() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = defaultCandleLimit
	} else if p.Limit > maxCandleLimit {
		p.Limit = maxCandleLimit
	}
	return nil
}

// GetCandles fetches the range from the store and truncates to the limit.
func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}

	candles, err := uc.store.GetCandles(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) > p.Limit {
		candles = candles[:p.Limit]
	}

	return &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(candles),
		Candles:   candles,
	}, nil
}
