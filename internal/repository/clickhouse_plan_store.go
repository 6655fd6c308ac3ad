package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"OptRisk/internal/domain/models"
	pkgch "OptRisk/pkg/clickhouse"
)

// CHPlanStore persists computed plans in ClickHouse for audit and replay.
type CHPlanStore struct {
	db *sql.DB
}

func NewCHPlanStore(ch *pkgch.Client) *CHPlanStore {
	return &CHPlanStore{db: ch.DB()}
}

var planSchema = []string{
	`CREATE DATABASE IF NOT EXISTS optrisk`,
	`CREATE TABLE IF NOT EXISTS optrisk.plans (
        computed_at DateTime,
        symbol      LowCardinality(String),
        trade_type  LowCardinality(String),
        target      Float64,
        stop        Float64,
        rr          Float64,
        confidence  LowCardinality(String),
        payload     String
    ) ENGINE = MergeTree
    ORDER BY (symbol, computed_at)
    TTL computed_at + INTERVAL 90 DAY`,
}

func (s *CHPlanStore) Init(ctx context.Context) error {
	for _, stmt := range planSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init plan schema: %w", err)
		}
	}
	return nil
}

func (s *CHPlanStore) StorePlan(ctx context.Context, symbol string, plan *models.RiskCalculationResult) error {
	if plan == nil {
		return nil
	}
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	const q = `INSERT INTO optrisk.plans
        (computed_at, symbol, trade_type, target, stop, rr, confidence, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		plan.CalculatedAt,
		symbol,
		string(plan.TradeType),
		plan.TargetPrice,
		plan.StopLoss,
		plan.RiskRewardRatio,
		plan.Confidence,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("store plan: %w", err)
	}
	return nil
}

func (s *CHPlanStore) LatestPlan(ctx context.Context, symbol string) (*models.RiskCalculationResult, error) {
	const q = `SELECT payload FROM optrisk.plans
        WHERE symbol = ?
        ORDER BY computed_at DESC
        LIMIT 1`
	var payload string
	if err := s.db.QueryRowContext(ctx, q, symbol).Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest plan: %w", err)
	}
	var plan models.RiskCalculationResult
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	return &plan, nil
}

func (s *CHPlanStore) Close() error {
	return nil // connection pool managed by pkg/clickhouse
}
