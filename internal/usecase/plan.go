package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"OptRisk/internal/domain/models"
	domrepo "OptRisk/internal/domain/repository"
	"OptRisk/internal/indicators"
	icache "OptRisk/internal/service/cache"
	"OptRisk/internal/services/confluence"
	"OptRisk/internal/services/planner"
	applogger "OptRisk/pkg/logger"
	"OptRisk/pkg/util"
)

// PlanUseCase orchestrates the full planning pipeline: bar history in, graded
// take-profit/stop-loss plan out. Every enrichment step (flow levels, plan
// store, publisher, cache) is optional; a missing dependency degrades the plan
// instead of failing the request.
type PlanUseCase struct {
	candles  domrepo.CandleStore
	metrics  domrepo.Metrics
	flow     domrepo.FlowProvider
	plans    domrepo.PlanStore
	pub      domrepo.Publisher
	cache    icache.BytesCache
	l        *applogger.Logger
	defaults models.RiskDefaults
	klCfg    planner.KeyLevelConfig
	planTTL  time.Duration
}

type PlanOption func(*PlanUseCase)

// WithFlowProvider enables dealer-positioning enrichment.
func WithFlowProvider(fp domrepo.FlowProvider) PlanOption {
	return func(uc *PlanUseCase) { uc.flow = fp }
}

// WithPlanStore enables plan persistence for audit and chart assembly.
func WithPlanStore(ps domrepo.PlanStore) PlanOption {
	return func(uc *PlanUseCase) { uc.plans = ps }
}

// WithPublisher enables downstream plan publishing.
func WithPublisher(pub domrepo.Publisher) PlanOption {
	return func(uc *PlanUseCase) { uc.pub = pub }
}

// WithPlanCache enables response caching.
func WithPlanCache(c icache.BytesCache, ttl time.Duration) PlanOption {
	return func(uc *PlanUseCase) {
		uc.cache = c
		if ttl > 0 {
			uc.planTTL = ttl
		}
	}
}

// WithPlanLogger injects a structured logger.
func WithPlanLogger(l *applogger.Logger) PlanOption {
	return func(uc *PlanUseCase) { uc.l = l }
}

// WithRiskDefaults overrides percent-mode defaults and DTE thresholds.
func WithRiskDefaults(d models.RiskDefaults) PlanOption {
	return func(uc *PlanUseCase) { uc.defaults = d }
}

// WithKeyLevelConfig overrides the session math configuration.
func WithKeyLevelConfig(cfg planner.KeyLevelConfig) PlanOption {
	return func(uc *PlanUseCase) { uc.klCfg = cfg }
}

func NewPlanUseCase(candles domrepo.CandleStore, metrics domrepo.Metrics, opts ...PlanOption) *PlanUseCase {
	uc := &PlanUseCase{
		candles:  candles,
		metrics:  metrics,
		defaults: models.RiskDefaults{Mode: planner.ModeCalculated},
		klCfg:    planner.DefaultKeyLevelConfig(),
		planTTL:  15 * time.Second,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ComputePlan computes a full risk plan for the request. Storage and
// publishing failures are logged and counted, never propagated: a computed
// plan is always returned to the caller.
func (uc *PlanUseCase) ComputePlan(ctx context.Context, req models.PlanRequest) (*models.RiskCalculationResult, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	start := time.Now()
	tf := domrepo.NormalizeTimeframe(req.TF)
	n := req.N
	if n <= 0 {
		n = 780
	}

	bars, err := uc.candles.GetLatestNCandles(ctx, req.Symbol, n, tf)
	if err != nil {
		uc.metrics.RecordError("plan_candles")
		return nil, fmt.Errorf("get candles: %w", err)
	}

	kl := uc.keyLevels(ctx, req.Symbol, bars)
	dir := direction(req.Direction)

	in := models.RiskCalculationInput{
		Symbol:                 req.Symbol,
		EntryPrice:             req.EntryPrice,
		CurrentUnderlyingPrice: req.CurrentUnderlyingPrice,
		CurrentOptionMid:       req.CurrentOptionMid,
		Direction:              dir,
		KeyLevels:              kl,
		Delta:                  req.Delta,
		Gamma:                  req.Gamma,
		TradeType:              models.TradeType(req.TradeType),
		Defaults:               uc.requestDefaults(req),
		HasIVData:              req.Gamma > 0,
		Now:                    time.Now(),
	}
	if in.CurrentUnderlyingPrice <= 0 && len(bars) > 0 {
		in.CurrentUnderlyingPrice = bars[len(bars)-1].Close
	}
	if len(bars) > 0 {
		in.DataAge = time.Since(bars[len(bars)-1].Bucket)
	}
	if exp, ok := parseExpiration(req.ExpirationISO); ok {
		in.Expiration = &exp
	}
	prof := planner.ProfileFor(models.TradeType(req.TradeType))
	if atr, err := indicators.ATR(bars, prof.ATRPeriod); err == nil {
		in.ATR = atr
	}
	in.Confluence = req.Confluence
	if in.Confluence <= 0 {
		in.Confluence = confluence.Compute(bars, kl, dir).Value
	}

	res := planner.CalculateRisk(in)

	uc.metrics.RecordPlanComputed(req.Symbol, string(res.TradeType), in.Defaults.Mode)
	if res.Anchors != nil {
		uc.metrics.RecordConfidence(req.Symbol, float64(res.Anchors.Quality.Score))
	}

	if uc.plans != nil {
		if err := uc.plans.StorePlan(ctx, req.Symbol, &res); err != nil {
			uc.metrics.RecordError("plan_store")
			uc.warn("plan store failed", req.Symbol, err)
		}
	}
	if uc.pub != nil {
		if err := uc.pub.PublishPlan(ctx, req.Symbol, &res); err != nil {
			uc.metrics.RecordError("plan_publish")
			uc.warn("plan publish failed", req.Symbol, err)
		}
	}
	if uc.cache != nil {
		if b, err := json.Marshal(&res); err == nil {
			_ = uc.cache.SetBytes("plan:"+req.Symbol, b, uc.planTTL)
		}
	}

	uc.metrics.RecordLatency("compute_plan", time.Since(start).Seconds())
	return &res, nil
}

// Levels returns the key-level vocabulary for a symbol, flow levels merged in.
func (uc *PlanUseCase) Levels(ctx context.Context, req models.LevelsRequest) (*models.KeyLevels, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	n := req.N
	if n <= 0 {
		n = 780
	}

	bars, err := uc.candles.GetLatestNCandles(ctx, req.Symbol, n, tf)
	if err != nil {
		uc.metrics.RecordError("levels_candles")
		return nil, fmt.Errorf("get candles: %w", err)
	}
	kl := uc.keyLevels(ctx, req.Symbol, bars)
	return &kl, nil
}

// Chart flattens the trade described by the request plus the symbol's current
// key levels into the ordered chart display list. When a stored plan exists it
// fills the gaps the request leaves open.
func (uc *PlanUseCase) Chart(ctx context.Context, req models.ChartRequest) ([]models.ChartLevel, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	n := req.N
	if n <= 0 {
		n = 780
	}

	bars, err := uc.candles.GetLatestNCandles(ctx, req.Symbol, n, tf)
	if err != nil {
		uc.metrics.RecordError("chart_candles")
		return nil, fmt.Errorf("get candles: %w", err)
	}
	kl := uc.keyLevels(ctx, req.Symbol, bars)

	var plan *models.RiskCalculationResult
	if uc.plans != nil {
		if p, err := uc.plans.LatestPlan(ctx, req.Symbol); err != nil {
			uc.warn("latest plan lookup failed", req.Symbol, err)
		} else {
			plan = p
		}
	}

	trade := models.TradeRecord{
		Symbol:       req.Symbol,
		Direction:    direction(req.Direction),
		EntryPrice:   req.EntryPrice,
		TargetPrice:  req.TargetPrice,
		TargetPrice2: req.TargetPrice2,
		TargetPrice3: req.TargetPrice3,
		StopPrice:    req.StopPrice,
		OptionEntry:  req.OptionEntry,
		OptionTarget: req.OptionTarget,
		OptionStop:   req.OptionStop,
		Delta:        req.Delta,
	}
	return planner.AssembleChartLevels(trade, kl, plan), nil
}

// Profile returns the confluence-adjusted risk profile for a trade type.
func (uc *PlanUseCase) Profile(req models.ProfileRequest) models.RiskProfile {
	p := planner.ProfileFor(models.TradeType(req.TradeType))
	return planner.AdjustProfileForConfluence(p, req.Confluence)
}

func (uc *PlanUseCase) keyLevels(ctx context.Context, symbol string, bars []models.Candle) models.KeyLevels {
	kl := planner.ComputeKeyLevels(bars, uc.klCfg)
	if uc.flow != nil {
		if f, err := uc.flow.GetFlow(ctx, symbol); err != nil {
			uc.metrics.RecordError("flow_fetch")
			uc.warn("flow fetch failed", symbol, err)
		} else if f != nil {
			kl.Flow = f
		}
	}
	return kl
}

func (uc *PlanUseCase) requestDefaults(req models.PlanRequest) models.RiskDefaults {
	d := uc.defaults
	if req.Mode != "" {
		d.Mode = req.Mode
	}
	if req.TPPercent > 0 {
		d.TPPercent = req.TPPercent
	}
	if req.SLPercent > 0 {
		d.SLPercent = req.SLPercent
	}
	return d
}

func (uc *PlanUseCase) warn(msg, symbol string, err error) {
	if uc.l != nil {
		uc.l.Warn(msg, applogger.String("symbol", symbol), applogger.Error(err))
	}
}

func direction(s string) models.Direction {
	if s == string(models.DirectionShort) {
		return models.DirectionShort
	}
	return models.DirectionLong
}

func parseExpiration(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := util.ParseTime(s); ok {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
