package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"OptRisk/internal/domain/models"
	domrepo "OptRisk/internal/domain/repository"
	applogger "OptRisk/pkg/logger"
)

// ReplanPolicy controls when a tracked plan is recomputed.
type ReplanPolicy struct {
	// DriftPercent is the underlying move away from the plan's reference
	// price, in percent, that forces a recompute.
	DriftPercent float64
	// ZeroDTEDrift replaces DriftPercent for plans whose contract expires
	// today; same-day positions tolerate less drift before going stale.
	ZeroDTEDrift float64
	// LevelTolerance is the proximity to a plan level (target or stop), in
	// percent of that level, that forces a recompute.
	LevelTolerance float64
	// MinInterval throttles recomputes per symbol.
	MinInterval time.Duration
}

// DefaultReplanPolicy matches the live-trading defaults: half a percent of
// drift (a fifth for same-day expiry), a fifth of a percent of level
// proximity, one replan per 30s.
func DefaultReplanPolicy() ReplanPolicy {
	return ReplanPolicy{DriftPercent: 0.5, ZeroDTEDrift: 0.2, LevelTolerance: 0.2, MinInterval: 30 * time.Second}
}

type trackedPlan struct {
	req      models.PlanRequest
	refPrice float64
	levels   []float64
	sameDay  bool
	lastRun  time.Time
}

// ReplanWatcher observes live quotes and recomputes tracked plans when the
// underlying drifts or approaches a plan level. Plans enter tracking via
// NotePlan after each successful computation.
type ReplanWatcher struct {
	plan    *PlanUseCase
	metrics domrepo.Metrics
	policy  ReplanPolicy
	l       *applogger.Logger

	mu      sync.Mutex
	tracked map[string]*trackedPlan
}

func NewReplanWatcher(plan *PlanUseCase, metrics domrepo.Metrics, policy ReplanPolicy, l *applogger.Logger) *ReplanWatcher {
	if policy.DriftPercent <= 0 {
		policy.DriftPercent = DefaultReplanPolicy().DriftPercent
	}
	if policy.ZeroDTEDrift <= 0 {
		policy.ZeroDTEDrift = DefaultReplanPolicy().ZeroDTEDrift
	}
	if policy.LevelTolerance <= 0 {
		policy.LevelTolerance = DefaultReplanPolicy().LevelTolerance
	}
	if policy.MinInterval <= 0 {
		policy.MinInterval = DefaultReplanPolicy().MinInterval
	}
	return &ReplanWatcher{
		plan:    plan,
		metrics: metrics,
		policy:  policy,
		l:       l,
		tracked: make(map[string]*trackedPlan),
	}
}

// NotePlan registers (or refreshes) a symbol's plan for drift tracking.
func (w *ReplanWatcher) NotePlan(req models.PlanRequest, res *models.RiskCalculationResult) {
	if req.Symbol == "" || res == nil {
		return
	}
	ref := req.CurrentUnderlyingPrice
	if ref <= 0 {
		ref = req.EntryPrice
	}
	if ref <= 0 {
		return
	}
	levels := make([]float64, 0, 3)
	for _, v := range []float64{res.TargetPrice, res.TargetPrice2, res.StopLoss} {
		if v > 0 {
			levels = append(levels, v)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked[req.Symbol] = &trackedPlan{
		req:      req,
		refPrice: ref,
		levels:   levels,
		sameDay:  req.ExpirationISO != "" && res.DTE == 0,
		lastRun:  time.Now(),
	}
}

// Forget drops a symbol from tracking.
func (w *ReplanWatcher) Forget(symbol string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.tracked, symbol)
}

// Observe inspects one live quote and recomputes the symbol's plan when a
// trigger fires. Untracked symbols are ignored.
func (w *ReplanWatcher) Observe(ctx context.Context, q *models.Quote) {
	if q == nil || q.Price <= 0 {
		return
	}

	w.mu.Lock()
	tp, ok := w.tracked[q.Symbol]
	if !ok {
		w.mu.Unlock()
		return
	}
	trigger := w.trigger(tp, q.Price)
	if trigger == "" || time.Since(tp.lastRun) < w.policy.MinInterval {
		w.mu.Unlock()
		return
	}
	// Claim the slot before releasing the lock so concurrent quotes for the
	// same symbol do not double-replan.
	tp.lastRun = time.Now()
	req := tp.req
	w.mu.Unlock()

	w.recompute(ctx, req, trigger, q.Price)
}

// OnBarClose recomputes a tracked symbol's plan when its timeframe bucket
// rolls. Bar closes bypass the drift and level checks but still honor the
// per-symbol throttle.
func (w *ReplanWatcher) OnBarClose(ctx context.Context, symbol string) {
	w.mu.Lock()
	tp, ok := w.tracked[symbol]
	if !ok || time.Since(tp.lastRun) < w.policy.MinInterval {
		w.mu.Unlock()
		return
	}
	tp.lastRun = time.Now()
	req := tp.req
	price := tp.refPrice
	w.mu.Unlock()

	w.recompute(ctx, req, "bar", price)
}

func (w *ReplanWatcher) recompute(ctx context.Context, req models.PlanRequest, trigger string, price float64) {
	req.CurrentUnderlyingPrice = price
	res, err := w.plan.ComputePlan(ctx, req)
	if err != nil {
		w.metrics.RecordError("replan")
		if w.l != nil {
			w.l.Warn("replan failed",
				applogger.String("symbol", req.Symbol),
				applogger.String("trigger", trigger),
				applogger.Error(err),
			)
		}
		return
	}
	w.metrics.RecordReplan(req.Symbol, trigger)
	if w.l != nil {
		w.l.Info("replanned",
			applogger.String("symbol", req.Symbol),
			applogger.String("trigger", trigger),
			applogger.Float64("price", price),
		)
	}
	w.NotePlan(req, res)
}

// trigger names the fired condition, or returns "" when the plan holds.
// Caller must hold the mutex.
func (w *ReplanWatcher) trigger(tp *trackedPlan, price float64) string {
	if tp.refPrice > 0 {
		drift := math.Abs(price-tp.refPrice) / tp.refPrice * 100
		threshold := w.policy.DriftPercent
		if tp.sameDay {
			threshold = w.policy.ZeroDTEDrift
		}
		if drift >= threshold {
			return "drift"
		}
	}
	for _, lv := range tp.levels {
		if lv <= 0 {
			continue
		}
		if math.Abs(price-lv)/lv*100 <= w.policy.LevelTolerance {
			return "level"
		}
	}
	return ""
}
