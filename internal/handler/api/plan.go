package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "OptRisk/internal/domain/models"
	domrepo "OptRisk/internal/domain/repository"
	icache "OptRisk/internal/service/cache"
	"OptRisk/internal/service/metrics"
	"OptRisk/internal/service/ratelimit"
	"OptRisk/internal/usecase"
	xhttp "OptRisk/pkg/http"
	xlogger "OptRisk/pkg/logger"
	"OptRisk/pkg/util"

	"github.com/labstack/echo/v4"
)

// PlanHandler exposes the planning endpoints over Echo.
type PlanHandler struct {
	logger  *xlogger.Logger
	plans   *usecase.PlanUseCase
	candles *usecase.CandlesUseCase
	watcher *usecase.ReplanWatcher

	cache     icache.BytesCache
	levelsTTL time.Duration
	rl        *ratelimit.Limiter
	rps       float64
	burst     float64
}

func NewPlanHandler(logger *xlogger.Logger, plans *usecase.PlanUseCase, candles *usecase.CandlesUseCase) *PlanHandler {
	metrics.Register()
	return &PlanHandler{
		logger:    logger,
		plans:     plans,
		candles:   candles,
		levelsTTL: 15 * time.Second,
		rl:        ratelimit.New(),
		rps:       5,
		burst:     10,
	}
}

// SetCache enables levels-response caching.
func (h *PlanHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	if ttl > 0 {
		h.levelsTTL = ttl
	}
}

// SetWatcher registers computed plans for drift tracking.
func (h *PlanHandler) SetWatcher(w *usecase.ReplanWatcher) { h.watcher = w }

// SetRateLimit overrides the per-client request budget.
func (h *PlanHandler) SetRateLimit(rps float64, burst int) {
	if rps > 0 {
		h.rps = rps
	}
	if burst > 0 {
		h.burst = float64(burst)
	}
}

func (h *PlanHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/plan", h.Plan)
	g.GET("/levels", h.Levels)
	g.GET("/chart", h.Chart)
	g.GET("/profile", h.Profile)
	g.GET("/candles", h.Candles)
}

func (h *PlanHandler) Plan(c echo.Context) error {
	start := time.Now()
	endpoint := "plan"
	defer func() { metrics.EngineLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if !h.allow(c, endpoint) {
		return tooManyRequests(c)
	}
	req := &models.PlanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.plans.ComputePlan(c.Request().Context(), *req)
	if err != nil {
		metrics.EngineErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("plan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.watcher != nil {
		h.watcher.NotePlan(*req, res)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PlanHandler) Levels(c echo.Context) error {
	start := time.Now()
	endpoint := "levels"
	defer func() { metrics.EngineLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if !h.allow(c, endpoint) {
		return tooManyRequests(c)
	}
	req := &models.LevelsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := "levels:" + req.Symbol + ":" + req.TF
	if h.cache != nil {
		if b, ok, _ := h.cache.GetBytes(cacheKey); ok {
			var kl models.KeyLevels
			if err := json.Unmarshal(b, &kl); err == nil {
				h.logger.Debug("levels cache_hit", xlogger.String("key", cacheKey))
				return xhttp.SuccessResponse(c, &kl)
			}
		}
	}

	res, err := h.plans.Levels(c.Request().Context(), *req)
	if err != nil {
		metrics.EngineErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("levels usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, h.levelsTTL)
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PlanHandler) Chart(c echo.Context) error {
	start := time.Now()
	endpoint := "chart"
	defer func() { metrics.EngineLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if !h.allow(c, endpoint) {
		return tooManyRequests(c)
	}
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.plans.Chart(c.Request().Context(), *req)
	if err != nil {
		metrics.EngineErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("chart usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PlanHandler) Profile(c echo.Context) error {
	endpoint := "profile"
	if !h.allow(c, endpoint) {
		return tooManyRequests(c)
	}
	req := &models.ProfileRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.plans.Profile(*req))
}

func (h *PlanHandler) Candles(c echo.Context) error {
	start := time.Now()
	endpoint := "candles"
	defer func() { metrics.EngineLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if !h.allow(c, endpoint) {
		return tooManyRequests(c)
	}
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	params := usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      util.ParseTimeDefault(req.From, now.Add(-24*time.Hour)),
		To:        util.ParseTimeDefault(req.To, now),
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     req.Limit,
	}
	res, err := h.candles.GetCandles(c.Request().Context(), params)
	if err != nil {
		metrics.EngineErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PlanHandler) allow(c echo.Context, endpoint string) bool {
	if h.rl == nil {
		return true
	}
	if h.rl.Allow(c.RealIP()+":"+endpoint, h.burst, h.rps) {
		return true
	}
	h.logger.Warn("rate limited",
		xlogger.String("endpoint", endpoint),
		xlogger.String("remote", c.RealIP()),
	)
	return false
}

func tooManyRequests(c echo.Context) error {
	return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
}
