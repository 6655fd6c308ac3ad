package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"OptRisk/internal/domain/models"
	icache "OptRisk/internal/service/cache"
	xhttp "OptRisk/pkg/http"
	applogger "OptRisk/pkg/logger"
)

// Client fetches dealer-positioning levels (gamma walls, max pain) from an
// options-flow provider over HTTP. Responses are cached: flow levels move on
// the minutes scale, not per tick.
type Client struct {
	http     *xhttp.Client
	baseURL  string
	apiKey   string
	cache    icache.BytesCache
	cacheTTL time.Duration
	l        *applogger.Logger
}

type Option func(*Client)

func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL:  baseURL,
		apiKey:   apiKey,
		cacheTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCache enables response caching.
func WithCache(cache icache.BytesCache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		c.l = l
	}
}

type flowResponse struct {
	Symbol    string  `json:"symbol"`
	GammaWall float64 `json:"gamma_wall"`
	CallWall  float64 `json:"call_wall"`
	PutWall   float64 `json:"put_wall"`
	MaxPain   float64 `json:"max_pain"`
}

// GetFlow returns dealer-positioning levels for the symbol. A provider error
// is returned as-is; callers degrade to a flow-less plan.
func (c *Client) GetFlow(ctx context.Context, symbol string) (*models.OptionsFlow, error) {
	cacheKey := "flow:" + symbol
	if c.cache != nil {
		if b, ok, _ := c.cache.GetBytes(cacheKey); ok {
			var cached models.OptionsFlow
			if err := json.Unmarshal(b, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var resp flowResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v1/flow/%s", c.baseURL, symbol),
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		},
	}, &resp)
	if err != nil {
		if c.l != nil {
			c.l.Warn("flow fetch failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("fetch flow %s: %w", symbol, err)
	}

	out := &models.OptionsFlow{
		GammaWall: resp.GammaWall,
		CallWall:  resp.CallWall,
		PutWall:   resp.PutWall,
		MaxPain:   resp.MaxPain,
	}
	if c.cache != nil {
		if b, err := json.Marshal(out); err == nil {
			_ = c.cache.SetBytes(cacheKey, b, c.cacheTTL)
		}
	}
	return out, nil
}
