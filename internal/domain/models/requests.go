package models

// Requests for the planning HTTP endpoints. Defined in domain for consistency and reuse.

type PlanRequest struct {
	Symbol                 string  `json:"symbol" query:"symbol" validate:"required"`
	EntryPrice             float64 `json:"entryPrice" validate:"gte=0"`
	CurrentUnderlyingPrice float64 `json:"currentUnderlyingPrice" validate:"gte=0"`
	CurrentOptionMid       float64 `json:"currentOptionMid" validate:"gte=0"`
	Direction              string  `json:"direction" default:"long" validate:"oneof=long short"`
	Mode                   string  `json:"mode" default:"calculated" validate:"oneof=percent calculated"`
	TPPercent              float64 `json:"tpPercent" validate:"gte=0"`
	SLPercent              float64 `json:"slPercent" validate:"gte=0"`
	Delta                  float64 `json:"delta" validate:"gte=-1,lte=1"`
	Gamma                  float64 `json:"gamma" validate:"gte=0"`
	ExpirationISO          string  `json:"expirationISO"`
	TradeType              string  `json:"tradeType" validate:"omitempty,oneof=SCALP DAY SWING LEAP"`
	Confluence             float64 `json:"confluence" validate:"gte=0,lte=100"`
	N                      int     `json:"n" query:"n" default:"780" validate:"gte=1,lte=5000"`
	TF                     string  `json:"tf" query:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type LevelsRequest struct {
	Symbol string `json:"symbol" query:"symbol" validate:"required"`
	N      int    `json:"n" query:"n" default:"780" validate:"gte=1,lte=5000"`
	TF     string `json:"tf" query:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type ChartRequest struct {
	Symbol       string  `json:"symbol" query:"symbol" validate:"required"`
	Direction    string  `json:"direction" default:"long" validate:"oneof=long short"`
	EntryPrice   float64 `json:"entryPrice" validate:"gte=0"`
	TargetPrice  float64 `json:"targetPrice" validate:"gte=0"`
	TargetPrice2 float64 `json:"targetPrice2" validate:"gte=0"`
	TargetPrice3 float64 `json:"targetPrice3" validate:"gte=0"`
	StopPrice    float64 `json:"stopPrice" validate:"gte=0"`
	OptionEntry  float64 `json:"optionEntry" validate:"gte=0"`
	OptionTarget float64 `json:"optionTarget" validate:"gte=0"`
	OptionStop   float64 `json:"optionStop" validate:"gte=0"`
	Delta        float64 `json:"delta" validate:"gte=-1,lte=1"`
	N            int     `json:"n" query:"n" default:"780" validate:"gte=1,lte=5000"`
	TF           string  `json:"tf" query:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type CandlesRequest struct {
	Symbol string `json:"symbol" query:"symbol" validate:"required"`
	From   string `json:"from" query:"from"`
	To     string `json:"to" query:"to"`
	TF     string `json:"tf" query:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
	Limit  int    `json:"limit" query:"limit" default:"10000" validate:"gte=1,lte=50000"`
}

type ProfileRequest struct {
	TradeType  string  `json:"tradeType" query:"tradeType" validate:"required,oneof=SCALP DAY SWING LEAP"`
	Confluence float64 `json:"confluence" query:"confluence" validate:"gte=0,lte=100"`
}
