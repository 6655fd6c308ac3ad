package models

// ChartLevelType tags a row in the chart display list. The tag set and the
// emit order are a stable contract with the rendering side: new tags may be
// appended, existing entries must not be reordered.
type ChartLevelType string

const (
	ChartEntry          ChartLevelType = "ENTRY"
	ChartTP             ChartLevelType = "TP"
	ChartSL             ChartLevelType = "SL"
	ChartPreMarketHigh  ChartLevelType = "PREMARKET_HIGH"
	ChartPreMarketLow   ChartLevelType = "PREMARKET_LOW"
	ChartORBHigh        ChartLevelType = "ORB_HIGH"
	ChartORBLow         ChartLevelType = "ORB_LOW"
	ChartPriorDayHigh   ChartLevelType = "PRIOR_DAY_HIGH"
	ChartPriorDayLow    ChartLevelType = "PRIOR_DAY_LOW"
	ChartVWAP           ChartLevelType = "VWAP"
	ChartVWAPBand       ChartLevelType = "VWAP_BAND"
	ChartBollingerUpper ChartLevelType = "BOLLINGER_UPPER"
	ChartBollingerLower ChartLevelType = "BOLLINGER_LOWER"
)

// ChartLevelMeta is the fixed-shape optional metadata of a chart row.
type ChartLevelMeta struct {
	IsFallback bool
	Reason     string
}

// ChartLevel is one labeled price row for downstream rendering.
type ChartLevel struct {
	Type  ChartLevelType
	Label string
	Price float64
	Meta  *ChartLevelMeta
}

// TradeRecord is the stored trade the chart assembler flattens. Option-price
// fields are used to derive underlying targets when the underlying ones were
// never persisted.
type TradeRecord struct {
	Symbol       string
	Direction    Direction
	TradeType    TradeType
	EntryPrice   float64
	TargetPrice  float64
	TargetPrice2 float64
	TargetPrice3 float64
	StopPrice    float64

	OptionEntry  float64
	OptionTarget float64
	OptionStop   float64
	Delta        float64
}
