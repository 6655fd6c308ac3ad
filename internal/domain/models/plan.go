package models

import "time"

// TradeType is the DTE-derived tier a contract trades in.
type TradeType string

const (
	TradeScalp TradeType = "SCALP"
	TradeDay   TradeType = "DAY"
	TradeSwing TradeType = "SWING"
	TradeLeap  TradeType = "LEAP"
)

// Direction of the underlying thesis.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// DTEThresholds are the inclusive upper bounds per tier, in days.
type DTEThresholds struct {
	Scalp int
	Day   int
	Swing int
}

// RiskProfile is the static per-trade-type configuration. Registry entries are
// read-only; adjustments must produce a new value.
type RiskProfile struct {
	Type               TradeType
	PrimaryTimeframe   string
	SecondaryTimeframe string
	ATRPeriod          int
	EligibleLevels     []LevelName
	LevelWeights       map[LevelName]float64
	TPFractions        [2]float64 // ATR fractions for TP1 / TP2
	SLFraction         float64    // ATR fraction for the stop
	TrailingStep       float64    // ATR fraction per trailing step
	EODCutoff          string     // "15:45" wall clock, empty if none
}

// AnchorType tags which fallback tier produced an anchor.
type AnchorType string

const (
	AnchorStructural AnchorType = "structural"
	AnchorGamma      AnchorType = "gamma"
	AnchorATR        AnchorType = "atr"
	AnchorPercent    AnchorType = "percent"
)

// PlanAnchor is a selected, justified stop or target price. LevelName names
// the key level that produced it and is empty for percent-tier fallbacks.
type PlanAnchor struct {
	Type            AnchorType
	LevelName       LevelName
	Price           float64
	Reason          string
	UnderlyingPrice float64
	PremiumPrice    float64
	DistancePercent float64
	IsFallback      bool
}

// TargetAnchor is a PlanAnchor labeled TP1/TP2/TP3.
type TargetAnchor struct {
	PlanAnchor
	Label string
}

// PlanQuality grades how structurally grounded the selected anchors are.
type PlanQuality struct {
	Score    int // 0..100
	Level    string
	Warnings []string
	Reasons  []string
}

const (
	QualityWeak     = "weak"
	QualityModerate = "moderate"
	QualityStrong   = "strong"
)

// TradePlanAnchors is the full anchor selection output.
type TradePlanAnchors struct {
	Stop    PlanAnchor
	Targets []TargetAnchor
	Quality PlanQuality
}

// RiskDefaults controls percent-mode behavior and classifier thresholds.
type RiskDefaults struct {
	Mode          string // "percent" or "calculated"
	TPPercent     float64
	SLPercent     float64
	DTEThresholds *DTEThresholds
}

// RiskCalculationInput is the full input contract of the planning pipeline.
type RiskCalculationInput struct {
	Symbol                 string
	EntryPrice             float64
	CurrentUnderlyingPrice float64
	CurrentOptionMid       float64
	Direction              Direction
	KeyLevels              KeyLevels
	ATR                    float64
	Defaults               RiskDefaults
	Delta                  float64
	Gamma                  float64
	Expiration             *time.Time
	TradeType              TradeType
	Confluence             float64
	DataAge                time.Duration
	Liquidity              string
	HasIVData              bool
	Now                    time.Time
}

// RiskCalculationResult is the computed take-profit/stop-loss plan.
type RiskCalculationResult struct {
	TargetPrice     float64
	TargetPrice2    float64
	StopLoss        float64
	TargetPremium   float64
	TargetPremium2  float64
	StopPremium     float64
	RiskRewardRatio float64
	Confidence      string
	Reasoning       string
	CalculatedAt    time.Time
	UsedLevels      []string
	TradeType       TradeType
	DTE             int
	Anchors         *TradePlanAnchors

	// Profile-derived exit hints. TrailingStop is the active trail once the
	// position is in profit, TrailingDistance the ATR-scaled step behind the
	// running high, EODExit the wall-clock cutoff for intraday tiers.
	TrailingStop     float64
	TrailingDistance float64
	EODExit          string
}

// ConfidenceContext feeds the multi-factor confidence grader.
type ConfidenceContext struct {
	LevelCount           int
	HasATR               bool
	DataAge              time.Duration
	Liquidity            string // "excellent", "good", "fair", "poor"
	HasIVData            bool
	HasFlowData          bool
	HasGammaData         bool
	ConfluenceScore      float64
	TradeTypeKnown       bool
	RiskReward           float64
	StructuralLevelsUsed int
}

// ConfidenceReport is the grader output; Reasons are part of the contract,
// not a log.
type ConfidenceReport struct {
	Score   int // 0..100
	Grade   string
	Reasons []string
}

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)
