package indicators

import (
	"fmt"

	"OptRisk/internal/domain/models"
)

// StreamingATR maintains a Wilder-smoothed ATR over a live bar stream. Used
// by the replan watcher so every tick does not re-scan the candle history.
type StreamingATR struct {
	period      int
	atr         float64
	count       int
	warmupSum   float64
	prevCandle  models.Candle
	hasPrevious bool
}

// NewStreamingATR creates a streaming ATR with the given period.
func NewStreamingATR(period int) *StreamingATR {
	return &StreamingATR{period: period}
}

func (a *StreamingATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

// Warmup returns how many updates are needed before Ready can be true.
// One extra candle because the true range looks back one bar.
func (a *StreamingATR) Warmup() int {
	return a.period + 1
}

// Reset clears all internal state.
func (a *StreamingATR) Reset() {
	a.atr = 0
	a.count = 0
	a.warmupSum = 0
	a.hasPrevious = false
}

// Update consumes the next closed candle.
func (a *StreamingATR) Update(c models.Candle) {
	if !a.hasPrevious {
		a.prevCandle = c
		a.hasPrevious = true
		return
	}

	tr := trueRange(c, a.prevCandle)

	if a.count < a.period {
		a.warmupSum += tr
		a.count++
		if a.count == a.period {
			a.atr = a.warmupSum / float64(a.period)
		}
	} else {
		a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
	}

	a.prevCandle = c
}

// Ready reports whether Value is meaningful.
func (a *StreamingATR) Ready() bool {
	return a.count >= a.period
}

// Value returns the current ATR, 0 until warmup completes.
func (a *StreamingATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}
