package planner

import (
	"math"
	"time"

	"OptRisk/internal/domain/models"
	"OptRisk/pkg/util"
)

// KeyLevelConfig controls the session math of key-level computation.
type KeyLevelConfig struct {
	ORBMinutes      int
	BollingerPeriod int
	BollingerK      float64
	Location        *time.Location
}

// DefaultKeyLevelConfig returns the standard 15-minute ORB / 20,2 Bollinger
// setup on exchange wall clock.
func DefaultKeyLevelConfig() KeyLevelConfig {
	return KeyLevelConfig{
		ORBMinutes:      15,
		BollingerPeriod: 20,
		BollingerK:      2,
		Location:        util.ExchangeLocation(),
	}
}

// ComputeKeyLevels derives the full key-level vocabulary from a bar set.
// Every "insufficient data" path leaves the affected fields at zero; zero is
// the sentinel for "unavailable" and consumers must filter it.
func ComputeKeyLevels(bars []models.Candle, cfg KeyLevelConfig) models.KeyLevels {
	var kl models.KeyLevels
	if len(bars) == 0 {
		return kl
	}
	loc := cfg.Location
	if loc == nil {
		loc = util.ExchangeLocation()
	}
	if cfg.ORBMinutes <= 0 {
		cfg.ORBMinutes = 15
	}
	if cfg.BollingerPeriod <= 0 {
		cfg.BollingerPeriod = 20
	}
	if cfg.BollingerK <= 0 {
		cfg.BollingerK = 2
	}

	last := bars[len(bars)-1]
	sessionDate := util.SessionDate(last.Bucket, loc)

	kl.VWAP, kl.VWAPUpperBand, kl.VWAPLowerBand = sessionVWAP(bars)
	kl.ORBHigh, kl.ORBLow = openingRange(bars, sessionDate, cfg.ORBMinutes, loc)
	kl.PreMarketHigh, kl.PreMarketLow = preMarketRange(bars, sessionDate, loc)
	kl.PriorDayHigh, kl.PriorDayLow, kl.PriorDayClose = priorDayLevels(bars, sessionDate, loc)
	kl.PriorWeekHigh, kl.PriorWeekLow = priorBucketRange(bars, loc, weekKey)
	kl.PriorMonthHigh, kl.PriorMonthLow = priorBucketRange(bars, loc, monthKey)
	kl.PriorQuarterHigh, kl.PriorQuarterLow = priorBucketRange(bars, loc, quarterKey)
	kl.PriorYearHigh, kl.PriorYearLow = priorBucketRange(bars, loc, yearKey)
	kl.BollingerUpper, kl.BollingerMiddle, kl.BollingerLower = bollingerBands(bars, cfg.BollingerPeriod, cfg.BollingerK)

	if kl.PriorDayHigh > 0 && kl.PriorDayLow > 0 && kl.PriorDayClose > 0 {
		kl.DailyPivot = (kl.PriorDayHigh + kl.PriorDayLow + kl.PriorDayClose) / 3
	}
	return kl
}

// sessionVWAP computes cumulative typical-price VWAP over the whole bar set,
// with one volume-weighted standard deviation as the band width. Zero total
// volume yields all-zero fields rather than NaN.
func sessionVWAP(bars []models.Candle) (vwap, upper, lower float64) {
	var sumPV, sumP2V, sumV float64
	for _, b := range bars {
		tp := (b.High + b.Low + b.Close) / 3
		sumPV += tp * b.Volume
		sumP2V += tp * tp * b.Volume
		sumV += b.Volume
	}
	if sumV <= 0 {
		return 0, 0, 0
	}
	vwap = sumPV / sumV
	variance := sumP2V/sumV - vwap*vwap
	if variance < 0 {
		variance = 0
	}
	band := math.Sqrt(variance)
	return vwap, vwap + band, vwap - band
}

// openingRange finds the high/low of the first N minutes after 09:30 on the
// last bar's session date. Session start is detected by wall clock, not by
// bar index, so a feed that starts mid-morning simply yields zeros.
func openingRange(bars []models.Candle, sessionDate time.Time, minutes int, loc *time.Location) (high, low float64) {
	open := sessionDate.Add(time.Duration(util.SessionOpenHour)*time.Hour + time.Duration(util.SessionOpenMinute)*time.Minute)
	end := open.Add(time.Duration(minutes) * time.Minute)
	for _, b := range bars {
		t := b.Bucket.In(loc)
		if t.Before(open) || !t.Before(end) {
			continue
		}
		if high == 0 || b.High > high {
			high = b.High
		}
		if low == 0 || b.Low < low {
			low = b.Low
		}
	}
	return high, low
}

func preMarketRange(bars []models.Candle, sessionDate time.Time, loc *time.Location) (high, low float64) {
	for _, b := range bars {
		if !util.SessionDate(b.Bucket, loc).Equal(sessionDate) || !util.IsPreMarket(b.Bucket, loc) {
			continue
		}
		if high == 0 || b.High > high {
			high = b.High
		}
		if low == 0 || b.Low < low {
			low = b.Low
		}
	}
	return high, low
}

// priorDayLevels covers the most recent session date strictly before the
// current one, restricted to regular-session hours.
func priorDayLevels(bars []models.Candle, sessionDate time.Time, loc *time.Location) (high, low, closePx float64) {
	var priorDate time.Time
	for _, b := range bars {
		d := util.SessionDate(b.Bucket, loc)
		if d.Before(sessionDate) && d.After(priorDate) {
			priorDate = d
		}
	}
	if priorDate.IsZero() {
		return 0, 0, 0
	}
	for _, b := range bars {
		if !util.SessionDate(b.Bucket, loc).Equal(priorDate) || !util.IsRegularSession(b.Bucket, loc) {
			continue
		}
		if high == 0 || b.High > high {
			high = b.High
		}
		if low == 0 || b.Low < low {
			low = b.Low
		}
		closePx = b.Close // bars are time-ordered; last one wins
	}
	return high, low, closePx
}

type bucketKeyFunc func(t time.Time) int

func weekKey(t time.Time) int {
	y, w := t.ISOWeek()
	return y*100 + w
}

func monthKey(t time.Time) int { return t.Year()*100 + int(t.Month()) }

func quarterKey(t time.Time) int { return t.Year()*10 + util.QuarterOf(t) }

func yearKey(t time.Time) int { return t.Year() }

// priorBucketRange buckets bars by a calendar period and returns the
// high/low of the most recent bucket strictly before the current one.
func priorBucketRange(bars []models.Candle, loc *time.Location, key bucketKeyFunc) (high, low float64) {
	current := key(bars[len(bars)-1].Bucket.In(loc))
	prior := 0
	for _, b := range bars {
		k := key(b.Bucket.In(loc))
		if k < current && k > prior {
			prior = k
		}
	}
	if prior == 0 {
		return 0, 0
	}
	for _, b := range bars {
		if key(b.Bucket.In(loc)) != prior {
			continue
		}
		if high == 0 || b.High > high {
			high = b.High
		}
		if low == 0 || b.Low < low {
			low = b.Low
		}
	}
	return high, low
}

// bollingerBands computes an SMA of closes with k-sigma bands over the last
// period bars. Fewer bars than the period yields zeros.
func bollingerBands(bars []models.Candle, period int, k float64) (upper, middle, lower float64) {
	if len(bars) < period {
		return 0, 0, 0
	}
	window := bars[len(bars)-period:]
	var sum float64
	for _, b := range window {
		sum += b.Close
	}
	middle = sum / float64(period)
	var sq float64
	for _, b := range window {
		d := b.Close - middle
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(period))
	return middle + k*sd, middle, middle - k*sd
}
