package util

import "time"

// Regular-session and premarket boundaries, exchange wall clock.
const (
	PreMarketOpenHour    = 4
	SessionOpenHour      = 9
	SessionOpenMinute    = 30
	SessionCloseHour     = 16
	sessionCloseMinute   = 0
	defaultExchangeTZ    = "America/New_York"
	fallbackExchangeUTCO = -5 * 3600
)

// ExchangeLocation resolves the exchange timezone, falling back to a fixed
// Eastern offset when the tz database is unavailable.
func ExchangeLocation() *time.Location {
	loc, err := time.LoadLocation(defaultExchangeTZ)
	if err != nil {
		return time.FixedZone("ET", fallbackExchangeUTCO)
	}
	return loc
}

// SessionDate returns the calendar date of t in exchange wall clock.
func SessionDate(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// SessionOpen returns 09:30 exchange time on t's session date.
func SessionOpen(t time.Time, loc *time.Location) time.Time {
	d := SessionDate(t, loc)
	return d.Add(time.Duration(SessionOpenHour)*time.Hour + time.Duration(SessionOpenMinute)*time.Minute)
}

// IsRegularSession reports whether t falls inside 09:30-16:00 exchange time.
func IsRegularSession(t time.Time, loc *time.Location) bool {
	lt := t.In(loc)
	mins := lt.Hour()*60 + lt.Minute()
	open := SessionOpenHour*60 + SessionOpenMinute
	close := SessionCloseHour*60 + sessionCloseMinute
	return mins >= open && mins < close
}

// IsPreMarket reports whether t falls inside 04:00-09:30 exchange time.
func IsPreMarket(t time.Time, loc *time.Location) bool {
	lt := t.In(loc)
	mins := lt.Hour()*60 + lt.Minute()
	return mins >= PreMarketOpenHour*60 && mins < SessionOpenHour*60+SessionOpenMinute
}

// QuarterOf returns the 1-based quarter of t's month.
func QuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}
