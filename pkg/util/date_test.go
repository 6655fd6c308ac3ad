package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestTimeframeDuration(t *testing.T) {
	if TimeframeDuration("5m") != 5*time.Minute {
		t.Fatalf("unexpected 5m duration")
	}
	if TimeframeDuration("bogus") != time.Minute {
		t.Fatalf("unknown timeframe should fall back to 1m")
	}
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2024, 10, 10, 10, 12, 34, 0, time.UTC)
	to := time.Date(2024, 10, 10, 11, 3, 2, 0, time.UTC)
	af, at := AlignFromTo(from, to, "5m")
	if af.Minute()%5 != 0 || at.Minute()%5 != 0 {
		t.Fatalf("expected 5m alignment, got %v %v", af, at)
	}
}
