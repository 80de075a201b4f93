package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned for an unsupported bar interval.
var ErrInvalidInterval = errors.New("invalid interval")

// Interval is the bar size of a series.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
	Interval1W  Interval = "1W"
	Interval1M  Interval = "1M"
)

// Intervals lists every supported interval, smallest first.
var Intervals = []Interval{Interval1m, Interval5m, Interval15m, Interval1h, Interval1d, Interval1W, Interval1M}

// Valid reports whether i is one of the supported intervals.
func (i Interval) Valid() bool {
	for _, v := range Intervals {
		if i == v {
			return true
		}
	}
	return false
}

func (i Interval) String() string { return string(i) }

// Duration returns the nominal bar length. Months are counted as 30 days.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval1d:
		return 24 * time.Hour
	case Interval1W:
		return 7 * 24 * time.Hour
	case Interval1M:
		return 30 * 24 * time.Hour
	}
	return 0
}

// Intraday reports whether bars are shorter than a day.
func (i Interval) Intraday() bool {
	return i.Valid() && i.Duration() < 24*time.Hour
}

// ParseInterval parses an interval. Matching is exact: "1m" is a minute, "1M" a month.
func ParseInterval(s string) (Interval, error) {
	i := Interval(s)
	if !i.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	return i, nil
}
