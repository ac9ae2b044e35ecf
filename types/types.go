package types

import "time"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Opposite returns the side that flattens an order of this side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Direction is a strategy's view of the trade: long, short or nothing.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
	None  Direction = "none"
)

// EntrySide maps a direction to the order side that opens it.
func (d Direction) EntrySide() Side {
	if d == Short {
		return Sell
	}
	return Buy
}

// Interval is a supported candle bucket size.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

var intervalDurations = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval4h:  4 * time.Hour,
	Interval1d:  24 * time.Hour,
}

// Duration returns the wall-clock length of the interval, or 0 for an
// unsupported value.
func (i Interval) Duration() time.Duration { return intervalDurations[i] }

// Valid reports whether the interval is one of the supported bucket sizes.
func (i Interval) Valid() bool { return intervalDurations[i] > 0 }
