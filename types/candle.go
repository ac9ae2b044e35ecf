package types

import "time"

// Candle is one OHLCV bar for a (symbol, interval) key. A candle is
// immutable once Closed is set.
type Candle struct {
	Symbol    string
	Interval  Interval
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	OpenTime  time.Time
	CloseTime time.Time
	Closed    bool
}

// Closes extracts the close series from a slice of candles.
func Closes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high series from a slice of candles.
func Highs(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low series from a slice of candles.
func Lows(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Low
	}
	return out
}
