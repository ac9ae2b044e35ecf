package strategy

import (
	"time"

	"stratum/indicator"
	"stratum/types"
)

// barSeries builds a closed 1m candle series from close prices. Highs and
// lows pad the close by one so range-based checks have room.
func barSeries(closes ...float64) []types.Candle {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{
			Symbol:    "BTCUSDT",
			Interval:  types.Interval1m,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    10,
			OpenTime:  start.Add(time.Duration(i) * time.Minute),
			CloseTime: start.Add(time.Duration(i+1) * time.Minute),
			Closed:    true,
		}
	}
	return out
}

// line builds a single-line indicator value from oldest to newest.
func line(vals ...float64) indicator.Value {
	return indicator.Value{Line: vals}
}

// twoLine builds a value with a primary and a signal line.
func twoLine(lineVals, signalVals []float64) indicator.Value {
	return indicator.Value{Line: lineVals, Signal: signalVals}
}
