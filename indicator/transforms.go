package indicator

import (
	"math"

	"stratum/types"
)

// fibRatios are the retracement levels exposed by the Fibonacci kind.
var fibRatios = map[string]float64{
	"0.236": 0.236,
	"0.382": 0.382,
	"0.5":   0.5,
	"0.618": 0.618,
	"0.786": 0.786,
}

// fibonacci finds the swing high/low over the last lookback bars and maps
// each ratio to its price level measured down from the swing high.
func fibonacci(series []types.Candle, lookback int) Value {
	window := series[len(series)-lookback:]
	high := window[0].High
	low := window[0].Low
	for _, c := range window[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	levels := map[string]float64{
		"high": high,
		"low":  low,
	}
	span := high - low
	for name, r := range fibRatios {
		levels[name] = high - span*r
	}
	return Value{Levels: levels}
}

// heikinAshi returns the Heikin-Ashi transform of the series. The smoothed
// open carries forward from the previous transformed candle, so the output
// is position-dependent but still a pure function of the input series.
func heikinAshi(series []types.Candle) Value {
	out := make([]types.Candle, len(series))
	for i, c := range series {
		ha := c
		ha.Close = (c.Open + c.High + c.Low + c.Close) / 4
		if i == 0 {
			ha.Open = (c.Open + c.Close) / 2
		} else {
			ha.Open = (out[i-1].Open + out[i-1].Close) / 2
		}
		ha.High = math.Max(c.High, math.Max(ha.Open, ha.Close))
		ha.Low = math.Min(c.Low, math.Min(ha.Open, ha.Close))
		out[i] = ha
	}
	return Value{Candles: out}
}
