package strategy

import (
	"stratum/indicator"
	"stratum/types"
)

// FibRetracement trades a pullback into the 50-61.8% retracement pocket
// of the recent swing, in the direction of the EMA-defined trend. Entry
// fires when price leaves the pocket back toward the trend; the stop
// suggestion sits one ratio deeper, where the retracement thesis breaks.
type FibRetracement struct {
	Lookback  int
	EMAPeriod int
}

func NewFibRetracement() *FibRetracement {
	return &FibRetracement{Lookback: 50, EMAPeriod: 50}
}

func (s *FibRetracement) ID() string { return "fib_retracement" }

func (s *FibRetracement) Indicators() []Requirement {
	return []Requirement{
		{Key: "fib", Kind: indicator.Fibonacci, Params: indicator.Params{Lookback: s.Lookback}},
		{Key: "trend", Kind: indicator.EMA, Params: indicator.Params{Period: s.EMAPeriod}},
	}
}

func (s *FibRetracement) Evaluate(snap Snapshot, series []types.Candle, _ RiskContext) types.Signal {
	levels := snap["fib"].Levels
	trend := snap["trend"]
	if len(series) < 2 || len(levels) == 0 {
		return noSignal(s.ID(), series)
	}
	prev := series[len(series)-2].Close
	cur := series[len(series)-1].Close

	// Levels are measured down from the swing high, so 0.618 sits below
	// 0.5 and 0.382 above it.
	half := levels["0.5"]
	deep := levels["0.618"]
	shallow := levels["0.382"]

	uptrend := cur > trend.Last()
	downtrend := cur < trend.Last()

	if uptrend && prev >= deep && prev <= half && cur > half {
		sig := signalAt(s.ID(), series, types.Long)
		sig.SuggestedStop = levels["0.786"]
		return sig
	}
	if downtrend && prev >= half && prev <= shallow && cur < half {
		sig := signalAt(s.ID(), series, types.Short)
		sig.SuggestedStop = levels["0.236"]
		return sig
	}
	return noSignal(s.ID(), series)
}
