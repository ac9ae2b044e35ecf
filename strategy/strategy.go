// Package strategy holds the shipped trading strategies and the evaluator
// that drives them. A strategy is a pure decision function: given the
// indicator snapshot for the newest closed candle it returns a directional
// signal or none. Strategies never talk to the exchange and never size
// orders; that is the risk manager's job.
package strategy

import (
	"stratum/indicator"
	"stratum/types"
)

// Requirement names one indicator computation a strategy needs per bar.
// Key is the handle the strategy uses to read it back from the snapshot.
type Requirement struct {
	Key    string
	Kind   indicator.Kind
	Params indicator.Params
}

// Snapshot maps requirement keys to their computed values for one bar.
type Snapshot map[string]indicator.Value

// RiskContext is the read-only account view passed into Evaluate. It lets
// a strategy temper its output; it carries no authority to size or place
// anything.
type RiskContext struct {
	Equity        float64
	OpenPositions int
	HoldsSymbol   bool
}

// Strategy is the capability every shipped strategy implements. Evaluate
// must be deterministic: the same snapshot and series always produce the
// same signal.
type Strategy interface {
	ID() string
	Indicators() []Requirement
	Evaluate(snap Snapshot, series []types.Candle, rc RiskContext) types.Signal
}

// crossedAbove reports a strict upward crossover of a over b between the
// previous and the current bar. Exact equality on either bar is not a
// cross.
func crossedAbove(prevA, prevB, curA, curB float64) bool {
	return prevA < prevB && curA > curB
}

// crossedBelow is the strict downward mirror.
func crossedBelow(prevA, prevB, curA, curB float64) bool {
	return prevA > prevB && curA < curB
}

// nth returns the slice value back bars from the end, 0 = newest.
func nth(s []float64, back int) float64 {
	i := len(s) - 1 - back
	if i < 0 {
		return 0
	}
	return s[i]
}

// signalAt stamps a directional signal with the newest candle's identity.
func signalAt(id string, series []types.Candle, dir types.Direction) types.Signal {
	last := series[len(series)-1]
	return types.Signal{
		Direction:   dir,
		Symbol:      last.Symbol,
		Strategy:    id,
		GeneratedAt: last.CloseTime,
	}
}

// noSignal is the explicit "no trade" outcome.
func noSignal(id string, series []types.Candle) types.Signal {
	return signalAt(id, series, types.None)
}
