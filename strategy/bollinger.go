package strategy

import (
	"math"

	"stratum/indicator"
	"stratum/types"
)

// BollingerReversion fades a band poke: the previous close was outside a
// band and the current close is back inside. The suggested stop sits just
// beyond the extreme of the two bars so the risk manager can honor the
// setup's own invalidation point.
type BollingerReversion struct {
	Period int
	Dev    float64
}

func NewBollingerReversion() *BollingerReversion {
	return &BollingerReversion{Period: 20, Dev: 2}
}

func (s *BollingerReversion) ID() string { return "bollinger_reversion" }

func (s *BollingerReversion) Indicators() []Requirement {
	return []Requirement{
		{Key: "bb", Kind: indicator.BBands, Params: indicator.Params{Period: s.Period, Dev: s.Dev}},
	}
}

func (s *BollingerReversion) Evaluate(snap Snapshot, series []types.Candle, _ RiskContext) types.Signal {
	bb := snap["bb"]
	if len(series) < 2 {
		return noSignal(s.ID(), series)
	}
	prev := series[len(series)-2]
	cur := series[len(series)-1]

	if prev.Close < nth(bb.Lower, 1) && cur.Close > nth(bb.Lower, 0) {
		sig := signalAt(s.ID(), series, types.Long)
		sig.SuggestedStop = math.Min(prev.Low, cur.Low)
		return sig
	}
	if prev.Close > nth(bb.Upper, 1) && cur.Close < nth(bb.Upper, 0) {
		sig := signalAt(s.ID(), series, types.Short)
		sig.SuggestedStop = math.Max(prev.High, cur.High)
		return sig
	}
	return noSignal(s.ID(), series)
}

// BollingerBreakout trades a close pushing through a band while the bands
// themselves are widening, so a breakout into a volatility squeeze does
// not count.
type BollingerBreakout struct {
	Period int
	Dev    float64
}

func NewBollingerBreakout() *BollingerBreakout {
	return &BollingerBreakout{Period: 20, Dev: 2}
}

func (s *BollingerBreakout) ID() string { return "bollinger_breakout" }

func (s *BollingerBreakout) Indicators() []Requirement {
	return []Requirement{
		{Key: "bb", Kind: indicator.BBands, Params: indicator.Params{Period: s.Period, Dev: s.Dev}},
	}
}

func (s *BollingerBreakout) Evaluate(snap Snapshot, series []types.Candle, _ RiskContext) types.Signal {
	bb := snap["bb"]
	if len(series) < 2 {
		return noSignal(s.ID(), series)
	}
	prev := series[len(series)-2]
	cur := series[len(series)-1]

	widening := nth(bb.Upper, 0)-nth(bb.Lower, 0) > nth(bb.Upper, 1)-nth(bb.Lower, 1)
	if !widening {
		return noSignal(s.ID(), series)
	}

	switch {
	case prev.Close < nth(bb.Upper, 1) && cur.Close > nth(bb.Upper, 0):
		return signalAt(s.ID(), series, types.Long)
	case prev.Close > nth(bb.Lower, 1) && cur.Close < nth(bb.Lower, 0):
		return signalAt(s.ID(), series, types.Short)
	default:
		return noSignal(s.ID(), series)
	}
}
