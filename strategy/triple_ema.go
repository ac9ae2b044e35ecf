package strategy

import (
	"stratum/indicator"
	"stratum/types"
)

// TripleEMA trades the fast EMA crossing both the medium and the slow EMA
// on the same bar. A cross over only one of the two is ignored.
type TripleEMA struct {
	FastPeriod   int
	MediumPeriod int
	SlowPeriod   int
}

func NewTripleEMA() *TripleEMA {
	return &TripleEMA{FastPeriod: 5, MediumPeriod: 20, SlowPeriod: 50}
}

func (s *TripleEMA) ID() string { return "triple_ema" }

func (s *TripleEMA) Indicators() []Requirement {
	return []Requirement{
		{Key: "fast", Kind: indicator.EMA, Params: indicator.Params{Period: s.FastPeriod}},
		{Key: "medium", Kind: indicator.EMA, Params: indicator.Params{Period: s.MediumPeriod}},
		{Key: "slow", Kind: indicator.EMA, Params: indicator.Params{Period: s.SlowPeriod}},
	}
}

func (s *TripleEMA) Evaluate(snap Snapshot, series []types.Candle, _ RiskContext) types.Signal {
	fast := snap["fast"]
	medium := snap["medium"]
	slow := snap["slow"]

	longCross := fast.Prev() < medium.Prev() && fast.Prev() < slow.Prev() &&
		fast.Last() > medium.Last() && fast.Last() > slow.Last()
	shortCross := fast.Prev() > medium.Prev() && fast.Prev() > slow.Prev() &&
		fast.Last() < medium.Last() && fast.Last() < slow.Last()

	switch {
	case longCross:
		return signalAt(s.ID(), series, types.Long)
	case shortCross:
		return signalAt(s.ID(), series, types.Short)
	default:
		return noSignal(s.ID(), series)
	}
}
