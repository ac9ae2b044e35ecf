package strategy

import (
	"stratum/indicator"
	"stratum/types"
)

// EMACross is the plain two-EMA crossover. Equal values on either bar are
// not a cross.
type EMACross struct {
	FastPeriod int
	SlowPeriod int
	id         string
}

func NewEMACross() *EMACross {
	return &EMACross{FastPeriod: 9, SlowPeriod: 21, id: "ema_cross"}
}

// NewGoldenCross is the same crossover on the classic 50/200 pair.
func NewGoldenCross() *EMACross {
	return &EMACross{FastPeriod: 50, SlowPeriod: 200, id: "golden_cross"}
}

func (s *EMACross) ID() string { return s.id }

func (s *EMACross) Indicators() []Requirement {
	return []Requirement{
		{Key: "fast", Kind: indicator.EMA, Params: indicator.Params{Period: s.FastPeriod}},
		{Key: "slow", Kind: indicator.EMA, Params: indicator.Params{Period: s.SlowPeriod}},
	}
}

func (s *EMACross) Evaluate(snap Snapshot, series []types.Candle, _ RiskContext) types.Signal {
	fast := snap["fast"]
	slow := snap["slow"]

	switch {
	case crossedAbove(fast.Prev(), slow.Prev(), fast.Last(), slow.Last()):
		return signalAt(s.ID(), series, types.Long)
	case crossedBelow(fast.Prev(), slow.Prev(), fast.Last(), slow.Last()):
		return signalAt(s.ID(), series, types.Short)
	default:
		return noSignal(s.ID(), series)
	}
}
