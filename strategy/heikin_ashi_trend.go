package strategy

import (
	"math"

	"stratum/indicator"
	"stratum/types"
)

// HeikinAshiTrend trades a Heikin-Ashi color flip confirmed by an
// expanding body: the flipping candle must have a larger body than the
// one it replaces. Doji flips (equal open and close) resolve to none.
type HeikinAshiTrend struct{}

func NewHeikinAshiTrend() *HeikinAshiTrend { return &HeikinAshiTrend{} }

func (s *HeikinAshiTrend) ID() string { return "heikin_ashi_trend" }

func (s *HeikinAshiTrend) Indicators() []Requirement {
	return []Requirement{
		{Key: "ha", Kind: indicator.HeikinAshi},
	}
}

func (s *HeikinAshiTrend) Evaluate(snap Snapshot, series []types.Candle, _ RiskContext) types.Signal {
	ha := snap["ha"].Candles
	if len(ha) < 2 {
		return noSignal(s.ID(), series)
	}
	prev := ha[len(ha)-2]
	cur := ha[len(ha)-1]

	prevBody := math.Abs(prev.Close - prev.Open)
	curBody := math.Abs(cur.Close - cur.Open)
	if curBody <= prevBody {
		return noSignal(s.ID(), series)
	}

	switch {
	case prev.Close < prev.Open && cur.Close > cur.Open:
		return signalAt(s.ID(), series, types.Long)
	case prev.Close > prev.Open && cur.Close < cur.Open:
		return signalAt(s.ID(), series, types.Short)
	default:
		return noSignal(s.ID(), series)
	}
}
