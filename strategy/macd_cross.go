package strategy

import (
	"stratum/indicator"
	"stratum/types"
)

// MACDCross trades the MACD line strictly crossing its signal line.
type MACDCross struct {
	Fast   int
	Slow   int
	Signal int
}

func NewMACDCross() *MACDCross {
	return &MACDCross{Fast: 12, Slow: 26, Signal: 9}
}

func (s *MACDCross) ID() string { return "macd_cross" }

func (s *MACDCross) Indicators() []Requirement {
	return []Requirement{
		{Key: "macd", Kind: indicator.MACD, Params: indicator.Params{
			Fast: s.Fast, Slow: s.Slow, Signal: s.Signal,
		}},
	}
}

func (s *MACDCross) Evaluate(snap Snapshot, series []types.Candle, _ RiskContext) types.Signal {
	macd := snap["macd"]

	switch {
	case crossedAbove(macd.Prev(), macd.PrevSignal(), macd.Last(), macd.LastSignal()):
		return signalAt(s.ID(), series, types.Long)
	case crossedBelow(macd.Prev(), macd.PrevSignal(), macd.Last(), macd.LastSignal()):
		return signalAt(s.ID(), series, types.Short)
	default:
		return noSignal(s.ID(), series)
	}
}
