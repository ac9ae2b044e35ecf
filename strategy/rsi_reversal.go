package strategy

import (
	"stratum/indicator"
	"stratum/types"
)

// RSIReversal trades RSI leaving an extreme band: a close back above the
// oversold line goes long, a close back below the overbought line goes
// short. Sitting exactly on a line is not an exit from the band.
type RSIReversal struct {
	Period     int
	Oversold   float64
	Overbought float64
}

func NewRSIReversal() *RSIReversal {
	return &RSIReversal{Period: 14, Oversold: 30, Overbought: 70}
}

func (s *RSIReversal) ID() string { return "rsi_reversal" }

func (s *RSIReversal) Indicators() []Requirement {
	return []Requirement{
		{Key: "rsi", Kind: indicator.RSI, Params: indicator.Params{Period: s.Period}},
	}
}

func (s *RSIReversal) Evaluate(snap Snapshot, series []types.Candle, _ RiskContext) types.Signal {
	rsi := snap["rsi"]

	switch {
	case rsi.Prev() < s.Oversold && rsi.Last() > s.Oversold:
		return signalAt(s.ID(), series, types.Long)
	case rsi.Prev() > s.Overbought && rsi.Last() < s.Overbought:
		return signalAt(s.ID(), series, types.Short)
	default:
		return noSignal(s.ID(), series)
	}
}
