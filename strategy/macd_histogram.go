package strategy

import (
	"stratum/indicator"
	"stratum/types"
)

// MACDHistogram trades the histogram flipping sign after momentum already
// turned: the bar before the flip must have shrunk toward zero, so a
// one-bar blip straight across does not qualify.
type MACDHistogram struct {
	Fast   int
	Slow   int
	Signal int
}

func NewMACDHistogram() *MACDHistogram {
	return &MACDHistogram{Fast: 12, Slow: 26, Signal: 9}
}

func (s *MACDHistogram) ID() string { return "macd_histogram" }

func (s *MACDHistogram) Indicators() []Requirement {
	return []Requirement{
		{Key: "macd", Kind: indicator.MACD, Params: indicator.Params{
			Fast: s.Fast, Slow: s.Slow, Signal: s.Signal,
		}},
	}
}

func (s *MACDHistogram) Evaluate(snap Snapshot, series []types.Candle, _ RiskContext) types.Signal {
	hist := snap["macd"].Hist
	if len(hist) < 3 {
		return noSignal(s.ID(), series)
	}
	cur := nth(hist, 0)
	prev := nth(hist, 1)
	before := nth(hist, 2)

	switch {
	case before < prev && prev < 0 && cur > 0:
		return signalAt(s.ID(), series, types.Long)
	case before > prev && prev > 0 && cur < 0:
		return signalAt(s.ID(), series, types.Short)
	default:
		return noSignal(s.ID(), series)
	}
}
