package strategy

import (
	"stratum/indicator"
	"stratum/types"
)

// StochRSIMACD scores four confluence conditions per side and trades when
// at least three hold on the same bar: stochastic RSI coming out of its
// extreme zone, %K crossing %D, a MACD line/signal cross, and RSI on the
// trade's side of 50.
type StochRSIMACD struct {
	RSIPeriod  int
	Oversold   float64
	Overbought float64
	MinScore   int
}

func NewStochRSIMACD() *StochRSIMACD {
	return &StochRSIMACD{RSIPeriod: 14, Oversold: 20, Overbought: 80, MinScore: 3}
}

func (s *StochRSIMACD) ID() string { return "stoch_rsi_macd" }

func (s *StochRSIMACD) Indicators() []Requirement {
	return []Requirement{
		{Key: "rsi", Kind: indicator.RSI, Params: indicator.Params{Period: s.RSIPeriod}},
		{Key: "stoch", Kind: indicator.StochRSI, Params: indicator.Params{Period: s.RSIPeriod}},
		{Key: "macd", Kind: indicator.MACD},
	}
}

func (s *StochRSIMACD) Evaluate(snap Snapshot, series []types.Candle, _ RiskContext) types.Signal {
	rsi := snap["rsi"]
	stoch := snap["stoch"]
	macd := snap["macd"]

	longScore := 0
	if stoch.Prev() < s.Oversold && stoch.PrevSignal() < s.Oversold {
		longScore++
	}
	if crossedAbove(stoch.Prev(), stoch.PrevSignal(), stoch.Last(), stoch.LastSignal()) {
		longScore++
	}
	if crossedAbove(macd.Prev(), macd.PrevSignal(), macd.Last(), macd.LastSignal()) {
		longScore++
	}
	if rsi.Last() > 50 {
		longScore++
	}

	shortScore := 0
	if stoch.Prev() > s.Overbought && stoch.PrevSignal() > s.Overbought {
		shortScore++
	}
	if crossedBelow(stoch.Prev(), stoch.PrevSignal(), stoch.Last(), stoch.LastSignal()) {
		shortScore++
	}
	if crossedBelow(macd.Prev(), macd.PrevSignal(), macd.Last(), macd.LastSignal()) {
		shortScore++
	}
	if rsi.Last() < 50 {
		shortScore++
	}

	switch {
	case longScore >= s.MinScore && shortScore < s.MinScore:
		return signalAt(s.ID(), series, types.Long)
	case shortScore >= s.MinScore && longScore < s.MinScore:
		return signalAt(s.ID(), series, types.Short)
	default:
		return noSignal(s.ID(), series)
	}
}
