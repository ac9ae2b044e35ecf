package strategy

import (
	"fmt"
	"sort"
)

// factories maps every shipped strategy id to its constructor. The table
// is static: config validation resolves ids against it at startup, so an
// unknown id fails fast instead of at the first bar close.
var factories = map[string]func() Strategy{
	"triple_ema":          func() Strategy { return NewTripleEMA() },
	"stoch_rsi_macd":      func() Strategy { return NewStochRSIMACD() },
	"ema_cross":           func() Strategy { return NewEMACross() },
	"golden_cross":        func() Strategy { return NewGoldenCross() },
	"macd_cross":          func() Strategy { return NewMACDCross() },
	"macd_histogram":      func() Strategy { return NewMACDHistogram() },
	"rsi_reversal":        func() Strategy { return NewRSIReversal() },
	"bollinger_reversion": func() Strategy { return NewBollingerReversion() },
	"bollinger_breakout":  func() Strategy { return NewBollingerBreakout() },
	"heikin_ashi_trend":   func() Strategy { return NewHeikinAshiTrend() },
	"fib_retracement":     func() Strategy { return NewFibRetracement() },
}

// Exists reports whether id names a shipped strategy.
func Exists(id string) bool {
	_, ok := factories[id]
	return ok
}

// IDs returns every registered strategy id, sorted.
func IDs() []string {
	out := make([]string, 0, len(factories))
	for id := range factories {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// New constructs the strategy registered under id.
func New(id string) (Strategy, error) {
	factory, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("strategy: unknown id %q (known: %v)", id, IDs())
	}
	return factory(), nil
}
