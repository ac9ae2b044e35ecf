// Package risk converts a trade signal into a sized, risk-bounded order
// plan and enforces the account-level limits before anything reaches the
// exchange.
package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stratum/config"
	"stratum/indicator"
	"stratum/types"
)

// Rejection means the signal was valid but risk limits block it. It is
// logged and discarded, never retried.
type Rejection struct {
	Reason string
}

func (r Rejection) Error() string { return "risk: rejected: " + r.Reason }

// SizedOrderPlan is the immutable output of SizeAndBound. The position
// lifecycle machine may later tighten the trailing stop but never the
// original take-profit.
type SizedOrderPlan struct {
	Symbol           string
	Direction        types.Direction
	Side             types.Side
	Qty              float64
	Entry            float64
	StopLoss         float64
	TakeProfit       float64
	TrailingEnabled  bool
	TrailingDistance float64 // percent of price
}

// Manager applies the configured risk parameters. It also tracks realized
// PnL per UTC day for the optional daily loss limit.
type Manager struct {
	cfg config.RiskConfig

	mu             sync.Mutex
	day            time.Time
	dayStartEquity float64
	realizedToday  float64
	initialEquity  float64
	lastEquity     float64
}

func NewManager(cfg config.RiskConfig) *Manager {
	return &Manager{cfg: cfg}
}

// SizeAndBound validates the signal against position and margin limits,
// sizes the order and computes absolute stop-loss/take-profit prices.
// openSymbols lists the symbols with a live (open or pending) position;
// committedNotional is their summed notional, whose margin is already
// spoken for.
func (m *Manager) SizeAndBound(sig types.Signal, entry, equity, committedNotional float64,
	openSymbols []string, filters types.SymbolFilters,
	series []types.Candle) (SizedOrderPlan, error) {

	if sig.Direction != types.Long && sig.Direction != types.Short {
		return SizedOrderPlan{}, Rejection{Reason: "no direction"}
	}
	if entry <= 0 || equity <= 0 {
		return SizedOrderPlan{}, Rejection{Reason: "invalid entry or equity"}
	}
	if len(openSymbols) >= m.cfg.MaxPositions {
		return SizedOrderPlan{}, Rejection{Reason: "max_positions reached"}
	}
	for _, s := range openSymbols {
		if s == sig.Symbol {
			return SizedOrderPlan{}, Rejection{Reason: "position already open for symbol"}
		}
	}
	if m.dailyLossBreached() {
		return SizedOrderPlan{}, Rejection{Reason: "daily loss limit reached"}
	}

	qty := equity * (m.cfg.OrderSizePct / 100) * float64(m.cfg.Leverage) / entry
	qty = floorToStep(qty, filters.StepSize)
	if qty <= 0 || (filters.MinQty > 0 && qty < filters.MinQty) {
		return SizedOrderPlan{}, Rejection{Reason: "quantity below exchange minimum"}
	}
	// Margin check at configured leverage, net of what the open positions
	// already hold.
	available := equity - committedNotional/float64(m.cfg.Leverage)
	if qty*entry/float64(m.cfg.Leverage) > available {
		return SizedOrderPlan{}, Rejection{Reason: "notional exceeds available margin"}
	}

	sl, err := m.stopPrice(m.cfg.SLMode, m.cfg.SLValue, sig, entry, series, true)
	if err != nil {
		return SizedOrderPlan{}, err
	}
	tp, err := m.stopPrice(m.cfg.TPMode, m.cfg.TPValue, sig, entry, series, false)
	if err != nil {
		return SizedOrderPlan{}, err
	}

	return SizedOrderPlan{
		Symbol:           sig.Symbol,
		Direction:        sig.Direction,
		Side:             sig.Direction.EntrySide(),
		Qty:              qty,
		Entry:            entry,
		StopLoss:         sl,
		TakeProfit:       tp,
		TrailingEnabled:  m.cfg.TrailingEnabled,
		TrailingDistance: m.cfg.TrailingDistance,
	}, nil
}

// stopPrice resolves one boundary (stop-loss when protective, take-profit
// otherwise) to an absolute price per the configured mode. A strategy's
// suggested level wins when it sits on the correct side of entry.
func (m *Manager) stopPrice(mode string, value float64, sig types.Signal,
	entry float64, series []types.Candle, protective bool) (float64, error) {

	long := sig.Direction == types.Long
	if suggested := suggestedLevel(sig, protective); suggested > 0 && onCorrectSide(suggested, entry, long, protective) {
		return suggested, nil
	}

	// Sign of the offset relative to entry: a protective stop sits on the
	// losing side, a target on the winning side.
	sign := -1.0
	if long != protective {
		sign = 1.0
	}

	switch mode {
	case config.ModeFixedAmount:
		return entry + sign*value, nil
	case config.ModePercent:
		return entry * (1 + sign*value/100), nil
	case config.ModeATRMultiple:
		atr, err := indicator.Compute(indicator.ATR, series, indicator.Params{})
		if err != nil {
			return 0, fmt.Errorf("risk: atr stop: %w", err)
		}
		return entry + sign*atr.Last()*value, nil
	case config.ModeSwingLevel:
		if level, ok := swingLevel(series, entry, sign > 0); ok {
			return level, nil
		}
		// No qualifying swing point: fall back to percent mode.
		return entry * (1 + sign*value/100), nil
	default:
		return 0, fmt.Errorf("risk: unknown stop mode %q", mode)
	}
}

func suggestedLevel(sig types.Signal, protective bool) float64 {
	if protective {
		return sig.SuggestedStop
	}
	return sig.SuggestedTP
}

func onCorrectSide(level, entry float64, long, protective bool) bool {
	below := long == protective
	if below {
		return level < entry
	}
	return level > entry
}

// floorToStep rounds qty down to the exchange step. Never rounds up, so a
// plan can only risk less than computed, not more. Decimal arithmetic
// keeps a qty that is an exact multiple of the step from slipping a whole
// step down through float division.
func floorToStep(qty, step float64) float64 {
	if step <= 0 {
		return qty
	}
	q := decimal.NewFromFloat(qty)
	s := decimal.NewFromFloat(step)
	out, _ := q.Div(s).Floor().Mul(s).Float64()
	return out
}
