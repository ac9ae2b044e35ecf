package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"stratum/types"
)

// SimulatedExchange is the dry-run implementation of Exchange: perfect
// synthetic fills at the intent price, no slippage, in-memory margin
// accounting. The rest of the engine uses it exactly like the live
// adapter.
type SimulatedExchange struct {
	mu        sync.RWMutex
	equity    float64
	filters   map[string]types.SymbolFilters
	positions map[string]float64 // signed qty: positive = long
	avgPrice  map[string]float64
	fills     map[string]types.Fill // by correlation id
	marks     map[string]float64    // last seen price per symbol
}

// NewSimulatedExchange creates a simulator with the supplied starting
// equity.
func NewSimulatedExchange(startEquity float64) *SimulatedExchange {
	return &SimulatedExchange{
		equity:    startEquity,
		filters:   make(map[string]types.SymbolFilters),
		positions: make(map[string]float64),
		avgPrice:  make(map[string]float64),
		fills:     make(map[string]types.Fill),
		marks:     make(map[string]float64),
	}
}

// SetFilters installs the tradability constraints reported for a symbol.
func (s *SimulatedExchange) SetFilters(symbol string, f types.SymbolFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters[symbol] = f
}

// MarkPrice records the latest price so market intents without an
// explicit price can fill.
func (s *SimulatedExchange) MarkPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[symbol] = price
}

func (s *SimulatedExchange) PlaceOrder(_ context.Context, intent types.OrderIntent) (types.Fill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Same correlation id twice: return the original fill, never a
	// second one.
	if f, ok := s.fills[intent.CorrelationID]; ok {
		return f, nil
	}
	if intent.Qty <= 0 {
		return types.Fill{}, terminalErr("place", errors.New("sim: zero quantity"))
	}
	price := intent.Price
	if price == 0 {
		price = s.marks[intent.Symbol]
	}
	if price <= 0 {
		return types.Fill{}, terminalErr("place", errors.New("sim: no mark price for symbol"))
	}

	signed := intent.Qty
	if intent.Side == types.Sell {
		signed = -signed
	}
	prev := s.positions[intent.Symbol]
	next := prev + signed
	if prev != 0 && next != 0 && (prev > 0) == (next > 0) && !intent.ReduceOnly {
		// Simple VWAP for additions on the same side.
		s.avgPrice[intent.Symbol] = (s.avgPrice[intent.Symbol]*abs(prev) + price*abs(signed)) / abs(next)
	} else if prev == 0 {
		s.avgPrice[intent.Symbol] = price
	}
	if prev != 0 && (next == 0 || (prev > 0) != (next > 0)) {
		// Realize PnL on the closed part.
		closedQty := abs(prev)
		if abs(signed) < closedQty {
			closedQty = abs(signed)
		}
		if prev > 0 {
			s.equity += (price - s.avgPrice[intent.Symbol]) * closedQty
		} else {
			s.equity += (s.avgPrice[intent.Symbol] - price) * closedQty
		}
	}
	s.positions[intent.Symbol] = next
	if next == 0 {
		delete(s.positions, intent.Symbol)
		delete(s.avgPrice, intent.Symbol)
	}

	fill := types.Fill{
		OrderID:       int64(len(s.fills) + 1),
		CorrelationID: intent.CorrelationID,
		Symbol:        intent.Symbol,
		Side:          intent.Side,
		Qty:           intent.Qty,
		Price:         price,
		Time:          time.Now(),
	}
	s.fills[intent.CorrelationID] = fill
	return fill, nil
}

func (s *SimulatedExchange) CancelOrder(context.Context, string, string) error {
	// Synthetic fills are immediate; there is never a working order.
	return nil
}

func (s *SimulatedExchange) FindOrder(_ context.Context, _ string, correlationID string) (types.Fill, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fills[correlationID]
	return f, ok, nil
}

func (s *SimulatedExchange) OpenPositions(context.Context) ([]ExchangePosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ExchangePosition, 0, len(s.positions))
	for sym, qty := range s.positions {
		dir := types.Long
		if qty < 0 {
			dir = types.Short
		}
		out = append(out, ExchangePosition{
			Symbol:     sym,
			Direction:  dir,
			Quantity:   abs(qty),
			EntryPrice: s.avgPrice[sym],
		})
	}
	return out, nil
}

func (s *SimulatedExchange) AccountEquity(context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.equity, nil
}

func (s *SimulatedExchange) SymbolFilters(_ context.Context, symbol string) (types.SymbolFilters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.filters[symbol]; ok {
		return f, nil
	}
	return types.SymbolFilters{StepSize: 0.001, MinQty: 0.001, TickSize: 0.01}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
