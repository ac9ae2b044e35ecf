package position

import (
	"sync"
	"time"

	"stratum/logger"
	"stratum/metrics"
	"stratum/risk"
	"stratum/types"
)

// Book is the arena of live positions keyed by symbol. All transitions go
// through it under one lock, which linearizes them per position and keeps
// the one-position-per-symbol and max-positions invariants.
type Book struct {
	mu        sync.Mutex
	max       int
	log       logger.Logger
	positions map[string]*Position
}

func NewBook(max int, log logger.Logger) *Book {
	return &Book{
		max:       max,
		log:       log,
		positions: make(map[string]*Position),
	}
}

// Create registers a pending_open position for an accepted plan.
func (b *Book) Create(plan risk.SizedOrderPlan, correlationID string, now time.Time) (Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.positions[plan.Symbol]; ok && p.live() {
		return Position{}, ErrSymbolBusy
	}
	if b.liveCountLocked() >= b.max {
		return Position{}, ErrMaxPositions
	}
	p := &Position{
		Symbol:           plan.Symbol,
		Direction:        plan.Direction,
		EntryPrice:       plan.Entry,
		Quantity:         plan.Qty,
		StopLoss:         plan.StopLoss,
		TakeProfit:       plan.TakeProfit,
		TrailingEnabled:  plan.TrailingEnabled,
		TrailingDistance: plan.TrailingDistance,
		HighWater:        plan.Entry,
		State:            PendingOpen,
		OpenedAt:         now,
		CorrelationID:    correlationID,
	}
	b.positions[plan.Symbol] = p
	b.transitionLocked(p, PendingOpen)
	return *p, nil
}

// Adopt installs an already-open position, used when reconciliation finds
// exchange-side exposure the book does not know about.
func (b *Book) Adopt(p Position, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p.State = Open
	if p.HighWater == 0 {
		p.HighWater = p.EntryPrice
	}
	p.OpenedAt = now
	cp := p
	b.positions[p.Symbol] = &cp
	b.transitionLocked(&cp, Open)
}

// Drop removes a position reconciliation proved no longer exists on the
// exchange.
func (b *Book) Drop(symbol string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.positions, symbol)
	metrics.PositionsOpen.Set(float64(b.liveCountLocked()))
}

// OnOpenFill confirms the entry: pending_open -> open.
func (b *Book) OnOpenFill(symbol string, fill types.Fill, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	if !ok {
		return ErrNotFound
	}
	if p.State != PendingOpen {
		return ErrTransition
	}
	if fill.Price > 0 {
		p.EntryPrice = fill.Price
		p.HighWater = fill.Price
	}
	if fill.Qty > 0 {
		p.Quantity = fill.Qty
	}
	p.OpenedAt = now
	b.transitionLocked(p, Open)
	return nil
}

// OnOpenFailed records a rejected or timed-out entry with no residual
// exposure: pending_open -> failed.
func (b *Book) OnOpenFailed(symbol string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	if !ok {
		return ErrNotFound
	}
	if p.State != PendingOpen {
		return ErrTransition
	}
	b.transitionLocked(p, Failed)
	delete(b.positions, symbol)
	metrics.PositionsOpen.Set(float64(b.liveCountLocked()))
	return nil
}

// OnTick feeds one price into an open position. Trailing stops tighten
// first; if the price then sits beyond the stop or the target, a close
// intent is emitted exactly once and the position moves to pending_close.
func (b *Book) OnTick(symbol string, price float64) (types.OrderIntent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	if !ok || p.State != Open || p.closing {
		return types.OrderIntent{}, false
	}
	p.updateTrailing(price)
	if !p.boundaryHit(price) {
		return types.OrderIntent{}, false
	}
	p.closing = true
	p.closeID = types.NewCorrelationID()
	b.transitionLocked(p, PendingClose)
	return types.OrderIntent{
		Kind:          types.IntentClose,
		Symbol:        p.Symbol,
		Side:          p.Direction.EntrySide().Opposite(),
		Qty:           p.Quantity,
		ReduceOnly:    true,
		CorrelationID: p.closeID,
	}, true
}

// CloseIntent emits a close intent outside the tick path (shutdown or
// operator action), honoring the single in-flight transition guard.
func (b *Book) CloseIntent(symbol string) (types.OrderIntent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	if !ok || p.State != Open || p.closing {
		return types.OrderIntent{}, false
	}
	p.closing = true
	p.closeID = types.NewCorrelationID()
	b.transitionLocked(p, PendingClose)
	return types.OrderIntent{
		Kind:          types.IntentClose,
		Symbol:        p.Symbol,
		Side:          p.Direction.EntrySide().Opposite(),
		Qty:           p.Quantity,
		ReduceOnly:    true,
		CorrelationID: p.closeID,
	}, true
}

// OnCloseFill settles the exit: pending_close -> closed. The realized PnL
// is returned for accounting.
func (b *Book) OnCloseFill(symbol string, fill types.Fill, now time.Time) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	if !ok {
		return 0, ErrNotFound
	}
	if p.State != PendingClose {
		return 0, ErrTransition
	}
	pnl := p.pnl(fill.Price)
	p.ClosedAt = now
	b.transitionLocked(p, Closed)
	delete(b.positions, symbol)
	metrics.PositionsOpen.Set(float64(b.liveCountLocked()))
	return pnl, nil
}

// OnLiquidation records an exchange-reported liquidation. Treated as
// closed for accounting; no further intents are issued for it.
func (b *Book) OnLiquidation(symbol string, price float64, now time.Time) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	if !ok || !p.live() {
		return 0, ErrNotFound
	}
	pnl := p.pnl(price)
	p.ClosedAt = now
	b.transitionLocked(p, Liquidated)
	delete(b.positions, symbol)
	metrics.PositionsOpen.Set(float64(b.liveCountLocked()))
	return pnl, nil
}

// Get returns a snapshot of the live position for symbol.
func (b *Book) Get(symbol string) (Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// LiveSymbols lists symbols with a live position, for risk checks.
func (b *Book) LiveSymbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.positions))
	for sym, p := range b.positions {
		if p.live() {
			out = append(out, sym)
		}
	}
	return out
}

// PendingCloses lists positions stuck in pending_close, used at shutdown
// to let in-flight closes finish.
func (b *Book) PendingCloses() []Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Position
	for _, p := range b.positions {
		if p.State == PendingClose {
			out = append(out, *p)
		}
	}
	return out
}

// Exposure sums notional across live positions at their entry prices.
func (b *Book) Exposure() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0.0
	for _, p := range b.positions {
		if p.live() {
			total += p.EntryPrice * p.Quantity
		}
	}
	return total
}

func (b *Book) liveCountLocked() int {
	n := 0
	for _, p := range b.positions {
		if p.live() {
			n++
		}
	}
	return n
}

func (b *Book) transitionLocked(p *Position, to State) {
	p.State = to
	metrics.PositionTransitions.WithLabelValues(string(to)).Inc()
	metrics.PositionsOpen.Set(float64(b.liveCountLocked()))
	b.log.Info("position_transition",
		logger.String("symbol", p.Symbol),
		logger.String("state", string(to)),
		logger.String("direction", string(p.Direction)),
		logger.Float64("qty", p.Quantity),
		logger.Float64("stop_loss", p.StopLoss),
	)
}
