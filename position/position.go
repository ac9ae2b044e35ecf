// Package position owns the authoritative state of every position and the
// transitions it may take. Nothing else mutates a position.
package position

import (
	"errors"
	"time"

	"stratum/types"
)

type State string

const (
	PendingOpen  State = "pending_open"
	Open         State = "open"
	PendingClose State = "pending_close"
	Closed       State = "closed"
	Failed       State = "failed"
	Liquidated   State = "liquidated"
)

var (
	ErrSymbolBusy   = errors.New("position: symbol already has a live position")
	ErrMaxPositions = errors.New("position: max positions reached")
	ErrNotFound     = errors.New("position: no live position for symbol")
	ErrTransition   = errors.New("position: invalid state transition")
)

// Position is one leveraged futures position through its lifetime.
type Position struct {
	Symbol           string
	Direction        types.Direction
	EntryPrice       float64
	Quantity         float64
	StopLoss         float64
	TakeProfit       float64
	TrailingEnabled  bool
	TrailingDistance float64 // percent of price
	HighWater        float64 // favorable extreme since entry
	State            State
	OpenedAt         time.Time
	ClosedAt         time.Time
	CorrelationID    string // id of the opening intent

	// closing is the single in-flight close/modify guard: while set, no
	// second transition intent may be emitted for this position.
	closing bool
	closeID string
}

// live reports whether the position still represents exchange exposure
// (actual or imminent).
func (p *Position) live() bool {
	switch p.State {
	case PendingOpen, Open, PendingClose:
		return true
	}
	return false
}

// updateTrailing advances the high-water mark and tightens the stop, only
// ever in the risk-reducing direction.
func (p *Position) updateTrailing(price float64) {
	if !p.TrailingEnabled || p.TrailingDistance <= 0 {
		return
	}
	if p.Direction == types.Long {
		if price > p.HighWater {
			p.HighWater = price
		}
		if candidate := p.HighWater * (1 - p.TrailingDistance/100); candidate > p.StopLoss {
			p.StopLoss = candidate
		}
		return
	}
	if price < p.HighWater {
		p.HighWater = price
	}
	if candidate := p.HighWater * (1 + p.TrailingDistance/100); p.StopLoss == 0 || candidate < p.StopLoss {
		p.StopLoss = candidate
	}
}

// boundaryHit reports whether price crossed the stop or the target.
func (p *Position) boundaryHit(price float64) bool {
	if p.Direction == types.Long {
		if p.StopLoss > 0 && price <= p.StopLoss {
			return true
		}
		return p.TakeProfit > 0 && price >= p.TakeProfit
	}
	if p.StopLoss > 0 && price >= p.StopLoss {
		return true
	}
	return p.TakeProfit > 0 && price <= p.TakeProfit
}

// pnl is the realized profit for an exit at price.
func (p *Position) pnl(price float64) float64 {
	if p.Direction == types.Long {
		return (price - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - price) * p.Quantity
}
