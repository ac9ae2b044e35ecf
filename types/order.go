package types

import (
	"time"

	"github.com/google/uuid"
)

// IntentKind classifies what an OrderIntent asks the exchange to do.
type IntentKind string

const (
	IntentOpen  IntentKind = "open"
	IntentClose IntentKind = "close"
)

// OrderIntent is a short-lived request for the execution coordinator.
// CorrelationID is unique per logical action and doubles as the exchange
// client order id, so a retried submission never places a second order.
type OrderIntent struct {
	Kind          IntentKind
	Symbol        string
	Side          Side
	Qty           float64
	Price         float64 // 0 = market
	ReduceOnly    bool
	CorrelationID string
}

// NewCorrelationID returns a fresh id for one logical order action.
func NewCorrelationID() string { return uuid.NewString() }

// Fill is the terminal confirmation of a submitted intent.
type Fill struct {
	OrderID       int64
	CorrelationID string
	Symbol        string
	Side          Side
	Qty           float64
	Price         float64
	Time          time.Time
}

// SymbolFilters are the exchange's tradability constraints for one symbol.
type SymbolFilters struct {
	StepSize float64 // quantity increment
	MinQty   float64 // smallest accepted quantity
	TickSize float64 // price increment
}

// Signal is a strategy's recommendation for a symbol at one closed bar.
type Signal struct {
	Direction     Direction
	Symbol        string
	Strategy      string
	SuggestedStop float64 // 0 = strategy has no opinion
	SuggestedTP   float64 // 0 = strategy has no opinion
	GeneratedAt   time.Time
}
