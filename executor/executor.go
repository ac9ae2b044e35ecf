// Package executor submits order intents to the exchange with idempotent
// retries, a shared request budget, and reconciliation against exchange
// state after outages.
package executor

import (
	"context"
	"errors"
	"fmt"

	"stratum/types"
)

// ExchangePosition is the exchange's authoritative view of one position,
// read during reconciliation.
type ExchangePosition struct {
	Symbol     string
	Direction  types.Direction
	Quantity   float64
	EntryPrice float64
}

// Exchange abstracts the trading API. All methods may fail with retryable
// or terminal errors; implementations classify via ExecutionError.
type Exchange interface {
	// PlaceOrder submits the intent using its CorrelationID as the client
	// order id, so a resubmission with the same id never creates a second
	// exchange-side order.
	PlaceOrder(ctx context.Context, intent types.OrderIntent) (types.Fill, error)
	// CancelOrder cancels by client order id; used for pending_open
	// intents at shutdown.
	CancelOrder(ctx context.Context, symbol, correlationID string) error
	// FindOrder looks up a previously submitted order by client order id.
	// Returns ok=false when the exchange has no record of it.
	FindOrder(ctx context.Context, symbol, correlationID string) (types.Fill, bool, error)
	// OpenPositions returns all exchange-side positions with nonzero size.
	OpenPositions(ctx context.Context) ([]ExchangePosition, error)
	// AccountEquity returns the total margin balance in quote currency.
	AccountEquity(ctx context.Context) (float64, error)
	// SymbolFilters returns the tradability constraints for a symbol.
	SymbolFilters(ctx context.Context, symbol string) (types.SymbolFilters, error)
}

// ErrAuth marks failures caused by the credentials themselves. They are
// terminal for every symbol: the engine halts the whole submission path
// instead of suspending one symbol at a time.
var ErrAuth = errors.New("executor: authentication failure")

// ExecutionError classifies an order submission failure. Only retryable
// errors (timeouts, rate limits, transient 5xx) are resubmitted.
type ExecutionError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *ExecutionError) Error() string {
	kind := "terminal"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("executor: %s: %s error: %v", e.Op, kind, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Retryable reports whether err allows another submission attempt.
func Retryable(err error) bool {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Retryable
	}
	// Unclassified transport errors are treated as retryable; a terminal
	// outcome must be stated explicitly by the exchange adapter.
	return err != nil
}

// NewExecutionError constructs a classified execution error; exchange
// adapters use it to label their failures.
func NewExecutionError(op string, retryable bool, err error) *ExecutionError {
	return &ExecutionError{Op: op, Retryable: retryable, Err: err}
}

func retryableErr(op string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Retryable: true, Err: err}
}

func terminalErr(op string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Retryable: false, Err: err}
}
