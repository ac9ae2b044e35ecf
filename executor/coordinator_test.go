package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stratum/logger"
	"stratum/position"
	"stratum/risk"
	"stratum/testutils"
	"stratum/types"
)

// scriptedExchange fails a configurable number of placements, optionally
// recording the order exchange-side before failing (a lost response).
type scriptedExchange struct {
	mu            sync.Mutex
	failuresLeft  int
	failTerminal  bool
	recordOnFail  bool // order reaches the exchange, response is lost
	placeCalls    int
	placed        map[string]types.Fill
	openPositions []ExchangePosition
}

func newScripted() *scriptedExchange {
	return &scriptedExchange{placed: make(map[string]types.Fill)}
}

func (f *scriptedExchange) PlaceOrder(_ context.Context, intent types.OrderIntent) (types.Fill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placeCalls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		if f.recordOnFail {
			f.placed[intent.CorrelationID] = types.Fill{
				CorrelationID: intent.CorrelationID,
				Symbol:        intent.Symbol,
				Side:          intent.Side,
				Qty:           intent.Qty,
				Price:         intent.Price,
			}
		}
		if f.failTerminal {
			return types.Fill{}, terminalErr("place", errors.New("rejected"))
		}
		return types.Fill{}, retryableErr("place", errors.New("timeout"))
	}
	fill := types.Fill{
		CorrelationID: intent.CorrelationID,
		Symbol:        intent.Symbol,
		Side:          intent.Side,
		Qty:           intent.Qty,
		Price:         intent.Price,
	}
	f.placed[intent.CorrelationID] = fill
	return fill, nil
}

func (f *scriptedExchange) CancelOrder(context.Context, string, string) error { return nil }

func (f *scriptedExchange) FindOrder(_ context.Context, _ string, id string) (types.Fill, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fill, ok := f.placed[id]
	return fill, ok, nil
}

func (f *scriptedExchange) OpenPositions(context.Context) ([]ExchangePosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ExchangePosition(nil), f.openPositions...), nil
}

func (f *scriptedExchange) AccountEquity(context.Context) (float64, error) { return 1000, nil }

func (f *scriptedExchange) SymbolFilters(context.Context, string) (types.SymbolFilters, error) {
	return types.SymbolFilters{StepSize: 0.001}, nil
}

func fastCoordinator(ex Exchange) *Coordinator {
	c := NewCoordinator(ex, 1000, logger.NewNop())
	c.maxInterval = 1
	return c
}

func intentFor(symbol string) types.OrderIntent {
	return types.OrderIntent{
		Kind:          types.IntentOpen,
		Symbol:        symbol,
		Side:          types.Buy,
		Qty:           1,
		Price:         100,
		CorrelationID: types.NewCorrelationID(),
	}
}

func TestSubmitRetriesTransientFailure(t *testing.T) {
	ex := newScripted()
	ex.failuresLeft = 2
	c := fastCoordinator(ex)

	fill, err := c.Submit(context.Background(), intentFor("BTCUSDT"))
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if fill.Price != 100 {
		t.Fatalf("unexpected fill: %+v", fill)
	}
	if len(ex.placed) != 1 {
		t.Fatalf("expected exactly one exchange order, got %d", len(ex.placed))
	}
}

func TestSubmitDoesNotRetryTerminal(t *testing.T) {
	ex := newScripted()
	ex.failuresLeft = 1
	ex.failTerminal = true
	c := fastCoordinator(ex)

	if _, err := c.Submit(context.Background(), intentFor("BTCUSDT")); err == nil {
		t.Fatal("expected terminal failure")
	}
	if ex.placeCalls != 1 {
		t.Fatalf("terminal error must not be retried, got %d calls", ex.placeCalls)
	}
}

func TestTimeoutThenConfirmedNoDuplicate(t *testing.T) {
	// The order reaches the exchange but the response is lost. The retry
	// must detect the existing order via correlation id and not place a
	// second one.
	ex := newScripted()
	ex.failuresLeft = 1
	ex.recordOnFail = true
	c := fastCoordinator(ex)

	intent := intentFor("BTCUSDT")
	fill, err := c.Submit(context.Background(), intent)
	if err != nil {
		t.Fatalf("expected recovery via FindOrder, got %v", err)
	}
	if fill.CorrelationID != intent.CorrelationID {
		t.Fatalf("wrong fill: %+v", fill)
	}
	if ex.placeCalls != 1 {
		t.Fatalf("expected a single placement, got %d", ex.placeCalls)
	}
	if len(ex.placed) != 1 {
		t.Fatalf("duplicate order placed: %d", len(ex.placed))
	}
}

func TestSubmitSameCorrelationIDTwice(t *testing.T) {
	ex := newScripted()
	c := fastCoordinator(ex)

	intent := intentFor("BTCUSDT")
	if _, err := c.Submit(context.Background(), intent); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Submit(context.Background(), intent); err != nil {
		t.Fatal(err)
	}
	if ex.placeCalls != 1 {
		t.Fatalf("resubmitted action must be served from the dedupe cache, got %d calls", ex.placeCalls)
	}
}

func TestSubmitLogsRetriesAndFill(t *testing.T) {
	ex := newScripted()
	ex.failuresLeft = 1
	log := testutils.NewMockLogger()
	c := NewCoordinator(ex, 1000, log)
	c.maxInterval = 1

	if _, err := c.Submit(context.Background(), intentFor("BTCUSDT")); err != nil {
		t.Fatal(err)
	}
	if !log.Has("order_submit_retry") {
		t.Fatal("retry attempt must be logged")
	}
	if n := log.Count("order_filled"); n != 1 {
		t.Fatalf("expected one fill event, got %d", n)
	}
}

func TestReconcileExchangeWins(t *testing.T) {
	ex := newScripted()
	ex.openPositions = []ExchangePosition{
		{Symbol: "ETHUSDT", Direction: types.Long, Quantity: 2, EntryPrice: 2000},
		{Symbol: "BTCUSDT", Direction: types.Short, Quantity: 0.5, EntryPrice: 50_000},
	}
	c := fastCoordinator(ex)

	book := position.NewBook(10, logger.NewNop())
	// Local-only position: exchange says it does not exist.
	if _, err := book.Create(risk.SizedOrderPlan{
		Symbol: "SOLUSDT", Direction: types.Long, Qty: 1, Entry: 150,
	}, "x", testNow); err != nil {
		t.Fatal(err)
	}
	// Mismatched position: local long 1, exchange short 0.5.
	if _, err := book.Create(risk.SizedOrderPlan{
		Symbol: "BTCUSDT", Direction: types.Long, Qty: 1, Entry: 49_000,
	}, "y", testNow); err != nil {
		t.Fatal(err)
	}
	if err := book.OnOpenFill("BTCUSDT", types.Fill{Qty: 1, Price: 49_000}, testNow); err != nil {
		t.Fatal(err)
	}

	bounds := func(ep ExchangePosition) (float64, float64) {
		if ep.Direction == types.Long {
			return ep.EntryPrice * 0.98, 0
		}
		return ep.EntryPrice * 1.02, 0
	}
	if err := c.Reconcile(context.Background(), book, bounds); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if _, ok := book.Get("SOLUSDT"); ok {
		t.Fatal("local-only position must be dropped")
	}
	btc, ok := book.Get("BTCUSDT")
	if !ok || btc.Direction != types.Short || btc.Quantity != 0.5 {
		t.Fatalf("mismatch must resolve to exchange state, got %+v", btc)
	}
	eth, ok := book.Get("ETHUSDT")
	if !ok || eth.State != position.Open || eth.StopLoss != 2000*0.98 {
		t.Fatalf("exchange-only position must be adopted with bounds, got %+v", eth)
	}
}
