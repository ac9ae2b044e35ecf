package executor

import (
	"context"
	"testing"
	"time"

	"stratum/types"
)

var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestSimulatedRoundTripRealizesPnL(t *testing.T) {
	sim := NewSimulatedExchange(1000)
	ctx := context.Background()

	open := types.OrderIntent{
		Kind: types.IntentOpen, Symbol: "BTCUSDT", Side: types.Buy,
		Qty: 0.01, Price: 50_000, CorrelationID: "open-1",
	}
	if _, err := sim.PlaceOrder(ctx, open); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	positions, err := sim.OpenPositions(ctx)
	if err != nil || len(positions) != 1 {
		t.Fatalf("expected one open position, got %v (%v)", positions, err)
	}
	if positions[0].Direction != types.Long || positions[0].EntryPrice != 50_000 {
		t.Fatalf("unexpected position: %+v", positions[0])
	}

	closeIntent := types.OrderIntent{
		Kind: types.IntentClose, Symbol: "BTCUSDT", Side: types.Sell,
		Qty: 0.01, Price: 51_000, ReduceOnly: true, CorrelationID: "close-1",
	}
	if _, err := sim.PlaceOrder(ctx, closeIntent); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	eq, _ := sim.AccountEquity(ctx)
	if eq != 1010 { // (51000-50000)*0.01
		t.Fatalf("expected equity 1010, got %v", eq)
	}
	if positions, _ := sim.OpenPositions(ctx); len(positions) != 0 {
		t.Fatalf("expected flat book, got %v", positions)
	}
}

func TestSimulatedShortPnL(t *testing.T) {
	sim := NewSimulatedExchange(1000)
	ctx := context.Background()

	sim.PlaceOrder(ctx, types.OrderIntent{
		Symbol: "ETHUSDT", Side: types.Sell, Qty: 1, Price: 2000, CorrelationID: "s1",
	})
	sim.PlaceOrder(ctx, types.OrderIntent{
		Symbol: "ETHUSDT", Side: types.Buy, Qty: 1, Price: 1900, ReduceOnly: true, CorrelationID: "s2",
	})
	eq, _ := sim.AccountEquity(ctx)
	if eq != 1100 {
		t.Fatalf("expected equity 1100 after profitable short, got %v", eq)
	}
}

func TestSimulatedIdempotentByCorrelationID(t *testing.T) {
	sim := NewSimulatedExchange(1000)
	ctx := context.Background()

	intent := types.OrderIntent{
		Symbol: "BTCUSDT", Side: types.Buy, Qty: 0.01, Price: 50_000, CorrelationID: "dup",
	}
	first, err := sim.PlaceOrder(ctx, intent)
	if err != nil {
		t.Fatal(err)
	}
	second, err := sim.PlaceOrder(ctx, intent)
	if err != nil {
		t.Fatal(err)
	}
	if first.OrderID != second.OrderID {
		t.Fatal("same correlation id must return the original fill")
	}
	positions, _ := sim.OpenPositions(ctx)
	if len(positions) != 1 || positions[0].Quantity != 0.01 {
		t.Fatalf("duplicate submission must not grow the position: %+v", positions)
	}
}

func TestSimulatedMarketFillUsesMarkPrice(t *testing.T) {
	sim := NewSimulatedExchange(1000)
	sim.MarkPrice("BTCUSDT", 42_000)
	fill, err := sim.PlaceOrder(context.Background(), types.OrderIntent{
		Symbol: "BTCUSDT", Side: types.Buy, Qty: 0.01, CorrelationID: "m1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if fill.Price != 42_000 {
		t.Fatalf("expected mark-price fill, got %v", fill.Price)
	}
}

func TestSimulatedRejectsWithoutPrice(t *testing.T) {
	sim := NewSimulatedExchange(1000)
	_, err := sim.PlaceOrder(context.Background(), types.OrderIntent{
		Symbol: "NOPRICE", Side: types.Buy, Qty: 1, CorrelationID: "x",
	})
	if err == nil {
		t.Fatal("expected terminal error without a mark price")
	}
	if Retryable(err) {
		t.Fatal("missing mark price is terminal, not retryable")
	}
}
