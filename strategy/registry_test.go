package strategy

import (
	"sort"
	"testing"
)

func TestRegistryKnowsAllShippedStrategies(t *testing.T) {
	want := []string{
		"bollinger_breakout", "bollinger_reversion", "ema_cross",
		"fib_retracement", "golden_cross", "heikin_ashi_trend",
		"macd_cross", "macd_histogram", "rsi_reversal",
		"stoch_rsi_macd", "triple_ema",
	}
	got := IDs()
	if len(got) != len(want) {
		t.Fatalf("expected %d strategies, got %d: %v", len(want), len(got), got)
	}
	if !sort.StringsAreSorted(got) {
		t.Fatalf("IDs must be sorted: %v", got)
	}
	for i, id := range want {
		if got[i] != id {
			t.Fatalf("expected %q at %d, got %q", id, i, got[i])
		}
	}
}

func TestRegistryIDMatchesInstance(t *testing.T) {
	for _, id := range IDs() {
		s, err := New(id)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", id, err)
		}
		if s.ID() != id {
			t.Fatalf("registry id %q but strategy reports %q", id, s.ID())
		}
		if len(s.Indicators()) == 0 {
			t.Fatalf("%q declares no indicator requirements", id)
		}
	}
}

func TestRegistryUnknownID(t *testing.T) {
	if Exists("momentum_deluxe") {
		t.Fatal("unexpected strategy id registered")
	}
	if _, err := New("momentum_deluxe"); err == nil {
		t.Fatal("expected error for unknown strategy id")
	}
}
