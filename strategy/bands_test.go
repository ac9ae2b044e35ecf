package strategy

import (
	"testing"

	"stratum/indicator"
	"stratum/types"
)

func bands(upper, lower []float64) indicator.Value {
	mid := make([]float64, len(upper))
	for i := range upper {
		mid[i] = (upper[i] + lower[i]) / 2
	}
	return indicator.Value{Line: mid, Upper: upper, Lower: lower}
}

func TestBollingerReversionLong(t *testing.T) {
	s := NewBollingerReversion()
	series := barSeries(95, 101)

	snap := Snapshot{"bb": bands([]float64{120, 120}, []float64{100, 100})}
	sig := s.Evaluate(snap, series, RiskContext{})
	if sig.Direction != types.Long {
		t.Fatalf("expected long on re-entry from below, got %v", sig.Direction)
	}
	if sig.SuggestedStop != 94 { // low of the poke bar
		t.Fatalf("expected suggested stop 94, got %v", sig.SuggestedStop)
	}
}

func TestBollingerReversionShort(t *testing.T) {
	s := NewBollingerReversion()
	series := barSeries(125, 119)

	snap := Snapshot{"bb": bands([]float64{120, 120}, []float64{100, 100})}
	sig := s.Evaluate(snap, series, RiskContext{})
	if sig.Direction != types.Short {
		t.Fatalf("expected short on re-entry from above, got %v", sig.Direction)
	}
	if sig.SuggestedStop != 126 {
		t.Fatalf("expected suggested stop 126, got %v", sig.SuggestedStop)
	}
}

func TestBollingerReversionInsideBandIsNone(t *testing.T) {
	s := NewBollingerReversion()
	snap := Snapshot{"bb": bands([]float64{120, 120}, []float64{100, 100})}
	if sig := s.Evaluate(snap, barSeries(105, 110), RiskContext{}); sig.Direction != types.None {
		t.Fatalf("expected none inside the band, got %v", sig.Direction)
	}
}

func TestBollingerBreakoutNeedsWideningBands(t *testing.T) {
	s := NewBollingerBreakout()

	// Close pushes through the upper band while the bands widen.
	widening := Snapshot{"bb": bands([]float64{120, 124}, []float64{80, 75})}
	if sig := s.Evaluate(widening, barSeries(119, 125), RiskContext{}); sig.Direction != types.Long {
		t.Fatalf("expected long breakout, got %v", sig.Direction)
	}

	// Same price action into contracting bands: squeeze, not breakout.
	contracting := Snapshot{"bb": bands([]float64{120, 121}, []float64{80, 82})}
	if sig := s.Evaluate(contracting, barSeries(119, 125), RiskContext{}); sig.Direction != types.None {
		t.Fatalf("expected none into a squeeze, got %v", sig.Direction)
	}
}

func TestBollingerBreakoutShort(t *testing.T) {
	s := NewBollingerBreakout()
	snap := Snapshot{"bb": bands([]float64{120, 124}, []float64{80, 74})}
	if sig := s.Evaluate(snap, barSeries(81, 73), RiskContext{}); sig.Direction != types.Short {
		t.Fatalf("expected short breakdown, got %v", sig.Direction)
	}
}
