package strategy

import (
	"testing"

	"stratum/indicator"
	"stratum/types"
)

func TestTripleEMACrossesBoth(t *testing.T) {
	s := NewTripleEMA()
	series := barSeries(100, 102)

	snap := Snapshot{
		"fast":   line(99, 102),
		"medium": line(100, 100.5),
		"slow":   line(101, 101.2),
	}
	if sig := s.Evaluate(snap, series, RiskContext{}); sig.Direction != types.Long {
		t.Fatalf("expected long on cross above both, got %v", sig.Direction)
	}

	snap = Snapshot{
		"fast":   line(102, 99),
		"medium": line(100.5, 100),
		"slow":   line(101.2, 101),
	}
	if sig := s.Evaluate(snap, series, RiskContext{}); sig.Direction != types.Short {
		t.Fatalf("expected short on cross below both, got %v", sig.Direction)
	}
}

func TestTripleEMAPartialCrossIsNone(t *testing.T) {
	s := NewTripleEMA()
	// Fast clears the medium but stays under the slow.
	snap := Snapshot{
		"fast":   line(99, 101),
		"medium": line(100, 100.5),
		"slow":   line(103, 103),
	}
	if sig := s.Evaluate(snap, barSeries(100, 101), RiskContext{}); sig.Direction != types.None {
		t.Fatalf("expected none on partial cross, got %v", sig.Direction)
	}
}

func TestTripleEMAEqualityIsNone(t *testing.T) {
	s := NewTripleEMA()
	// Fast lands exactly on the medium: touching is not crossing.
	snap := Snapshot{
		"fast":   line(99, 100.5),
		"medium": line(100, 100.5),
		"slow":   line(99.5, 100),
	}
	if sig := s.Evaluate(snap, barSeries(100, 101), RiskContext{}); sig.Direction != types.None {
		t.Fatalf("expected none on exact touch, got %v", sig.Direction)
	}
}

func TestEMACrossBothDirections(t *testing.T) {
	s := NewEMACross()
	series := barSeries(100, 101)

	snap := Snapshot{"fast": line(10, 12), "slow": line(11, 11)}
	if sig := s.Evaluate(snap, series, RiskContext{}); sig.Direction != types.Long {
		t.Fatalf("expected long, got %v", sig.Direction)
	}

	snap = Snapshot{"fast": line(12, 10), "slow": line(11, 11)}
	if sig := s.Evaluate(snap, series, RiskContext{}); sig.Direction != types.Short {
		t.Fatalf("expected short, got %v", sig.Direction)
	}

	// Equal on the previous bar: no cross happened, price just separated.
	snap = Snapshot{"fast": line(11, 12), "slow": line(11, 11)}
	if sig := s.Evaluate(snap, series, RiskContext{}); sig.Direction != types.None {
		t.Fatalf("expected none when previous values were equal, got %v", sig.Direction)
	}
}

func TestGoldenCrossUsesClassicPeriods(t *testing.T) {
	s := NewGoldenCross()
	if s.ID() != "golden_cross" {
		t.Fatalf("unexpected id %q", s.ID())
	}
	reqs := s.Indicators()
	if reqs[0].Params.Period != 50 || reqs[1].Params.Period != 200 {
		t.Fatalf("expected 50/200 EMAs, got %+v", reqs)
	}

	snap := Snapshot{"fast": line(99, 101), "slow": line(100, 100)}
	if sig := s.Evaluate(snap, barSeries(100, 101), RiskContext{}); sig.Direction != types.Long {
		t.Fatalf("expected long, got %v", sig.Direction)
	}
}

func TestMACDCross(t *testing.T) {
	s := NewMACDCross()
	series := barSeries(100, 101)

	snap := Snapshot{"macd": twoLine([]float64{-1, 1}, []float64{0, 0.5})}
	if sig := s.Evaluate(snap, series, RiskContext{}); sig.Direction != types.Long {
		t.Fatalf("expected long, got %v", sig.Direction)
	}

	snap = Snapshot{"macd": twoLine([]float64{1, -1}, []float64{0.5, 0})}
	if sig := s.Evaluate(snap, series, RiskContext{}); sig.Direction != types.Short {
		t.Fatalf("expected short, got %v", sig.Direction)
	}

	// Landing exactly on the signal line is not a cross.
	snap = Snapshot{"macd": twoLine([]float64{-1, 0.5}, []float64{0, 0.5})}
	if sig := s.Evaluate(snap, series, RiskContext{}); sig.Direction != types.None {
		t.Fatalf("expected none, got %v", sig.Direction)
	}
}

func TestMACDHistogramFlipNeedsMomentum(t *testing.T) {
	s := NewMACDHistogram()
	series := barSeries(100, 101)

	long := Snapshot{"macd": indicator.Value{Hist: []float64{-5, -2, 1}}}
	if sig := s.Evaluate(long, series, RiskContext{}); sig.Direction != types.Long {
		t.Fatalf("expected long on confirmed flip, got %v", sig.Direction)
	}

	short := Snapshot{"macd": indicator.Value{Hist: []float64{5, 2, -1}}}
	if sig := s.Evaluate(short, series, RiskContext{}); sig.Direction != types.Short {
		t.Fatalf("expected short on confirmed flip, got %v", sig.Direction)
	}

	// Histogram still deepening before the flip: a blip, not a turn.
	blip := Snapshot{"macd": indicator.Value{Hist: []float64{-1, -3, 1}}}
	if sig := s.Evaluate(blip, series, RiskContext{}); sig.Direction != types.None {
		t.Fatalf("expected none on unconfirmed flip, got %v", sig.Direction)
	}

	// Flat at zero resolves to none.
	flat := Snapshot{"macd": indicator.Value{Hist: []float64{-5, -2, 0}}}
	if sig := s.Evaluate(flat, series, RiskContext{}); sig.Direction != types.None {
		t.Fatalf("expected none at zero, got %v", sig.Direction)
	}
}
