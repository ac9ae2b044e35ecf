package indicator

import (
	"errors"
	"math"
	"testing"

	"stratum/types"
)

func makeSeries(closes ...float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Closed: true,
		}
	}
	return out
}

func TestInsufficientHistoryAllKinds(t *testing.T) {
	short := makeSeries(1)
	kinds := []Kind{EMA, SMA, RSI, StochRSI, MACD, ATR, BBands, Fibonacci}
	for _, k := range kinds {
		_, err := Compute(k, short, Params{})
		if !errors.Is(err, ErrInsufficientHistory) {
			t.Fatalf("%s: expected ErrInsufficientHistory, got %v", k, err)
		}
	}
}

func TestUnknownKind(t *testing.T) {
	if _, err := Compute("vwap", makeSeries(1, 2, 3), Params{}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestSMAValue(t *testing.T) {
	series := makeSeries(1, 2, 3, 4, 5)
	v, err := Compute(SMA, series, Params{Period: 5})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if math.Abs(v.Last()-3) > 1e-9 {
		t.Fatalf("expected SMA(5)=3, got %v", v.Last())
	}
}

func TestEMAFollowsTrend(t *testing.T) {
	up := make([]float64, 60)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	v, err := Compute(EMA, makeSeries(up...), Params{Period: 10})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if v.Last() <= v.Prev() {
		t.Fatalf("EMA must rise on a rising series: last=%v prev=%v", v.Last(), v.Prev())
	}
}

func TestMACDHasThreeLines(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/5)*10
	}
	v, err := Compute(MACD, makeSeries(closes...), Params{})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if len(v.Line) == 0 || len(v.Signal) == 0 || len(v.Hist) == 0 {
		t.Fatal("MACD must populate line, signal and histogram")
	}
	got := v.Last() - v.LastSignal()
	if math.Abs(got-v.Hist[len(v.Hist)-1]) > 1e-9 {
		t.Fatalf("histogram must equal line-signal, got %v vs %v", got, v.Hist[len(v.Hist)-1])
	}
}

func TestBBandsOrdering(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 50 + float64(i%7)
	}
	v, err := Compute(BBands, makeSeries(closes...), Params{Period: 20})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if !(v.Upper[len(v.Upper)-1] > v.Last() && v.Last() > v.Lower[len(v.Lower)-1]) {
		t.Fatal("band ordering violated")
	}
}

func TestATRPositive(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i%3)
	}
	v, err := Compute(ATR, makeSeries(closes...), Params{Period: 14})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if v.Last() <= 0 {
		t.Fatalf("expected positive ATR, got %v", v.Last())
	}
}

func TestFibonacciLevels(t *testing.T) {
	series := makeSeries(make([]float64, 50)...)
	for i := range series {
		series[i].High = 100
		series[i].Low = 100
	}
	series[10].High = 200
	series[40].Low = 100
	v, err := Compute(Fibonacci, series, Params{Lookback: 50})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if v.Levels["high"] != 200 {
		t.Fatalf("expected swing high 200, got %v", v.Levels["high"])
	}
	want := 200 - (200-v.Levels["low"])*0.618
	if math.Abs(v.Levels["0.618"]-want) > 1e-9 {
		t.Fatalf("0.618 level wrong: got %v want %v", v.Levels["0.618"], want)
	}
	if !(v.Levels["0.236"] > v.Levels["0.5"] && v.Levels["0.5"] > v.Levels["0.786"]) {
		t.Fatal("level ordering violated")
	}
}

func TestHeikinAshiSmoothsOpen(t *testing.T) {
	series := []types.Candle{
		{Open: 10, High: 12, Low: 9, Close: 11},
		{Open: 11, High: 14, Low: 10, Close: 13},
		{Open: 13, High: 15, Low: 12, Close: 14},
	}
	v, err := Compute(HeikinAshi, series, Params{})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	ha := v.Candles
	if len(ha) != 3 {
		t.Fatalf("expected 3 transformed candles, got %d", len(ha))
	}
	if ha[0].Open != 10.5 {
		t.Fatalf("first HA open must be (o+c)/2, got %v", ha[0].Open)
	}
	wantOpen := (ha[0].Open + ha[0].Close) / 2
	if math.Abs(ha[1].Open-wantOpen) > 1e-9 {
		t.Fatalf("HA open must carry forward, got %v want %v", ha[1].Open, wantOpen)
	}
	if ha[2].High < ha[2].Open || ha[2].Low > ha[2].Close {
		t.Fatal("HA high/low must bound open and close")
	}
}

func TestComputeIsPure(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i%11)
	}
	series := makeSeries(closes...)
	a, err := Compute(RSI, series, Params{Period: 14})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(RSI, series, Params{Period: 14})
	if err != nil {
		t.Fatal(err)
	}
	if a.Last() != b.Last() {
		t.Fatalf("same input must give same output: %v vs %v", a.Last(), b.Last())
	}
}
