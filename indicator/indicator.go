// Package indicator exposes every indicator the shipped strategies use
// through one uniform compute-over-series contract. Each call is a pure
// function of the candle series and its params; nothing is retained
// between calls. Indicator math is delegated to go-talib.
package indicator

import (
	"errors"
	"fmt"

	talib "github.com/markcheno/go-talib"

	"stratum/types"
)

// ErrInsufficientHistory is returned when the series is shorter than the
// indicator's minimum window. Compute never returns a degraded value.
var ErrInsufficientHistory = errors.New("indicator: insufficient history")

type Kind string

const (
	EMA        Kind = "ema"
	SMA        Kind = "sma"
	RSI        Kind = "rsi"
	StochRSI   Kind = "stoch_rsi"
	MACD       Kind = "macd"
	ATR        Kind = "atr"
	BBands     Kind = "bbands"
	Fibonacci  Kind = "fibonacci"
	HeikinAshi Kind = "heikin_ashi"
)

// Params configures one computation. Zero fields fall back to the
// conventional defaults for the indicator.
type Params struct {
	Period   int     // EMA/SMA/RSI/ATR/BBands/StochRSI base period
	Fast     int     // MACD fast period
	Slow     int     // MACD slow period
	Signal   int     // MACD signal period
	KPeriod  int     // StochRSI fast %K
	DPeriod  int     // StochRSI fast %D
	Dev      float64 // BBands standard deviation multiple
	Lookback int     // Fibonacci swing window
}

func (p Params) withDefaults(kind Kind) Params {
	if p.Period == 0 {
		switch kind {
		case BBands:
			p.Period = 20
		default:
			p.Period = 14
		}
	}
	if p.Fast == 0 {
		p.Fast = 12
	}
	if p.Slow == 0 {
		p.Slow = 26
	}
	if p.Signal == 0 {
		p.Signal = 9
	}
	if p.KPeriod == 0 {
		p.KPeriod = 14
	}
	if p.DPeriod == 0 {
		p.DPeriod = 3
	}
	if p.Dev == 0 {
		p.Dev = 2
	}
	if p.Lookback == 0 {
		p.Lookback = 50
	}
	return p
}

// Value is the result of one computation. Single-line indicators populate
// Line; multi-line indicators additionally fill the named slices. The
// Heikin-Ashi transform returns Candles; Fibonacci returns Levels.
type Value struct {
	Line    []float64
	Signal  []float64 // MACD signal line, StochRSI %D
	Upper   []float64 // BBands upper band
	Lower   []float64 // BBands lower band
	Hist    []float64 // MACD histogram
	Levels  map[string]float64
	Candles []types.Candle
}

// Last returns the newest value of the primary line.
func (v Value) Last() float64 { return at(v.Line, 0) }

// Prev returns the value of the primary line one bar back.
func (v Value) Prev() float64 { return at(v.Line, 1) }

// LastSignal and PrevSignal mirror Last/Prev for the signal line.
func (v Value) LastSignal() float64 { return at(v.Signal, 0) }
func (v Value) PrevSignal() float64 { return at(v.Signal, 1) }

func at(s []float64, back int) float64 {
	i := len(s) - 1 - back
	if i < 0 {
		return 0
	}
	return s[i]
}

// MinBars returns the minimum closed candles needed before kind can be
// computed with the given params.
func MinBars(kind Kind, p Params) int {
	p = p.withDefaults(kind)
	switch kind {
	case EMA, SMA, BBands:
		return p.Period
	case RSI, ATR:
		return p.Period + 1
	case StochRSI:
		return p.Period + p.KPeriod + p.DPeriod
	case MACD:
		return p.Slow + p.Signal
	case Fibonacci:
		return p.Lookback
	case HeikinAshi:
		return 2
	default:
		return 1
	}
}

// Compute evaluates kind over the series. It fails with
// ErrInsufficientHistory when fewer than MinBars candles are supplied and
// with a plain error for an unknown kind.
func Compute(kind Kind, series []types.Candle, p Params) (Value, error) {
	p = p.withDefaults(kind)
	if len(series) < MinBars(kind, p) {
		return Value{}, fmt.Errorf("%w: %s needs %d bars, have %d",
			ErrInsufficientHistory, kind, MinBars(kind, p), len(series))
	}

	closes := types.Closes(series)
	switch kind {
	case EMA:
		return Value{Line: talib.Ema(closes, p.Period)}, nil
	case SMA:
		return Value{Line: talib.Sma(closes, p.Period)}, nil
	case RSI:
		return Value{Line: talib.Rsi(closes, p.Period)}, nil
	case StochRSI:
		k, d := talib.StochRsi(closes, p.Period, p.KPeriod, p.DPeriod, talib.SMA)
		return Value{Line: k, Signal: d}, nil
	case MACD:
		line, sig, hist := talib.Macd(closes, p.Fast, p.Slow, p.Signal)
		return Value{Line: line, Signal: sig, Hist: hist}, nil
	case ATR:
		return Value{Line: talib.Atr(types.Highs(series), types.Lows(series), closes, p.Period)}, nil
	case BBands:
		upper, middle, lower := talib.BBands(closes, p.Period, p.Dev, p.Dev, talib.SMA)
		return Value{Line: middle, Upper: upper, Lower: lower}, nil
	case Fibonacci:
		return fibonacci(series, p.Lookback), nil
	case HeikinAshi:
		return heikinAshi(series), nil
	default:
		return Value{}, fmt.Errorf("indicator: unknown kind %q", kind)
	}
}
