// Package candle turns a raw tick stream into closed OHLCV bars per
// (symbol, interval) and keeps the bounded history each strategy reads.
package candle

import (
	"sync"
	"time"

	"stratum/types"
)

// Aggregator buckets ticks into candles. Ticks older than the current open
// bucket are discarded; ticks past the bucket's close boundary close the
// bucket and open a new one aligned to the interval grid, so clock skew
// never corrupts bucket alignment.
type Aggregator struct {
	mu       sync.Mutex
	interval types.Interval
	keep     int
	open     map[string]*types.Candle
	series   map[string][]types.Candle
}

// New creates an aggregator for one interval keeping at most keep closed
// bars per symbol.
func New(interval types.Interval, keep int) *Aggregator {
	if keep <= 0 {
		keep = 500
	}
	return &Aggregator{
		interval: interval,
		keep:     keep,
		open:     make(map[string]*types.Candle),
		series:   make(map[string][]types.Candle),
	}
}

// OnTick merges one tick. When the tick crosses the current bucket's close
// boundary the finished candle is returned with ok=true.
func (a *Aggregator) OnTick(symbol string, price, volume float64, ts time.Time) (types.Candle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.open[symbol]
	if cur == nil {
		a.open[symbol] = a.newBucket(symbol, price, volume, ts)
		return types.Candle{}, false
	}

	// Late tick: older than the open bucket. Drop it.
	if ts.Before(cur.OpenTime) {
		return types.Candle{}, false
	}

	if ts.Before(cur.CloseTime) {
		mergeTick(cur, price, volume)
		return types.Candle{}, false
	}

	// Boundary crossed: close the running bucket and start a new one whose
	// start aligns to the interval grid, not to the tick timestamp.
	closed := *cur
	closed.Closed = true
	a.appendClosed(symbol, closed)
	a.open[symbol] = a.newBucket(symbol, price, volume, ts)
	return closed, true
}

// Seed installs pre-fetched closed candles as history for a symbol,
// replacing anything already stored.
func (a *Aggregator) Seed(symbol string, candles []types.Candle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := make([]types.Candle, len(candles))
	copy(cp, candles)
	if len(cp) > a.keep {
		cp = cp[len(cp)-a.keep:]
	}
	a.series[symbol] = cp
}

// Series returns a snapshot of the closed candles for a symbol, oldest
// first.
func (a *Aggregator) Series(symbol string) []types.Candle {
	a.mu.Lock()
	defer a.mu.Unlock()
	src := a.series[symbol]
	out := make([]types.Candle, len(src))
	copy(out, src)
	return out
}

func (a *Aggregator) newBucket(symbol string, price, volume float64, ts time.Time) *types.Candle {
	start := ts.Truncate(a.interval.Duration())
	return &types.Candle{
		Symbol:    symbol,
		Interval:  a.interval,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    volume,
		OpenTime:  start,
		CloseTime: start.Add(a.interval.Duration()),
	}
}

func (a *Aggregator) appendClosed(symbol string, c types.Candle) {
	s := append(a.series[symbol], c)
	if len(s) > a.keep {
		s = s[len(s)-a.keep:]
	}
	a.series[symbol] = s
}

func mergeTick(c *types.Candle, price, volume float64) {
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price
	c.Volume += volume
}
