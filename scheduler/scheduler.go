// Package scheduler fans bar-close events out to per-symbol workers. Each
// symbol runs its cycles strictly in order on its own goroutine: a bar
// that closes while the previous cycle is still running queues instead of
// overlapping. A failing symbol never stalls the others.
package scheduler

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"stratum/logger"
	"stratum/types"
)

// Cycle is one full evaluate-size-execute pass for a closed candle.
type Cycle func(ctx context.Context, candle types.Candle) error

// ErrSuspended marks a cycle result that takes the symbol out of
// rotation; subsequent bar closes for it are dropped.
var ErrSuspended = errors.New("scheduler: symbol suspended")

const defaultQueueSize = 16

// Scheduler owns the per-symbol workers.
type Scheduler struct {
	log       logger.Logger
	queueSize int

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	workers map[string]*worker
}

type worker struct {
	symbol    string
	queue     chan types.Candle
	run       Cycle
	suspended bool
}

// New builds an idle scheduler. Register symbols, then Start.
func New(log logger.Logger) *Scheduler {
	return &Scheduler{
		log:       log,
		queueSize: defaultQueueSize,
		workers:   make(map[string]*worker),
	}
}

// Register adds a symbol worker. Must be called before Start.
func (s *Scheduler) Register(symbol string, run Cycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[symbol] = &worker{
		symbol: symbol,
		queue:  make(chan types.Candle, s.queueSize),
		run:    run,
	}
}

// Start launches one goroutine per registered symbol.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.group, s.ctx = errgroup.WithContext(s.ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workers {
		w := w
		s.group.Go(func() error {
			s.loop(w)
			return nil
		})
	}
}

// Dispatch queues a closed candle for its symbol's worker. Candles for
// unregistered or suspended symbols are dropped. A full queue sheds the
// oldest queued bar, so a slow cycle costs stale decisions, never the
// freshest one.
func (s *Scheduler) Dispatch(candle types.Candle) {
	s.mu.Lock()
	w, ok := s.workers[candle.Symbol]
	suspended := ok && w.suspended
	s.mu.Unlock()
	if !ok || suspended {
		return
	}

	for {
		select {
		case w.queue <- candle:
			return
		default:
		}
		select {
		case stale := <-w.queue:
			s.log.Warn("cycle_queue_full",
				logger.String("symbol", candle.Symbol),
				logger.Float64("dropped_close", stale.Close),
			)
		default:
			// Worker drained the queue between the two selects; retry.
		}
	}
}

// Suspend takes a symbol out of rotation until restart.
func (s *Scheduler) Suspend(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.workers[symbol]; ok && !w.suspended {
		w.suspended = true
		s.log.Error("symbol_suspended", logger.String("symbol", symbol))
	}
}

// SuspendAll halts every symbol, used when a failure is clearly not
// symbol-specific (authentication, exchange-wide outage).
func (s *Scheduler) SuspendAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workers {
		if !w.suspended {
			w.suspended = true
			s.log.Error("symbol_suspended", logger.String("symbol", w.symbol))
		}
	}
}

// Suspended reports whether the symbol has been taken out of rotation.
func (s *Scheduler) Suspended(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[symbol]
	return ok && w.suspended
}

// Stop cancels the workers and waits for in-flight cycles to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.group != nil {
		_ = s.group.Wait()
	}
}

func (s *Scheduler) loop(w *worker) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case candle := <-w.queue:
			s.mu.Lock()
			skip := w.suspended
			s.mu.Unlock()
			if skip {
				continue
			}
			if err := w.run(s.ctx, candle); err != nil {
				if errors.Is(err, ErrSuspended) {
					s.Suspend(w.symbol)
					continue
				}
				// Per-symbol isolation: log and keep the worker alive.
				s.log.Error("cycle_failed",
					logger.String("symbol", w.symbol),
					logger.Err(err),
				)
			}
		}
	}
}
