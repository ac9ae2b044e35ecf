// Package engine wires the trading pipeline: ticks feed the candle
// aggregator and the position book, closed candles feed the per-symbol
// strategy cycles, accepted signals flow through the risk manager into
// the execution coordinator.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stratum/candle"
	"stratum/config"
	"stratum/executor"
	"stratum/indicator"
	"stratum/logger"
	"stratum/metrics"
	"stratum/position"
	"stratum/risk"
	"stratum/scheduler"
	"stratum/strategy"
	"stratum/types"
)

// Optional exchange capabilities the engine uses when present.
type leverageSetter interface {
	SetLeverage(ctx context.Context, symbol string, leverage int) error
}

type historian interface {
	History(ctx context.Context, symbol string, interval types.Interval, limit int) ([]types.Candle, error)
}

type marker interface {
	MarkPrice(symbol string, price float64)
}

// Engine runs the bot for one configuration.
type Engine struct {
	cfg   config.Config
	log   logger.Logger
	ex    executor.Exchange
	coord *executor.Coordinator
	agg   *candle.Aggregator
	riskM *risk.Manager
	book  *position.Book
	sched *scheduler.Scheduler

	evaluators map[string]*strategy.Evaluator

	// Close submissions run on their own context, not the run context:
	// cancelling the run must never abort a pending_close in flight.
	closeCtx    context.Context
	closeCancel context.CancelFunc
	wg          sync.WaitGroup // in-flight close submissions
}

// New builds an engine from a validated config and an exchange.
func New(cfg config.Config, ex executor.Exchange, log logger.Logger) (*Engine, error) {
	return newEngine(cfg, ex, log, func() (strategy.Strategy, error) {
		return strategy.New(cfg.Strategy)
	})
}

func newEngine(cfg config.Config, ex executor.Exchange, log logger.Logger,
	newStrategy func() (strategy.Strategy, error)) (*Engine, error) {

	evaluators := make(map[string]*strategy.Evaluator, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		st, err := newStrategy()
		if err != nil {
			return nil, err
		}
		evaluators[sym] = strategy.NewEvaluator(st, log)
	}
	closeCtx, closeCancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:         cfg,
		log:         log,
		ex:          ex,
		coord:       executor.NewCoordinator(ex, cfg.Exchange.RequestsPerSecond, log),
		agg:         candle.New(cfg.Interval, cfg.HistoryBars),
		riskM:       risk.NewManager(cfg.Risk),
		book:        position.NewBook(cfg.Risk.MaxPositions, log),
		sched:       scheduler.New(log),
		evaluators:  evaluators,
		closeCtx:    closeCtx,
		closeCancel: closeCancel,
	}, nil
}

// Start prepares the account, seeds history, reconciles against exchange
// state and launches the symbol workers.
func (e *Engine) Start(ctx context.Context) error {
	if ls, ok := e.ex.(leverageSetter); ok {
		for _, sym := range e.cfg.Symbols {
			if err := ls.SetLeverage(ctx, sym, e.cfg.Risk.Leverage); err != nil {
				e.log.Warn("set_leverage_failed",
					logger.String("symbol", sym),
					logger.Err(err),
				)
			}
		}
	}

	if h, ok := e.ex.(historian); ok {
		for _, sym := range e.cfg.Symbols {
			candles, err := h.History(ctx, sym, e.cfg.Interval, e.cfg.HistoryBars)
			if err != nil {
				return fmt.Errorf("engine: seed %s: %w", sym, err)
			}
			e.agg.Seed(sym, candles)
		}
	}

	if err := e.coord.Reconcile(ctx, e.book, e.fallbackBounds); err != nil {
		return err
	}

	for _, sym := range e.cfg.Symbols {
		sym := sym
		e.sched.Register(sym, func(ctx context.Context, c types.Candle) error {
			return e.cycle(ctx, sym, c)
		})
	}
	e.sched.Start(ctx)
	return nil
}

// OnTick feeds one market trade into the pipeline. Bar closes are handed
// to the symbol's worker; open positions are checked against their
// boundaries on every tick, with close submissions running off the tick
// path.
func (e *Engine) OnTick(symbol string, price, qty float64, ts time.Time) {
	if mk, ok := e.ex.(marker); ok {
		mk.MarkPrice(symbol, price)
	}

	if closed, ok := e.agg.OnTick(symbol, price, qty, ts); ok {
		e.sched.Dispatch(closed)
	}

	if intent, ok := e.book.OnTick(symbol, price); ok {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.submitClose(e.closeCtx, intent)
		}()
	}
}

// Shutdown stops taking new decisions and lets in-flight closes finish.
// Pending entries are cancelled where possible; open positions stay open
// and are reconciled on the next start.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.sched.Stop()

	for _, sym := range e.book.LiveSymbols() {
		p, ok := e.book.Get(sym)
		if !ok || p.State != position.PendingOpen {
			continue
		}
		if err := e.coord.Cancel(ctx, sym, p.CorrelationID); err != nil {
			// A fill that slipped through is picked up by the next start's
			// reconciliation.
			e.log.Warn("pending_open_cancel_failed",
				logger.String("symbol", sym),
				logger.Err(err),
			)
		}
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.closeCancel()
		return nil
	case <-ctx.Done():
		// Give up on whatever is still retrying; the exposure is picked up
		// by the next start's reconciliation.
		e.closeCancel()
		return fmt.Errorf("engine: shutdown with %d closes in flight: %w",
			len(e.book.PendingCloses()), ctx.Err())
	}
}

// Report returns the current account risk snapshot.
func (e *Engine) Report() risk.Report {
	return e.riskM.Snapshot(e.book.Exposure(), len(e.book.LiveSymbols()))
}

// Book exposes the position book for inspection.
func (e *Engine) Book() *position.Book { return e.book }

// Suspended reports whether a symbol was taken out of rotation after a
// fatal exposure.
func (e *Engine) Suspended(symbol string) bool { return e.sched.Suspended(symbol) }

// cycle is one serialized evaluate-size-execute pass for a closed candle.
func (e *Engine) cycle(ctx context.Context, symbol string, c types.Candle) error {
	eval, ok := e.evaluators[symbol]
	if !ok {
		return nil
	}
	series := e.agg.Series(symbol)

	equity, err := e.ex.AccountEquity(ctx)
	if err != nil {
		return fmt.Errorf("engine: equity: %w", err)
	}
	now := time.Now()
	e.riskM.ObserveEquity(equity, now)
	metrics.EquityGauge.Set(equity)

	sig, actionable, err := eval.EvaluateBar(series, strategy.RiskContext{
		Equity:        equity,
		OpenPositions: len(e.book.LiveSymbols()),
		HoldsSymbol:   e.holds(symbol),
	})
	if err != nil {
		if errors.Is(err, indicator.ErrInsufficientHistory) {
			// Still inside the warmup window; skip the cycle.
			return nil
		}
		return err
	}
	if !actionable {
		return nil
	}

	filters, err := e.ex.SymbolFilters(ctx, symbol)
	if err != nil {
		return fmt.Errorf("engine: filters %s: %w", symbol, err)
	}

	plan, err := e.riskM.SizeAndBound(sig, c.Close, equity, e.book.Exposure(), e.book.LiveSymbols(), filters, series)
	if err != nil {
		var rej risk.Rejection
		if errors.As(err, &rej) {
			metrics.RiskRejections.WithLabelValues(rej.Reason).Inc()
			e.log.Info("signal_rejected",
				logger.String("symbol", symbol),
				logger.String("strategy", sig.Strategy),
				logger.String("reason", rej.Reason),
			)
			return nil
		}
		return err
	}

	return e.openPosition(ctx, plan)
}

func (e *Engine) openPosition(ctx context.Context, plan risk.SizedOrderPlan) error {
	correlationID := types.NewCorrelationID()
	if _, err := e.book.Create(plan, correlationID, time.Now()); err != nil {
		// Lost the race against another cycle; not an error worth surfacing.
		e.log.Info("entry_skipped",
			logger.String("symbol", plan.Symbol),
			logger.Err(err),
		)
		return nil
	}

	fill, err := e.coord.Submit(ctx, types.OrderIntent{
		Kind:          types.IntentOpen,
		Symbol:        plan.Symbol,
		Side:          plan.Side,
		Qty:           plan.Qty,
		CorrelationID: correlationID,
	})
	if err != nil {
		if ferr := e.book.OnOpenFailed(plan.Symbol); ferr != nil {
			e.log.Warn("open_failed_cleanup",
				logger.String("symbol", plan.Symbol),
				logger.Err(ferr),
			)
		}
		e.haltIfAuthBroken(err)
		// The failure is already logged and counted by the coordinator.
		return nil
	}
	return e.book.OnOpenFill(plan.Symbol, fill, time.Now())
}

func (e *Engine) submitClose(ctx context.Context, intent types.OrderIntent) {
	fill, err := e.coord.Submit(ctx, intent)
	if err != nil {
		// Exhausted retries with live exposure on the book. Flag it loudly
		// and stop trading the symbol; the operator resolves it.
		metrics.FatalExposures.Inc()
		e.log.Error("close_submission_exhausted",
			logger.String("symbol", intent.Symbol),
			logger.Float64("qty", intent.Qty),
			logger.Err(err),
		)
		e.sched.Suspend(intent.Symbol)
		e.haltIfAuthBroken(err)
		return
	}

	now := time.Now()
	pnl, err := e.book.OnCloseFill(intent.Symbol, fill, now)
	if err != nil {
		e.log.Warn("close_fill_unmatched",
			logger.String("symbol", intent.Symbol),
			logger.Err(err),
		)
		return
	}
	e.riskM.RecordClose(pnl, now)
	e.log.Info("position_closed",
		logger.String("symbol", intent.Symbol),
		logger.Float64("pnl", pnl),
		logger.Float64("exit_price", fill.Price),
	)
}

// haltIfAuthBroken suspends every symbol's decision path when the error
// means the credentials are broken; market-data ingestion and position
// monitoring keep running.
func (e *Engine) haltIfAuthBroken(err error) {
	if errors.Is(err, executor.ErrAuth) {
		e.log.Error("authentication_broken_trading_halted", logger.Err(err))
		e.sched.SuspendAll()
	}
}

func (e *Engine) holds(symbol string) bool {
	_, ok := e.book.Get(symbol)
	return ok
}

// fallbackBounds derives protective levels for positions adopted from the
// exchange, whose original plan is unknown. Percent modes reuse the
// configured distances; other modes fall back to a conservative 2%/4%.
func (e *Engine) fallbackBounds(ep executor.ExchangePosition) (float64, float64) {
	slPct, tpPct := 2.0, 4.0
	if e.cfg.Risk.SLMode == config.ModePercent {
		slPct = e.cfg.Risk.SLValue
	}
	if e.cfg.Risk.TPMode == config.ModePercent {
		tpPct = e.cfg.Risk.TPValue
	}
	if ep.Direction == types.Short {
		return ep.EntryPrice * (1 + slPct/100), ep.EntryPrice * (1 - tpPct/100)
	}
	return ep.EntryPrice * (1 - slPct/100), ep.EntryPrice * (1 + tpPct/100)
}
