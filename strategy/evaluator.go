package strategy

import (
	"time"

	"stratum/indicator"
	"stratum/logger"
	"stratum/metrics"
	"stratum/types"
)

// Evaluator runs one strategy over a growing candle series. It computes
// the strategy's indicator requirements on every closed bar, evaluates
// each bar exactly once, and suppresses a direction repeated on the very
// next bar so a persisting condition does not re-fire every candle.
type Evaluator struct {
	strat Strategy
	log   logger.Logger

	lastBar time.Time
	prevDir types.Direction
}

// NewEvaluator builds an evaluator for one strategy instance. Evaluators
// keep per-symbol state; use one per symbol.
func NewEvaluator(s Strategy, log logger.Logger) *Evaluator {
	return &Evaluator{strat: s, log: log, prevDir: types.None}
}

// Strategy returns the wrapped strategy.
func (e *Evaluator) Strategy() Strategy { return e.strat }

// EvaluateBar evaluates the newest closed candle of series. It returns
// (signal, true, nil) only for a fresh actionable direction. A series
// still inside an indicator's warmup window returns
// indicator.ErrInsufficientHistory; the caller skips the cycle.
func (e *Evaluator) EvaluateBar(series []types.Candle, rc RiskContext) (types.Signal, bool, error) {
	if len(series) == 0 {
		return types.Signal{}, false, nil
	}
	bar := series[len(series)-1].CloseTime
	if !bar.After(e.lastBar) {
		// A closed candle is evaluated once, never again.
		return types.Signal{}, false, nil
	}
	e.lastBar = bar

	snap := make(Snapshot)
	for _, req := range e.strat.Indicators() {
		v, err := indicator.Compute(req.Kind, series, req.Params)
		if err != nil {
			return types.Signal{}, false, err
		}
		snap[req.Key] = v
	}

	sig := e.strat.Evaluate(snap, series, rc)
	repeated := sig.Direction != types.None && sig.Direction == e.prevDir
	e.prevDir = sig.Direction
	if sig.Direction == types.None || repeated {
		return sig, false, nil
	}

	metrics.SignalsGenerated.WithLabelValues(e.strat.ID(), string(sig.Direction)).Inc()
	e.log.Info("signal_generated",
		logger.String("strategy", e.strat.ID()),
		logger.String("symbol", sig.Symbol),
		logger.String("direction", string(sig.Direction)),
	)
	return sig, true, nil
}

// MinBars returns the longest warmup window across the strategy's
// indicator requirements, plus one bar so every crossover check has a
// previous value.
func (e *Evaluator) MinBars() int {
	min := 1
	for _, req := range e.strat.Indicators() {
		if n := indicator.MinBars(req.Kind, req.Params); n > min {
			min = n
		}
	}
	return min + 1
}
