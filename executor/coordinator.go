package executor

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"stratum/logger"
	"stratum/metrics"
	"stratum/types"
)

// Coordinator wraps an Exchange with the submission policy: a global
// request budget shared across all symbols, capped exponential backoff on
// retryable failures, and correlation-id deduplication so one logical
// action yields at most one exchange-side order.
type Coordinator struct {
	exchange Exchange
	limiter  *rate.Limiter
	log      logger.Logger

	maxRetries  uint64
	maxInterval time.Duration

	mu       sync.Mutex
	resolved map[string]types.Fill // correlation id -> terminal fill
}

// NewCoordinator builds a coordinator with the given requests-per-second
// budget.
func NewCoordinator(ex Exchange, rps float64, log logger.Logger) *Coordinator {
	if rps <= 0 {
		rps = 5
	}
	return &Coordinator{
		exchange:    ex,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		log:         log,
		maxRetries:  5,
		maxInterval: 10 * time.Second,
		resolved:    make(map[string]types.Fill),
	}
}

// Submit places the intent and returns its fill. Retried submissions are
// idempotent: before every resubmission the exchange is asked whether an
// order with the intent's correlation id already exists, so a timeout
// after a successful placement never produces a duplicate.
func (c *Coordinator) Submit(ctx context.Context, intent types.OrderIntent) (types.Fill, error) {
	if fill, ok := c.alreadyResolved(intent.CorrelationID); ok {
		return fill, nil
	}

	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(c.newBackoff(), c.maxRetries), ctx)

	var fill types.Fill
	op := func() error {
		if attempt > 0 {
			metrics.OrderRetries.Inc()
			// The previous attempt may have gone through before its
			// response was lost. Check the exchange first.
			if existing, found, err := c.exchange.FindOrder(ctx, intent.Symbol, intent.CorrelationID); err == nil && found {
				fill = existing
				return nil
			}
		}
		attempt++

		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		f, err := c.exchange.PlaceOrder(ctx, intent)
		if err != nil {
			if !Retryable(err) {
				return backoff.Permanent(err)
			}
			c.log.Warn("order_submit_retry",
				logger.String("symbol", intent.Symbol),
				logger.String("correlation_id", intent.CorrelationID),
				logger.Int("attempt", attempt),
				logger.Err(err),
			)
			return err
		}
		fill = f
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		metrics.OrderFailures.WithLabelValues(string(intent.Kind)).Inc()
		c.log.Error("order_submit_failed",
			logger.String("symbol", intent.Symbol),
			logger.String("kind", string(intent.Kind)),
			logger.String("correlation_id", intent.CorrelationID),
			logger.Err(err),
		)
		return types.Fill{}, err
	}

	fill.CorrelationID = intent.CorrelationID
	c.remember(intent.CorrelationID, fill)
	metrics.OrdersSubmitted.WithLabelValues(string(intent.Kind)).Inc()
	c.log.Info("order_filled",
		logger.String("symbol", intent.Symbol),
		logger.String("kind", string(intent.Kind)),
		logger.String("side", string(intent.Side)),
		logger.Float64("qty", fill.Qty),
		logger.Float64("price", fill.Price),
		logger.String("correlation_id", intent.CorrelationID),
	)
	return fill, nil
}

// Cancel cancels a still-working order by correlation id.
func (c *Coordinator) Cancel(ctx context.Context, symbol, correlationID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.exchange.CancelOrder(ctx, symbol, correlationID)
}

func (c *Coordinator) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = c.maxInterval
	b.MaxElapsedTime = 0 // bounded by WithMaxRetries
	return b
}

func (c *Coordinator) alreadyResolved(correlationID string) (types.Fill, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.resolved[correlationID]
	return f, ok
}

func (c *Coordinator) remember(correlationID string, fill types.Fill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved[correlationID] = fill
	// The dedupe window only needs to cover retries of recent actions.
	if len(c.resolved) > 4096 {
		c.resolved = map[string]types.Fill{correlationID: fill}
	}
}
