package executor

import (
	"context"
	"fmt"
	"time"

	"stratum/logger"
	"stratum/metrics"
	"stratum/position"
)

// Reconcile resynchronizes the local position book against the exchange's
// authoritative records, run at startup and after an outage. On any
// conflict the exchange wins: local-only positions are dropped, exchange-
// only positions are adopted, mismatches are replaced. boundsFor supplies
// stop/target prices for adopted positions whose protective levels are
// unknown locally.
func (c *Coordinator) Reconcile(ctx context.Context, book *position.Book,
	boundsFor func(ExchangePosition) (stopLoss, takeProfit float64)) error {

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	exchangeSide, err := c.exchange.OpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("executor: reconcile: %w", err)
	}

	now := time.Now()
	remote := make(map[string]ExchangePosition, len(exchangeSide))
	for _, ep := range exchangeSide {
		remote[ep.Symbol] = ep
	}

	for _, sym := range book.LiveSymbols() {
		local, _ := book.Get(sym)
		ep, ok := remote[sym]
		if !ok {
			// We think we hold it, the exchange says we don't.
			metrics.ReconcileConflicts.Inc()
			c.log.Warn("reconcile_conflict",
				logger.String("symbol", sym),
				logger.String("resolution", "dropped_local"),
			)
			book.Drop(sym)
			continue
		}
		if ep.Direction != local.Direction || ep.Quantity != local.Quantity {
			metrics.ReconcileConflicts.Inc()
			c.log.Warn("reconcile_conflict",
				logger.String("symbol", sym),
				logger.String("resolution", "replaced_with_exchange"),
				logger.Float64("local_qty", local.Quantity),
				logger.Float64("exchange_qty", ep.Quantity),
			)
			book.Drop(sym)
			c.adopt(book, ep, boundsFor, now)
		}
		delete(remote, sym)
	}

	// Whatever remains is exposure the book does not know about.
	for _, ep := range remote {
		metrics.ReconcileConflicts.Inc()
		c.log.Warn("reconcile_conflict",
			logger.String("symbol", ep.Symbol),
			logger.String("resolution", "adopted_exchange"),
			logger.Float64("qty", ep.Quantity),
		)
		c.adopt(book, ep, boundsFor, now)
	}
	return nil
}

func (c *Coordinator) adopt(book *position.Book, ep ExchangePosition,
	boundsFor func(ExchangePosition) (float64, float64), now time.Time) {

	var sl, tp float64
	if boundsFor != nil {
		sl, tp = boundsFor(ep)
	}
	book.Adopt(position.Position{
		Symbol:     ep.Symbol,
		Direction:  ep.Direction,
		EntryPrice: ep.EntryPrice,
		Quantity:   ep.Quantity,
		StopLoss:   sl,
		TakeProfit: tp,
	}, now)
}
