package exchange

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"stratum/logger"
)

// Tick is one aggregated trade from the market stream.
type Tick struct {
	Symbol string
	Price  float64
	Qty    float64
	Time   time.Time
}

// StreamTicks subscribes to the aggregated trade stream of every symbol
// and forwards ticks until ctx is done. A dropped stream is resubscribed
// after a short pause; the candle aggregator discards anything that
// arrives out of order.
func StreamTicks(ctx context.Context, symbols []string, out chan<- Tick, log logger.Logger) {
	for _, symbol := range symbols {
		go streamSymbol(ctx, symbol, out, log)
	}
}

func streamSymbol(ctx context.Context, symbol string, out chan<- Tick, log logger.Logger) {
	for ctx.Err() == nil {
		doneC, stopC, err := futures.WsAggTradeServe(symbol,
			func(ev *futures.WsAggTradeEvent) {
				tick := Tick{
					Symbol: ev.Symbol,
					Price:  parseFloat(ev.Price),
					Qty:    parseFloat(ev.Quantity),
					Time:   time.UnixMilli(ev.TradeTime),
				}
				select {
				case out <- tick:
				case <-ctx.Done():
				}
			},
			func(err error) {
				log.Warn("tick_stream_error",
					logger.String("symbol", symbol),
					logger.Err(err),
				)
			})
		if err != nil {
			log.Warn("tick_stream_connect_failed",
				logger.String("symbol", symbol),
				logger.Err(err),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		select {
		case <-ctx.Done():
			close(stopC)
			<-doneC
			return
		case <-doneC:
			log.Warn("tick_stream_closed", logger.String("symbol", symbol))
			// Brief pause before resubscribing.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}
