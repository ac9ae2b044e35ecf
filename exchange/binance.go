// Package exchange is the live Binance USD-M futures adapter. It
// implements executor.Exchange on top of adshao/go-binance, translating
// order intents into client-order-id-tagged futures orders so retried
// submissions stay idempotent exchange-side.
package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"stratum/config"
	"stratum/executor"
	"stratum/logger"
	"stratum/types"
)

const fillPollInterval = 500 * time.Millisecond

// Binance talks to the USD-M futures API. Symbol filters are fetched once
// and cached; everything else is a straight pass-through.
type Binance struct {
	client *futures.Client
	log    logger.Logger

	mu      sync.RWMutex
	filters map[string]types.SymbolFilters
}

// NewBinance builds the adapter from exchange credentials. Testnet
// routing is process-global in the underlying client.
func NewBinance(cfg config.ExchangeConfig, log logger.Logger) *Binance {
	if cfg.Testnet {
		futures.UseTestnet = true
	}
	return &Binance{
		client:  binance.NewFuturesClient(cfg.APIKey, cfg.APISecret),
		log:     log,
		filters: make(map[string]types.SymbolFilters),
	}
}

// SetLeverage applies the configured leverage to a symbol before trading
// it.
func (b *Binance) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := b.client.NewChangeLeverageService().
		Symbol(symbol).
		Leverage(leverage).
		Do(ctx)
	if err != nil {
		return classify("set_leverage", err)
	}
	return nil
}

// PlaceOrder submits the intent and blocks until the order reaches a
// terminal state. The correlation id rides as the client order id, so the
// exchange rejects an accidental duplicate instead of doubling exposure.
func (b *Binance) PlaceOrder(ctx context.Context, intent types.OrderIntent) (types.Fill, error) {
	filters, err := b.SymbolFilters(ctx, intent.Symbol)
	if err != nil {
		return types.Fill{}, err
	}

	svc := b.client.NewCreateOrderService().
		Symbol(intent.Symbol).
		Side(sideOf(intent.Side)).
		NewClientOrderID(intent.CorrelationID).
		Quantity(formatByStep(intent.Qty, filters.StepSize))
	if intent.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}
	if intent.Price > 0 {
		svc = svc.Type(futures.OrderTypeLimit).
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(formatByStep(intent.Price, filters.TickSize))
	} else {
		svc = svc.Type(futures.OrderTypeMarket)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return types.Fill{}, classify("place", err)
	}
	if res.Status == futures.OrderStatusTypeFilled {
		return fillFromOrder(intent.Symbol, res.OrderID, intent.CorrelationID,
			string(res.Side), res.ExecutedQuantity, res.AvgPrice, res.UpdateTime), nil
	}
	return b.waitFill(ctx, intent.Symbol, intent.CorrelationID)
}

// CancelOrder cancels a still-working order by its client order id. An
// order the exchange no longer knows is already gone, not an error.
func (b *Binance) CancelOrder(ctx context.Context, symbol, correlationID string) error {
	_, err := b.client.NewCancelOrderService().
		Symbol(symbol).
		OrigClientOrderID(correlationID).
		Do(ctx)
	if err != nil {
		if code(err) == codeUnknownOrder {
			return nil
		}
		return classify("cancel", err)
	}
	return nil
}

// FindOrder looks up an order by correlation id. Unknown orders report
// found=false; a working order is awaited to its terminal state so the
// caller always gets a complete fill.
func (b *Binance) FindOrder(ctx context.Context, symbol, correlationID string) (types.Fill, bool, error) {
	order, err := b.client.NewGetOrderService().
		Symbol(symbol).
		OrigClientOrderID(correlationID).
		Do(ctx)
	if err != nil {
		if code(err) == codeOrderNotFound {
			return types.Fill{}, false, nil
		}
		return types.Fill{}, false, classify("find", err)
	}
	switch order.Status {
	case futures.OrderStatusTypeCanceled, futures.OrderStatusTypeRejected, futures.OrderStatusTypeExpired:
		return types.Fill{}, false, nil
	case futures.OrderStatusTypeFilled:
		return fillFromOrder(symbol, order.OrderID, correlationID,
			string(order.Side), order.ExecutedQuantity, order.AvgPrice, order.UpdateTime), true, nil
	}
	fill, err := b.waitFill(ctx, symbol, correlationID)
	return fill, err == nil, err
}

// OpenPositions returns every nonzero position on the account.
func (b *Binance) OpenPositions(ctx context.Context) ([]executor.ExchangePosition, error) {
	risks, err := b.client.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, classify("positions", err)
	}
	out := make([]executor.ExchangePosition, 0, len(risks))
	for _, r := range risks {
		amt := parseFloat(r.PositionAmt)
		if amt == 0 {
			continue
		}
		dir := types.Long
		if amt < 0 {
			dir = types.Short
			amt = -amt
		}
		out = append(out, executor.ExchangePosition{
			Symbol:     r.Symbol,
			Direction:  dir,
			Quantity:   amt,
			EntryPrice: parseFloat(r.EntryPrice),
		})
	}
	return out, nil
}

// AccountEquity returns the account's total margin balance in the quote
// currency.
func (b *Binance) AccountEquity(ctx context.Context) (float64, error) {
	acct, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, classify("account", err)
	}
	return parseFloat(acct.TotalMarginBalance), nil
}

// SymbolFilters returns the cached tradability constraints for symbol,
// loading the full exchange info on first use.
func (b *Binance) SymbolFilters(ctx context.Context, symbol string) (types.SymbolFilters, error) {
	b.mu.RLock()
	f, ok := b.filters[symbol]
	b.mu.RUnlock()
	if ok {
		return f, nil
	}

	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return types.SymbolFilters{}, classify("exchange_info", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range info.Symbols {
		filters := types.SymbolFilters{StepSize: 0.001, MinQty: 0.001, TickSize: 0.01}
		if lot := s.LotSizeFilter(); lot != nil {
			filters.StepSize = parseFloat(lot.StepSize)
			filters.MinQty = parseFloat(lot.MinQuantity)
		}
		if pf := s.PriceFilter(); pf != nil {
			filters.TickSize = parseFloat(pf.TickSize)
		}
		b.filters[s.Symbol] = filters
	}
	f, ok = b.filters[symbol]
	if !ok {
		return types.SymbolFilters{}, terminal("exchange_info",
			fmt.Errorf("exchange: symbol %s not listed", symbol))
	}
	return f, nil
}

// History fetches the most recent closed klines for warmup seeding.
func (b *Binance) History(ctx context.Context, symbol string, interval types.Interval, limit int) ([]types.Candle, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(string(interval)).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, classify("klines", err)
	}
	out := make([]types.Candle, 0, len(klines))
	for _, k := range klines {
		out = append(out, candleFromKline(symbol, interval, k))
	}
	// The newest kline is usually still forming.
	if n := len(out); n > 0 && !out[n-1].CloseTime.Before(time.Now().UTC()) {
		out = out[:n-1]
	}
	return out, nil
}

func (b *Binance) waitFill(ctx context.Context, symbol, correlationID string) (types.Fill, error) {
	ticker := time.NewTicker(fillPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return types.Fill{}, retryable("wait_fill", ctx.Err())
		case <-ticker.C:
		}
		order, err := b.client.NewGetOrderService().
			Symbol(symbol).
			OrigClientOrderID(correlationID).
			Do(ctx)
		if err != nil {
			return types.Fill{}, classify("wait_fill", err)
		}
		switch order.Status {
		case futures.OrderStatusTypeFilled:
			return fillFromOrder(symbol, order.OrderID, correlationID,
				string(order.Side), order.ExecutedQuantity, order.AvgPrice, order.UpdateTime), nil
		case futures.OrderStatusTypeCanceled, futures.OrderStatusTypeRejected, futures.OrderStatusTypeExpired:
			return types.Fill{}, terminal("wait_fill",
				fmt.Errorf("exchange: order %s ended %s", correlationID, order.Status))
		}
	}
}

func fillFromOrder(symbol string, orderID int64, correlationID, side, qty, avgPrice string, updateMillis int64) types.Fill {
	return types.Fill{
		OrderID:       orderID,
		CorrelationID: correlationID,
		Symbol:        symbol,
		Side:          types.Side(side),
		Qty:           parseFloat(qty),
		Price:         parseFloat(avgPrice),
		Time:          time.UnixMilli(updateMillis),
	}
}

func candleFromKline(symbol string, interval types.Interval, k *futures.Kline) types.Candle {
	return types.Candle{
		Symbol:    symbol,
		Interval:  interval,
		Open:      parseFloat(k.Open),
		High:      parseFloat(k.High),
		Low:       parseFloat(k.Low),
		Close:     parseFloat(k.Close),
		Volume:    parseFloat(k.Volume),
		OpenTime:  time.UnixMilli(k.OpenTime),
		CloseTime: time.UnixMilli(k.CloseTime),
		Closed:    true,
	}
}

func sideOf(s types.Side) futures.SideType {
	if s == types.Sell {
		return futures.SideTypeSell
	}
	return futures.SideTypeBuy
}

// formatByStep floors value onto the step grid and renders it without
// float artifacts, which the order API rejects with precision errors.
func formatByStep(value, step float64) string {
	v := decimal.NewFromFloat(value)
	if step <= 0 {
		return v.String()
	}
	s := decimal.NewFromFloat(step)
	return v.Div(s).Floor().Mul(s).String()
}

func parseFloat(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
