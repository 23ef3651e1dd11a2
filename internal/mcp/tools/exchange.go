package tools

import (
	"context"
	"encoding/json"

	"github.com/roivaz/binance-mcp-server/internal/binance"
)

// Exchange is the upstream surface the handlers forward to.
type Exchange interface {
	TickerPrice(ctx context.Context, symbol string) (json.RawMessage, error)
	Ticker24hr(ctx context.Context, symbol string) (json.RawMessage, error)
	OrderBook(ctx context.Context, symbol string, limit int) (json.RawMessage, error)
	RecentTrades(ctx context.Context, symbol string, limit int) (json.RawMessage, error)
	Klines(ctx context.Context, symbol, interval string, limit int) (json.RawMessage, error)

	AccountInfo(ctx context.Context) (json.RawMessage, error)
	PlaceOrder(ctx context.Context, order binance.OrderRequest) (json.RawMessage, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) (json.RawMessage, error)
	OpenOrders(ctx context.Context, symbol string) (json.RawMessage, error)
	OrderHistory(ctx context.Context, symbol string, limit int) (json.RawMessage, error)
}

type ExchangeFactory func(cfg binance.Config) (Exchange, error)

// ConfigLoader may return a usable Config together with an error.
type ConfigLoader func() (binance.Config, error)

func NewBinanceExchange(cfg binance.Config) (Exchange, error) {
	return binance.New(cfg), nil
}
