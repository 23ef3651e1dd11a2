package tools

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/roivaz/binance-mcp-server/internal/binance"
)

type upstreamCall struct {
	Method   string
	Symbol   string
	Interval string
	Limit    int
	OrderID  int64
	Order    binance.OrderRequest
}

type fakeExchange struct {
	mu       sync.Mutex
	calls    []upstreamCall
	response json.RawMessage
	err      error
	authErr  error
}

func (f *fakeExchange) record(c upstreamCall) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	if f.response == nil {
		return json.RawMessage(`{}`), nil
	}
	return f.response, nil
}

func (f *fakeExchange) Calls() []upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]upstreamCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeExchange) TickerPrice(_ context.Context, symbol string) (json.RawMessage, error) {
	return f.record(upstreamCall{Method: "TickerPrice", Symbol: symbol})
}

func (f *fakeExchange) Ticker24hr(_ context.Context, symbol string) (json.RawMessage, error) {
	return f.record(upstreamCall{Method: "Ticker24hr", Symbol: symbol})
}

func (f *fakeExchange) OrderBook(_ context.Context, symbol string, limit int) (json.RawMessage, error) {
	return f.record(upstreamCall{Method: "OrderBook", Symbol: symbol, Limit: limit})
}

func (f *fakeExchange) RecentTrades(_ context.Context, symbol string, limit int) (json.RawMessage, error) {
	return f.record(upstreamCall{Method: "RecentTrades", Symbol: symbol, Limit: limit})
}

func (f *fakeExchange) Klines(_ context.Context, symbol, interval string, limit int) (json.RawMessage, error) {
	return f.record(upstreamCall{Method: "Klines", Symbol: symbol, Interval: interval, Limit: limit})
}

func (f *fakeExchange) AccountInfo(_ context.Context) (json.RawMessage, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.record(upstreamCall{Method: "AccountInfo"})
}

func (f *fakeExchange) PlaceOrder(_ context.Context, order binance.OrderRequest) (json.RawMessage, error) {
	return f.record(upstreamCall{Method: "PlaceOrder", Symbol: order.Symbol, Order: order})
}

func (f *fakeExchange) CancelOrder(_ context.Context, symbol string, orderID int64) (json.RawMessage, error) {
	return f.record(upstreamCall{Method: "CancelOrder", Symbol: symbol, OrderID: orderID})
}

func (f *fakeExchange) OpenOrders(_ context.Context, symbol string) (json.RawMessage, error) {
	return f.record(upstreamCall{Method: "OpenOrders", Symbol: symbol})
}

func (f *fakeExchange) OrderHistory(_ context.Context, symbol string, limit int) (json.RawMessage, error) {
	return f.record(upstreamCall{Method: "OrderHistory", Symbol: symbol, Limit: limit})
}
