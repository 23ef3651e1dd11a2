package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/roivaz/binance-mcp-server/internal/binance"
)

const (
	DefaultOrderBookLimit    = 100
	DefaultTradesLimit       = 500
	DefaultKlinesLimit       = 500
	DefaultOrderHistoryLimit = 500
	DefaultKlinesInterval    = "1h"
	DefaultTimeInForce       = "GTC"
)

// ToolSet selects which tools are exposed. The public set needs no credentials.
type ToolSet string

const (
	ToolSetPublic ToolSet = "public"
	ToolSetFull   ToolSet = "full"
)

func ParseToolSet(value string) (ToolSet, error) {
	switch ToolSet(strings.ToLower(strings.TrimSpace(value))) {
	case ToolSetPublic:
		return ToolSetPublic, nil
	case ToolSetFull, "":
		return ToolSetFull, nil
	default:
		return "", fmt.Errorf("unknown tool set %q (want %q or %q)", value, ToolSetPublic, ToolSetFull)
	}
}

func (s ToolSet) RequiresCredentials() bool { return s == ToolSetFull }

type handlerFunc func(ctx context.Context, ex Exchange, args map[string]any) (json.RawMessage, error)

// toolEntry keeps a descriptor next to the handler that reads its arguments.
type toolEntry struct {
	tool    mcp.Tool
	account bool
	handle  handlerFunc
}

var (
	symbolRequired = mcp.WithString("symbol",
		mcp.Required(),
		mcp.Description("Trading pair symbol (e.g., BTCUSDT)"),
	)
	klineIntervals = []string{"1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d", "3d", "1w", "1M"}
	orderTypes     = []string{"LIMIT", "MARKET", "STOP_LOSS", "STOP_LOSS_LIMIT", "TAKE_PROFIT", "TAKE_PROFIT_LIMIT", "LIMIT_MAKER"}
)

// registry is in declaration order; tools/list preserves it.
var registry = []toolEntry{
	{
		tool: mcp.NewTool("get_ticker_price",
			mcp.WithDescription("Get current price for a specific trading pair"),
			mcp.WithReadOnlyHintAnnotation(true),
			symbolRequired,
		),
		handle: func(ctx context.Context, ex Exchange, args map[string]any) (json.RawMessage, error) {
			symbol, err := stringArg(args, "symbol")
			if err != nil {
				return nil, err
			}
			return ex.TickerPrice(ctx, symbol)
		},
	},
	{
		tool: mcp.NewTool("get_ticker_24hr",
			mcp.WithDescription("Get 24hr ticker price change statistics for a symbol"),
			mcp.WithReadOnlyHintAnnotation(true),
			symbolRequired,
		),
		handle: func(ctx context.Context, ex Exchange, args map[string]any) (json.RawMessage, error) {
			symbol, err := stringArg(args, "symbol")
			if err != nil {
				return nil, err
			}
			return ex.Ticker24hr(ctx, symbol)
		},
	},
	{
		tool: mcp.NewTool("get_order_book",
			mcp.WithDescription("Get order book depth for a trading pair"),
			mcp.WithReadOnlyHintAnnotation(true),
			symbolRequired,
			mcp.WithNumber("limit",
				mcp.Description("Number of orders to return (5, 10, 20, 50, 100, 500, 1000, 5000)"),
				mcp.DefaultNumber(DefaultOrderBookLimit),
			),
		),
		handle: func(ctx context.Context, ex Exchange, args map[string]any) (json.RawMessage, error) {
			symbol, limit, err := symbolAndLimit(args, DefaultOrderBookLimit)
			if err != nil {
				return nil, err
			}
			return ex.OrderBook(ctx, symbol, limit)
		},
	},
	{
		tool: mcp.NewTool("get_recent_trades",
			mcp.WithDescription("Get recent trades for a trading pair"),
			mcp.WithReadOnlyHintAnnotation(true),
			symbolRequired,
			mcp.WithNumber("limit",
				mcp.Description("Number of trades to return (max 1000)"),
				mcp.DefaultNumber(DefaultTradesLimit),
			),
		),
		handle: func(ctx context.Context, ex Exchange, args map[string]any) (json.RawMessage, error) {
			symbol, limit, err := symbolAndLimit(args, DefaultTradesLimit)
			if err != nil {
				return nil, err
			}
			return ex.RecentTrades(ctx, symbol, limit)
		},
	},
	{
		tool: mcp.NewTool("get_klines",
			mcp.WithDescription("Get candlestick/kline data for a symbol"),
			mcp.WithReadOnlyHintAnnotation(true),
			symbolRequired,
			mcp.WithString("interval",
				mcp.Description("Kline interval"),
				mcp.Enum(klineIntervals...),
				mcp.DefaultString(DefaultKlinesInterval),
			),
			mcp.WithNumber("limit",
				mcp.Description("Number of klines to return (max 1000)"),
				mcp.DefaultNumber(DefaultKlinesLimit),
			),
		),
		handle: func(ctx context.Context, ex Exchange, args map[string]any) (json.RawMessage, error) {
			symbol, limit, err := symbolAndLimit(args, DefaultKlinesLimit)
			if err != nil {
				return nil, err
			}
			interval, err := stringArgOr(args, "interval", DefaultKlinesInterval)
			if err != nil {
				return nil, err
			}
			return ex.Klines(ctx, symbol, interval, limit)
		},
	},
	{
		account: true,
		tool: mcp.NewTool("get_account_info",
			mcp.WithDescription("Get account information including balances and trading status"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		handle: func(ctx context.Context, ex Exchange, _ map[string]any) (json.RawMessage, error) {
			return ex.AccountInfo(ctx)
		},
	},
	{
		account: true,
		tool: mcp.NewTool("place_order",
			mcp.WithDescription("Place a new order on Binance"),
			mcp.WithDestructiveHintAnnotation(true),
			symbolRequired,
			mcp.WithString("side",
				mcp.Required(),
				mcp.Description("Order side"),
				mcp.Enum("BUY", "SELL"),
			),
			mcp.WithString("type",
				mcp.Required(),
				mcp.Description("Order type"),
				mcp.Enum(orderTypes...),
			),
			mcp.WithString("quantity",
				mcp.Required(),
				mcp.Description("Order quantity"),
			),
			mcp.WithString("price",
				mcp.Description("Order price (required for LIMIT orders)"),
			),
			mcp.WithString("timeInForce",
				mcp.Description("Time in force (default: GTC)"),
				mcp.Enum("GTC", "IOC", "FOK"),
				mcp.DefaultString(DefaultTimeInForce),
			),
		),
		handle: placeOrder,
	},
	{
		account: true,
		tool: mcp.NewTool("cancel_order",
			mcp.WithDescription("Cancel an existing order"),
			mcp.WithDestructiveHintAnnotation(true),
			symbolRequired,
			mcp.WithNumber("orderId",
				mcp.Required(),
				mcp.Description("Order ID to cancel"),
			),
		),
		handle: func(ctx context.Context, ex Exchange, args map[string]any) (json.RawMessage, error) {
			symbol, err := stringArg(args, "symbol")
			if err != nil {
				return nil, err
			}
			orderID, err := int64Arg(args, "orderId")
			if err != nil {
				return nil, err
			}
			return ex.CancelOrder(ctx, symbol, orderID)
		},
	},
	{
		account: true,
		tool: mcp.NewTool("get_open_orders",
			mcp.WithDescription("Get all open orders for a symbol or all symbols"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("symbol",
				mcp.Description("Trading pair symbol (optional, if not provided returns all open orders)"),
			),
		),
		handle: func(ctx context.Context, ex Exchange, args map[string]any) (json.RawMessage, error) {
			symbol, err := stringArg(args, "symbol")
			if err != nil {
				return nil, err
			}
			return ex.OpenOrders(ctx, symbol)
		},
	},
	{
		account: true,
		tool: mcp.NewTool("get_order_history",
			mcp.WithDescription("Get order history for a symbol"),
			mcp.WithReadOnlyHintAnnotation(true),
			symbolRequired,
			mcp.WithNumber("limit",
				mcp.Description("Number of orders to return (max 1000)"),
				mcp.DefaultNumber(DefaultOrderHistoryLimit),
			),
		),
		handle: func(ctx context.Context, ex Exchange, args map[string]any) (json.RawMessage, error) {
			symbol, limit, err := symbolAndLimit(args, DefaultOrderHistoryLimit)
			if err != nil {
				return nil, err
			}
			return ex.OrderHistory(ctx, symbol, limit)
		},
	},
}

func symbolAndLimit(args map[string]any, defaultLimit int) (string, int, error) {
	symbol, err := stringArg(args, "symbol")
	if err != nil {
		return "", 0, err
	}
	limit, err := intArgOr(args, "limit", defaultLimit)
	if err != nil {
		return "", 0, err
	}
	return symbol, limit, nil
}

func placeOrder(ctx context.Context, ex Exchange, args map[string]any) (json.RawMessage, error) {
	var order binance.OrderRequest
	var err error
	for _, field := range []struct {
		key  string
		dest *string
	}{
		{"symbol", &order.Symbol},
		{"side", &order.Side},
		{"type", &order.Type},
	} {
		if *field.dest, err = stringArg(args, field.key); err != nil {
			return nil, err
		}
	}
	if order.TimeInForce, err = stringArgOr(args, "timeInForce", DefaultTimeInForce); err != nil {
		return nil, err
	}
	if order.Quantity, err = decimalArg(args, "quantity"); err != nil {
		return nil, err
	}
	if order.Price, err = decimalArg(args, "price"); err != nil {
		return nil, err
	}
	return ex.PlaceOrder(ctx, order)
}

func entries(set ToolSet) []toolEntry {
	out := make([]toolEntry, 0, len(registry))
	for _, e := range registry {
		if e.account && !set.RequiresCredentials() {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Tools lists the descriptors exposed for set, in declaration order.
func Tools(set ToolSet) []mcp.Tool {
	list := entries(set)
	out := make([]mcp.Tool, 0, len(list))
	for _, e := range list {
		out = append(out, e.tool)
	}
	return out
}

// OrderTools rearranges tools into registry order. mcp-go sorts tools/list by
// name; this is installed as a tool filter to undo that.
func OrderTools(_ context.Context, tools []mcp.Tool) []mcp.Tool {
	rank := make(map[string]int, len(registry))
	for i, e := range registry {
		rank[e.tool.Name] = i
	}
	position := func(name string) int {
		if i, ok := rank[name]; ok {
			return i
		}
		return len(registry)
	}
	ordered := make([]mcp.Tool, len(tools))
	copy(ordered, tools)
	sort.SliceStable(ordered, func(i, j int) bool {
		return position(ordered[i].Name) < position(ordered[j].Name)
	})
	return ordered
}
