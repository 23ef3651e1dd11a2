package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	apiKeyHeader = "X-MBX-APIKEY"
	userAgent    = "binance-mcp-server"
)

// Client is a minimal REST client for the spot API. Responses are returned as
// raw JSON; nothing is decoded or cached.
type Client struct {
	cfg  Config
	http *resty.Client
	now  func() time.Time
}

// OrderRequest carries order fields exactly as the caller supplied them.
type OrderRequest struct {
	Symbol      string
	Side        string
	Type        string
	Quantity    string
	Price       string
	TimeInForce string
}

func New(cfg Config) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.Endpoint()).
		SetHeader("User-Agent", userAgent)
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	return &Client{cfg: cfg, http: httpClient, now: time.Now}
}

func (c *Client) TickerPrice(ctx context.Context, symbol string) (json.RawMessage, error) {
	return c.public(ctx, "/api/v3/ticker/price", optional(url.Values{}, "symbol", symbol))
}

func (c *Client) Ticker24hr(ctx context.Context, symbol string) (json.RawMessage, error) {
	return c.public(ctx, "/api/v3/ticker/24hr", optional(url.Values{}, "symbol", symbol))
}

func (c *Client) OrderBook(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	if symbol == "" {
		return nil, missingParam("OrderBook", "symbol")
	}
	params := url.Values{"symbol": {symbol}}
	return c.public(ctx, "/api/v3/depth", withLimit(params, limit))
}

func (c *Client) RecentTrades(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	if symbol == "" {
		return nil, missingParam("RecentTrades", "symbol")
	}
	params := url.Values{"symbol": {symbol}}
	return c.public(ctx, "/api/v3/trades", withLimit(params, limit))
}

func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) (json.RawMessage, error) {
	if symbol == "" {
		return nil, missingParam("Klines", "symbol")
	}
	if interval == "" {
		return nil, missingParam("Klines", "interval")
	}
	params := url.Values{"symbol": {symbol}, "interval": {interval}}
	return c.public(ctx, "/api/v3/klines", withLimit(params, limit))
}

func (c *Client) AccountInfo(ctx context.Context) (json.RawMessage, error) {
	return c.signed(ctx, "AccountInfo", http.MethodGet, "/api/v3/account", url.Values{})
}

func (c *Client) PlaceOrder(ctx context.Context, order OrderRequest) (json.RawMessage, error) {
	for _, p := range []struct{ name, value string }{
		{"symbol", order.Symbol},
		{"side", order.Side},
		{"type", order.Type},
		{"quantity", order.Quantity},
	} {
		if p.value == "" {
			return nil, missingParam("PlaceOrder", p.name)
		}
	}
	params := url.Values{
		"symbol":   {order.Symbol},
		"side":     {order.Side},
		"type":     {order.Type},
		"quantity": {order.Quantity},
	}
	optional(params, "price", order.Price)
	if acceptsTimeInForce(order.Type) {
		optional(params, "timeInForce", order.TimeInForce)
	}
	return c.signed(ctx, "PlaceOrder", http.MethodPost, "/api/v3/order", params)
}

func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) (json.RawMessage, error) {
	if symbol == "" {
		return nil, missingParam("CancelOrder", "symbol")
	}
	params := url.Values{
		"symbol":  {symbol},
		"orderId": {strconv.FormatInt(orderID, 10)},
	}
	return c.signed(ctx, "CancelOrder", http.MethodDelete, "/api/v3/order", params)
}

// OpenOrders lists open orders for symbol, or for every symbol when it is empty.
func (c *Client) OpenOrders(ctx context.Context, symbol string) (json.RawMessage, error) {
	return c.signed(ctx, "OpenOrders", http.MethodGet, "/api/v3/openOrders", optional(url.Values{}, "symbol", symbol))
}

func (c *Client) OrderHistory(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	if symbol == "" {
		return nil, missingParam("OrderHistory", "symbol")
	}
	params := url.Values{"symbol": {symbol}}
	return c.signed(ctx, "OrderHistory", http.MethodGet, "/api/v3/allOrders", withLimit(params, limit))
}

func (c *Client) public(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, params.Encode(), false)
}

func (c *Client) signed(ctx context.Context, op, method, path string, params url.Values) (json.RawMessage, error) {
	if !c.cfg.HasCredentials() {
		return nil, &ValidationError{Op: op, Message: "API key and secret are required"}
	}
	params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	if c.cfg.RecvWindow > 0 {
		params.Set("recvWindow", strconv.FormatInt(c.cfg.RecvWindow, 10))
	}
	query := params.Encode()
	query += "&signature=" + Sign(query, c.cfg.APISecret)
	return c.do(ctx, method, path, query, true)
}

// do sends the query verbatim in the URL so the signed payload is byte-identical
// to what the exchange receives.
func (c *Client) do(ctx context.Context, method, path, query string, signed bool) (json.RawMessage, error) {
	req := c.http.R().SetContext(ctx)
	if signed {
		req.SetHeader(apiKeyHeader, c.cfg.APIKey)
	}
	target := path
	if query != "" {
		target += "?" + query
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return nil, parseAPIError(resp.StatusCode(), resp.Body())
	}
	return json.RawMessage(resp.Body()), nil
}

func optional(params url.Values, key, value string) url.Values {
	if value != "" {
		params.Set(key, value)
	}
	return params
}

// withLimit always sends limit; out-of-range values are for the exchange to reject.
func withLimit(params url.Values, limit int) url.Values {
	params.Set("limit", strconv.Itoa(limit))
	return params
}

// The exchange rejects timeInForce on order types that do not rest on the book.
func acceptsTimeInForce(orderType string) bool {
	switch orderType {
	case "LIMIT", "STOP_LOSS_LIMIT", "TAKE_PROFIT_LIMIT":
		return true
	}
	return false
}
