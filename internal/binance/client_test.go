package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"
)

type recorded struct {
	method string
	path   string
	query  string
	apiKey string
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			apiKey: r.Header.Get(apiKeyHeader),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(baseURL string, withCreds bool) *Client {
	cfg := Config{BaseURL: baseURL, RecvWindow: 5000, Timeout: 5 * time.Second}
	if withCreds {
		cfg.APIKey = "key"
		cfg.APISecret = "secret"
	}
	c := New(cfg)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func TestEndpoint(t *testing.T) {
	if got := (Config{}).Endpoint(); got != DefaultBaseURL {
		t.Fatalf("unexpected default endpoint %s", got)
	}
	if got := (Config{Testnet: true}).Endpoint(); got != TestnetBaseURL {
		t.Fatalf("unexpected testnet endpoint %s", got)
	}
	if got := (Config{Testnet: true, BaseURL: "http://local"}).Endpoint(); got != "http://local" {
		t.Fatalf("base url override ignored: %s", got)
	}
}

func TestOrderBookForwardsParams(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"lastUpdateId":1,"bids":[],"asks":[]}`)
	c := newTestClient(srv.URL, false)

	body, err := c.OrderBook(context.Background(), "BTCUSDT", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"lastUpdateId":1,"bids":[],"asks":[]}` {
		t.Fatalf("body not passed through: %s", body)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call.method != http.MethodGet || call.path != "/api/v3/depth" {
		t.Fatalf("unexpected request %s %s", call.method, call.path)
	}
	if call.query != "limit=100&symbol=BTCUSDT" {
		t.Fatalf("unexpected query %s", call.query)
	}
	if call.apiKey != "" {
		t.Fatalf("public endpoint must not send the api key")
	}
}

func TestKlinesRequiresInterval(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `[]`)
	c := newTestClient(srv.URL, false)

	_, err := c.Klines(context.Background(), "ETHUSDT", "", 500)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("request must not be sent on validation failure")
	}
}

func TestAPIErrorMessage(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`)
	c := newTestClient(srv.URL, false)

	_, err := c.TickerPrice(context.Background(), "NOPE")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Error() != "Invalid symbol." || apiErr.Code != -1121 || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestAPIErrorWithoutMessage(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	c := newTestClient(srv.URL, false)

	_, err := c.Ticker24hr(context.Background(), "BTCUSDT")
	if err == nil || !strings.HasPrefix(err.Error(), "unexpected status 502") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSignedRequest(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"balances":[]}`)
	c := newTestClient(srv.URL, true)

	if _, err := c.AccountInfo(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := (*calls)[0]
	if call.apiKey != "key" {
		t.Fatalf("api key header missing")
	}
	payload, sig, ok := strings.Cut(call.query, "&signature=")
	if !ok {
		t.Fatalf("signature missing from %s", call.query)
	}
	if payload != "recvWindow=5000&timestamp=1700000000000" {
		t.Fatalf("unexpected signed payload %s", payload)
	}
	if sig != Sign(payload, "secret") {
		t.Fatalf("signature does not match payload")
	}
}

func TestSignedRequestWithoutCredentials(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()
	c := newTestClient(srv.URL, false)

	_, err := c.OpenOrders(context.Background(), "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("request must not be sent without credentials")
	}
}

func TestPlaceOrderTimeInForce(t *testing.T) {
	cases := []struct {
		orderType string
		wantTIF   bool
	}{
		{"LIMIT", true},
		{"MARKET", false},
		{"STOP_LOSS_LIMIT", true},
	}
	for _, tc := range cases {
		srv, calls := newTestServer(t, http.StatusOK, `{"orderId":1}`)
		c := newTestClient(srv.URL, true)
		_, err := c.PlaceOrder(context.Background(), OrderRequest{
			Symbol:      "BTCUSDT",
			Side:        "BUY",
			Type:        tc.orderType,
			Quantity:    "0.001",
			TimeInForce: "GTC",
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.orderType, err)
		}
		call := (*calls)[0]
		if call.method != http.MethodPost || call.path != "/api/v3/order" {
			t.Fatalf("%s: unexpected request %s %s", tc.orderType, call.method, call.path)
		}
		if got := strings.Contains(call.query, "timeInForce=GTC"); got != tc.wantTIF {
			t.Fatalf("%s: timeInForce present=%v, want %v", tc.orderType, got, tc.wantTIF)
		}
		if strings.Contains(call.query, "price=") {
			t.Fatalf("%s: empty price must be omitted", tc.orderType)
		}
	}
}

func TestCancelOrder(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"status":"CANCELED"}`)
	c := newTestClient(srv.URL, true)

	if _, err := c.CancelOrder(context.Background(), "BTCUSDT", 12345); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := (*calls)[0]
	if call.method != http.MethodDelete {
		t.Fatalf("unexpected method %s", call.method)
	}
	if !strings.HasPrefix(call.query, "orderId=12345&recvWindow=5000&symbol=BTCUSDT&timestamp=") {
		t.Fatalf("unexpected query %s", call.query)
	}
}

func TestLimitIsAlwaysForwarded(t *testing.T) {
	for _, limit := range []int{0, -5} {
		srv, calls := newTestServer(t, http.StatusOK, `{}`)
		c := newTestClient(srv.URL, false)

		if _, err := c.OrderBook(context.Background(), "BTCUSDT", limit); err != nil {
			t.Fatalf("limit %d: unexpected error: %v", limit, err)
		}
		want := "limit=" + strconv.Itoa(limit) + "&symbol=BTCUSDT"
		if got := (*calls)[0].query; got != want {
			t.Fatalf("limit %d: query %s, want %s", limit, got, want)
		}
	}
}

func TestAPIErrorTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", maxErrorBody-1) + "é" + strings.Repeat("b", 10)
	err := parseAPIError(http.StatusBadGateway, []byte(body))

	msg := err.Error()
	if !utf8.ValidString(msg) {
		t.Fatalf("truncated message is not valid UTF-8: %q", msg)
	}
	want := "unexpected status 502: " + strings.Repeat("a", maxErrorBody-1) + "..."
	if msg != want {
		t.Fatalf("unexpected message %q", msg)
	}
}
