package tools

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/singleflight"

	"github.com/roivaz/binance-mcp-server/internal/binance"
	"github.com/roivaz/binance-mcp-server/internal/logging"
)

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

type DispatcherConfig struct {
	ToolSet     ToolSet
	LoadConfig  ConfigLoader
	NewExchange ExchangeFactory
	Logger      logging.Logger
}

// Dispatcher routes tool calls to handlers over a single, lazily created
// exchange client. Ready is terminal: once a client exists it is reused for
// the lifetime of the process.
type Dispatcher struct {
	toolSet     ToolSet
	loadConfig  ConfigLoader
	newExchange ExchangeFactory
	log         logging.Logger
	handlers    map[string]handlerFunc

	init     singleflight.Group
	mu       sync.Mutex
	state    State
	exchange Exchange
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.ToolSet == "" {
		cfg.ToolSet = ToolSetFull
	}
	if cfg.LoadConfig == nil {
		cfg.LoadConfig = func() (binance.Config, error) { return binance.Config{}, nil }
	}
	if cfg.NewExchange == nil {
		cfg.NewExchange = NewBinanceExchange
	}

	handlers := make(map[string]handlerFunc)
	for _, e := range entries(cfg.ToolSet) {
		handlers[e.tool.Name] = e.handle
	}

	return &Dispatcher{
		toolSet:     cfg.ToolSet,
		loadConfig:  cfg.LoadConfig,
		newExchange: cfg.NewExchange,
		log:         cfg.Logger.WithName("dispatcher"),
		handlers:    handlers,
	}
}

// Tools returns the descriptors this dispatcher can serve.
func (d *Dispatcher) Tools() []mcp.Tool {
	return Tools(d.toolSet)
}

// Serves reports whether name is one of the dispatcher's tools.
func (d *Dispatcher) Serves(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// ToolAdapter satisfies the mcp-go handler signature. Failures are reported
// inside the result, never as a Go error.
func (d *Dispatcher) ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return d.CallTool(ctx, req.Params.Name, req.GetArguments()), nil
}

func (d *Dispatcher) CallTool(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	raw, err := d.call(ctx, name, args)
	if err != nil {
		d.log.Debug("tool call failed", "tool", name, "error", err.Error())
		return errorResult(err)
	}
	return mcp.NewToolResultText(renderJSON(raw))
}

func (d *Dispatcher) call(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	handle, ok := d.handlers[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	ex, err := d.client(ctx)
	if err != nil {
		return nil, err
	}

	if args == nil {
		args = map[string]any{}
	}
	raw, err := handle(ctx, ex, args)
	if err != nil {
		return nil, &UpstreamError{Tool: name, Err: err}
	}
	return raw, nil
}

// client returns the shared exchange client, creating it on first use.
// Concurrent callers wait on the same in-flight attempt; a failed attempt
// leaves the dispatcher uninitialized so the next call retries.
func (d *Dispatcher) client(ctx context.Context) (Exchange, error) {
	if ex := d.ready(); ex != nil {
		return ex, nil
	}

	v, err, _ := d.init.Do("exchange", func() (any, error) {
		if ex := d.ready(); ex != nil {
			return ex, nil
		}
		d.setState(StateInitializing)

		// The attempt is shared, so one caller's cancellation must not fail the others.
		ex, err := d.initialize(context.WithoutCancel(ctx))

		d.mu.Lock()
		defer d.mu.Unlock()
		if err != nil {
			d.state = StateUninitialized
			return nil, err
		}
		d.exchange = ex
		d.state = StateReady
		return ex, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Exchange), nil
}

func (d *Dispatcher) initialize(ctx context.Context) (Exchange, error) {
	cfg, err := d.loadConfig()
	if err != nil {
		if d.toolSet.RequiresCredentials() {
			d.log.Error(err, "failed to load exchange configuration")
			return nil, &ConfigurationError{Reason: "invalid configuration", Err: err}
		}
		// The public set always initializes; cfg still holds every valid setting.
		d.log.Error(err, "using defaults for invalid exchange configuration")
	}
	if d.toolSet.RequiresCredentials() && !cfg.HasCredentials() {
		err := &ConfigurationError{Reason: "BINANCE_API_KEY and BINANCE_API_SECRET must be set in environment variables"}
		d.log.Error(err, "exchange client not initialized")
		return nil, err
	}

	ex, err := d.newExchange(cfg)
	if err != nil {
		d.log.Error(err, "failed to create exchange client")
		return nil, &ConfigurationError{Reason: "failed to create Binance client", Err: err}
	}

	if d.toolSet.RequiresCredentials() {
		if _, err := ex.AccountInfo(ctx); err != nil {
			d.log.Error(err, "credential check failed", "endpoint", cfg.Endpoint())
			return nil, &ConfigurationError{Reason: "failed to authenticate with Binance", Err: err}
		}
	}

	d.log.Info("connected to Binance API", "endpoint", cfg.Endpoint(), "testnet", cfg.Testnet, "toolSet", string(d.toolSet))
	return ex, nil
}

func (d *Dispatcher) ready() Exchange {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateReady {
		return d.exchange
	}
	return nil
}

func (d *Dispatcher) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}
