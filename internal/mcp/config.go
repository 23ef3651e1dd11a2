package mcp

import (
	"fmt"
	stdlog "log"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/roivaz/binance-mcp-server/internal/config"
	"github.com/roivaz/binance-mcp-server/internal/logging"
	"github.com/roivaz/binance-mcp-server/internal/mcp/tools"
)

type Config struct {
	ToolSet     tools.ToolSet
	LoadConfig  tools.ConfigLoader
	NewExchange tools.ExchangeFactory
	Logger      logging.Logger
	ErrorLog    *stdlog.Logger
	Options     []server.StreamableHTTPOption
}

// DefaultConfig wires the server to viper-backed settings and the real exchange client.
func DefaultConfig(zapLogger *zap.Logger) (Config, error) {
	toolSet, err := tools.ParseToolSet(config.ToolSet())
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", config.KeyToolSet, err)
	}

	return Config{
		ToolSet:     toolSet,
		LoadConfig:  config.Exchange,
		NewExchange: tools.NewBinanceExchange,
		Logger:      logging.FromZap(zapLogger),
		ErrorLog:    logging.StdLogger(zapLogger.Named("mcp")),
		Options: []server.StreamableHTTPOption{
			server.WithEndpointPath(config.HTTPEndpoint()),
			server.WithStateLess(true),
		},
	}, nil
}
