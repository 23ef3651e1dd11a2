package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/roivaz/binance-mcp-server/internal/config"
	"github.com/roivaz/binance-mcp-server/internal/logging"
	"github.com/roivaz/binance-mcp-server/internal/mcp"
	"github.com/roivaz/binance-mcp-server/internal/mcp/tools"
)

func main() {
	root := &cobra.Command{
		Use:          "binance-mcp",
		Short:        "Binance MCP server",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFile()
		},
		RunE: serve,
	}

	root.PersistentFlags().Bool(config.KeyTestnet, false, "Use the Binance spot testnet")
	root.PersistentFlags().String(config.KeyBaseURL, "", "Override the Binance REST endpoint")
	root.PersistentFlags().String(config.KeyToolSet, "full", "Tool set to expose: full or public")
	root.PersistentFlags().String(config.KeyTransport, "stdio", "Transport: stdio or http")
	root.PersistentFlags().String(config.KeyHost, "0.0.0.0", "HTTP host")
	root.PersistentFlags().Int(config.KeyPort, 8000, "HTTP port")
	root.PersistentFlags().String(config.KeyHTTPEndpoint, "/mcp", "HTTP endpoint path")
	root.PersistentFlags().String(config.KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String(config.KeyEnvFile, ".env", "Optional env file with credentials")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (default)",
		RunE:  serve,
	})
	root.AddCommand(toolsCommand())

	config.Init(root)

	if err := root.Execute(); err != nil {
		log.Fatalf("binance-mcp: %v", err)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	zapLogger := logging.NewZap(config.LogLevel())
	defer func() { _ = zapLogger.Sync() }()
	logger := logging.FromZap(zapLogger).WithName("server")

	cfg, err := mcp.DefaultConfig(zapLogger)
	if err != nil {
		return err
	}
	srv := mcp.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch transport := config.Transport(); transport {
	case "stdio":
		logger.Info("Binance MCP server started", "transport", transport, "toolSet", string(cfg.ToolSet))
		err = srv.ServeStdio(ctx, os.Stdin, os.Stdout)
	case "http":
		err = serveHTTP(ctx, srv, logger)
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}
	if err != nil {
		return err
	}
	logger.Info("Binance MCP server stopped")
	return nil
}

func serveHTTP(ctx context.Context, srv *mcp.Server, logger logging.Logger) error {
	addr := config.Host() + ":" + strconv.Itoa(config.Port())
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Binance MCP server started", "transport", "http", "addr", addr, "endpoint", config.HTTPEndpoint())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func toolsCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool descriptors without contacting the exchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := tools.ParseToolSet(config.ToolSet())
			if err != nil {
				return err
			}
			return printTools(cmd.OutOrStdout(), tools.Tools(set), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")
	return cmd
}

func printTools(w io.Writer, list any, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "yaml":
		out, err := yaml.Marshal(list)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
