package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roivaz/binance-mcp-server/internal/binance"
)

func Init(root *cobra.Command) {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if root != nil {
		_ = viper.BindPFlags(root.PersistentFlags())
	}
	setDefaults()
}

// LoadEnvFile reads the configured env file, if it exists. Variables already present
// in the process environment win. Call it after flags are parsed.
func LoadEnvFile() {
	path := EnvFile()
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

const defaultTimeout = 10 * time.Second

func setDefaults() {
	viper.SetDefault(KeyTestnet, false)
	viper.SetDefault(KeyRecvWindow, 5000)
	viper.SetDefault(KeyTimeout, "10s")
	viper.SetDefault(KeyToolSet, "full")
	viper.SetDefault(KeyTransport, "stdio")
	viper.SetDefault(KeyHost, "0.0.0.0")
	viper.SetDefault(KeyPort, 8000)
	viper.SetDefault(KeyHTTPEndpoint, "/mcp")
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyEnvFile, ".env")
}

func APIKey() string       { return viper.GetString(KeyAPIKey) }
func APISecret() string    { return viper.GetString(KeyAPISecret) }
func Testnet() bool        { return viper.GetBool(KeyTestnet) }
func BaseURL() string      { return viper.GetString(KeyBaseURL) }
func RecvWindow() int64    { return viper.GetInt64(KeyRecvWindow) }
func Timeout() string      { return viper.GetString(KeyTimeout) }
func ToolSet() string      { return strings.ToLower(strings.TrimSpace(viper.GetString(KeyToolSet))) }
func Transport() string    { return strings.ToLower(strings.TrimSpace(viper.GetString(KeyTransport))) }
func Host() string         { return viper.GetString(KeyHost) }
func Port() int            { return viper.GetInt(KeyPort) }
func HTTPEndpoint() string { return viper.GetString(KeyHTTPEndpoint) }
func LogLevel() string     { return viper.GetString(KeyLogLevel) }
func EnvFile() string      { return viper.GetString(KeyEnvFile) }

// Exchange assembles the exchange client configuration from the current settings.
// It is evaluated on every call so credentials fixed after startup are picked up.
// On error the returned Config is still complete, with the default timeout.
func Exchange() (binance.Config, error) {
	cfg := binance.Config{
		APIKey:     strings.TrimSpace(APIKey()),
		APISecret:  strings.TrimSpace(APISecret()),
		Testnet:    Testnet(),
		BaseURL:    strings.TrimSpace(BaseURL()),
		RecvWindow: RecvWindow(),
		Timeout:    defaultTimeout,
	}
	timeout, err := parseDuration(Timeout(), defaultTimeout)
	if err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", KeyTimeout, err)
	}
	cfg.Timeout = timeout
	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	return time.ParseDuration(trimmed)
}
