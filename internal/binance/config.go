package binance

import "time"

const (
	DefaultBaseURL = "https://api.binance.com"
	TestnetBaseURL = "https://testnet.binance.vision"
)

type Config struct {
	APIKey     string
	APISecret  string
	Testnet    bool
	BaseURL    string // overrides the production/testnet endpoint when set
	RecvWindow int64  // milliseconds, signed requests only
	Timeout    time.Duration
}

// HasCredentials reports whether both halves of the key pair are present.
func (c Config) HasCredentials() bool {
	return c.APIKey != "" && c.APISecret != ""
}

func (c Config) Endpoint() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Testnet {
		return TestnetBaseURL
	}
	return DefaultBaseURL
}
