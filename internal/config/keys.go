package config

const (
	KeyAPIKey       = "binance-api-key"
	KeyAPISecret    = "binance-api-secret"
	KeyTestnet      = "binance-testnet"
	KeyBaseURL      = "binance-base-url"
	KeyRecvWindow   = "binance-recv-window"
	KeyTimeout      = "binance-timeout"
	KeyToolSet      = "tool-set"
	KeyTransport    = "transport"
	KeyHost         = "host"
	KeyPort         = "port"
	KeyHTTPEndpoint = "http-endpoint"
	KeyLogLevel     = "log-level"
	KeyEnvFile      = "env-file"
)
