// Package config loads the process configuration from the environment. Every
// recognized option keeps the variable name the original deployment used, so
// existing .env files keep working.
package config

import (
	"fmt"
	"time"

	"github.com/gabapcia/tronwatch/internal/chain"
	"github.com/gabapcia/tronwatch/internal/pkg/types"
	"github.com/gabapcia/tronwatch/internal/pkg/validator"
	"github.com/gabapcia/tronwatch/internal/transferexec"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config is the full configuration surface.
type Config struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error fatal"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	TronNodeURL         string `envconfig:"TRON_NODE_URL" default:"https://api.trongrid.io" validate:"url"`
	TronAPIKey          string `envconfig:"TRON_API_KEY"`
	USDTContractAddress string `envconfig:"USDT_CONTRACT_ADDRESS" default:"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t" validate:"required"`
	TronPrivateKey      string `envconfig:"TRON_PRIVATE_KEY"`

	MonitorInterval time.Duration `envconfig:"MONITOR_INTERVAL" default:"30s" validate:"gt=0"`
	MonitorToken    string        `envconfig:"MONITOR_TOKEN" default:"USDT" validate:"oneof=TRX USDT"`
	HistoryLookback int           `envconfig:"HISTORY_LOOKBACK" default:"20" validate:"gt=0"`

	BalanceCacheTTL time.Duration `envconfig:"BALANCE_CACHE_TTL" default:"30s"`

	ConfirmationInterval    time.Duration `envconfig:"CONFIRMATION_INTERVAL" default:"1s" validate:"gt=0"`
	ConfirmationMaxAttempts int           `envconfig:"CONFIRMATION_MAX_ATTEMPTS" default:"20" validate:"gt=0"`

	RetryMaxAttempts uint          `envconfig:"RETRY_MAX_ATTEMPTS" default:"3" validate:"gte=1"`
	RetryBaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
	RetryMaxDelay    time.Duration `envconfig:"RETRY_MAX_DELAY" default:"8s"`

	MaxTRXAmount     string   `envconfig:"MAX_TRX_AMOUNT" default:"100"`
	MaxUSDTAmount    string   `envconfig:"MAX_USDT_AMOUNT" default:"1000"`
	AllowedAddresses []string `envconfig:"ALLOWED_ADDRESSES"`

	// WhitelistAddresses uses the "address=alias,description|..." format
	// parsed by the addressdir package.
	WhitelistAddresses string `envconfig:"WHITELIST_ADDRESSES"`

	DedupLedgerCapacity int           `envconfig:"DEDUP_LEDGER_CAPACITY" default:"10000"`
	DedupLedgerTTL      time.Duration `envconfig:"DEDUP_LEDGER_TTL" default:"24h"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Policy builds the transfer safety policy from the configured per-token
// ceilings and allow-list.
func (c Config) Policy() (transferexec.Policy, error) {
	maxTRX, err := decimal.NewFromString(c.MaxTRXAmount)
	if err != nil {
		return transferexec.Policy{}, fmt.Errorf("malformed MAX_TRX_AMOUNT %q: %w", c.MaxTRXAmount, err)
	}

	maxUSDT, err := decimal.NewFromString(c.MaxUSDTAmount)
	if err != nil {
		return transferexec.Policy{}, fmt.Errorf("malformed MAX_USDT_AMOUNT %q: %w", c.MaxUSDTAmount, err)
	}

	return transferexec.Policy{
		MaxPerTransfer: map[chain.TokenKind]decimal.Decimal{
			chain.TokenTRX:  maxTRX,
			chain.TokenUSDT: maxUSDT,
		},
		AllowList: types.NewSet(c.AllowedAddresses...),
	}, nil
}

// Token returns the configured monitoring token kind.
func (c Config) Token() (chain.TokenKind, error) {
	token := chain.TokenKind(c.MonitorToken)
	if !token.Valid() {
		return "", fmt.Errorf("unsupported MONITOR_TOKEN %q", c.MonitorToken)
	}
	return token, nil
}
