package paperledger

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config carries the ledger defaults, loaded from the environment. Flags
// of the CLI override these values.
type Config struct {
	// DBPath is the sqlite file holding the ledger state.
	DBPath string `env:"PLG_DB" envDefault:"paperledger.db"`
	// Currency is the ledger currency code.
	Currency string `env:"PLG_CURRENCY" envDefault:"INR"`
	// Funding is the amount (major units) a wallet is created with.
	Funding string `env:"PLG_FUNDING" envDefault:"100000"`
	// QuotesPath is an optional JSON quote snapshot consulted as the
	// price oracle.
	QuotesPath string `env:"PLG_QUOTES" envDefault:""`
	// SweepInterval is the period of the pending-order matcher loop.
	SweepInterval time.Duration `env:"PLG_SWEEP_INTERVAL" envDefault:"30s"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// FundingMoney returns the configured funding amount as Money.
func (c Config) FundingMoney() (Money, error) {
	return ParseMoney(c.Funding, c.Currency)
}
