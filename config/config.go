// Package config loads service settings from the environment and the optional
// rank-table file.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

const (
	ClockModeLocal  = "local"
	ClockModeRemote = "remote"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	DatabaseDriver string   `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	ListenAddr     string   `env:"LISTEN_ADDR" envDefault:":5200"`
	GatewayToken   string   `env:"GAME_SERVICE_TOKEN"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	OperatorMaster string   `env:"OPERATOR_MASTER"`

	ClockMode         string        `env:"CLOCK_MODE" envDefault:"local"`
	BlockInterval     time.Duration `env:"BLOCK_INTERVAL" envDefault:"2s"`
	ChainSyncURL      string        `env:"CHAIN_SYNC_URL"`
	ChainSyncInterval time.Duration `env:"CHAIN_SYNC_INTERVAL" envDefault:"5s"`

	RankTablesFile  string        `env:"RANK_TABLES_FILE"`
	ArchiveInterval time.Duration `env:"ARCHIVE_INTERVAL" envDefault:"10m"`

	R2 R2

	OTELEndpoint string `env:"OTEL_ENDPOINT"`
	OTELEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

type R2 struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

// Enabled reports whether enough R2 settings are present to archive seasons.
func (r R2) Enabled() bool {
	return r.AccountID != "" && r.Bucket != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, using system env")
	}
	return Parse()
}

// Parse decodes and validates the process environment.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.GatewayToken == "" {
		return fmt.Errorf("GAME_SERVICE_TOKEN is required")
	}
	if !common.IsHexAddress(c.OperatorMaster) {
		return fmt.Errorf("OPERATOR_MASTER must be a hex address, got %q", c.OperatorMaster)
	}

	switch c.ClockMode {
	case ClockModeLocal:
		if c.BlockInterval <= 0 {
			return fmt.Errorf("BLOCK_INTERVAL must be positive")
		}
	case ClockModeRemote:
		if c.ChainSyncURL == "" {
			return fmt.Errorf("CHAIN_SYNC_URL is required when CLOCK_MODE=remote")
		}
		if c.ChainSyncInterval <= 0 {
			return fmt.Errorf("CHAIN_SYNC_INTERVAL must be positive")
		}
	default:
		return fmt.Errorf("CLOCK_MODE must be %q or %q, got %q", ClockModeLocal, ClockModeRemote, c.ClockMode)
	}
	return nil
}

func (c *Config) MasterAddress() common.Address {
	return common.HexToAddress(c.OperatorMaster)
}
