package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"stratum/types"
)

// Stop-loss / take-profit modes recognized by the risk manager.
const (
	ModeFixedAmount = "fixed_amount"
	ModePercent     = "percent"
	ModeATRMultiple = "atr_multiple"
	ModeSwingLevel  = "swing_level"
)

// RiskConfig holds the risk and sizing parameters. It is read-only to the
// engine once validated.
type RiskConfig struct {
	Leverage     int     `yaml:"leverage" validate:"min=1,max=125"`
	OrderSizePct float64 `yaml:"order_size_pct" validate:"gte=0.1,lte=100"`
	MaxPositions int     `yaml:"max_positions" validate:"min=1,max=100"`

	SLMode  string  `yaml:"sl_mode" validate:"oneof=fixed_amount percent atr_multiple swing_level"`
	SLValue float64 `yaml:"sl_value" validate:"gt=0"`
	TPMode  string  `yaml:"tp_mode" validate:"oneof=fixed_amount percent atr_multiple swing_level"`
	TPValue float64 `yaml:"tp_value" validate:"gt=0"`

	TrailingEnabled  bool    `yaml:"trailing_enabled"`
	TrailingDistance float64 `yaml:"trailing_distance" validate:"gte=0,lte=50"`

	// MaxDailyLossPct suspends new entries for the rest of the UTC day once
	// realized losses reach this share of the day's starting equity.
	// 0 disables the limit.
	MaxDailyLossPct float64 `yaml:"max_daily_loss_pct" validate:"gte=0,lte=100"`
}

// ExchangeConfig holds connectivity settings for the trading API.
type ExchangeConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`

	// RequestsPerSecond is the global request budget shared by all symbols.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gt=0"`
}

// Config is the top-level bot configuration.
type Config struct {
	Symbols  []string       `yaml:"symbols" validate:"min=1,dive,required"`
	Interval types.Interval `yaml:"interval" validate:"required"`
	Strategy string         `yaml:"strategy" validate:"required"`
	DryRun   bool           `yaml:"dry_run"`

	// HistoryBars bounds the candle series kept per symbol.
	HistoryBars int `yaml:"history_bars" validate:"min=50,max=5000"`

	Exchange ExchangeConfig `yaml:"exchange"`
	Risk     RiskConfig     `yaml:"risk"`
}

// Default returns a config with sane values for everything but symbols
// and credentials.
func Default() Config {
	return Config{
		Interval:    types.Interval15m,
		Strategy:    "triple_ema",
		HistoryBars: 500,
		Exchange: ExchangeConfig{
			RequestsPerSecond: 5,
		},
		Risk: RiskConfig{
			Leverage:         1,
			OrderSizePct:     3,
			MaxPositions:     5,
			SLMode:           ModePercent,
			SLValue:          2,
			TPMode:           ModePercent,
			TPValue:          4,
			TrailingDistance: 1,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks all fields before any trading starts. strategyExists is
// supplied by the strategy registry so unknown ids fail here, not at
// evaluation time.
func (c *Config) Validate(strategyExists func(string) bool) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !c.Interval.Valid() {
		return fmt.Errorf("config: unsupported interval %q", c.Interval)
	}
	if strategyExists != nil && !strategyExists(c.Strategy) {
		return fmt.Errorf("config: unknown strategy %q", c.Strategy)
	}
	if c.Risk.TrailingEnabled && c.Risk.TrailingDistance <= 0 {
		return errors.New("config: trailing_distance must be positive when trailing is enabled")
	}
	if !c.DryRun && (c.Exchange.APIKey == "" || c.Exchange.APISecret == "") {
		return errors.New("config: live trading requires exchange api_key and api_secret")
	}
	return nil
}
