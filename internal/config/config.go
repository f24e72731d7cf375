package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type EngineConfig struct {
	SellFeeRate           float64       `yaml:"sell_fee_rate"`
	HoldingEpsilon        float64       `yaml:"holding_epsilon"`
	MarketOrderStaleAfter time.Duration `yaml:"market_order_stale_after"`
	LimitOrderMaxAge      time.Duration `yaml:"limit_order_max_age"`
}

const (
	_sellFeeRateDefault           = 0.0000229
	_holdingEpsilonDefault        = 0.001
	_marketOrderStaleAfterDefault = 7 * 24 * time.Hour
	_limitOrderMaxAgeDefault      = 90 * 24 * time.Hour
)

func (c *EngineConfig) Setup() {
	if c.SellFeeRate <= 0 {
		c.SellFeeRate = _sellFeeRateDefault
	}
	if c.HoldingEpsilon <= 0 {
		c.HoldingEpsilon = _holdingEpsilonDefault
	}
	if c.MarketOrderStaleAfter <= 0 {
		c.MarketOrderStaleAfter = _marketOrderStaleAfterDefault
	}
	if c.LimitOrderMaxAge <= 0 {
		c.LimitOrderMaxAge = _limitOrderMaxAgeDefault
	}
}

type QuotesConfig struct {
	Address              string        `yaml:"address"`
	Timeout              time.Duration `yaml:"timeout"`
	RequestsPerMinute    int           `yaml:"requests_per_minute"`
	ReferenceInstruments []string      `yaml:"reference_instruments"`
}

func (c *QuotesConfig) Setup() error {
	if c.Address == "" {
		return fmt.Errorf("quotes address is required")
	}
	if _, err := url.Parse(c.Address); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 300
	}
	if len(c.ReferenceInstruments) == 0 {
		c.ReferenceInstruments = []string{"SPY", "QQQ", "DIA"}
	}
	return nil
}

// MarketHoursConfig is the calendar fallback used when no reference
// instrument reports a market state. Open and Close are wall-clock
// times in the exchange timezone, "15:04" layout.
type MarketHoursConfig struct {
	Timezone string `yaml:"timezone"`
	Open     string `yaml:"open"`
	Close    string `yaml:"close"`
}

func (c *MarketHoursConfig) Setup() error {
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.Open == "" {
		c.Open = "09:30"
	}
	if c.Close == "" {
		c.Close = "16:00"
	}
	for _, v := range []string{c.Open, c.Close} {
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("%w: invalid market hours %q", err, v)
		}
	}
	return nil
}

type SweepConfig struct {
	Interval        time.Duration `yaml:"interval"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

func (c *SweepConfig) Setup() {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 1 * time.Hour
	}
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

func (c *ServerConfig) Setup() {
	if c.Port == "" {
		c.Port = "8080"
	}
}

type Config struct {
	Engine      EngineConfig      `yaml:"engine"`
	Quotes      QuotesConfig      `yaml:"quotes"`
	MarketHours MarketHoursConfig `yaml:"market_hours"`
	Sweep       SweepConfig       `yaml:"sweep"`
	Server      ServerConfig      `yaml:"server"`
}

func (c *Config) ValidateAndSetup() error {
	c.Engine.Setup()
	if err := c.Quotes.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup quotes", err)
	}
	if err := c.MarketHours.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup market hours", err)
	}
	c.Sweep.Setup()
	c.Server.Setup()
	return nil
}

func Load(filename string) (Config, error) {
	var cfg Config
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
