package config

import (
	"testing"
	"time"
)

func TestDefaultsApplied(t *testing.T) {
	cfg := Config{
		Quotes: QuotesConfig{Address: "http://localhost:9000"},
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		t.Fatalf("setup failed: %s", err)
	}

	if cfg.Engine.SellFeeRate != _sellFeeRateDefault {
		t.Fatalf("sell fee rate %v, want default %v", cfg.Engine.SellFeeRate, _sellFeeRateDefault)
	}
	if cfg.Engine.HoldingEpsilon != _holdingEpsilonDefault {
		t.Fatalf("epsilon %v, want default %v", cfg.Engine.HoldingEpsilon, _holdingEpsilonDefault)
	}
	if cfg.Engine.MarketOrderStaleAfter != 7*24*time.Hour {
		t.Fatalf("stale window %v, want 7 days", cfg.Engine.MarketOrderStaleAfter)
	}
	if cfg.Engine.LimitOrderMaxAge != 90*24*time.Hour {
		t.Fatalf("max age %v, want 90 days", cfg.Engine.LimitOrderMaxAge)
	}
	if cfg.Sweep.Interval != 30*time.Second {
		t.Fatalf("sweep interval %v, want 30s", cfg.Sweep.Interval)
	}
	if len(cfg.Quotes.ReferenceInstruments) == 0 {
		t.Fatalf("reference instruments default missing")
	}
	if cfg.MarketHours.Timezone != "America/New_York" {
		t.Fatalf("timezone %q, want America/New_York", cfg.MarketHours.Timezone)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("port %q, want 8080", cfg.Server.Port)
	}
}

func TestQuotesAddressRequired(t *testing.T) {
	cfg := Config{}
	if err := cfg.ValidateAndSetup(); err == nil {
		t.Fatalf("expected error for missing quotes address")
	}
}

func TestInvalidMarketHoursRejected(t *testing.T) {
	cfg := Config{
		Quotes:      QuotesConfig{Address: "http://localhost:9000"},
		MarketHours: MarketHoursConfig{Open: "half past nine"},
	}
	if err := cfg.ValidateAndSetup(); err == nil {
		t.Fatalf("expected error for unparseable market hours")
	}
}
