package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
environment: test
server:
  port: 8080
exchange:
  rest_url: https://fapi.binance.com
  websocket_url: wss://fstream.binance.com
screener:
  interval: 5m
  working_set_size: 10
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Exchange.QuoteAsset != "USDT" {
		t.Fatalf("expected USDT default, got %q", c.Exchange.QuoteAsset)
	}
	if c.Exchange.ReconnectAttempts != 5 {
		t.Fatalf("expected 5 reconnect attempts, got %d", c.Exchange.ReconnectAttempts)
	}
	if c.Screener.ThrottleWindow != time.Second {
		t.Fatalf("expected 1s throttle window, got %v", c.Screener.ThrottleWindow)
	}
	if c.Screener.Interval != "5m" {
		t.Fatalf("expected configured interval, got %q", c.Screener.Interval)
	}
}

func TestLoadRejectsMissingURLs(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: test\n")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsOversizedWorkingSet(t *testing.T) {
	body := sample + "  max_streams: 5\n"
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for working set above stream cap")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("QUOTE_ASSET", "USDC")
	c, err := LoadWithEnv(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Exchange.QuoteAsset != "USDC" {
		t.Fatalf("expected env override, got %q", c.Exchange.QuoteAsset)
	}
}
