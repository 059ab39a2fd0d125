package binance

import "testing"

func TestParseTicker(t *testing.T) {
	snap, err := parseTicker(wsTicker{
		EventType:     "24hrTicker",
		Symbol:        "BTCUSDT",
		ChangePercent: "2.5",
		LastPrice:     "65000.10",
		Open:          "63400.00",
		High:          "65500.00",
		Low:           "63000.00",
		QuoteVolume:   "1500000000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected symbol %q", snap.Symbol)
	}
	if snap.Close != snap.Price {
		t.Fatalf("close must equal last price")
	}
	if snap.Range() != 2500 {
		t.Fatalf("unexpected range %v", snap.Range())
	}
}

func TestParseTickerRejectsMalformed(t *testing.T) {
	_, err := parseTicker(wsTicker{Symbol: "BTCUSDT", LastPrice: "not-a-number"})
	if err == nil {
		t.Fatalf("expected error for non-numeric price")
	}
	_, err = parseTicker(wsTicker{LastPrice: "1"})
	if err == nil {
		t.Fatalf("expected error for empty symbol")
	}
}

func TestParseKline(t *testing.T) {
	candle, err := parseKline(wsKline{
		StartTime: 1728555000000,
		Symbol:    "ETHUSDT",
		Interval:  "15m",
		Open:      "2600.0",
		Close:     "2620.5",
		High:      "2630.0",
		Low:       "2595.0",
		Volume:    "1234.5",
		Closed:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !candle.Closed {
		t.Fatalf("expected closed candle")
	}
	if candle.Interval != "15m" {
		t.Fatalf("unexpected interval %q", candle.Interval)
	}
	if candle.OpenTime.UnixMilli() != 1728555000000 {
		t.Fatalf("unexpected open time %v", candle.OpenTime)
	}
}

func TestParseKlineRejectsMalformed(t *testing.T) {
	if _, err := parseKline(wsKline{Symbol: "ETHUSDT", Open: "x"}); err == nil {
		t.Fatalf("expected error for non-numeric open")
	}
}
