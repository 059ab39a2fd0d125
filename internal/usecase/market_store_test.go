package usecase

import (
	"reflect"
	"testing"
	"time"

	"BlueprintScan/internal/domain/models"
)

type nopMetrics struct{}

func (nopMetrics) RecordTicks(int)                 {}
func (nopMetrics) RecordCandle(string)             {}
func (nopMetrics) RecordFindings(int)              {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}
func (nopMetrics) RecordReconnect(string)          {}
func (nopMetrics) SetStreamUp(string, bool)        {}

func snap(symbol string, volume float64) models.InstrumentSnapshot {
	return models.InstrumentSnapshot{
		Symbol: symbol, Price: 100, Open: 99, High: 101, Low: 98, Close: 100,
		Volume: volume,
	}
}

func TestApplyTickerBatchFiltersQuoteAsset(t *testing.T) {
	store := NewSymbolStore("USDT", nopMetrics{})
	out := store.ApplyTickerBatch([]models.InstrumentSnapshot{
		snap("BTCUSDT", 100),
		snap("ETHBTC", 200),
		snap("ETHUSDT", 300),
	})
	if len(out) != 2 {
		t.Fatalf("expected 2 tracked instruments, got %d", len(out))
	}
	if _, ok := store.Snapshot("ETHBTC"); ok {
		t.Fatalf("non-USDT symbol must be ignored")
	}
}

func TestApplyTickerBatchLastWriteWins(t *testing.T) {
	store := NewSymbolStore("USDT", nopMetrics{})
	store.ApplyTickerBatch([]models.InstrumentSnapshot{snap("BTCUSDT", 100)})
	store.ApplyTickerBatch([]models.InstrumentSnapshot{snap("BTCUSDT", 999)})

	got, ok := store.Snapshot("BTCUSDT")
	if !ok || got.Volume != 999 {
		t.Fatalf("expected latest snapshot to win, got %+v", got)
	}
	if store.Len() != 1 {
		t.Fatalf("upsert must not grow the store, len=%d", store.Len())
	}
}

func TestTopByVolumeTieBreaksByArrival(t *testing.T) {
	store := NewSymbolStore("USDT", nopMetrics{})
	store.ApplyTickerBatch([]models.InstrumentSnapshot{
		snap("AAAUSDT", 5),
		snap("BBBUSDT", 3),
		snap("CCCUSDT", 3),
		snap("DDDUSDT", 1),
	})

	want := []string{"AAAUSDT", "BBBUSDT"}
	for i := 0; i < 20; i++ {
		got := store.TopByVolume(2)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestTopByVolumeClampsToStoreSize(t *testing.T) {
	store := NewSymbolStore("USDT", nopMetrics{})
	store.ApplyTickerBatch([]models.InstrumentSnapshot{snap("AAAUSDT", 5)})
	if got := store.TopByVolume(10); len(got) != 1 {
		t.Fatalf("expected 1 symbol, got %v", got)
	}
}

func TestApplyClosedCandle(t *testing.T) {
	store := NewSymbolStore("USDT", nopMetrics{})

	open := models.Candle{Symbol: "BTCUSDT", Interval: "15m", Close: 50, Closed: false}
	if store.ApplyClosedCandle(open) {
		t.Fatalf("open candle must be discarded")
	}

	first := models.Candle{Symbol: "BTCUSDT", Interval: "15m", OpenTime: time.Unix(0, 0), Close: 50, Closed: true}
	second := models.Candle{Symbol: "BTCUSDT", Interval: "15m", OpenTime: time.Unix(900, 0), Close: 60, Closed: true}
	if !store.ApplyClosedCandle(first) || !store.ApplyClosedCandle(second) {
		t.Fatalf("closed candles must be accepted")
	}

	got := store.Candles("15m")
	if len(got) != 1 {
		t.Fatalf("expected one candle per symbol and interval, got %d", len(got))
	}
	if got["BTCUSDT"].Close != 60 {
		t.Fatalf("expected newest candle to replace the previous one, got %+v", got["BTCUSDT"])
	}
}

func TestResetDropsEverything(t *testing.T) {
	store := NewSymbolStore("USDT", nopMetrics{})
	store.ApplyTickerBatch([]models.InstrumentSnapshot{snap("BTCUSDT", 100)})
	store.Reset()
	if store.Len() != 0 {
		t.Fatalf("expected empty store after reset, len=%d", store.Len())
	}
}
