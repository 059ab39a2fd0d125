package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"BlueprintScan/internal/domain/models"
	drepo "BlueprintScan/internal/domain/repository"
)

type fakeTickerStream struct {
	mu       sync.Mutex
	attempts int
	fail     bool
	batches  chan []models.InstrumentSnapshot
	errs     chan error
}

func newFakeTickerStream(fail bool) *fakeTickerStream {
	return &fakeTickerStream{
		fail:    fail,
		batches: make(chan []models.InstrumentSnapshot, 8),
		errs:    make(chan error, 1),
	}
}

func (f *fakeTickerStream) Connect(ctx context.Context) error {
	f.mu.Lock()
	f.attempts++
	f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("connection refused")
	}
	return nil
}

func (f *fakeTickerStream) Read(ctx context.Context) (<-chan []models.InstrumentSnapshot, <-chan error) {
	return f.batches, f.errs
}

func (f *fakeTickerStream) Close() error      { return nil }
func (f *fakeTickerStream) IsConnected() bool { return !f.fail }

func (f *fakeTickerStream) connectAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

type fakeCandleStream struct {
	mu       sync.Mutex
	attempts int
	candles  chan models.Candle
	errs     chan error
}

func newFakeCandleStream() *fakeCandleStream {
	return &fakeCandleStream{
		candles: make(chan models.Candle, 8),
		errs:    make(chan error, 1),
	}
}

func (f *fakeCandleStream) Connect(ctx context.Context, symbols []string, interval drepo.Interval) error {
	f.mu.Lock()
	f.attempts++
	f.mu.Unlock()
	return nil
}

func (f *fakeCandleStream) Read(ctx context.Context) (<-chan models.Candle, <-chan error) {
	return f.candles, f.errs
}

func (f *fakeCandleStream) Close() error      { return nil }
func (f *fakeCandleStream) IsConnected() bool { return true }

func (f *fakeCandleStream) connectAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func newTestCollector(t *testing.T, ticker drepo.TickerStream, candles drepo.CandleStream) *FeedCollector {
	t.Helper()
	store := NewSymbolStore("USDT", nopMetrics{})
	baseline := NewBaselineProvider(&fakeMarketData{}, nil, 20, time.Hour, testLogger(t))
	hub := NewHub(store, baseline, nopMetrics{}, testLogger(t), time.Second, 10)
	return NewFeedCollector(ticker, candles, &fakeMarketData{}, store, hub, baseline, nopMetrics{}, testLogger(t), CollectorOptions{
		ReconnectBase:   time.Millisecond,
		MaxReconnects:   5,
		RefreshInterval: time.Hour,
		WorkingSetSize:  10,
		Interval:        "15m",
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestReconnectBudgetExhaustionDegradesFeed(t *testing.T) {
	ticker := newFakeTickerStream(true)
	c := newTestCollector(t, ticker, newFakeCandleStream())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Stop()

	waitFor(t, time.Second, func() bool { return c.Status().Degraded })

	if got := ticker.connectAttempts(); got != 5 {
		t.Fatalf("expected exactly 5 connect attempts, got %d", got)
	}

	// the degraded state is terminal: no further attempts are scheduled
	time.Sleep(50 * time.Millisecond)
	if got := ticker.connectAttempts(); got != 5 {
		t.Fatalf("degraded feed must stop retrying, attempts=%d", got)
	}
	if c.Status().Connected() {
		t.Fatalf("degraded feed must not report connected")
	}
}

func TestTickerBatchesFlowIntoStore(t *testing.T) {
	ticker := newFakeTickerStream(false)
	c := newTestCollector(t, ticker, newFakeCandleStream())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Stop()

	waitFor(t, time.Second, func() bool { return c.Status().TickerConnected })

	ticker.batches <- []models.InstrumentSnapshot{snap("BTCUSDT", 100)}
	waitFor(t, time.Second, func() bool { return c.store.Len() == 1 })

	if c.Status().Degraded {
		t.Fatalf("healthy feed must not be degraded")
	}
}

func TestSetWorkingSetIsNoopWhenUnchanged(t *testing.T) {
	candles := newFakeCandleStream()
	c := newTestCollector(t, newFakeTickerStream(false), candles)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Stop()

	symbols := []string{"BTCUSDT", "ETHUSDT"}
	c.SetWorkingSet(ctx, symbols, "15m")
	waitFor(t, time.Second, func() bool { return candles.connectAttempts() == 1 })

	c.SetWorkingSet(ctx, symbols, "15m")
	time.Sleep(50 * time.Millisecond)
	if got := candles.connectAttempts(); got != 1 {
		t.Fatalf("unchanged working set must not reconnect, attempts=%d", got)
	}

	got := c.WorkingSet()
	if len(got) != 2 || got[0] != "BTCUSDT" {
		t.Fatalf("unexpected working set %v", got)
	}
}

func TestClosedCandlesReachStore(t *testing.T) {
	candles := newFakeCandleStream()
	c := newTestCollector(t, newFakeTickerStream(false), candles)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Stop()

	c.SetWorkingSet(ctx, []string{"BTCUSDT"}, "15m")
	waitFor(t, time.Second, func() bool { return c.Status().CandleConnected })

	candles.candles <- models.Candle{Symbol: "BTCUSDT", Interval: "15m", Close: 50, Closed: true}
	waitFor(t, time.Second, func() bool { return len(c.store.Candles("15m")) == 1 })
}
