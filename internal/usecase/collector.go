package usecase

import (
	"context"
	"sync"
	"time"

	"BlueprintScan/internal/domain/models"
	drepo "BlueprintScan/internal/domain/repository"
	"BlueprintScan/pkg/logger"
)

// CollectorOptions groups the feed tuning knobs.
type CollectorOptions struct {
	ReconnectBase   time.Duration
	MaxReconnects   int
	RefreshInterval time.Duration
	WorkingSetSize  int
	Interval        drepo.Interval
}

// FeedCollector owns the exchange streams. It applies ticker batches and
// closed candles to the store, notifies the hub on every change, and
// manages the volume-ranked working set of candle subscriptions.
//
// Reconnects back off linearly (base x attempt). Once the attempt
// budget is exhausted the feed is marked degraded and stays that way
// until restarted.
type FeedCollector struct {
	ticker   drepo.TickerStream
	candles  drepo.CandleStream
	market   drepo.MarketData
	store    *SymbolStore
	hub      *Hub
	baseline *BaselineProvider
	metrics  drepo.Metrics
	log      *logger.Logger
	opts     CollectorOptions

	mu           sync.Mutex
	status       models.FeedStatus
	workingSet   []string
	interval     drepo.Interval
	universe     map[string]struct{} // tradable perpetuals, nil until fetched
	cancel       context.CancelFunc
	candleCancel context.CancelFunc
	wg           sync.WaitGroup
}

// NewFeedCollector wires the collector and registers it as the hub's
// status source.
func NewFeedCollector(
	ticker drepo.TickerStream,
	candles drepo.CandleStream,
	market drepo.MarketData,
	store *SymbolStore,
	hub *Hub,
	baseline *BaselineProvider,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts CollectorOptions,
) *FeedCollector {
	c := &FeedCollector{
		ticker:   ticker,
		candles:  candles,
		market:   market,
		store:    store,
		hub:      hub,
		baseline: baseline,
		metrics:  metrics,
		log:      log,
		opts:     opts,
	}
	hub.SetStatusFunc(c.Status)
	return c
}

// Start launches the ticker loop and the working-set refresh loop.
func (c *FeedCollector) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.tickerLoop(runCtx)
	}()
	go func() {
		defer c.wg.Done()
		c.refreshLoop(runCtx)
	}()
}

// Stop tears down both streams and waits for the loops to exit.
func (c *FeedCollector) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	candleCancel := c.candleCancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if candleCancel != nil {
		candleCancel()
	}
	_ = c.ticker.Close()
	_ = c.candles.Close()
	c.wg.Wait()
}

// Status returns the current connectivity state.
func (c *FeedCollector) Status() models.FeedStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// WorkingSet returns the symbols currently carried on the candle stream.
func (c *FeedCollector) WorkingSet() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.workingSet))
	copy(out, c.workingSet)
	return out
}

func (c *FeedCollector) tickerLoop(ctx context.Context) {
	attempt := 0
	var lastErr error
	for {
		if ctx.Err() != nil {
			return
		}
		// a non-zero attempt means the previous cycle failed or dropped
		if attempt > 0 {
			if attempt >= c.opts.MaxReconnects {
				c.degrade("ticker", lastErr)
				return
			}
			delay := c.opts.ReconnectBase * time.Duration(attempt)
			c.log.Warn("ticker reconnecting",
				logger.Int("attempt", attempt), logger.Duration("retry_in", delay), logger.Error(lastErr))
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		if err := c.ticker.Connect(ctx); err != nil {
			attempt++
			lastErr = err
			c.metrics.RecordReconnect("ticker")
			continue
		}

		attempt = 0
		c.setConnected("ticker", true)
		c.log.Info("ticker stream connected")

		streamCtx, stop := context.WithCancel(ctx)
		batches, errs := c.ticker.Read(streamCtx)
		lastErr = c.consumeTicker(streamCtx, batches, errs)
		stop()

		c.setConnected("ticker", false)
		if ctx.Err() != nil {
			return
		}
		attempt++
		c.metrics.RecordReconnect("ticker")
	}
}

func (c *FeedCollector) consumeTicker(ctx context.Context, batches <-chan []models.InstrumentSnapshot, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			c.store.ApplyTickerBatch(batch)
			c.recordWorkingSetPrices(batch)
			c.hub.Notify()
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			c.metrics.RecordError("ticker_stream")
			return err
		}
	}
}

// SetWorkingSet switches the candle stream to a new symbol set or
// interval. An unchanged set is a no-op; the ticker stream is never
// touched.
func (c *FeedCollector) SetWorkingSet(ctx context.Context, symbols []string, interval drepo.Interval) {
	c.mu.Lock()
	if equalSymbols(c.workingSet, symbols) && c.interval == interval && c.candleCancel != nil {
		c.mu.Unlock()
		return
	}
	if c.candleCancel != nil {
		c.candleCancel()
		c.candleCancel = nil
	}
	c.workingSet = make([]string, len(symbols))
	copy(c.workingSet, symbols)
	c.interval = interval

	candleCtx, cancel := context.WithCancel(ctx)
	c.candleCancel = cancel
	c.mu.Unlock()

	_ = c.candles.Close()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.candleLoop(candleCtx, symbols, interval)
	}()
}

func (c *FeedCollector) candleLoop(ctx context.Context, symbols []string, interval drepo.Interval) {
	attempt := 0
	var lastErr error
	for {
		if ctx.Err() != nil {
			return
		}
		if attempt > 0 {
			if attempt >= c.opts.MaxReconnects {
				c.degrade("candle", lastErr)
				return
			}
			delay := c.opts.ReconnectBase * time.Duration(attempt)
			c.log.Warn("candle reconnecting",
				logger.Int("attempt", attempt), logger.Duration("retry_in", delay), logger.Error(lastErr))
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		if err := c.candles.Connect(ctx, symbols, interval); err != nil {
			attempt++
			lastErr = err
			c.metrics.RecordReconnect("candle")
			continue
		}

		attempt = 0
		c.setConnected("candle", true)
		c.log.Info("candle stream connected",
			logger.Int("symbols", len(symbols)), logger.String("interval", string(interval)))

		streamCtx, stop := context.WithCancel(ctx)
		candles, errs := c.candles.Read(streamCtx)
		lastErr = c.consumeCandles(streamCtx, candles, errs)
		stop()

		c.setConnected("candle", false)
		if ctx.Err() != nil {
			return
		}
		attempt++
		c.metrics.RecordReconnect("candle")
	}
}

func (c *FeedCollector) consumeCandles(ctx context.Context, candles <-chan models.Candle, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case candle, ok := <-candles:
			if !ok {
				return nil
			}
			if c.store.ApplyClosedCandle(candle) {
				c.hub.Notify()
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			c.metrics.RecordError("candle_stream")
			return err
		}
	}
}

// refreshLoop re-ranks the working set by volume on a fixed cadence.
// It polls quickly at startup until the first ticker batch lands.
func (c *FeedCollector) refreshLoop(ctx context.Context) {
	c.loadUniverse(ctx)
	for c.store.Len() == 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
	c.refreshWorkingSet(ctx)

	ticker := time.NewTicker(c.opts.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshWorkingSet(ctx)
		}
	}
}

func (c *FeedCollector) refreshWorkingSet(ctx context.Context) {
	top := c.store.TopByVolume(c.opts.WorkingSetSize)
	top = c.filterTradable(top)
	if len(top) == 0 {
		return
	}
	c.baseline.Warm(ctx, top)
	c.SetWorkingSet(ctx, top, c.opts.Interval)
}

// loadUniverse fetches the tradable perpetual contracts once. Without
// it the working set is taken from the ticker feed unfiltered.
func (c *FeedCollector) loadUniverse(ctx context.Context) {
	symbols, err := c.market.PerpetualSymbols(ctx)
	if err != nil {
		c.log.Warn("symbol universe fetch failed", logger.Error(err))
		c.metrics.RecordError("exchange_info")
		return
	}
	universe := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		universe[sym] = struct{}{}
	}
	c.mu.Lock()
	c.universe = universe
	c.mu.Unlock()
	c.log.Info("symbol universe loaded", logger.Int("symbols", len(symbols)))
}

// filterTradable drops symbols outside the known perpetual universe.
// Delisted contracts keep appearing on the ticker feed for a while.
func (c *FeedCollector) filterTradable(symbols []string) []string {
	c.mu.Lock()
	universe := c.universe
	c.mu.Unlock()
	if universe == nil {
		return symbols
	}
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if _, ok := universe[sym]; ok {
			out = append(out, sym)
		}
	}
	return out
}

func (c *FeedCollector) recordWorkingSetPrices(batch []models.InstrumentSnapshot) {
	c.mu.Lock()
	tracked := make(map[string]struct{}, len(c.workingSet))
	for _, sym := range c.workingSet {
		tracked[sym] = struct{}{}
	}
	c.mu.Unlock()

	for _, snap := range batch {
		if _, ok := tracked[snap.Symbol]; ok {
			c.metrics.RecordLastPrice(snap.Symbol, snap.Price)
		}
	}
}

func (c *FeedCollector) setConnected(stream string, up bool) {
	c.mu.Lock()
	switch stream {
	case "ticker":
		c.status.TickerConnected = up
	case "candle":
		c.status.CandleConnected = up
	}
	c.mu.Unlock()
	c.metrics.SetStreamUp(stream, up)
}

// degrade records terminal reconnect exhaustion. The flag is sticky.
func (c *FeedCollector) degrade(stream string, err error) {
	c.mu.Lock()
	c.status.Degraded = true
	switch stream {
	case "ticker":
		c.status.TickerConnected = false
	case "candle":
		c.status.CandleConnected = false
	}
	c.mu.Unlock()

	c.metrics.SetStreamUp(stream, false)
	c.metrics.RecordError("reconnect_exhausted")
	c.log.Error("reconnect budget exhausted, feed degraded",
		logger.String("stream", stream), logger.Int("attempts", c.opts.MaxReconnects), logger.Error(err))
}

func equalSymbols(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
