package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	drepo "BlueprintScan/internal/domain/repository"
	"BlueprintScan/pkg/cache"
	"BlueprintScan/pkg/logger"
)

// adrFallbackFactor approximates a missing historical baseline from the
// instrument's current session range.
const adrFallbackFactor = 0.8

// BaselineProvider supplies per-symbol average daily range (ADR)
// baselines from a trailing window of historical daily ranges. The
// value is advisory: it bounds classification sensitivity, nothing
// more.
type BaselineProvider struct {
	source drepo.MarketData
	cache  cache.Service
	window int
	ttl    time.Duration
	log    *logger.Logger

	mu     sync.RWMutex
	ranges map[string][]float64
}

// NewBaselineProvider creates a provider with a trailing window of
// daily ranges per symbol. cache may be nil.
func NewBaselineProvider(source drepo.MarketData, c cache.Service, window int, ttl time.Duration, log *logger.Logger) *BaselineProvider {
	return &BaselineProvider{
		source: source,
		cache:  c,
		window: window,
		ttl:    ttl,
		log:    log,
		ranges: make(map[string][]float64),
	}
}

// Warm loads historical ranges for the given symbols, consulting the
// cache before the exchange. Failures are logged and skipped: a symbol
// without history simply falls back at classification time.
func (b *BaselineProvider) Warm(ctx context.Context, symbols []string) {
	for _, symbol := range symbols {
		if b.has(symbol) {
			continue
		}

		key := fmt.Sprintf("ranges:%s", symbol)
		if b.cache != nil {
			var cached []float64
			if err := b.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
				b.set(symbol, cached)
				continue
			}
		}

		ranges, err := b.source.DailyRanges(ctx, symbol, b.window)
		if err != nil {
			b.log.Warn("baseline fetch failed", logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		if len(ranges) > b.window {
			ranges = ranges[len(ranges)-b.window:]
		}
		b.set(symbol, ranges)

		if b.cache != nil && len(ranges) > 0 {
			if err := b.cache.Set(ctx, key, ranges, b.ttl); err != nil {
				b.log.Warn("baseline cache write failed", logger.String("symbol", symbol), logger.Error(err))
			}
		}
	}
}

// ADR returns the symbol's average daily range, or the documented
// fallback of currentRange x 0.8 when no usable history exists.
func (b *BaselineProvider) ADR(symbol string, currentRange float64) float64 {
	b.mu.RLock()
	ranges := b.ranges[symbol]
	b.mu.RUnlock()
	return averageRange(ranges, currentRange)
}

func (b *BaselineProvider) has(symbol string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.ranges[symbol]
	return ok
}

func (b *BaselineProvider) set(symbol string, ranges []float64) {
	b.mu.Lock()
	b.ranges[symbol] = ranges
	b.mu.Unlock()
}

// averageRange computes the arithmetic mean of the trailing ranges. An
// empty or all-zero history counts as no data and yields the fallback.
// It never divides by zero.
func averageRange(ranges []float64, currentRange float64) float64 {
	sum := 0.0
	for _, r := range ranges {
		sum += r
	}
	if len(ranges) == 0 || sum <= 0 {
		return currentRange * adrFallbackFactor
	}
	return sum / float64(len(ranges))
}
