package repository

import (
	"context"

	"BlueprintScan/internal/domain/models"
)

// TickerStream is a long-lived subscription to the aggregate 24h ticker
// feed covering every instrument on the exchange.
type TickerStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan []models.InstrumentSnapshot, <-chan error)
	Close() error
	IsConnected() bool
}

// CandleStream is a subscription to per-symbol candle updates for a
// bounded working set. Changing the working set or interval requires a
// reconnect with the new parameters.
type CandleStream interface {
	Connect(ctx context.Context, symbols []string, interval Interval) error
	Read(ctx context.Context) (<-chan models.Candle, <-chan error)
	Close() error
	IsConnected() bool
}

// MarketData is the REST side of the exchange: symbol universe and
// historical daily ranges used to seed baselines.
type MarketData interface {
	PerpetualSymbols(ctx context.Context) ([]string, error)
	DailyRanges(ctx context.Context, symbol string, window int) ([]float64, error)
}

// FindingsPublisher delivers hub output to an external transport.
type FindingsPublisher interface {
	Publish(ctx context.Context, res models.ScanResult) error
	Close() error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordTicks(n int)
	RecordCandle(interval string)
	RecordFindings(n int)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordReconnect(stream string)
	SetStreamUp(stream string, up bool)
}
