package models

import "time"

// InstrumentSnapshot is the latest known 24h view of one instrument.
// It is replaced wholesale on every ticker update for that symbol.
type InstrumentSnapshot struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"` // 24h percentage change
	Volume        float64 `json:"volume"`        // 24h traded volume
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	Close         float64 `json:"close"` // == last price
}

// Range returns the 24h high-low span.
func (s InstrumentSnapshot) Range() float64 { return s.High - s.Low }

// Candle is one closed OHLCV bar for a symbol and interval.
// Immutable once created; only closed candles are stored.
type Candle struct {
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"`
	OpenTime  time.Time `json:"openTime"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Closed    bool      `json:"closed"`
}

// HistoricalBaseline carries a symbol's trailing daily ranges
// (high-low per day, most recent last) and the derived average.
type HistoricalBaseline struct {
	Symbol string    `json:"symbol"`
	Ranges []float64 `json:"ranges"`
	ADR    float64   `json:"adr"`
}

// FeedStatus is the externally observable connectivity state.
type FeedStatus struct {
	TickerConnected bool `json:"tickerConnected"`
	CandleConnected bool `json:"candleConnected"`
	// Degraded is set once reconnection attempts are exhausted and
	// stays set until an operator restarts the feed.
	Degraded bool `json:"degraded"`
}

// Connected reports whether the primary (ticker) feed is live.
func (f FeedStatus) Connected() bool { return f.TickerConnected && !f.Degraded }
