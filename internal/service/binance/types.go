package binance

import (
	"fmt"
	"time"

	"BlueprintScan/internal/domain/models"
	"BlueprintScan/pkg/util"
)

// wsTicker is one entry of the aggregate 24h ticker array. All numeric
// fields arrive as strings.
type wsTicker struct {
	EventType     string `json:"e"`
	Symbol        string `json:"s"`
	ChangePercent string `json:"P"`
	LastPrice     string `json:"c"`
	Open          string `json:"o"`
	High          string `json:"h"`
	Low           string `json:"l"`
	QuoteVolume   string `json:"q"`
}

// wsKline wraps one candle payload inside a kline event.
type wsKline struct {
	StartTime int64  `json:"t"`
	Symbol    string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

type wsKlineEvent struct {
	EventType string  `json:"e"`
	Symbol    string  `json:"s"`
	Kline     wsKline `json:"k"`
}

// combinedFrame is the envelope of a combined-stream message.
type combinedFrame struct {
	Stream string       `json:"stream"`
	Data   wsKlineEvent `json:"data"`
}

// parseTicker converts one raw ticker entry into a snapshot. Any
// non-numeric field marks the entry malformed and it is dropped.
func parseTicker(t wsTicker) (models.InstrumentSnapshot, error) {
	if t.Symbol == "" {
		return models.InstrumentSnapshot{}, fmt.Errorf("ticker: empty symbol")
	}
	price, err := util.ParseFloat(t.LastPrice)
	if err != nil {
		return models.InstrumentSnapshot{}, fmt.Errorf("ticker %s: last price: %w", t.Symbol, err)
	}
	change, err := util.ParseFloat(t.ChangePercent)
	if err != nil {
		return models.InstrumentSnapshot{}, fmt.Errorf("ticker %s: change: %w", t.Symbol, err)
	}
	volume, err := util.ParseFloat(t.QuoteVolume)
	if err != nil {
		return models.InstrumentSnapshot{}, fmt.Errorf("ticker %s: volume: %w", t.Symbol, err)
	}
	high, err := util.ParseFloat(t.High)
	if err != nil {
		return models.InstrumentSnapshot{}, fmt.Errorf("ticker %s: high: %w", t.Symbol, err)
	}
	low, err := util.ParseFloat(t.Low)
	if err != nil {
		return models.InstrumentSnapshot{}, fmt.Errorf("ticker %s: low: %w", t.Symbol, err)
	}
	open, err := util.ParseFloat(t.Open)
	if err != nil {
		return models.InstrumentSnapshot{}, fmt.Errorf("ticker %s: open: %w", t.Symbol, err)
	}
	return models.InstrumentSnapshot{
		Symbol:        t.Symbol,
		Price:         price,
		ChangePercent: change,
		Volume:        volume,
		High:          high,
		Low:           low,
		Open:          open,
		Close:         price,
	}, nil
}

// parseKline converts one kline payload into a candle.
func parseKline(k wsKline) (models.Candle, error) {
	if k.Symbol == "" {
		return models.Candle{}, fmt.Errorf("kline: empty symbol")
	}
	open, err := util.ParseFloat(k.Open)
	if err != nil {
		return models.Candle{}, fmt.Errorf("kline %s: open: %w", k.Symbol, err)
	}
	high, err := util.ParseFloat(k.High)
	if err != nil {
		return models.Candle{}, fmt.Errorf("kline %s: high: %w", k.Symbol, err)
	}
	low, err := util.ParseFloat(k.Low)
	if err != nil {
		return models.Candle{}, fmt.Errorf("kline %s: low: %w", k.Symbol, err)
	}
	closePrice, err := util.ParseFloat(k.Close)
	if err != nil {
		return models.Candle{}, fmt.Errorf("kline %s: close: %w", k.Symbol, err)
	}
	volume, err := util.ParseFloat(k.Volume)
	if err != nil {
		return models.Candle{}, fmt.Errorf("kline %s: volume: %w", k.Symbol, err)
	}
	return models.Candle{
		Symbol:   k.Symbol,
		Interval: k.Interval,
		OpenTime: time.UnixMilli(k.StartTime),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
		Closed:   k.Closed,
	}, nil
}
