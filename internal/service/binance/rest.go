package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	drepo "BlueprintScan/internal/domain/repository"
	"BlueprintScan/pkg/util"
)

// RESTClient talks to the exchange's HTTP API: symbol universe and
// historical daily klines. Account-scoped endpoints require a signed
// request (HMAC-SHA256 over the query string, time-boxed); the market
// data endpoints used here are public.
type RESTClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	quoteAsset string
	httpClient *http.Client
}

// NewRESTClient creates a REST client for the exchange.
func NewRESTClient(baseURL, apiKey, apiSecret, quoteAsset string) *RESTClient {
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		quoteAsset: quoteAsset,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

var _ drepo.MarketData = (*RESTClient)(nil)

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol       string `json:"symbol"`
		Status       string `json:"status"`
		ContractType string `json:"contractType"`
		QuoteAsset   string `json:"quoteAsset"`
	} `json:"symbols"`
}

// PerpetualSymbols returns all trading perpetual contracts quoted in
// the tracked quote asset.
func (c *RESTClient) PerpetualSymbols(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/fapi/v1/exchangeInfo", nil, false)
	if err != nil {
		return nil, fmt.Errorf("exchange info: %w", err)
	}

	var info exchangeInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("exchange info decode: %w", err)
	}

	symbols := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" || s.ContractType != "PERPETUAL" || s.QuoteAsset != c.quoteAsset {
			continue
		}
		symbols = append(symbols, s.Symbol)
	}
	return symbols, nil
}

// DailyRanges returns up to window trailing daily high-low ranges for a
// symbol, oldest first. The current, still-open day is excluded.
func (c *RESTClient) DailyRanges(ctx context.Context, symbol string, window int) ([]float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1d")
	q.Set("limit", strconv.Itoa(window+1))

	body, err := c.get(ctx, "/fapi/v1/klines", q, false)
	if err != nil {
		return nil, fmt.Errorf("daily klines %s: %w", symbol, err)
	}

	// Each kline is a positional array; high and low are at 2 and 3.
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("daily klines %s decode: %w", symbol, err)
	}
	if len(rows) > 0 {
		rows = rows[:len(rows)-1] // drop the in-progress day
	}

	ranges := make([]float64, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		var highStr, lowStr string
		if err := json.Unmarshal(row[2], &highStr); err != nil {
			continue
		}
		if err := json.Unmarshal(row[3], &lowStr); err != nil {
			continue
		}
		high, err := util.ParseFloat(highStr)
		if err != nil {
			continue
		}
		low, err := util.ParseFloat(lowStr)
		if err != nil {
			continue
		}
		ranges = append(ranges, high-low)
	}
	return ranges, nil
}

func (c *RESTClient) get(ctx context.Context, path string, q url.Values, signed bool) ([]byte, error) {
	if q == nil {
		q = url.Values{}
	}
	if signed {
		q.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		q.Set("recvWindow", "5000")
		q.Set("signature", c.sign(q.Encode()))
	}

	u := c.baseURL + path
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *RESTClient) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
