package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"BlueprintScan/internal/domain/models"
	drepo "BlueprintScan/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// KlineStream subscribes to candle updates for a bounded working set of
// symbols via a combined stream. Only closed candles are forwarded.
type KlineStream struct {
	wsURL        string
	pingInterval time.Duration
	maxStreams   int

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewKlineStream creates a candle stream client. maxStreams caps the
// number of per-symbol subscriptions carried on one connection.
func NewKlineStream(wsURL string, pingInterval time.Duration, maxStreams int) drepo.CandleStream {
	return &KlineStream{
		wsURL:        wsURL,
		pingInterval: pingInterval,
		maxStreams:   maxStreams,
	}
}

// Connect establishes a combined-stream connection for the working set.
func (s *KlineStream) Connect(ctx context.Context, symbols []string, interval drepo.Interval) error {
	if len(symbols) == 0 {
		return fmt.Errorf("kline stream: empty working set")
	}
	if len(symbols) > s.maxStreams {
		symbols = symbols[:s.maxStreams]
	}

	names := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		names = append(names, fmt.Sprintf("%s@kline_%s", strings.ToLower(sym), interval))
	}
	u := s.wsURL + "/stream?streams=" + strings.Join(names, "/")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("kline stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	return nil
}

// Read streams closed candles. Open candles and malformed frames are
// dropped.
func (s *KlineStream) Read(ctx context.Context) (<-chan models.Candle, <-chan error) {
	candles := make(chan models.Candle, 256)
	errs := make(chan error, 1)

	go s.pingLoop(ctx)

	go func() {
		defer close(candles)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			conn := s.current()
			if conn == nil {
				errs <- fmt.Errorf("kline stream: not connected")
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				s.markDisconnected(conn)
				errs <- fmt.Errorf("kline stream read: %w", err)
				return
			}

			var frame combinedFrame
			if err := json.Unmarshal(b, &frame); err != nil {
				continue
			}
			if frame.Data.EventType != "kline" || !frame.Data.Kline.Closed {
				continue
			}

			candle, err := parseKline(frame.Data.Kline)
			if err != nil {
				continue
			}

			select {
			case candles <- candle:
			case <-ctx.Done():
				return
			}
		}
	}()

	return candles, errs
}

func (s *KlineStream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if conn := s.current(); conn != nil {
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}
}

func (s *KlineStream) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	return s.conn
}

// markDisconnected clears state only for the connection the reader was
// using. A reader waking up after a reconnect must not clobber the
// newer connection's state.
func (s *KlineStream) markDisconnected(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.connected = false
	}
	s.mu.Unlock()
}

// Close closes the WS connection.
func (s *KlineStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *KlineStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
