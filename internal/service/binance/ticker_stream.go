package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"BlueprintScan/internal/domain/models"
	drepo "BlueprintScan/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// TickerStream subscribes to the aggregate 24h ticker feed covering
// every instrument on the exchange.
type TickerStream struct {
	wsURL        string
	pingInterval time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewTickerStream creates an aggregate ticker stream client.
func NewTickerStream(wsURL string, pingInterval time.Duration) drepo.TickerStream {
	return &TickerStream{
		wsURL:        wsURL,
		pingInterval: pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (s *TickerStream) Connect(ctx context.Context) error {
	u := s.wsURL + "/ws/!ticker@arr"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("ticker stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	return nil
}

// Read streams parsed ticker batches. Malformed entries inside a batch
// are dropped; a frame that fails to decode entirely is skipped.
func (s *TickerStream) Read(ctx context.Context) (<-chan []models.InstrumentSnapshot, <-chan error) {
	batches := make(chan []models.InstrumentSnapshot, 64)
	errs := make(chan error, 1)

	go s.pingLoop(ctx)

	go func() {
		defer close(batches)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			conn := s.current()
			if conn == nil {
				errs <- fmt.Errorf("ticker stream: not connected")
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				s.markDisconnected(conn)
				errs <- fmt.Errorf("ticker stream read: %w", err)
				return
			}

			var raw []wsTicker
			if err := json.Unmarshal(b, &raw); err != nil {
				// non-array frames (subscription acks etc.) are not tickers
				continue
			}

			batch := make([]models.InstrumentSnapshot, 0, len(raw))
			for _, t := range raw {
				snap, err := parseTicker(t)
				if err != nil {
					continue
				}
				batch = append(batch, snap)
			}
			if len(batch) == 0 {
				continue
			}

			select {
			case batches <- batch:
			default:
				// drop on backpressure; the next batch supersedes it anyway
			}
		}
	}()

	return batches, errs
}

func (s *TickerStream) pingLoop(ctx context.Context) {
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

func (s *TickerStream) current() *websocket.Conn {
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
func (s *TickerStream) markDisconnected(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.connected = false
	}
	s.mu.Unlock()
}

// Close closes the WS connection.
func (s *TickerStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *TickerStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
