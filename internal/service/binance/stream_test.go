package binance

import (
	"testing"

	"github.com/gorilla/websocket"
)

// A reader goroutine from a torn-down connection can report its failure
// after a newer connection is already up; it must not clear the newer
// connection's state.
func TestKlineMarkDisconnectedIgnoresStaleConnection(t *testing.T) {
	stale := &websocket.Conn{}
	fresh := &websocket.Conn{}

	s := &KlineStream{conn: fresh, connected: true}
	s.markDisconnected(stale)
	if !s.IsConnected() {
		t.Fatalf("stale reader must not clear a newer connection")
	}

	s.markDisconnected(fresh)
	if s.IsConnected() {
		t.Fatalf("owning reader must clear its connection")
	}
}

func TestTickerMarkDisconnectedIgnoresStaleConnection(t *testing.T) {
	stale := &websocket.Conn{}
	fresh := &websocket.Conn{}

	s := &TickerStream{conn: fresh, connected: true}
	s.markDisconnected(stale)
	if !s.IsConnected() {
		t.Fatalf("stale reader must not clear a newer connection")
	}

	s.markDisconnected(fresh)
	if s.IsConnected() {
		t.Fatalf("owning reader must clear its connection")
	}
}
