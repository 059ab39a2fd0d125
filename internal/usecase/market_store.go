package usecase

import (
	"sort"
	"strings"
	"sync"

	"BlueprintScan/internal/domain/models"
	drepo "BlueprintScan/internal/domain/repository"
)

// SymbolStore is the in-memory per-symbol view of the feed: the latest
// snapshot per instrument and the latest closed candle per
// (symbol, interval). It is the only shared mutable state in the
// system; every read returns an independent copy.
type SymbolStore struct {
	mu         sync.RWMutex
	quoteAsset string
	snapshots  map[string]models.InstrumentSnapshot
	arrival    map[string]int // insertion order, for stable volume ties
	seq        int
	candles    map[candleKey]models.Candle
	metrics    drepo.Metrics
}

type candleKey struct {
	symbol   string
	interval string
}

// NewSymbolStore creates a store tracking instruments quoted in
// quoteAsset (e.g. "USDT").
func NewSymbolStore(quoteAsset string, metrics drepo.Metrics) *SymbolStore {
	return &SymbolStore{
		quoteAsset: quoteAsset,
		snapshots:  make(map[string]models.InstrumentSnapshot),
		arrival:    make(map[string]int),
		candles:    make(map[candleKey]models.Candle),
		metrics:    metrics,
	}
}

// ApplyTickerBatch upserts each update whose symbol carries the tracked
// quote suffix and returns a copy of the full current snapshot set.
func (s *SymbolStore) ApplyTickerBatch(updates []models.InstrumentSnapshot) []models.InstrumentSnapshot {
	s.mu.Lock()
	applied := 0
	for _, u := range updates {
		if !strings.HasSuffix(u.Symbol, s.quoteAsset) {
			continue
		}
		if _, seen := s.arrival[u.Symbol]; !seen {
			s.arrival[u.Symbol] = s.seq
			s.seq++
		}
		s.snapshots[u.Symbol] = u
		applied++
	}
	out := s.snapshotSliceLocked()
	s.mu.Unlock()

	if s.metrics != nil && applied > 0 {
		s.metrics.RecordTicks(applied)
	}
	return out
}

// ApplyClosedCandle stores one candle for (symbol, interval),
// overwriting the previous one. Candles not flagged closed are
// discarded.
func (s *SymbolStore) ApplyClosedCandle(c models.Candle) bool {
	if !c.Closed {
		return false
	}
	s.mu.Lock()
	s.candles[candleKey{c.Symbol, c.Interval}] = c
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordCandle(c.Interval)
	}
	return true
}

// TopByVolume returns the n symbols with the greatest 24h volume, ties
// broken by arrival order.
func (s *SymbolStore) TopByVolume(n int) []string {
	s.mu.RLock()
	snaps := s.snapshotSliceLocked()
	order := make(map[string]int, len(s.arrival))
	for sym, i := range s.arrival {
		order[sym] = i
	}
	s.mu.RUnlock()

	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].Volume != snaps[j].Volume {
			return snaps[i].Volume > snaps[j].Volume
		}
		return order[snaps[i].Symbol] < order[snaps[j].Symbol]
	})

	if n > len(snaps) {
		n = len(snaps)
	}
	symbols := make([]string, 0, n)
	for _, snap := range snaps[:n] {
		symbols = append(symbols, snap.Symbol)
	}
	return symbols
}

// Snapshots returns a copy of all current snapshots keyed by symbol.
func (s *SymbolStore) Snapshots() map[string]models.InstrumentSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.InstrumentSnapshot, len(s.snapshots))
	for sym, snap := range s.snapshots {
		out[sym] = snap
	}
	return out
}

// Snapshot returns one symbol's snapshot, if present.
func (s *SymbolStore) Snapshot(symbol string) (models.InstrumentSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[symbol]
	return snap, ok
}

// Candles returns a copy of the stored candles for one interval.
func (s *SymbolStore) Candles(interval drepo.Interval) map[string]models.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Candle)
	for key, c := range s.candles {
		if key.interval == string(interval) {
			out[key.symbol] = c
		}
	}
	return out
}

// Len reports how many instruments are tracked.
func (s *SymbolStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// Reset drops all state. Entries are never deleted otherwise.
func (s *SymbolStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = make(map[string]models.InstrumentSnapshot)
	s.arrival = make(map[string]int)
	s.candles = make(map[candleKey]models.Candle)
	s.seq = 0
}

func (s *SymbolStore) snapshotSliceLocked() []models.InstrumentSnapshot {
	out := make([]models.InstrumentSnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	return out
}
