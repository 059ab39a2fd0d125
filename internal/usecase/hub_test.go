package usecase

import (
	"sync"
	"testing"
	"time"

	"BlueprintScan/internal/domain/models"
)

// rejectionSnap classifies as a long rejection day against the ADR
// fallback, so hub deliveries are never empty in these tests.
func rejectionSnap(symbol string) models.InstrumentSnapshot {
	return models.InstrumentSnapshot{
		Symbol: symbol,
		Price:  99.5, Open: 98, High: 100, Low: 70, Close: 99.5,
		ChangePercent: 12, Volume: 2_000_000,
	}
}

type deliveryRecorder struct {
	mu      sync.Mutex
	results []models.ScanResult
}

func (r *deliveryRecorder) record(res models.ScanResult) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

func (r *deliveryRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *deliveryRecorder) last() models.ScanResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[len(r.results)-1]
}

func newTestHub(t *testing.T, window time.Duration, topN int) (*Hub, *SymbolStore) {
	t.Helper()
	store := NewSymbolStore("USDT", nopMetrics{})
	baseline := NewBaselineProvider(&fakeMarketData{}, nil, 20, time.Hour, testLogger(t))
	hub := NewHub(store, baseline, nopMetrics{}, testLogger(t), window, topN)
	return hub, store
}

func TestSubscribeDeliversImmediatelyWhenDataPresent(t *testing.T) {
	hub, store := newTestHub(t, time.Second, 10)
	store.ApplyTickerBatch([]models.InstrumentSnapshot{rejectionSnap("BTCUSDT")})

	rec := &deliveryRecorder{}
	hub.Subscribe(models.SubscriptionConfig{}, rec.record)

	if rec.count() != 1 {
		t.Fatalf("expected synchronous first delivery, got %d", rec.count())
	}
	res := rec.last()
	if res.TotalScanned != 1 || res.TotalFound == 0 {
		t.Fatalf("unexpected first delivery: %+v", res)
	}
}

func TestSubscribeDoesNotDeliverOnEmptyStore(t *testing.T) {
	hub, _ := newTestHub(t, time.Second, 10)
	rec := &deliveryRecorder{}
	hub.Subscribe(models.SubscriptionConfig{}, rec.record)
	if rec.count() != 0 {
		t.Fatalf("expected no delivery before any data, got %d", rec.count())
	}
}

func TestNotifyThrottleCoalescesBurst(t *testing.T) {
	hub, store := newTestHub(t, 100*time.Millisecond, 10)
	store.ApplyTickerBatch([]models.InstrumentSnapshot{rejectionSnap("BTCUSDT")})

	rec := &deliveryRecorder{}
	hub.Subscribe(models.SubscriptionConfig{}, rec.record)

	for i := 0; i < 5; i++ {
		hub.Notify()
	}
	time.Sleep(300 * time.Millisecond)

	// one immediate delivery at subscribe time plus exactly one
	// trailing-edge delivery for the whole burst
	if got := rec.count(); got != 2 {
		t.Fatalf("expected 2 deliveries, got %d", got)
	}
}

func TestThrottledDeliveryUsesLatestState(t *testing.T) {
	hub, store := newTestHub(t, 150*time.Millisecond, 10)
	store.ApplyTickerBatch([]models.InstrumentSnapshot{rejectionSnap("AAAUSDT")})

	rec := &deliveryRecorder{}
	hub.Subscribe(models.SubscriptionConfig{}, rec.record)

	// both notifies land inside one window; the store grows in between
	hub.Notify()
	store.ApplyTickerBatch([]models.InstrumentSnapshot{
		rejectionSnap("BBBUSDT"), rejectionSnap("CCCUSDT"),
	})
	hub.Notify()

	time.Sleep(400 * time.Millisecond)

	if got := rec.count(); got != 2 {
		t.Fatalf("expected immediate plus one trailing delivery, got %d", got)
	}
	last := rec.last()
	if last.TotalScanned != 3 {
		t.Fatalf("trailing delivery must scan the store as of fire time, got %d", last.TotalScanned)
	}
	seen := false
	for _, f := range last.Findings {
		if f.Symbol == "CCCUSDT" {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("trailing delivery missing symbol added inside the window: %+v", last.Findings)
	}
}

func TestUnsubscribeIsIdempotentAndCancelsPending(t *testing.T) {
	hub, store := newTestHub(t, 100*time.Millisecond, 10)
	store.ApplyTickerBatch([]models.InstrumentSnapshot{rejectionSnap("BTCUSDT")})

	rec := &deliveryRecorder{}
	id := hub.Subscribe(models.SubscriptionConfig{}, rec.record)

	hub.Notify()
	hub.Unsubscribe(id)
	hub.Unsubscribe(id)
	hub.Unsubscribe("no-such-id")

	time.Sleep(250 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Fatalf("pending delivery must be cancelled, got %d deliveries", got)
	}
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers left")
	}
}

func TestCallbackPanicIsIsolated(t *testing.T) {
	hub, store := newTestHub(t, time.Second, 10)
	store.ApplyTickerBatch([]models.InstrumentSnapshot{rejectionSnap("BTCUSDT")})

	hub.Subscribe(models.SubscriptionConfig{}, func(models.ScanResult) {
		panic("subscriber bug")
	})

	rec := &deliveryRecorder{}
	hub.Subscribe(models.SubscriptionConfig{}, rec.record)

	if rec.count() != 1 {
		t.Fatalf("healthy subscriber must still be delivered to, got %d", rec.count())
	}
	if hub.SubscriberCount() != 2 {
		t.Fatalf("panicking subscriber must not be evicted")
	}
}

func TestQueryScansOnlyTopN(t *testing.T) {
	hub, store := newTestHub(t, time.Second, 2)
	a := rejectionSnap("AAAUSDT")
	a.Volume = 3_000_000
	b := rejectionSnap("BBBUSDT")
	b.Volume = 2_000_000
	c := rejectionSnap("CCCUSDT")
	c.Volume = 1_000_000
	store.ApplyTickerBatch([]models.InstrumentSnapshot{a, b, c})

	res := hub.Query(models.SubscriptionConfig{})
	if res.TotalScanned != 2 {
		t.Fatalf("expected 2 instruments scanned, got %d", res.TotalScanned)
	}
	for _, f := range res.Findings {
		if f.Symbol == "CCCUSDT" {
			t.Fatalf("symbol outside the working set must not be scanned")
		}
	}
}

func TestFilterFindings(t *testing.T) {
	findings := []models.Finding{
		{Symbol: "A", Blueprint: models.BlueprintRejectionLong, Confidence: models.ConfidenceHigh},
		{Symbol: "B", Blueprint: models.BlueprintRejectionShort, Confidence: models.ConfidenceLow},
		{Symbol: "C", Blueprint: models.BlueprintStopRunHigh, Confidence: models.ConfidenceHigh},
	}

	got := FilterFindings(findings, models.SubscriptionConfig{BlueprintFilter: "rejection"})
	if len(got) != 2 {
		t.Fatalf("case-insensitive substring filter: expected 2, got %v", got)
	}

	got = FilterFindings(findings, models.SubscriptionConfig{ConfidenceFilter: models.ConfidenceHigh})
	if len(got) != 2 {
		t.Fatalf("confidence filter: expected 2, got %v", got)
	}

	got = FilterFindings(findings, models.SubscriptionConfig{
		BlueprintFilter:  "REJECTION",
		ConfidenceFilter: models.ConfidenceHigh,
	})
	if len(got) != 1 || got[0].Symbol != "A" {
		t.Fatalf("combined filter: expected only A, got %v", got)
	}
}

func TestSortFindings(t *testing.T) {
	findings := []models.Finding{
		{Symbol: "B", Price: 1, ChangePercent: -5, Volume: 10, Confidence: models.ConfidenceLow},
		{Symbol: "A", Price: 3, ChangePercent: 7, Volume: 30, Confidence: models.ConfidenceHigh},
		{Symbol: "C", Price: 2, ChangePercent: 2, Volume: 20, Confidence: models.ConfidenceMedium},
	}

	SortFindings(findings, models.SortBySymbol)
	if findings[0].Symbol != "A" || findings[2].Symbol != "C" {
		t.Fatalf("symbol sort wrong: %v", findings)
	}

	SortFindings(findings, models.SortByVolume)
	if findings[0].Volume != 30 {
		t.Fatalf("volume sort wrong: %v", findings)
	}

	SortFindings(findings, models.SortByChange)
	if findings[0].ChangePercent != 7 {
		t.Fatalf("change sort wrong: %v", findings)
	}

	SortFindings(findings, models.SortByPrice)
	if findings[0].Price != 3 {
		t.Fatalf("price sort wrong: %v", findings)
	}

	SortFindings(findings, models.SortByConfidence)
	if findings[0].Confidence != models.ConfidenceHigh || findings[2].Confidence != models.ConfidenceLow {
		t.Fatalf("confidence sort wrong: %v", findings)
	}
}
