package usecase

import (
	"sort"
	"strings"
	"sync"
	"time"

	"BlueprintScan/internal/domain/models"
	drepo "BlueprintScan/internal/domain/repository"
	"BlueprintScan/internal/services/screener"
	"BlueprintScan/pkg/logger"

	"github.com/google/uuid"
)

// Hub fans recomputed findings out to subscribers. Every subscriber
// carries its own filter/sort configuration and a trailing-edge
// throttle: state changes inside the window schedule exactly one
// delayed recomputation that runs against the latest state.
type Hub struct {
	store    *SymbolStore
	baseline *BaselineProvider
	metrics  drepo.Metrics
	log      *logger.Logger
	window   time.Duration
	topN     int

	mu       sync.Mutex
	subs     map[string]*subscriber
	statusFn func() models.FeedStatus
}

type subscriber struct {
	id           string
	cfg          models.SubscriptionConfig
	callback     func(models.ScanResult)
	lastDelivery time.Time
	pending      *time.Timer
}

// NewHub creates a hub delivering over the top-N instruments by volume,
// throttled per subscriber to one delivery per window.
func NewHub(store *SymbolStore, baseline *BaselineProvider, metrics drepo.Metrics, log *logger.Logger, window time.Duration, topN int) *Hub {
	return &Hub{
		store:    store,
		baseline: baseline,
		metrics:  metrics,
		log:      log,
		window:   window,
		topN:     topN,
		subs:     make(map[string]*subscriber),
		statusFn: func() models.FeedStatus { return models.FeedStatus{} },
	}
}

// SetStatusFunc injects the connectivity status source reported in
// every delivery.
func (h *Hub) SetStatusFunc(fn func() models.FeedStatus) {
	h.mu.Lock()
	h.statusFn = fn
	h.mu.Unlock()
}

// Subscribe registers a consumer and returns its subscription id. If
// snapshot data already exists the first delivery happens synchronously
// before any change-triggered one.
func (h *Hub) Subscribe(cfg models.SubscriptionConfig, callback func(models.ScanResult)) string {
	sub := &subscriber{
		id:       uuid.NewString(),
		cfg:      cfg,
		callback: callback,
	}
	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()

	if h.store.Len() > 0 {
		h.deliver(sub)
	}
	return sub.id
}

// Unsubscribe removes a consumer and cancels its pending delivery.
// Unknown ids and repeated calls are no-ops.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	if sub.pending != nil {
		sub.pending.Stop()
		sub.pending = nil
	}
	delete(h.subs, id)
}

// Notify signals a state change. Each subscriber either gets an
// immediate delivery (window elapsed) or a single scheduled one at the
// window edge; an already-scheduled delivery absorbs the change.
func (h *Hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	for _, sub := range h.subs {
		if sub.pending != nil {
			continue
		}
		elapsed := now.Sub(sub.lastDelivery)
		if elapsed >= h.window {
			go h.deliver(sub)
			// mark delivery up front so a burst of notifies cannot
			// schedule a second concurrent run
			sub.lastDelivery = now
			continue
		}
		sub := sub
		sub.pending = time.AfterFunc(h.window-elapsed, func() {
			h.mu.Lock()
			if _, alive := h.subs[sub.id]; !alive {
				h.mu.Unlock()
				return
			}
			sub.pending = nil
			sub.lastDelivery = time.Now()
			h.mu.Unlock()
			h.deliver(sub)
		})
	}
}

// SubscriberCount reports the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Stop cancels all pending deliveries and removes every subscriber.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		if sub.pending != nil {
			sub.pending.Stop()
			sub.pending = nil
		}
		delete(h.subs, id)
	}
}

// Query runs one classification pass restricted to the current top-N
// working set and returns the result filtered and sorted for cfg.
func (h *Hub) Query(cfg models.SubscriptionConfig) models.ScanResult {
	start := time.Now()
	findings, scanned := h.scan()
	findings = FilterFindings(findings, cfg)
	SortFindings(findings, cfg.SortKey)

	h.mu.Lock()
	status := h.statusFn()
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RecordLatency("scan", time.Since(start).Seconds())
	}
	return models.ScanResult{
		Findings:     findings,
		TotalFound:   len(findings),
		TotalScanned: scanned,
		Timestamp:    time.Now(),
		Status:       status,
	}
}

// deliver runs one pass for a subscriber. A panicking callback is
// isolated so it cannot break delivery to other subscribers.
func (h *Hub) deliver(sub *subscriber) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("subscriber callback panicked",
				logger.String("subscription", sub.id), logger.Any("panic", r))
			if h.metrics != nil {
				h.metrics.RecordError("subscriber_callback")
			}
		}
	}()

	res := h.Query(sub.cfg)

	h.mu.Lock()
	_, alive := h.subs[sub.id]
	if alive {
		sub.lastDelivery = time.Now()
	}
	h.mu.Unlock()
	if !alive {
		return
	}

	sub.callback(res)
	if h.metrics != nil {
		h.metrics.RecordFindings(len(res.Findings))
	}
}

// scan classifies the current top-N snapshots and returns all findings
// plus the number of instruments scanned.
func (h *Hub) scan() ([]models.Finding, int) {
	snapshots := h.store.Snapshots()
	working := h.store.TopByVolume(h.topN)

	findings := make([]models.Finding, 0)
	for _, symbol := range working {
		snap, ok := snapshots[symbol]
		if !ok {
			continue
		}
		adr := h.baseline.ADR(symbol, snap.Range())
		findings = append(findings, screener.Classify(snap, adr)...)
	}
	return findings, len(working)
}

// FilterFindings applies a subscriber's blueprint substring filter
// (case-insensitive) and exact confidence filter.
func FilterFindings(findings []models.Finding, cfg models.SubscriptionConfig) []models.Finding {
	blueprint := strings.ToLower(cfg.BlueprintFilter)
	out := make([]models.Finding, 0, len(findings))
	for _, f := range findings {
		if blueprint != "" && !strings.Contains(strings.ToLower(f.Blueprint), blueprint) {
			continue
		}
		if cfg.ConfidenceFilter != "" && f.Confidence != cfg.ConfidenceFilter {
			continue
		}
		out = append(out, f)
	}
	return out
}

// SortFindings orders findings in place by the subscriber's key.
func SortFindings(findings []models.Finding, key models.SortKey) {
	switch key {
	case models.SortBySymbol:
		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Symbol < findings[j].Symbol
		})
	case models.SortByPrice:
		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Price > findings[j].Price
		})
	case models.SortByChange:
		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].ChangePercent > findings[j].ChangePercent
		})
	case models.SortByConfidence:
		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Confidence.Rank() > findings[j].Confidence.Rank()
		})
	default: // volume
		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Volume > findings[j].Volume
		})
	}
}
