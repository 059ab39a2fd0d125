package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"BlueprintScan/internal/domain/models"
	"BlueprintScan/internal/usecase"
	pkghttp "BlueprintScan/pkg/http"
	"BlueprintScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Handler exposes the screener over HTTP: one-shot scans, a server-sent
// event stream backed by hub subscriptions, and operational endpoints.
type Handler struct {
	hub       *usecase.Hub
	collector *usecase.FeedCollector
	store     *usecase.SymbolStore
	log       *logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(hub *usecase.Hub, collector *usecase.FeedCollector, store *usecase.SymbolStore, log *logger.Logger) *Handler {
	return &Handler{
		hub:       hub,
		collector: collector,
		store:     store,
		log:       log,
	}
}

// RegisterRoutes registers API routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)

	api := e.Group("/api")
	api.GET("/blueprints", h.getBlueprints)
	api.GET("/blueprints/stream", h.streamBlueprints)
	api.GET("/symbols/top", h.getTopSymbols)
	api.GET("/status", h.getStatus)
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getBlueprints runs one scan over the current working set.
func (h *Handler) getBlueprints(c echo.Context) error {
	req := new(models.BlueprintsRequest)
	if errs := pkghttp.ReadAndValidateRequest(c, req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}

	res := h.hub.Query(subscriptionConfig(req))
	if res.TotalScanned == 0 && res.Status.Degraded {
		return pkghttp.AppErrorResponse(c, pkghttp.ServiceUnavailableError("market feed degraded"))
	}
	if len(res.Findings) > req.Limit {
		res.Findings = res.Findings[:req.Limit]
	}
	return pkghttp.SuccessResponse(c, res)
}

// streamBlueprints delivers hub updates as server-sent events until the
// client disconnects.
func (h *Handler) streamBlueprints(c echo.Context) error {
	req := new(models.BlueprintsRequest)
	if errs := pkghttp.ReadAndValidateRequest(c, req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	// the hub delivers from its own goroutines; hand results over a
	// buffered channel and let a stale update be dropped rather than
	// block delivery to other subscribers
	updates := make(chan models.ScanResult, 4)
	id := h.hub.Subscribe(subscriptionConfig(req), func(r models.ScanResult) {
		select {
		case updates <- r:
		default:
		}
	})
	defer h.hub.Unsubscribe(id)

	h.log.Debug("sse subscriber attached", logger.String("subscription", id))

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-updates:
			b, err := json.Marshal(r)
			if err != nil {
				h.log.Warn("sse marshal failed", logger.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", b); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

// getTopSymbols returns the n most traded instruments, ranked by 24h
// volume with ties broken by arrival order.
func (h *Handler) getTopSymbols(c echo.Context) error {
	req := new(models.TopSymbolsRequest)
	if errs := pkghttp.ReadAndValidateRequest(c, req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}

	symbols := h.store.TopByVolume(req.N)
	out := make([]models.InstrumentSnapshot, 0, len(symbols))
	for _, sym := range symbols {
		if snap, ok := h.store.Snapshot(sym); ok {
			out = append(out, snap)
		}
	}
	return pkghttp.SuccessResponse(c, out)
}

func (h *Handler) getStatus(c echo.Context) error {
	return pkghttp.SuccessResponse(c, map[string]interface{}{
		"feed":        h.collector.Status(),
		"instruments": h.store.Len(),
		"workingSet":  h.collector.WorkingSet(),
		"subscribers": h.hub.SubscriberCount(),
	})
}

func subscriptionConfig(req *models.BlueprintsRequest) models.SubscriptionConfig {
	return models.SubscriptionConfig{
		BlueprintFilter:  req.Blueprint,
		ConfidenceFilter: models.Confidence(req.Confidence),
		SortKey:          models.SortKey(req.Sort),
	}
}
