package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"taometrics/internal/domain/models"
	domrepo "taometrics/internal/domain/repository"
	"taometrics/internal/service/ratelimit"
	"taometrics/internal/service/taostats"
	"taometrics/pkg/fallback"
	xhttp "taometrics/pkg/http"
	xlogger "taometrics/pkg/logger"

	"github.com/labstack/echo/v4"
)

// cmcPlaceholders are the static last-resort payloads; the UI never sees a
// hard error for these display metrics.
var cmcPlaceholders = map[string]json.RawMessage{
	"fng":    json.RawMessage(`{"value": 50, "classification": "Neutral"}`),
	"tao":    json.RawMessage(`{"price": 0, "percent_change_24h": 0}`),
	"global": json.RawMessage(`{"total_market_cap": 0, "btc_dominance": 0}`),
}

// ProxyHandler serves the third-party provider endpoints.
type ProxyHandler struct {
	logger   *xlogger.Logger
	store    domrepo.MetricStore
	taostats *taostats.Client
	limiter  *ratelimit.Limiter
	now      func() time.Time
}

func NewProxyHandler(logger *xlogger.Logger, store domrepo.MetricStore, ts *taostats.Client, limiter *ratelimit.Limiter) *ProxyHandler {
	return &ProxyHandler{
		logger:   logger,
		store:    store,
		taostats: ts,
		limiter:  limiter,
		now:      time.Now,
	}
}

func (h *ProxyHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/cmc", h.CMC)
	g.GET("/taostats", h.Taostats)
}

// CMC sub-selects one section of the cached provider payload, degrading
// from cache to a static placeholder.
func (h *ProxyHandler) CMC(c echo.Context) error {
	req := &models.CMCRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := fallback.Resolve(c.Request().Context(),
		fallback.Supplier[json.RawMessage]{
			Source: "cache",
			Fn: func(ctx context.Context) (json.RawMessage, error) {
				return h.cmcSection(ctx, req.Type)
			},
		},
		fallback.Static("placeholder", cmcPlaceholders[req.Type]),
	)
	if err != nil {
		h.logger.Error("cmc resolve failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	status := "ok"
	if res.Degraded {
		status = "partial"
	}
	return xhttp.JSON(c, map[string]any{
		"type":       req.Type,
		"data":       res.Value,
		"_source":    res.Source,
		"_timestamp": h.now().UTC().Format(time.RFC3339),
		"_status":    status,
	}, time.Minute)
}

func (h *ProxyHandler) cmcSection(ctx context.Context, section string) (json.RawMessage, error) {
	var cache map[string]json.RawMessage
	if err := h.store.GetJSON(ctx, domrepo.KeyCMCCache, &cache); err != nil {
		return nil, err
	}
	payload, ok := cache[section]
	if !ok {
		return nil, errors.New("section missing from cache")
	}
	return payload, nil
}

// Taostats relays an allowlisted upstream endpoint with key failover.
func (h *ProxyHandler) Taostats(c echo.Context) error {
	req := &models.TaostatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if h.limiter != nil && !h.limiter.Allow("taostats:"+req.Endpoint, 10, 0.5) {
		return xhttp.ErrorResponse(c, http.StatusTooManyRequests, "rate limited", "slow down")
	}

	res, err := h.taostats.Fetch(c.Request().Context(), req.Endpoint)
	if err != nil {
		switch {
		case errors.Is(err, taostats.ErrNotAllowed):
			return xhttp.ErrorResponse(c, http.StatusBadRequest, "invalid request", "endpoint not allowed")
		case errors.Is(err, taostats.ErrUnavailable):
			return xhttp.ErrorResponse(c, http.StatusBadGateway, "upstream unavailable", err.Error())
		default:
			h.logger.Error("taostats proxy failed", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
	}

	c.Response().Header().Set("X-Source", res.Source)
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=30")
	return c.JSONBlob(http.StatusOK, res.Payload)
}
