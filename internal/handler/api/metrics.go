package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"taometrics/internal/domain/models"
	domrepo "taometrics/internal/domain/repository"
	"taometrics/internal/usecase"
	xhttp "taometrics/pkg/http"
	"taometrics/pkg/kv"
	xlogger "taometrics/pkg/logger"

	"github.com/labstack/echo/v4"
)

// historyRoutes maps endpoint names to their KV history keys.
var historyRoutes = map[string]string{
	"top_subnets_history":      domrepo.KeyTopSubnetsHistory,
	"top_wallets_history":      domrepo.KeyTopWalletsHistory,
	"top_validators_history":   domrepo.KeyTopValidatorsHistory,
	"mcap_history":             domrepo.KeyMcapHistory,
	"alpha_pressure_history":   domrepo.KeyAlphaPressureHistory,
	"decentralization_history": domrepo.KeyDecentralizationHist,
}

// MetricsHandler serves the derived-metric endpoints over the KV store.
type MetricsHandler struct {
	logger           *xlogger.Logger
	pressure         *usecase.AlphaPressureUseCase
	decentralization *usecase.DecentralizationUseCase
	halving          *usecase.HalvingUseCase
	history          *usecase.HistoryUseCase
	writeToken       string
	now              func() time.Time
}

func NewMetricsHandler(
	logger *xlogger.Logger,
	pressure *usecase.AlphaPressureUseCase,
	decentralization *usecase.DecentralizationUseCase,
	halving *usecase.HalvingUseCase,
	history *usecase.HistoryUseCase,
	writeToken string,
) *MetricsHandler {
	return &MetricsHandler{
		logger:           logger,
		pressure:         pressure,
		decentralization: decentralization,
		halving:          halving,
		history:          history,
		writeToken:       writeToken,
		now:              time.Now,
	}
}

func (h *MetricsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/alpha_pressure", h.AlphaPressure)
	g.GET("/decentralization", h.Decentralization)
	g.GET("/halving", h.Halving)
	for name, key := range historyRoutes {
		key := key
		g.GET("/"+name, func(c echo.Context) error { return h.getHistory(c, key) })
		g.POST("/"+name, func(c echo.Context) error { return h.postHistory(c, key) })
	}
}

func (h *MetricsHandler) AlphaPressure(c echo.Context) error {
	req := &models.AlphaPressureRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	netuids, err := parseNetuids(req.Netuids)
	if err != nil {
		return xhttp.ErrorResponse(c, 400, "invalid request", err.Error())
	}

	resp, err := h.pressure.Compute(c.Request().Context(), usecase.AlphaPressureParams{
		Netuids: netuids,
		Sort:    req.Sort,
		Limit:   req.Limit,
	})
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return xhttp.NotFoundEmpty(c, domrepo.KeyTopSubnets)
		}
		h.logger.Error("alpha pressure failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	resp.Provenance = h.provenance("kv", "ok")
	return xhttp.JSON(c, resp, 30*time.Second)
}

func (h *MetricsHandler) Decentralization(c echo.Context) error {
	score, err := h.decentralization.Get(c.Request().Context())
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return xhttp.NotFoundEmpty(c, domrepo.KeyDecentralizationScore)
		}
		h.logger.Error("decentralization failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	status := "ok"
	if score.WalletScore == nil || score.ValidatorScore == nil || score.SubnetScore == nil {
		status = "partial"
	}
	score.Provenance = h.provenance("kv", status)
	return xhttp.JSON(c, score, 5*time.Minute)
}

func (h *MetricsHandler) Halving(c echo.Context) error {
	resp, err := h.halving.Compute(c.Request().Context())
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return xhttp.NotFoundEmpty(c, domrepo.KeyIssuanceHistory)
		}
		h.logger.Error("halving failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	resp.Provenance = h.provenance("kv", "ok")
	return xhttp.JSON(c, resp, 10*time.Minute)
}

func (h *MetricsHandler) getHistory(c echo.Context, key string) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var (
		entries []models.HistoryEntry
		err     error
		source  = "kv"
	)
	if req.Source == "archive" {
		source = "archive"
		entries, err = h.history.Archived(c.Request().Context(), key, req.Days)
	} else {
		entries, err = h.history.Recent(c.Request().Context(), key, req.Limit)
	}
	if err != nil {
		h.logger.Error("history read failed", xlogger.String("key", key), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if len(entries) == 0 {
		return xhttp.NotFoundEmpty(c, key)
	}

	resp := map[string]any{
		"history":    entries,
		"count":      len(entries),
		"_source":    source,
		"_timestamp": h.now().UTC().Format(time.RFC3339),
		"_status":    "ok",
	}
	if deltas := usecase.RankMovement(entries); deltas != nil {
		resp["deltas"] = deltas
	}
	return xhttp.JSON(c, resp, time.Minute)
}

func (h *MetricsHandler) postHistory(c echo.Context, key string) error {
	if h.writeToken != "" && c.Request().Header.Get("X-WRITE-TOKEN") != h.writeToken {
		return xhttp.ErrorResponse(c, 401, "unauthorized", "missing or invalid write token")
	}

	entries, err := decodeHistoryBody(c)
	if err != nil {
		return xhttp.ErrorResponse(c, 400, "invalid request", err.Error())
	}
	if len(entries) == 0 {
		return xhttp.ErrorResponse(c, 400, "invalid request", "no entries supplied")
	}

	merged, err := h.history.Append(c.Request().Context(), key, entries)
	if err != nil {
		h.logger.Error("history append failed", xlogger.String("key", key), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.JSON(c, map[string]any{
		"stored":     len(entries),
		"total":      len(merged),
		"_timestamp": h.now().UTC().Format(time.RFC3339),
		"_status":    "ok",
	}, 0)
}

func (h *MetricsHandler) provenance(source, status string) models.Provenance {
	return models.Provenance{
		Source:    source,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Status:    status,
	}
}

func parseNetuids(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.New("netuids must be a comma-separated list of integers")
		}
		out = append(out, id)
	}
	return out, nil
}

func decodeHistoryBody(c echo.Context) ([]models.HistoryEntry, error) {
	var body any
	if err := c.Bind(&body); err != nil {
		return nil, errors.New("body must be a JSON object or array")
	}
	switch v := body.(type) {
	case map[string]any:
		return []models.HistoryEntry{models.HistoryEntry(v)}, nil
	case []any:
		entries := make([]models.HistoryEntry, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, errors.New("array items must be JSON objects")
			}
			entries = append(entries, models.HistoryEntry(m))
		}
		return entries, nil
	default:
		return nil, errors.New("body must be a JSON object or array")
	}
}
