package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	domrepo "taometrics/internal/domain/repository"
	"taometrics/internal/repository"
	"taometrics/internal/service/ratelimit"
	"taometrics/internal/service/taostats"
	"taometrics/pkg/kv"
	applogger "taometrics/pkg/logger"

	"github.com/labstack/echo/v4"
)

func newProxyServer(t *testing.T, upstream string) (*echo.Echo, domrepo.MetricStore) {
	t.Helper()
	store := repository.NewKVMetricStore(kv.NewMemoryStore(), applogger.Nop(), nil, 0)
	log := applogger.Nop()

	ts := taostats.New(taostats.Config{
		BaseURL: upstream,
		APIKey:  "key",
	}, store, nil, log)

	h := NewProxyHandler(log, store, ts, ratelimit.New())
	e := echo.New()
	h.RegisterRoutes(e)
	return e, store
}

func TestCMCServesCachedSection(t *testing.T) {
	e, store := newProxyServer(t, "http://unused")

	cache := map[string]json.RawMessage{
		"fng": json.RawMessage(`{"value": 71, "classification": "Greed"}`),
	}
	if err := store.PutJSON(context.Background(), domrepo.KeyCMCCache, cache, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doRequest(e, http.MethodGet, "/api/cmc?type=fng", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data   map[string]any `json:"data"`
		Source string         `json:"_source"`
		Status string         `json:"_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Source != "cache" || body.Status != "ok" {
		t.Fatalf("provenance = %s/%s, want cache/ok", body.Source, body.Status)
	}
	if body.Data["classification"] != "Greed" {
		t.Fatalf("data = %v", body.Data)
	}
}

func TestCMCDegradesToPlaceholder(t *testing.T) {
	e, _ := newProxyServer(t, "http://unused")

	rec := doRequest(e, http.MethodGet, "/api/cmc?type=fng", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("empty cache must still answer, status = %d", rec.Code)
	}
	var body struct {
		Data   map[string]any `json:"data"`
		Source string         `json:"_source"`
		Status string         `json:"_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Source != "placeholder" || body.Status != "partial" {
		t.Fatalf("provenance = %s/%s, want placeholder/partial", body.Source, body.Status)
	}
	if body.Data["value"] != 50.0 {
		t.Fatalf("placeholder value = %v, want 50", body.Data["value"])
	}
}

func TestCMCRejectsUnknownType(t *testing.T) {
	e, _ := newProxyServer(t, "http://unused")
	rec := doRequest(e, http.MethodGet, "/api/cmc?type=doge", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTaostatsProxyRelaysUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price": 412.5}`))
	}))
	defer upstream.Close()

	e, _ := newProxyServer(t, upstream.URL)
	rec := doRequest(e, http.MethodGet, "/api/taostats?endpoint=price/latest/v1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Source") != "live" {
		t.Fatalf("X-Source = %s, want live", rec.Header().Get("X-Source"))
	}
}

func TestTaostatsProxyRejectsUnlistedEndpoint(t *testing.T) {
	e, _ := newProxyServer(t, "http://unused")
	rec := doRequest(e, http.MethodGet, "/api/taostats?endpoint=internal/keys", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTaostatsProxyBadGatewayWhenDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	e, _ := newProxyServer(t, upstream.URL)
	rec := doRequest(e, http.MethodGet, "/api/taostats?endpoint=block/v1", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}
