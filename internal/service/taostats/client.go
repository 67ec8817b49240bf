package taostats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domrepo "taometrics/internal/domain/repository"
	pkghttp "taometrics/pkg/http"
	applogger "taometrics/pkg/logger"
	"taometrics/pkg/metrics"
)

// ErrNotAllowed rejects endpoints outside the proxy allowlist.
var ErrNotAllowed = errors.New("taostats: endpoint not allowed")

// ErrUnavailable means neither the live provider nor the last-known-good
// cache could serve the endpoint.
var ErrUnavailable = errors.New("taostats: upstream unavailable")

// allowedEndpoints are the upstream paths the proxy will relay. Anything
// else is rejected before a request is made.
var allowedEndpoints = map[string]bool{
	"price/latest/v1":          true,
	"account/latest/v1":        true,
	"validator/latest/v1":      true,
	"dtao/validator/latest/v1": true,
	"subnet/latest/v1":         true,
	"stats/latest/v1":          true,
	"block/v1":                 true,
	"transfer/v1":              true,
	"identity/latest/v1":       true,
	"exchange/v1":              true,
}

// Config holds the proxy's upstream settings.
type Config struct {
	BaseURL      string
	APIKey       string
	BackupAPIKey string
	Timeout      time.Duration
	CacheTTL     time.Duration
}

// Result is a relayed payload with its provenance.
type Result struct {
	Payload []byte
	Source  string // "live" or "cache"
}

// Client proxies the Taostats REST API with primary/backup key failover and
// a last-known-good KV fallback.
type Client struct {
	http  *pkghttp.Client
	store domrepo.MetricStore
	rec   *metrics.Recorder
	log   *applogger.Logger
	cfg   Config
}

func New(cfg Config, store domrepo.MetricStore, rec *metrics.Recorder, log *applogger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.taostats.io/api"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Client{
		http:  pkghttp.NewClient(pkghttp.WithClientTimeout(cfg.Timeout)),
		store: store,
		rec:   rec,
		log:   log,
		cfg:   cfg,
	}
}

// Allowed reports whether the endpoint path (query string ignored) is on
// the proxy allowlist.
func Allowed(endpoint string) bool {
	path := strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return allowedEndpoints[path]
}

// Fetch relays one endpoint. On a quota or auth rejection (429/403) with
// the primary key it retries once with the backup key; when the upstream is
// unreachable it degrades to the last-known-good cached payload.
func (c *Client) Fetch(ctx context.Context, endpoint string) (*Result, error) {
	if !Allowed(endpoint) {
		return nil, ErrNotAllowed
	}
	endpoint = strings.TrimPrefix(endpoint, "/")

	payload, err := c.fetchWithKey(ctx, endpoint, c.cfg.APIKey)
	if err != nil && c.cfg.BackupAPIKey != "" && isKeyRejection(err) {
		if c.rec != nil {
			c.rec.RecordProviderFailover("taostats")
		}
		if c.log != nil {
			c.log.Warn("taostats primary key rejected, failing over",
				applogger.String("endpoint", endpoint),
				applogger.Error(err),
			)
		}
		payload, err = c.fetchWithKey(ctx, endpoint, c.cfg.BackupAPIKey)
	}

	if err == nil {
		c.storeLastGood(ctx, endpoint, payload)
		return &Result{Payload: payload, Source: "live"}, nil
	}

	if cached, ok := c.lastGood(ctx, endpoint); ok {
		if c.log != nil {
			c.log.Warn("taostats live fetch failed, serving cached payload",
				applogger.String("endpoint", endpoint),
				applogger.Error(err),
			)
		}
		return &Result{Payload: cached, Source: "cache"}, nil
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
}

func (c *Client) fetchWithKey(ctx context.Context, endpoint, key string) ([]byte, error) {
	var raw []byte
	err := c.http.GetJSON(ctx, &pkghttp.RequestOptions{
		URL: c.cfg.BaseURL + "/" + endpoint,
		Headers: map[string]string{
			"Authorization": key,
		},
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("taostats: malformed response for %s", endpoint)
	}
	return raw, nil
}

func isKeyRejection(err error) bool {
	var se *pkghttp.StatusError
	if errors.As(err, &se) {
		return se.Status == 429 || se.Status == 403
	}
	return false
}

func (c *Client) storeLastGood(ctx context.Context, endpoint string, payload []byte) {
	if c.store == nil {
		return
	}
	key := domrepo.KeyTaostatsLastGoodPrefix + endpoint
	if err := c.store.PutJSON(ctx, key, json.RawMessage(payload), c.cfg.CacheTTL); err != nil && c.log != nil {
		c.log.Warn("failed to cache taostats payload", applogger.String("key", key), applogger.Error(err))
	}
}

func (c *Client) lastGood(ctx context.Context, endpoint string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	raw, err := c.store.GetRaw(ctx, domrepo.KeyTaostatsLastGoodPrefix+endpoint)
	if err != nil {
		return nil, false
	}
	return raw, true
}
