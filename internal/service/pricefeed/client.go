package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	domrepo "taometrics/internal/domain/repository"
	pkghttp "taometrics/pkg/http"
	applogger "taometrics/pkg/logger"
	"taometrics/pkg/metrics"

	"github.com/gorilla/websocket"
)

// Config holds the price feed connection settings.
type Config struct {
	WebSocketURL   string
	RestURL        string
	Symbol         string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// Service keeps the tao_price KV key warm from the exchange ticker stream,
// degrading to REST snapshots whenever the stream drops.
type Service struct {
	cfg   Config
	store domrepo.MetricStore
	rec   *metrics.Recorder
	log   *applogger.Logger
	http  *pkghttp.Client
	now   func() time.Time

	conn      *websocket.Conn
	connected bool
}

func New(cfg Config, store domrepo.MetricStore, rec *metrics.Recorder, log *applogger.Logger) *Service {
	if cfg.Symbol == "" {
		cfg.Symbol = "TAOUSDT"
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Service{
		cfg:   cfg,
		store: store,
		rec:   rec,
		log:   log,
		http:  pkghttp.NewClient(pkghttp.WithClientTimeout(5 * time.Second)),
		now:   time.Now,
	}
}

// Run blocks until ctx is cancelled, reconnecting the stream as needed.
// Each connection failure first refreshes the price over REST so the key
// never goes stale while the stream is down.
func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.streamOnce(ctx); err != nil && s.log != nil {
			s.log.Warn("price stream interrupted", applogger.Error(err))
		}
		if err := s.restSnapshot(ctx); err != nil && s.log != nil {
			s.log.Warn("price rest fallback failed", applogger.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

func (s *Service) streamOnce(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	defer s.Close()
	return s.readLoop(ctx)
}

func (s *Service) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.WebSocketURL, nil)
	if err != nil {
		return fmt.Errorf("pricefeed connect: %w", err)
	}
	s.conn = conn
	s.connected = true

	sub := map[string]any{
		"method": "SUBSCRIBE",
		"params": []string{symbolStream(s.cfg.Symbol)},
		"id":     1,
	}
	if err := conn.WriteJSON(sub); err != nil {
		s.Close()
		return fmt.Errorf("pricefeed subscribe: %w", err)
	}
	if s.log != nil {
		s.log.Info("price stream connected", applogger.String("symbol", s.cfg.Symbol))
	}
	return nil
}

type tickerMessage struct {
	Symbol string `json:"s"`
	Last   string `json:"c"`
}

func (s *Service) readLoop(ctx context.Context) error {
	pinger := time.NewTicker(s.cfg.PingInterval)
	defer pinger.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pinger.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, b, err := s.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("pricefeed read: %w", err)
		}
		var m tickerMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Last == "" {
			// subscription acks and other non-ticker frames
			continue
		}
		price, err := strconv.ParseFloat(m.Last, 64)
		if err != nil {
			continue
		}
		if err := s.storePrice(ctx, price, "websocket"); err != nil && s.log != nil {
			s.log.Warn("price write failed", applogger.Error(err))
		}
	}
}

// restSnapshot fetches one point-in-time price over REST.
func (s *Service) restSnapshot(ctx context.Context) error {
	if s.cfg.RestURL == "" {
		return nil
	}
	var body struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	err := s.http.GetJSON(ctx, &pkghttp.RequestOptions{
		URL:         s.cfg.RestURL,
		QueryParams: map[string][]string{"symbol": {s.cfg.Symbol}},
	}, &body)
	if err != nil {
		return err
	}
	price, err := strconv.ParseFloat(body.Price, 64)
	if err != nil {
		return fmt.Errorf("pricefeed rest parse: %w", err)
	}
	return s.storePrice(ctx, price, "rest")
}

func (s *Service) storePrice(ctx context.Context, price float64, source string) error {
	payload := map[string]any{
		"usd":        price,
		"symbol":     s.cfg.Symbol,
		"_source":    source,
		"_timestamp": s.now().UTC().Format(time.RFC3339),
	}
	if err := s.store.PutJSON(ctx, domrepo.KeyTaoPrice, payload, 0); err != nil {
		return err
	}
	if s.rec != nil {
		s.rec.RecordLastPrice(price)
	}
	return nil
}

// Close closes the stream connection.
func (s *Service) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates stream status.
func (s *Service) IsConnected() bool { return s.connected }

func symbolStream(symbol string) string {
	return strings.ToLower(symbol) + "@ticker"
}
