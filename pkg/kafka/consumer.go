package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	applogger "taometrics/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, key, value []byte) error
}

// Consumer wraps a Kafka reader with a small worker pool. Messages that keep
// failing after RetryMax attempts are committed anyway: the batch pipeline
// republishes full snapshots each cycle, so a dropped message heals itself.
type Consumer struct {
	cfg      *ConsumerConfig
	handler  MessageHandler
	reader   *kafka.Reader
	log      *applogger.Logger
	msgChan  chan kafka.Message
	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(l *applogger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "taometrics",
		WorkerCount: 1,
		BufferSize:  16,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1e3,
		MaxBytes:    10e6,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: brokers required")
	}

	return &Consumer{
		cfg:      cfg,
		log:      l,
		msgChan:  make(chan kafka.Message, cfg.BufferSize),
		stopChan: make(chan struct{}),
	}, nil
}

// RegisterHandler sets the message handler. Must be called before Start.
func (c *Consumer) RegisterHandler(h MessageHandler) { c.handler = h }

// Start begins consuming. It blocks until Stop is called or the reader fails.
func (c *Consumer) Start(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("kafka consumer: no handler registered")
	}

	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.cfg.Brokers,
		GroupID:  c.cfg.GroupID,
		Topic:    c.handler.Topic(),
		MinBytes: c.cfg.MinBytes,
		MaxBytes: c.cfg.MaxBytes,
	})

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx)
	}

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			close(c.msgChan)
			c.wg.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}
		select {
		case c.msgChan <- m:
		case <-ctx.Done():
			close(c.msgChan)
			c.wg.Wait()
			return nil
		}
	}
}

// Stop closes the reader; Start returns once in-flight work drains.
func (c *Consumer) Stop(_ context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stopChan)
		if c.reader != nil {
			err = c.reader.Close()
		}
	})
	return err
}

func (c *Consumer) worker(ctx context.Context) {
	defer c.wg.Done()
	for m := range c.msgChan {
		c.handleWithRetry(ctx, m)
		if err := c.reader.CommitMessages(ctx, m); err != nil && c.log != nil {
			c.log.Warn("kafka commit failed", applogger.Error(err))
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, m kafka.Message) {
	var err error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
			case <-ctx.Done():
				return
			}
		}
		if err = c.handler.Handle(ctx, m.Key, m.Value); err == nil {
			return
		}
	}
	if c.log != nil {
		c.log.Error("kafka message dropped after retries",
			applogger.String("topic", m.Topic),
			applogger.String("key", string(m.Key)),
			applogger.Error(err),
		)
	}
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	d := min << (attempt - 1)
	if d > max || d <= 0 {
		d = max
	}
	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))
	return d/2 + jitter
}
