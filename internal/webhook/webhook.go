// Package webhook delivers compliance alerts to a Discord or Slack incoming webhook.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/metrics"
)

// ErrDeliveryFailed is returned by Deliver after the final attempt fails.
var ErrDeliveryFailed = errors.New("webhook: delivery failed")

// Config controls delivery.
type Config struct {
	// URL is the incoming webhook endpoint. Empty disables delivery.
	URL string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first one fails.
	MaxRetries int

	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration

	// QueueSize bounds pending alerts. A full queue drops new alerts.
	QueueSize int
}

// DefaultConfig returns the standard delivery settings with no URL.
func DefaultConfig() Config {
	return Config{
		Timeout:    5 * time.Second,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		QueueSize:  100,
	}
}

// URLFromEnv returns DISCORD_WEBHOOK_URL, falling back to SLACK_WEBHOOK_URL.
func URLFromEnv() string {
	if url := os.Getenv("DISCORD_WEBHOOK_URL"); url != "" {
		return url
	}
	return os.Getenv("SLACK_WEBHOOK_URL")
}

// Alert is one queued notification.
type Alert struct {
	Title   string
	Message string
}

type payload struct {
	Content string `json:"content"`
}

// Client queues alerts and delivers them from a background worker.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logging.Logger
	metrics    *metrics.Metrics

	queue    chan Alert
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  bool
	mu       sync.Mutex
}

// New creates a client. Zero config fields take their defaults.
func New(cfg Config, log *logging.Logger, m *metrics.Metrics) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if log == nil {
		log = logging.NewDefault("webhook")
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
		metrics:    m,
		queue:      make(chan Alert, cfg.QueueSize),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Enabled reports whether a webhook URL is configured.
func (c *Client) Enabled() bool {
	return c.cfg.URL != ""
}

// SendAlert enqueues an alert and returns immediately.
func (c *Client) SendAlert(title, message string) {
	if !c.Enabled() {
		c.log.WithField("title", title).Debug("webhook url not configured, skipping notification")
		return
	}

	select {
	case <-c.stopCh:
		c.metrics.RecordWebhook("dropped")
		return
	default:
	}

	select {
	case c.queue <- Alert{Title: title, Message: message}:
	default:
		c.metrics.RecordWebhook("dropped")
		c.log.WithField("title", title).Warn("webhook queue full, dropping alert")
	}
}

// Start launches the delivery worker. It returns immediately.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	go c.run(ctx)
}

// Stop drains queued alerts and waits for the worker to exit.
func (c *Client) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })

	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if started {
		<-c.done
	}
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			c.drain(ctx)
			return
		case alert := <-c.queue:
			c.deliverAndLog(ctx, alert)
		}
	}
}

func (c *Client) drain(ctx context.Context) {
	for {
		select {
		case alert := <-c.queue:
			c.deliverAndLog(ctx, alert)
		default:
			return
		}
	}
}

func (c *Client) deliverAndLog(ctx context.Context, alert Alert) {
	if err := c.Deliver(ctx, alert); err != nil {
		c.metrics.RecordWebhook("failed")
		c.log.WithError(err).WithField("title", alert.Title).Error("max webhook retries reached")
		return
	}
	c.metrics.RecordWebhook("delivered")
}

// Deliver posts alert synchronously, retrying with a fixed delay.
func (c *Client) Deliver(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(payload{Content: fmt.Sprintf("**%s**\n%s", alert.Title, alert.Message)})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.WithFields(map[string]interface{}{
				"title":         alert.Title,
				"attempts_left": c.cfg.MaxRetries - attempt,
			}).Info("retrying webhook")

			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrDeliveryFailed, ctx.Err())
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		lastErr = c.post(ctx, body)
		if lastErr == nil {
			c.log.WithField("title", alert.Title).Info("webhook sent")
			return nil
		}
		c.log.WithError(lastErr).WithField("attempt", attempt+1).Warn("webhook attempt failed")
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrDeliveryFailed, c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
