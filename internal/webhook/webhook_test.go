package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/stablecoin_layer/internal/logging"
)

func testConfig(url string) Config {
	return Config{URL: url, Timeout: time.Second, MaxRetries: 3, RetryDelay: time.Millisecond, QueueSize: 4}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
}

func TestURLFromEnvPrefersDiscord(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example/hook")
	t.Setenv("SLACK_WEBHOOK_URL", "https://slack.example/hook")
	assert.Equal(t, "https://discord.example/hook", URLFromEnv())

	t.Setenv("DISCORD_WEBHOOK_URL", "")
	assert.Equal(t, "https://slack.example/hook", URLFromEnv())
}

func TestDeliverPayloadFormat(t *testing.T) {
	var got payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(testConfig(server.URL), logging.NewDiscard(), nil)
	require.NoError(t, c.Deliver(context.Background(), Alert{Title: "Address Blacklisted", Message: "Address: `X`"}))
	assert.Equal(t, "**Address Blacklisted**\nAddress: `X`", got.Content)
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(testConfig(server.URL), logging.NewDiscard(), nil)
	require.NoError(t, c.Deliver(context.Background(), Alert{Title: "t"}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDeliverGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(testConfig(server.URL), logging.NewDiscard(), nil)
	err := c.Deliver(context.Background(), Alert{Title: "t"})
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestSendAlertIsAsync(t *testing.T) {
	var mu sync.Mutex
	var titles []string
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		var p payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		titles = append(titles, p.Content)
		mu.Unlock()
	}))
	defer server.Close()

	c := New(testConfig(server.URL), logging.NewDiscard(), nil)
	c.Start(context.Background())

	start := time.Now()
	c.SendAlert("one", "m")
	c.SendAlert("two", "m")
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	close(release)
	c.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"**one**\nm", "**two**\nm"}, titles)
}

func TestSendAlertWithoutURLIsNoop(t *testing.T) {
	c := New(Config{}, logging.NewDiscard(), nil)
	assert.False(t, c.Enabled())
	c.SendAlert("ignored", "m")
	assert.Len(t, c.queue, 0)
}

func TestSendAlertDropsWhenQueueFull(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.QueueSize = 1
	c := New(cfg, logging.NewDiscard(), nil)

	c.SendAlert("first", "m")
	c.SendAlert("second", "m")
	assert.Len(t, c.queue, 1)
}

func TestStopWithoutStart(t *testing.T) {
	c := New(testConfig("http://127.0.0.1:0"), logging.NewDiscard(), nil)
	c.Stop()
	c.Stop()
}
