package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/R3E-Network/stablecoin_layer/internal/logging"
)

const defaultReconnectDelay = 5 * time.Second

// ListenerConfig configures the chain log subscription.
type ListenerConfig struct {
	// URL is the Solana RPC websocket endpoint, e.g. ws://127.0.0.1:8900.
	URL string
	// Mentions is the account whose logs are streamed (mint or program id).
	Mentions string
	// Commitment defaults to "confirmed".
	Commitment string
	// ReconnectDelay is the pause between connection attempts.
	ReconnectDelay time.Duration
}

// Processor receives every logs notification.
type Processor interface {
	ProcessSignature(ctx context.Context, signature string, logs []string) Kind
}

// Listener subscribes to logsSubscribe notifications and feeds a Processor.
type Listener struct {
	cfg       ListenerConfig
	processor Processor
	dialer    *websocket.Dialer
	log       *logging.Logger
}

func NewListener(cfg ListenerConfig, p Processor, log *logging.Logger) *Listener {
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if log == nil {
		log = logging.NewDefault("indexer")
	}
	return &Listener{cfg: cfg, processor: p, dialer: websocket.DefaultDialer, log: log}
}

// Run keeps a subscription open until ctx is done, reconnecting after failures.
func (l *Listener) Run(ctx context.Context) error {
	l.log.WithField("mentions", l.cfg.Mentions).Info("starting blockchain indexer")
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			l.log.Info("indexer stopped")
			return nil
		}
		l.log.WithError(err).WithField("retry_in", l.cfg.ReconnectDelay.String()).Warn("indexer connection lost")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.cfg.ReconnectDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, _, err := l.dialer.DialContext(ctx, l.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", l.cfg.URL, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	if err := conn.WriteJSON(subscribeRequest(l.cfg.Mentions, l.cfg.Commitment)); err != nil {
		return fmt.Errorf("send logsSubscribe: %w", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read notification: %w", err)
		}
		if err := l.handle(ctx, data); err != nil {
			return err
		}
	}
}

func (l *Listener) handle(ctx context.Context, data []byte) error {
	msg := gjson.ParseBytes(data)

	if rpcErr := msg.Get("error"); rpcErr.Exists() {
		return errors.New("subscription rejected: " + rpcErr.Get("message").String())
	}
	if msg.Get("id").Exists() {
		l.log.WithField("subscription", msg.Get("result").Int()).Info("logs subscription confirmed")
		return nil
	}
	if msg.Get("method").String() != "logsNotification" {
		return nil
	}

	value := msg.Get("params.result.value")
	signature := value.Get("signature").String()
	if signature == "" {
		return nil
	}
	var logs []string
	for _, line := range value.Get("logs").Array() {
		logs = append(logs, line.String())
	}

	l.log.WithField("signature", signature).Debug("transaction observed")
	l.processor.ProcessSignature(ctx, signature, logs)
	return nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

func subscribeRequest(mentions, commitment string) rpcRequest {
	return rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string][]string{"mentions": {mentions}},
			map[string]string{"commitment": commitment},
		},
	}
}
