package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
)

const (
	streamBuffer     = 64
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
)

// auditStream pushes every new audit entry to a websocket client as JSON.
// A client that falls behind by more than streamBuffer entries is disconnected.
func (h *handler) auditStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithContext(r.Context()).WithError(err).Warn("audit stream upgrade failed")
		return
	}
	defer conn.Close()

	entries := make(chan audit.Entry, streamBuffer)
	overflow := make(chan struct{})
	var once sync.Once
	unsubscribe := h.token.Audit().Subscribe(func(e audit.Entry) {
		select {
		case entries <- e:
		default:
			once.Do(func() { close(overflow) })
		}
	})
	defer unsubscribe()

	// Reader detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case e := <-entries:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-overflow:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "audit stream overflow"),
				time.Now().Add(streamWriteWait))
			return
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
