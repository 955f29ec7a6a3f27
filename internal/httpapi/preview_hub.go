package httpapi

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	previewWriteWait  = 10 * time.Second
	previewBufferSize = 16
)

// previewHub fans out every at-command-preview result to every connected
// websocket subscriber, the push-channel half of /v1/at-command-preview
// described alongside its request/response HTTP half.
//
// Grounded on internal/gateway/ws_control_plane.go's per-connection
// buffered-send-channel-plus-writeLoop shape, narrowed from a full
// bidirectional request/response protocol (wsFrame/handleRequest) down to
// a one-way broadcast since the editor never needs to send anything back
// over this channel.
type previewHub struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func newPreviewHub() *previewHub {
	return &previewHub{subs: make(map[chan []byte]struct{})}
}

// broadcast encodes payload once and pushes it to every live subscriber,
// dropping it for any subscriber whose send buffer is still full rather
// than blocking the HTTP request that triggered the preview.
func (h *previewHub) broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- data:
		default:
		}
	}
}

// subscribe registers conn as a broadcast recipient and pumps messages to
// it until the connection closes or ctx is done.
func (h *previewHub) subscribe(ctx context.Context, conn *websocket.Conn) {
	ch := make(chan []byte, previewBufferSize)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	// Drain inbound frames on their own goroutine purely to notice a
	// client-initiated close; this channel carries no client->server
	// protocol.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case msg := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(previewWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
