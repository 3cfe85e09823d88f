package notify

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sacahan/casualtrader/internal/logger"
)

const wsWriteTimeout = 10 * time.Second

// WSBroadcaster streams lifecycle events over WebSocket. Each connection gets
// its own bus subscription, so one slow client never delays another.
type WSBroadcaster struct {
	bus      *Bus
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewWSBroadcaster creates a broadcaster over the given bus.
func NewWSBroadcaster(bus *Bus, log *logger.Logger) *WSBroadcaster {
	return &WSBroadcaster{
		bus: bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		logger: log,
	}
}

// ServeHTTP upgrades the request and forwards lifecycle events to the client
// as JSON until the client disconnects or the bus closes.
func (w *WSBroadcaster) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Warn("websocket upgrade failed", zap.Error(err))

		return
	}

	defer conn.Close()

	events, unsubscribe := w.bus.Subscribe()
	defer unsubscribe()

	// Reader loop only to detect client disconnects; inbound messages are
	// ignored.
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
		case event, ok := <-events:
			if !ok {
				return
			}

			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}

			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
