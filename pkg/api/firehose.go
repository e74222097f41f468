package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is open cross-origin, same as the REST routes
	CheckOrigin: func(r *http.Request) bool { return true },
}

type firehoseInit struct {
	Type      string `json:"type"`
	Listeners int    `json:"listeners"`
}

// HandleFirehose upgrades the request to a WebSocket and streams live search
// and flag events until the client disconnects. Slow clients miss events
// instead of blocking request handling.
func (s *Server) HandleFirehose(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("firehose upgrade failed: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debugf("closing firehose connection: %v", err)
		}
	}()

	id, events := s.hub.Register()
	defer s.hub.Unregister(id)

	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return
	}
	if err := conn.WriteJSON(firehoseInit{Type: "init", Listeners: s.hub.Size()}); err != nil {
		s.logger.Debugf("firehose init write failed: %v", err)
		return
	}

	// Reader goroutine notices client-side close; incoming payloads are
	// ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debugf("firehose write failed: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
