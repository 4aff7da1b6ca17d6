package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"pagesmith/internal/runner"
	"pagesmith/internal/runstore"
)

const (
	watchWriteWait = 10 * time.Second
	watchPongWait  = 60 * time.Second
	watchPingEvery = (watchPongWait * 9) / 10
)

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// handleWatch streams run progress events over a websocket until the run
// reaches a terminal state or the client goes away.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.Store.Get(id); !ok {
		writeError(w, http.StatusNotFound, "unknown run")
		return
	}

	events, unsubscribe := s.Hub.Subscribe(id)
	defer unsubscribe()

	conn, err := watchUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(watchPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})

	// Reader only consumes control frames and surfaces disconnects.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(v any) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
			return false
		}
		return conn.WriteJSON(v) == nil
	}

	// Snapshot of the current state first, read after subscribing so a
	// run that finished between the existence check and Subscribe is
	// reported terminal instead of pinging forever. A watcher attaching
	// to a finished run gets exactly one message.
	rec, ok := s.Store.Get(id)
	if !ok {
		return
	}
	if !write(rec) {
		return
	}
	if rec.Status != runstore.StatusRunning {
		return
	}

	ticker := time.NewTicker(watchPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case evt := <-events:
			if !write(evt) {
				return
			}
			if evt.Type == runner.EventDone || evt.Type == runner.EventFailed {
				if final, ok := s.Store.Get(id); ok {
					write(final)
				}
				return
			}
		}
	}
}
