// Package api exposes the HTTP surface: search, corpus metadata, health,
// flag reports, analytics ingestion and the realtime firehose.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/quotegrep/quotegrep/pkg/analytics"
	"github.com/quotegrep/quotegrep/pkg/log"
	"github.com/quotegrep/quotegrep/pkg/notify"
	"github.com/quotegrep/quotegrep/pkg/quotes"
	"github.com/quotegrep/quotegrep/pkg/realtime"
	"github.com/quotegrep/quotegrep/pkg/store"
)

// gamesCacheTTL bounds how stale the cached game list may get.
const gamesCacheTTL = 5 * time.Minute

type Server struct {
	executor *quotes.Executor
	store    *store.Store
	recorder *analytics.Recorder
	notifier *notify.Discord
	hub      *realtime.Hub
	logger   *log.Logger

	gamesMu      sync.Mutex
	games        []string
	gamesFetched time.Time
}

func NewServer(executor *quotes.Executor, st *store.Store, recorder *analytics.Recorder, notifier *notify.Discord, hub *realtime.Hub) *Server {
	return &Server{
		executor: executor,
		store:    st,
		recorder: recorder,
		notifier: notifier,
		hub:      hub,
		logger:   log.ForComponent("api"),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

// InvalidateGamesCache forces the next games request to hit the store. Called
// after imports and configuration reloads.
func (s *Server) InvalidateGamesCache() {
	s.gamesMu.Lock()
	s.gamesFetched = time.Time{}
	s.gamesMu.Unlock()
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
