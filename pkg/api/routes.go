package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API routes with method-specific routing
	mux.HandleFunc("GET /api", s.HandleSearch)
	mux.HandleFunc("GET /api/games", s.HandleGames)
	mux.HandleFunc("GET /api/random", s.HandleRandom)
	mux.HandleFunc("GET /api/stats", s.HandleStats)
	mux.HandleFunc("GET /api/db-status", s.HandleDBStatus)
	mux.HandleFunc("GET /api/firehose", s.HandleFirehose)
	mux.HandleFunc("POST /api/flag", s.HandleFlag)
	mux.HandleFunc("POST /api/analytics", s.HandleAnalytics)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
