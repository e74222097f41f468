package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/quotegrep/quotegrep/pkg/analytics"
	"github.com/quotegrep/quotegrep/pkg/notify"
	"github.com/quotegrep/quotegrep/pkg/quotes"
	"github.com/quotegrep/quotegrep/pkg/realtime"
	"github.com/quotegrep/quotegrep/pkg/version"
)

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	fc := quotes.ParseFilterCriteria(r.URL.Query())

	result, err := s.executor.Execute(r.Context(), fc)
	if err != nil {
		status := http.StatusInternalServerError
		var te *quotes.TimeoutError
		if errors.As(err, &te) {
			status = http.StatusGatewayTimeout
		}
		s.writeError(w, status, "Search failed", quotes.PublicMessage(err))
		return
	}

	s.hub.PublishSearch(realtime.SearchEvent{
		Term:        fc.SearchTerm,
		Channel:     fc.Channel,
		Game:        fc.GameName,
		Year:        fc.Year,
		Exact:       fc.ExactPhrase,
		ResultCount: len(result.Data),
		QueryTimeMs: result.QueryTimeMs,
	})

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) HandleGames(w http.ResponseWriter, r *http.Request) {
	s.gamesMu.Lock()
	games := s.games
	fresh := time.Since(s.gamesFetched) <= gamesCacheTTL
	s.gamesMu.Unlock()

	if !fresh {
		// Query outside the lock so a slow refresh never serializes requests.
		// Concurrent expiries may fetch twice; last write wins.
		loaded, err := s.store.GameList(r.Context())
		if err != nil {
			s.logger.Errorf("loading game list: %v", err)
			s.writeError(w, http.StatusInternalServerError, "Failed to load games", "Database error occurred. Please try again later.")
			return
		}

		s.gamesMu.Lock()
		s.games = loaded
		s.gamesFetched = time.Now()
		s.gamesMu.Unlock()
		games = loaded
	}

	s.writeJSON(w, http.StatusOK, GamesResponse{Games: games, Count: len(games)})
}

func (s *Server) HandleRandom(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.RandomQuotes(r.Context(), 10)
	if err != nil {
		s.logger.Errorf("loading random quotes: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load quotes", "Database error occurred. Please try again later.")
		return
	}

	s.writeJSON(w, http.StatusOK, RandomResponse{Data: groups})
}

func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Errorf("loading stats: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load stats", "Database error occurred. Please try again later.")
		return
	}

	total := 0
	for _, ch := range channels {
		total += ch.TotalQuotes
	}

	s.writeJSON(w, http.StatusOK, StatsResponse{Channels: channels, TotalQuotes: total})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) HandleDBStatus(w http.ResponseWriter, r *http.Request) {
	status := s.store.HealthCheck(r.Context())

	resp := DBStatusResponse{
		Healthy:    status.Healthy,
		ServerTime: status.ServerTime,
		Pool:       status.PoolInfo,
	}
	if status.Healthy {
		resp.ResponseTime = fmt.Sprintf("%dms", status.ResponseTime.Milliseconds())
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Error = "Database connection failed"
	s.writeJSON(w, http.StatusServiceUnavailable, resp)
}

func (s *Server) HandleFlag(w http.ResponseWriter, r *http.Request) {
	var report notify.FlagReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request", "Request body must be valid JSON")
		return
	}
	report = sanitizeFlagReport(report)
	if report.SearchTerm == "" || report.Quote == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid request", "searchTerm and quote are required")
		return
	}
	if looksLikeSpam(report.Feedback) {
		s.writeError(w, http.StatusBadRequest, "Invalid request", "Feedback rejected")
		return
	}

	if !s.notifier.Enabled() {
		s.writeError(w, http.StatusServiceUnavailable, "Flagging unavailable", "Flag reporting is not configured")
		return
	}

	if err := s.notifier.SendFlag(r.Context(), report); err != nil {
		s.logger.Errorf("delivering flag report: %v", err)
		s.writeError(w, http.StatusBadGateway, "Flag delivery failed", "Could not deliver the report. Please try again later.")
		return
	}

	s.hub.PublishFlag(realtime.FlagEvent{
		Term:       report.SearchTerm,
		VideoTitle: report.VideoTitle,
	})

	s.writeJSON(w, http.StatusOK, FlagResponse{Success: true})
}

func (s *Server) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	var event analytics.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request", "Request body must be valid JSON")
		return
	}

	if err := event.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid event", err.Error())
		return
	}

	id, err := s.recorder.Record(r.Context(), event)
	if err != nil {
		s.logger.Errorf("recording analytics event: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Recording failed", "Database error occurred. Please try again later.")
		return
	}

	s.writeJSON(w, http.StatusCreated, AnalyticsResponse{ID: id})
}
