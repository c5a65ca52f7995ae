package api

import (
	"net/http"
	"strconv"
)

// handleInside returns every collaborator currently inside, most recent
// entry first.
func (s *Server) handleInside(w http.ResponseWriter, r *http.Request) {
	inside, err := s.service.CurrentlyInside(r.Context())
	if err != nil {
		s.logger.Error("inside query failed", "error", err)
		writeInternalError(w, "failed to query occupancy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"inside": inside,
		"count":  len(inside),
	})
}

// handleInsideCount returns just the occupancy number.
func (s *Server) handleInsideCount(w http.ResponseWriter, r *http.Request) {
	total, err := s.service.TotalInside(r.Context())
	if err != nil {
		s.logger.Error("inside count query failed", "error", err)
		writeInternalError(w, "failed to query occupancy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inside": total})
}

// handleRecentEvents returns the latest ledger events, newest first.
// Query parameter: limit (default 100, max 500).
func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)

	events, err := s.service.RecentEvents(r.Context(), limit)
	if err != nil {
		s.logger.Error("recent events query failed", "error", err)
		writeInternalError(w, "failed to query events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// handleDailyStats returns per-day IN/OUT totals, ascending by date.
// Query parameter: days (default 7).
func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 0)

	counts, err := s.service.DailyCounts(r.Context(), days)
	if err != nil {
		s.logger.Error("daily stats query failed", "error", err)
		writeInternalError(w, "failed to query daily stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days": counts,
	})
}

// queryInt parses an integer query parameter, returning fallback when
// absent or malformed.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
