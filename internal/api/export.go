package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gatewatch/gatewatch-core/internal/ledger"
)

// handleExport streams the full access ledger as CSV in chronological
// order. Rows are written as events are read, so the export never buffers
// the whole ledger in memory.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="access_log.csv"`)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "user_id", "action", "timestamp", "location"}); err != nil {
		s.logger.Error("csv export failed", "error", err)
		return
	}

	err := s.service.ExportAll(r.Context(), func(e ledger.AccessEvent) error {
		return cw.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.UserID,
			string(e.Action),
			e.Timestamp.Format(time.RFC3339),
			e.Location,
		})
	})
	if err != nil {
		// Headers are already sent; all we can do is log and stop the stream.
		s.logger.Error("csv export failed", "error", err)
		return
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Error("csv export flush failed", "error", err)
	}
}
