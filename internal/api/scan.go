package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatewatch/gatewatch-core/internal/access"
	"github.com/gatewatch/gatewatch-core/internal/ledger"
)

// scanRequest is the request body for POST /scan. The PIN is optional: the
// operator console includes it when the collaborator typed one, and omits
// it otherwise (which cancels an entry attempt).
type scanRequest struct {
	Token string `json:"token"`
	PIN   string `json:"pin,omitempty"`
}

// handleScan runs a manual scan from the operator console through the
// decision engine and broadcasts the outcome to WebSocket dashboards.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Token == "" {
		writeBadRequest(w, "token is required")
		return
	}

	prompt := func() (string, bool) {
		return req.PIN, req.PIN != ""
	}

	decision, err := s.engine.SubmitScan(r.Context(), req.Token, prompt)
	if errors.Is(err, ledger.ErrConflict) {
		// A gate scan for the same user landed first; retry once with a
		// fresh read of the ledger.
		decision, err = s.engine.SubmitScan(r.Context(), req.Token, prompt)
	}
	if err != nil {
		if errors.Is(err, access.ErrInvalidRequest) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("scan failed", "error", err)
		writeInternalError(w, "scan failed")
		return
	}

	s.BroadcastDecision(decision)
	writeJSON(w, http.StatusOK, decision)
}
