package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatewatch/gatewatch-core/internal/access"
)

// enrollRequest is the request body for POST /users.
type enrollRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
	PIN  string `json:"pin"`
}

// statusRequest is the request body for PUT /users/{id}/status.
type statusRequest struct {
	Status access.Status `json:"status"`
}

// handleListUsers returns all enrolled collaborators.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListUsers(r.Context())
	if err != nil {
		s.logger.Error("listing users failed", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// handleEnrollUser registers a new collaborator. The response includes the
// badge token so the operator can print the badge straight away.
func (s *Server) handleEnrollUser(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.service.Enroll(r.Context(), req.Name, req.Role, req.PIN)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrInvalidRequest):
			writeBadRequest(w, err.Error())
		case errors.Is(err, access.ErrDuplicateUser):
			writeConflict(w, "a user with this name is already enrolled")
		default:
			s.logger.Error("enrolment failed", "error", err)
			writeInternalError(w, "enrolment failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleGetUser returns a single collaborator.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, access.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("fetching user failed", "error", err)
		writeInternalError(w, "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser applies a partial update (name, role, new PIN).
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd access.UpdateUser
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.service.UpdateUser(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrUserNotFound):
			writeNotFound(w, "user not found")
		case errors.Is(err, access.ErrInvalidRequest):
			writeBadRequest(w, err.Error())
		case errors.Is(err, access.ErrDuplicateUser):
			writeConflict(w, "a user with this name is already enrolled")
		default:
			s.logger.Error("updating user failed", "error", err)
			writeInternalError(w, "failed to update user")
		}
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser hard-deletes a collaborator. Ledger events are kept.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, access.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("deleting user failed", "error", err)
		writeInternalError(w, "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetUserStatus activates or deactivates a collaborator.
func (s *Server) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.service.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		switch {
		case errors.Is(err, access.ErrUserNotFound):
			writeNotFound(w, "user not found")
		case errors.Is(err, access.ErrInvalidStatus):
			writeBadRequest(w, "status must be Active or Inactive")
		default:
			s.logger.Error("setting status failed", "error", err)
			writeInternalError(w, "failed to set status")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": req.Status})
}
