// internal/api/handlers.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "onboarding-engine/internal/common/errors"
	"onboarding-engine/internal/onboarding"
	"onboarding-engine/internal/orchestrator"
	"onboarding-engine/internal/session"
)

type createSessionRequest struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type rewindRequest struct {
	Index int `json:"index"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	snap, err := s.engine.CreateSession(r.Context(), session.Contact{
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var sub onboarding.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := s.engine.SubmitAnswer(r.Context(), chi.URLParam(r, "sessionID"), sub)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRewind(w http.ResponseWriter, r *http.Request) {
	var req rewindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := s.engine.EditStep(r.Context(), chi.URLParam(r, "sessionID"), req.Index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLiveSearch(w http.ResponseWriter, r *http.Request) {
	stepID := r.URL.Query().Get("step")
	query := r.URL.Query().Get("q")

	suggestions, err := s.engine.LiveSearch(r.Context(), chi.URLParam(r, "sessionID"), stepID, query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []orchestrator.Suggestion{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.engine.Results(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{"message": message},
	})
}

// writeError maps error codes onto HTTP statuses: missing sessions are 404,
// out-of-order submissions 409, other user input 400, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]interface{}{"message": err.Error()}

	if code, ok := apperrors.CodeOf(err); ok {
		body["code"] = code
		switch {
		case code == apperrors.ErrCodeSessionNotFound:
			status = http.StatusNotFound
		case code == apperrors.ErrCodeStepNotCurrent:
			status = http.StatusConflict
		case apperrors.IsUserInput(err):
			status = http.StatusBadRequest
		}
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	writeJSON(w, status, map[string]interface{}{"error": body})
}
