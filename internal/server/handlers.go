package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/workout"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies; a full session with many sets stays
// far below it.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	info, ok := userInfoFromContext(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, apperr.Unauthorized("authentication required").ToResponse())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetActive(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	sess, err := s.svc.GetActive(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// No active session is a normal state and encodes as null.
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSaveActive(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var in workout.ActiveInput
	if !s.decode(w, r, &in) {
		return
	}
	sess, err := s.svc.SaveActive(r.Context(), uid, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleUpdateSets(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var in workout.SetsInput
	if !s.decode(w, r, &in) {
		return
	}
	sess, err := s.svc.UpdateSets(r.Context(), uid, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	sess, err := s.svc.Finish(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Discard(r.Context(), uid); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "workout discarded"})
}

func (s *Server) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var in workout.DetailsInput
	if !s.decode(w, r, &in) {
		return
	}
	sess, err := s.svc.UpdateDetails(r.Context(), uid, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	sessions, err := s.svc.ListHistory(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "workout deleted"})
}

// decode reads a JSON body into v. An empty body leaves v at its zero value.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, apperr.Validation("invalid JSON: "+err.Error()).ToResponse())
	return false
}

// writeError maps err onto its HTTP status. Internal causes are logged and
// never sent to the client.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	e := apperr.As(err)
	if e.Type == apperr.TypeInternal {
		s.log.Error(e.Message, "error", e.Cause)
	}
	writeJSON(w, e.HTTPStatus(), e.ToResponse())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
