package transport

import (
	"net/http"
	"strconv"

	"github.com/fixfast/mockdesk/internal/domain/session"
	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
	"github.com/go-chi/chi/v5"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  user.Profile `json:"user"`
	Token string       `json:"token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := user.ValidateSignup(req.Email, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.backend.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	SetSessionCookie(w, s.cookieName, res.Token)
	writeJSON(w, http.StatusCreated, authResponse{User: res.Profile, Token: res.Token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := user.ValidateLogin(req.Email, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.backend.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	SetSessionCookie(w, s.cookieName, res.Token)
	writeJSON(w, http.StatusOK, authResponse{User: res.Profile, Token: res.Token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Logout(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	ClearSessionCookie(w, s.cookieName)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.backend.VerifySession(r.Context(), TokenFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u.Profile())
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.backend.ListTickets(r.Context(), TokenFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var draft ticket.Draft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := ticket.ValidateDraft(draft); err != nil {
		s.fail(w, r, err)
		return
	}

	created, err := s.backend.CreateTicket(r.Context(), draft, TokenFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	var patch ticket.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := ticket.ValidatePatch(patch); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.backend.UpdateTicket(r.Context(), chi.URLParam(r, "id"), patch, TokenFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.DeleteTicket(r.Context(), chi.URLParam(r, "id"), TokenFromContext(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	recent := s.recentLimit
	if raw := r.URL.Query().Get("recent"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_input", "recent must be a positive integer")
			return
		}
		recent = n
	}

	summary, err := s.backend.Dashboard(r.Context(), TokenFromContext(r.Context()), recent)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	samples, err := s.backend.SampleTickets(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, samples)
}

// fail writes err as an API error. Session errors also clear the cookie and
// the backend's active slot when it still holds the rejected token.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)

	if session.IsSessionError(err) {
		token := TokenFromContext(r.Context())
		if clearErr := s.backend.ClearStaleSession(r.Context(), token); clearErr != nil && s.logger != nil {
			s.logger.Warn("clearing stale session", "error", clearErr)
		}
		ClearSessionCookie(w, s.cookieName)
	}

	if status == http.StatusInternalServerError {
		if s.logger != nil {
			s.logger.Error("request failed",
				"request_id", RequestIDFromContext(r.Context()),
				"path", r.URL.Path,
				"error", err,
			)
		}
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}
