package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/dashlite/go-admin-client/session"
	"github.com/dashlite/go-admin-client/token"
)

type sessionInfo struct {
	LoggedIn    bool          `json:"loggedIn"`
	User        *session.User `json:"user,omitempty"`
	TokenExpiry *time.Time    `json:"tokenExpiry,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var credentials session.Credentials
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	response, err := s.sessions.Login(r.Context(), credentials)
	if err != nil {
		if errors.Is(err, session.InvalidCredentialsErr) {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	info := sessionInfo{
		LoggedIn: s.sessions.IsLoggedIn(),
		User:     s.sessions.LoggedUser(),
	}
	if expiry, err := token.Expiry(s.sessions.AccessToken()); err == nil {
		info.TokenExpiry = &expiry
	}
	respondJSON(w, http.StatusOK, info)
}
