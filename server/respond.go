package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dashlite/go-admin-client/api"
	"github.com/dashlite/go-admin-client/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

// respondError maps upstream failures onto the gateway's replies. API errors
// pass through with their original status; a dead session is a 401; anything
// else is an upstream failure the caller cannot act on.
func respondError(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		respondJSON(w, apiErr.StatusCode, errorResponse{Error: apiErr.Message})
	case errors.Is(err, session.NoRefreshTokenErr), errors.Is(err, session.InvalidCredentialsErr):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		log.Err(err).Msg("Upstream request failed")
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream request failed"})
	}
}
