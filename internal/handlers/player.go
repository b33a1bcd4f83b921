// internal/handlers/player.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/jason-s-yu/plagiarist/internal/auth"
	"github.com/jason-s-yu/plagiarist/internal/database"
	"github.com/jason-s-yu/plagiarist/internal/models"
	log "github.com/sirupsen/logrus"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// PlayerStore reads persistent player records. database.Ledger implements it.
type PlayerStore interface {
	GetPlayer(ctx context.Context, playerID string) (*models.User, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.User, error)
}

type guestRequest struct {
	Username string `json:"username"`
}

type guestResponse struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// GuestHandler issues a fresh guest identity and sets it as the auth_token cookie.
func GuestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req guestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "bad guest request payload")
		return
	}

	ident, token, err := auth.NewGuest(req.Username)
	if err != nil {
		log.Errorf("failed to issue guest token: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not issue token")
		return
	}
	setAuthCookie(w, token)
	writeJSON(w, http.StatusOK, guestResponse{PlayerID: ident.PlayerID, Username: ident.Username, Token: token})
}

// PlayerStatsHandler returns the caller's balance and lifetime counters.
func PlayerStatsHandler(store PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ident, err := identityFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid auth_token")
			return
		}

		u, err := store.GetPlayer(r.Context(), ident.PlayerID)
		if errors.Is(err, database.ErrPlayerNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no games recorded for this player")
			return
		}
		if err != nil {
			log.Errorf("failed to load stats for %s: %v", ident.PlayerID, err)
			writeError(w, http.StatusInternalServerError, "internal", "could not load player")
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// LeaderboardHandler lists the richest players. ?limit= caps the list (default 10, max 100).
func LeaderboardHandler(store PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		limit := defaultLeaderboardSize
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
				return
			}
			limit = min(n, maxLeaderboardSize)
		}

		players, err := store.GetLeaderboard(r.Context(), limit)
		if err != nil {
			log.Errorf("failed to load leaderboard: %v", err)
			writeError(w, http.StatusInternalServerError, "internal", "could not load leaderboard")
			return
		}
		if players == nil {
			players = []models.User{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"players": players})
	}
}
