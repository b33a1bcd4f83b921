// internal/handlers/admin.go
package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jason-s-yu/plagiarist/internal/game"
	"github.com/jason-s-yu/plagiarist/internal/lobby"
)

// AdminTokenHeader carries the operator secret on /admin requests.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdmin lets a request through only when it presents token. An empty token
// disables the admin endpoints entirely.
func RequireAdmin(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			http.NotFound(w, r)
			return
		}
		got := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			writeError(w, http.StatusForbidden, "forbidden", "admin token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminStateHandler dumps every live room.
func AdminStateHandler(m *lobby.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, m.DebugState())
	}
}

// ForceStartHandler starts a waiting room now. Body: {"roomId": "ABCD1234"}.
func ForceStartHandler(m *lobby.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			RoomID string `json:"roomId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request", "bad force start payload")
			return
		}
		roomID := strings.ToUpper(strings.TrimSpace(req.RoomID))
		if roomID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "roomId is required")
			return
		}

		err := m.ForceStart(roomID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]interface{}{"roomId": roomID, "started": true})
		case errors.Is(err, lobby.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, game.ErrorCode(err), err.Error())
		case errors.Is(err, game.ErrWrongPhase), errors.Is(err, game.ErrCapacity):
			writeError(w, http.StatusConflict, game.ErrorCode(err), err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
		}
	}
}

// CleanupRoomsHandler removes every empty room.
func CleanupRoomsHandler(m *lobby.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cleaned := m.CleanupRooms()
		writeJSON(w, http.StatusOK, map[string]interface{}{"cleanedRooms": cleaned, "count": len(cleaned)})
	}
}
