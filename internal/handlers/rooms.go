// internal/handlers/rooms.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jason-s-yu/plagiarist/internal/game"
	"github.com/jason-s-yu/plagiarist/internal/lobby"
)

// CreateRoomHandler opens a room. The optional JSON body holds rule overrides
// (minStake, maxPlayers, drawingSec, ...) applied on top of the server defaults.
func CreateRoomHandler(m *lobby.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var overrides map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request", "bad room request payload")
			return
		}
		rules, err := game.ParseRules(overrides, m.DefaultRules())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_rules", err.Error())
			return
		}

		room, err := m.CreateRoom(rules)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			game.RoomSummary
			Rules game.Rules `json:"rules"`
		}{room.Summary(), room.Rules})
	}
}

// ListRoomsHandler returns every open room, newest first.
func ListRoomsHandler(m *lobby.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": m.ListRooms()})
	}
}
