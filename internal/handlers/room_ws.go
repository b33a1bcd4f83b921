// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/plagiarist/internal/game"
	"github.com/jason-s-yu/plagiarist/internal/lobby"
	"github.com/jason-s-yu/plagiarist/internal/middleware"
	"github.com/jason-s-yu/plagiarist/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	roomSubprotocol = "pixel"
	writeTimeout    = 5 * time.Second
	reviewDuration  = 5 * time.Second

	// readLimit fits one maximal drawing plus the rest of its action envelope.
	readLimit = models.MaxImageBytes + 4096
)

// serverMessage is anything the socket sends that is not a room event.
type serverMessage struct {
	Type       string           `json:"type"`
	Code       string           `json:"code,omitempty"`
	Message    string           `json:"message,omitempty"`
	State      *game.View       `json:"state,omitempty"`
	Target     *game.CopyTarget `json:"target,omitempty"`
	DurationMs int64            `json:"durationMs,omitempty"`
}

func messageBytes(m serverMessage) []byte {
	data, err := json.Marshal(m)
	if err != nil {
		return []byte(`{"type":"error","code":"internal"}`)
	}
	return data
}

func errorMessage(err error) []byte {
	code := game.ErrorCode(err)
	if errors.Is(err, models.ErrInvalidAction) {
		code = "invalid_action"
	}
	return messageBytes(serverMessage{Type: "error", Code: code, Message: err.Error()})
}

// RoomWSHandler serves /room/ws/{room_id}. The player is joined to the room for as long
// as the socket stays open; closing it leaves the room.
func RoomWSHandler(logger *logrus.Logger, m *lobby.Manager, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/room/ws/"), "/")
		if roomID == "" {
			http.Error(w, "missing room_id in path (/room/ws/{room_id})", http.StatusBadRequest)
			return
		}
		if _, ok := m.GetRoom(roomID); !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		// Cookies can only be set before the upgrade response goes out.
		ident, err := ensureGuest(w, r)
		if err != nil {
			logger.Errorf("Room %s: failed to issue guest identity: %v", roomID, err)
			http.Error(w, "could not authenticate", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{roomSubprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("Room %s: websocket accept error: %v", roomID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")
		c.SetReadLimit(readLimit)

		if c.Subprotocol() != roomSubprotocol {
			c.Close(BadSubprotocolError, "client must speak the pixel subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		client := hub.register(roomID, ident.PlayerID, c, cancel)

		room, err := m.JoinRoom(ctx, roomID, ident.PlayerID, ident.Username)
		switch {
		case err == nil:
		case errors.Is(err, game.ErrAlreadyJoined):
			logger.Infof("Room %s: player %s reconnected", roomID, ident.PlayerID)
		default:
			hub.unregister(client)
			logger.Infof("Room %s: join rejected for %s: %v", roomID, ident.PlayerID, err)
			writeNow(c, errorMessage(err))
			code := JoinRejectedError
			if errors.Is(err, lobby.ErrRoomNotFound) {
				code = InvalidRoomIDError
			}
			c.Close(websocket.StatusCode(code), game.ErrorCode(err))
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		go writePump(ctx, c, client, logger)
		view := room.Snapshot(ident.PlayerID)
		client.enqueue(messageBytes(serverMessage{Type: "sync_state", State: &view}))

		left, readErr := readPump(ctx, c, m, room, client, logger)

		// A replaced or room-closed connection no longer owns the seat.
		if hub.unregister(client) && !left {
			if err := m.LeaveRoom(roomID, ident.PlayerID); err != nil && !errors.Is(err, game.ErrIneligibleAction) {
				logger.Warnf("Room %s: leave on disconnect for %s: %v", roomID, ident.PlayerID, err)
			}
		}
		if code, msg := client.closeReason(); code != 0 {
			logger.Infof("Room %s: closed connection of %s (%d %s)", roomID, ident.PlayerID, code, msg)
			readErr = nil
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// writePump drains the client's queue onto the socket until ctx ends.
func writePump(ctx context.Context, c *websocket.Conn, client *roomClient, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-client.out:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					logger.Warnf("Room %s: write to %s failed: %v", client.roomID, client.playerID, err)
				}
				client.cancel()
				return
			}
		}
	}
}

// writeNow writes outside the pump, before it has started.
func writeNow(c *websocket.Conn, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_ = c.Write(ctx, websocket.MessageText, data)
}

// readPump dispatches the player's messages until the socket closes or the player
// leaves. left reports an explicit leave_room.
func readPump(ctx context.Context, c *websocket.Conn, m *lobby.Manager, room *game.Session, client *roomClient, logger *logrus.Logger) (left bool, err error) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return false, nil
			}
			return false, err
		}
		if typ != websocket.MessageText {
			logger.Warnf("Room %s: ignoring non-text message from %s", room.ID, client.playerID)
			continue
		}

		var action models.PlayerAction
		if err := json.Unmarshal(data, &action); err != nil {
			client.enqueue(errorMessage(models.ErrInvalidAction))
			continue
		}
		if err := action.Validate(); err != nil {
			client.enqueue(errorMessage(err))
			continue
		}

		if action.Type == models.ActionLeaveRoom {
			if err := m.LeaveRoom(room.ID, client.playerID); err != nil {
				client.enqueue(errorMessage(err))
				continue
			}
			logger.Infof("Room %s: player %s left", room.ID, client.playerID)
			return true, nil
		}
		if err := dispatchAction(room, client, action); err != nil {
			logger.Debugf("Room %s: %s from %s rejected: %v", room.ID, action.Type, client.playerID, err)
			client.enqueue(errorMessage(err))
		}
	}
}

// dispatchAction applies a validated action to the room. Errors go back to the sender only.
func dispatchAction(room *game.Session, client *roomClient, action models.PlayerAction) error {
	id := client.playerID
	switch action.Type {
	case models.ActionPlaceStake:
		return room.PlaceStake(id, *action.Amount)
	case models.ActionSubmitOriginal:
		return room.SubmitOriginal(id, action.Image)
	case models.ActionSubmitCopy:
		return room.SubmitCopy(id, action.TargetID, action.Image)
	case models.ActionSubmitVote:
		return room.SubmitVote(id, *action.SetIndex, action.DrawingID)
	case models.ActionRequestReview:
		target, err := room.ReviewTarget(id, action.TargetID)
		if err != nil {
			return err
		}
		client.enqueue(messageBytes(serverMessage{Type: "review_drawing", Target: &target, DurationMs: reviewDuration.Milliseconds()}))
	case models.ActionSyncState:
		view := room.Snapshot(id)
		client.enqueue(messageBytes(serverMessage{Type: "sync_state", State: &view}))
	case models.ActionPing:
		client.enqueue(messageBytes(serverMessage{Type: "pong"}))
	}
	return nil
}
