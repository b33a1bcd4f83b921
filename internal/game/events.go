// internal/game/events.go
package game

import (
	"encoding/json"

	"github.com/jason-s-yu/plagiarist/internal/models"
	log "github.com/sirupsen/logrus"
)

// GameEventType tags an outbound message.
type GameEventType string

const (
	EventPlayerJoined       GameEventType = "player_joined"
	EventPlayerLeft         GameEventType = "player_left"
	EventPlayerDisconnected GameEventType = "player_disconnected"
	EventStakePlaced        GameEventType = "stake_placed"
	EventCountdownStarted   GameEventType = "countdown_started"
	EventCountdownCancelled GameEventType = "countdown_cancelled"
	EventPhaseChanged       GameEventType = "phase_changed"
	EventDrawingSubmitted   GameEventType = "drawing_submitted"
	EventCopySubmitted      GameEventType = "copy_submitted"
	EventVoteCast           GameEventType = "vote_cast"
	EventEarlyAdvance       GameEventType = "early_phase_advance"
	EventCopyingTargets     GameEventType = "copying_targets"
	EventVotingRound        GameEventType = "voting_round"
	EventVotingExcluded     GameEventType = "voting_round_excluded"
	EventGameResults        GameEventType = "game_results"
	EventGameEndedEarly     GameEventType = "game_ended_early"
)

// GameEvent is a message sent from a room to its players. Type decides which of the
// optional fields are set.
type GameEvent struct {
	Type       GameEventType   `json:"type"`
	RoomID     string          `json:"roomId"`
	Phase      Phase           `json:"phase,omitempty"`
	Seconds    int             `json:"seconds,omitempty"` // countdown or phase timer
	Player     *PlayerSummary  `json:"player,omitempty"`
	Players    []PlayerSummary `json:"players,omitempty"`
	Prompt     string          `json:"prompt,omitempty"`
	Targets    []CopyTarget    `json:"targets,omitempty"`
	Round      *VotingRound    `json:"round,omitempty"`
	Progress   *Progress       `json:"progress,omitempty"`
	Results    *Results        `json:"results,omitempty"`
	EndedEarly *EarlyEnd       `json:"endedEarly,omitempty"`
}

// PlayerSummary is the public view of a seat.
type PlayerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Balance   int    `json:"balance"`
	Stake     int    `json:"stake"`
	Connected bool   `json:"connected"`
}

// CopyTarget is one original a player has been asked to copy.
type CopyTarget struct {
	TargetID string `json:"targetId"`
	Prompt   string `json:"prompt"`
	Image    string `json:"image"`
}

// AnonymousDrawing is a set entry as voters see it: no owner, no original flag.
type AnonymousDrawing struct {
	DrawingID string `json:"drawingId"`
	Image     string `json:"image"`
}

// VotingRound is one drawing set put to the vote.
type VotingRound struct {
	SetIndex  int                `json:"setIndex"`
	TotalSets int                `json:"totalSets"`
	Prompt    string             `json:"prompt"`
	Drawings  []AnonymousDrawing `json:"drawings"`
	CanVote   bool               `json:"canVote"`
}

// Progress counts submissions toward early advance.
type Progress struct {
	Submitted int `json:"submitted"`
	Expected  int `json:"expected"`
}

// EarlyEnd describes a game stopped for lack of players.
type EarlyEnd struct {
	Reason        string         `json:"reason"`
	Refunds       map[string]int `json:"refunds"`
	FinalBalances map[string]int `json:"finalBalances"`
}

func summarize(p *models.Player) PlayerSummary {
	return PlayerSummary{
		ID:        p.ID,
		Username:  p.Username,
		Balance:   p.Balance,
		Stake:     p.Stake,
		Connected: p.Connected,
	}
}

// fireEvent broadcasts ev to the whole room. Assumes lock is held.
func (s *Session) fireEvent(ev GameEvent) {
	ev.RoomID = s.ID
	if s.BroadcastFn != nil {
		s.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends ev to one player. Assumes lock is held.
func (s *Session) fireEventToPlayer(playerID string, ev GameEvent) {
	ev.RoomID = s.ID
	if s.BroadcastToPlayerFn != nil {
		s.BroadcastToPlayerFn(playerID, ev)
	}
}

// EventBytes marshals a GameEvent into JSON bytes.
// Logs a warning and returns empty JSON "{}" on marshalling error.
func EventBytes(ev GameEvent) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Warnf("Failed to marshal GameEvent type %s: %v", ev.Type, err)
		return []byte("{}")
	}
	return data
}
