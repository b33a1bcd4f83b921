package models

import (
	"errors"
	"fmt"
	"strings"
)

// ActionType tags an inbound player message.
type ActionType string

const (
	ActionLeaveRoom      ActionType = "leave_room"
	ActionPlaceStake     ActionType = "place_stake"
	ActionSubmitOriginal ActionType = "submit_original"
	ActionSubmitCopy     ActionType = "submit_copy"
	ActionRequestReview  ActionType = "request_review"
	ActionSubmitVote     ActionType = "submit_vote"
	ActionSyncState      ActionType = "sync_state"
	ActionPing           ActionType = "ping"
)

// MaxImageBytes bounds a single submitted drawing payload.
const MaxImageBytes = 2 << 20

// ErrInvalidAction is wrapped by every validation failure.
var ErrInvalidAction = errors.New("invalid action")

// PlayerAction is a player-initiated message. Which fields are required depends on Type;
// Validate must pass before the action is dispatched to a room.
type PlayerAction struct {
	Type      ActionType `json:"type"`
	Image     string     `json:"image,omitempty"`
	TargetID  string     `json:"targetId,omitempty"`
	SetIndex  *int       `json:"setIndex,omitempty"`
	DrawingID string     `json:"drawingId,omitempty"`
	Amount    *int       `json:"amount,omitempty"`
}

// Validate checks the fields required by the action's type.
func (a PlayerAction) Validate() error {
	switch a.Type {
	case ActionLeaveRoom, ActionSyncState, ActionPing:
		return nil
	case ActionPlaceStake:
		if a.Amount == nil {
			return fmt.Errorf("%w: amount is required", ErrInvalidAction)
		}
		if *a.Amount < 0 {
			return fmt.Errorf("%w: amount must be non-negative", ErrInvalidAction)
		}
		return nil
	case ActionSubmitOriginal:
		return validateImage(a.Image)
	case ActionSubmitCopy:
		if a.TargetID == "" {
			return fmt.Errorf("%w: targetId is required", ErrInvalidAction)
		}
		return validateImage(a.Image)
	case ActionRequestReview:
		if a.TargetID == "" {
			return fmt.Errorf("%w: targetId is required", ErrInvalidAction)
		}
		return nil
	case ActionSubmitVote:
		if a.SetIndex == nil || *a.SetIndex < 0 {
			return fmt.Errorf("%w: setIndex is required", ErrInvalidAction)
		}
		if a.DrawingID == "" {
			return fmt.Errorf("%w: drawingId is required", ErrInvalidAction)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
}

func validateImage(img string) error {
	if !strings.HasPrefix(img, "data:image/") {
		return fmt.Errorf("%w: image must be a data:image URL", ErrInvalidAction)
	}
	if len(img) > MaxImageBytes {
		return fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidAction, MaxImageBytes)
	}
	return nil
}
