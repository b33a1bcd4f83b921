// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by a Session wraps exactly one of these,
// so callers can branch with errors.Is on the category or on the concrete error.
var (
	ErrWrongPhase        = errors.New("action not allowed in the current phase")
	ErrDuplicateAction   = errors.New("duplicate action")
	ErrIneligibleAction  = errors.New("ineligible action")
	ErrCapacity          = errors.New("capacity")
	ErrResourceExhausted = errors.New("resource exhausted")
)

var (
	ErrAlreadyJoined    = fmt.Errorf("%w: player already in room", ErrDuplicateAction)
	ErrAlreadySubmitted = fmt.Errorf("%w: already submitted", ErrDuplicateAction)
	ErrDuplicateVote    = fmt.Errorf("%w: already voted on this set", ErrDuplicateAction)

	ErrPlayerNotFound    = fmt.Errorf("%w: player is not active in this room", ErrIneligibleAction)
	ErrTargetNotAssigned = fmt.Errorf("%w: target is not assigned to this player", ErrIneligibleAction)
	ErrIneligibleVoter   = fmt.Errorf("%w: player cannot vote on this set", ErrIneligibleAction)
	ErrInvalidChoice     = fmt.Errorf("%w: drawing is not part of this set", ErrIneligibleAction)
	ErrStakeTooLow       = fmt.Errorf("%w: stake is below the room minimum", ErrIneligibleAction)

	ErrRoomFull            = fmt.Errorf("%w: room is full", ErrCapacity)
	ErrNotEnoughPlayers    = fmt.Errorf("%w: not enough players to start", ErrCapacity)
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrCapacity)

	ErrPromptsExhausted = fmt.Errorf("%w: prompt pool exhausted", ErrResourceExhausted)
)

// ErrorCode returns the short category code sent to clients alongside an error message.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, ErrDuplicateAction):
		return "duplicate_action"
	case errors.Is(err, ErrIneligibleAction):
		return "ineligible_action"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	case errors.Is(err, ErrResourceExhausted):
		return "resource_exhausted"
	default:
		return "internal"
	}
}
