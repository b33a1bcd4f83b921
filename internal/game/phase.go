// internal/game/phase.go
package game

// Phase is the stage a room is in. A room only ever moves forward through these.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseDrawing    Phase = "drawing"
	PhaseCopying    Phase = "copying"
	PhaseVoting     Phase = "voting"
	PhaseResults    Phase = "results"
	PhaseEndedEarly Phase = "ended_early"
)

// phaseEdges lists every legal forward transition.
var phaseEdges = map[Phase][]Phase{
	PhaseWaiting: {PhaseDrawing},
	PhaseDrawing: {PhaseCopying, PhaseEndedEarly},
	PhaseCopying: {PhaseVoting, PhaseEndedEarly},
	PhaseVoting:  {PhaseResults, PhaseEndedEarly},
}

// Terminal reports whether the room can no longer change phase.
func (p Phase) Terminal() bool {
	return p == PhaseResults || p == PhaseEndedEarly
}

// InGame reports whether stakes are committed and players are mid-game.
func (p Phase) InGame() bool {
	return p == PhaseDrawing || p == PhaseCopying || p == PhaseVoting
}

// CanAdvanceTo reports whether next is a legal successor of p.
func (p Phase) CanAdvanceTo(next Phase) bool {
	for _, n := range phaseEdges[p] {
		if n == next {
			return true
		}
	}
	return false
}
