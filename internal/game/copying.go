// internal/game/copying.go
package game

import (
	"slices"

	log "github.com/sirupsen/logrus"
)

// copyRounds is how many originals each player copies: one below four players, two otherwise.
func copyRounds(n int) int {
	if n < 4 {
		return 1
	}
	return 2
}

// assignCopyTargets gives player i the originals of players (i+k) mod n for k = 1..rounds.
// Each offset is a cyclic derangement, so nobody copies themselves, no target repeats for
// a player, and every original is copied exactly rounds times.
func assignCopyTargets(playerIDs []string) map[string][]string {
	n := len(playerIDs)
	out := make(map[string][]string, n)
	if n < 2 {
		return out
	}
	rounds := copyRounds(n)
	for k := 1; k <= rounds; k++ {
		for i, id := range playerIDs {
			out[id] = append(out[id], playerIDs[(i+k)%n])
		}
	}
	return out
}

// startCopying assigns targets and opens the copying phase. Assumes lock is held.
func (s *Session) startCopying() {
	if !s.advancePhase(PhaseCopying) {
		return
	}

	order := s.roster.ids()
	s.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	s.assignments = assignCopyTargets(order)
	for _, id := range order {
		s.copies[id] = make(map[string]string)
	}

	s.scheduleTimer(seconds(s.Rules.CopyingSec), "copying", s.onCopyingTimeout)
	s.fireEvent(GameEvent{Type: EventPhaseChanged, Phase: PhaseCopying, Seconds: s.Rules.CopyingSec})
	for _, p := range s.roster.connected() {
		s.fireEventToPlayer(p.ID, GameEvent{
			Type:    EventCopyingTargets,
			Phase:   PhaseCopying,
			Seconds: s.Rules.CopyingSec,
			Targets: s.copyTargets(p.ID),
		})
	}
}

func (s *Session) copyTargets(playerID string) []CopyTarget {
	targets := s.assignments[playerID]
	out := make([]CopyTarget, 0, len(targets))
	for _, t := range targets {
		out = append(out, CopyTarget{TargetID: t, Prompt: s.prompts[t], Image: s.originals[t]})
	}
	return out
}

// ReviewTarget returns one of the player's assigned originals again, for a copier who
// wants another look at it.
func (s *Session) ReviewTarget(playerID, targetID string) (CopyTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseCopying {
		return CopyTarget{}, ErrWrongPhase
	}
	if !s.roster.isActive(playerID) {
		return CopyTarget{}, ErrPlayerNotFound
	}
	if !slices.Contains(s.assignments[playerID], targetID) {
		return CopyTarget{}, ErrTargetNotAssigned
	}
	s.logAction(playerID, "request_review", map[string]interface{}{"target_id": targetID})
	return CopyTarget{TargetID: targetID, Prompt: s.prompts[targetID], Image: s.originals[targetID]}, nil
}

// SubmitCopy records a player's copy of one of their assigned originals.
func (s *Session) SubmitCopy(playerID, targetID, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseCopying {
		return ErrWrongPhase
	}
	if !s.roster.isActive(playerID) {
		return ErrPlayerNotFound
	}
	if !slices.Contains(s.assignments[playerID], targetID) {
		return ErrTargetNotAssigned
	}
	if _, done := s.copies[playerID][targetID]; done {
		return ErrAlreadySubmitted
	}

	p, _ := s.roster.get(playerID)
	s.copies[playerID][targetID] = image
	p.CopiesCompleted++
	log.Infof("Room %s: copy of %s received from %s", s.ID, targetID, playerID)

	sum := summarize(p)
	s.fireEvent(GameEvent{Type: EventCopySubmitted, Phase: s.phase, Player: &sum, Progress: s.copyingProgress()})
	s.logAction(playerID, "submit_copy", map[string]interface{}{"target_id": targetID})

	s.checkCopyingComplete()
	return nil
}

func (s *Session) copyingProgress() *Progress {
	var pr Progress
	for _, p := range s.roster.connected() {
		pr.Expected += len(s.assignments[p.ID])
		pr.Submitted += len(s.copies[p.ID])
	}
	return &pr
}

// checkCopyingComplete advances once every connected player has copied all their
// targets and the phase has run for at least MinCopyingSec. Assumes lock is held.
func (s *Session) checkCopyingComplete() {
	for _, p := range s.roster.connected() {
		if len(s.copies[p.ID]) < len(s.assignments[p.ID]) {
			return
		}
	}
	s.advanceAfterFloor("copying", seconds(s.Rules.MinCopyingSec), s.finishCopying)
}

func (s *Session) onCopyingTimeout() {
	log.Infof("Room %s: copying timer expired", s.ID)
	s.finishCopying()
}

// finishCopying fills every missing copy with the blank placeholder and opens voting.
// Assumes lock is held.
func (s *Session) finishCopying() {
	if s.phase != PhaseCopying {
		return
	}
	for copier, targets := range s.assignments {
		for _, t := range targets {
			if _, ok := s.copies[copier][t]; !ok {
				s.copies[copier][t] = BlankImage
			}
		}
	}
	s.startVoting()
}
