// internal/game/drawing.go
package game

import (
	"errors"

	log "github.com/sirupsen/logrus"
)

// startDrawing hands out prompts and opens the drawing phase. Assumes lock is held.
func (s *Session) startDrawing() {
	if !s.advancePhase(PhaseDrawing) {
		return
	}

	prompts, err := assignPrompts(s.roster.ids(), s.promptPool, s.shuffle)
	if errors.Is(err, ErrPromptsExhausted) {
		log.Warnf("Room %s: %v, %d players share %d prompts", s.ID, err, s.roster.len(), len(s.promptPool))
	}
	s.prompts = prompts

	s.scheduleTimer(seconds(s.Rules.DrawingSec), "drawing", s.onDrawingTimeout)
	for _, p := range s.roster.all() {
		s.fireEventToPlayer(p.ID, GameEvent{
			Type:    EventPhaseChanged,
			Phase:   PhaseDrawing,
			Seconds: s.Rules.DrawingSec,
			Prompt:  s.prompts[p.ID],
			Players: s.roster.summaries(),
		})
	}
}

// SubmitOriginal records a player's drawing of their own prompt.
func (s *Session) SubmitOriginal(playerID, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDrawing {
		return ErrWrongPhase
	}
	if !s.roster.isActive(playerID) {
		return ErrPlayerNotFound
	}
	p, _ := s.roster.get(playerID)
	if p.HasSubmittedOriginal {
		return ErrAlreadySubmitted
	}

	s.originals[playerID] = image
	p.HasSubmittedOriginal = true
	log.Infof("Room %s: original received from %s", s.ID, playerID)

	sum := summarize(p)
	s.fireEvent(GameEvent{Type: EventDrawingSubmitted, Phase: s.phase, Player: &sum, Progress: s.drawingProgress()})
	s.logAction(playerID, "submit_original", nil)

	s.checkDrawingComplete()
	return nil
}

func (s *Session) drawingProgress() *Progress {
	connected := s.roster.connected()
	done := 0
	for _, p := range connected {
		if p.HasSubmittedOriginal {
			done++
		}
	}
	return &Progress{Submitted: done, Expected: len(connected)}
}

// checkDrawingComplete advances as soon as every connected player has drawn.
// Assumes lock is held.
func (s *Session) checkDrawingComplete() {
	for _, p := range s.roster.connected() {
		if !p.HasSubmittedOriginal {
			return
		}
	}
	log.Infof("Room %s: all originals in, advancing early", s.ID)
	s.timer.cancel()
	s.fireEvent(GameEvent{Type: EventEarlyAdvance, Phase: PhaseDrawing})
	s.finishDrawing()
}

func (s *Session) onDrawingTimeout() {
	log.Infof("Room %s: drawing timer expired", s.ID)
	s.finishDrawing()
}

// finishDrawing fills missing originals with the blank placeholder and moves on.
// Assumes lock is held.
func (s *Session) finishDrawing() {
	if s.phase != PhaseDrawing {
		return
	}
	for _, id := range s.roster.ids() {
		if _, ok := s.originals[id]; !ok {
			s.originals[id] = BlankImage
		}
	}
	s.startCopying()
}
