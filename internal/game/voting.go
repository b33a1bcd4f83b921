// internal/game/voting.go
package game

import (
	"slices"

	log "github.com/sirupsen/logrus"
)

// DrawingEntry is one drawing in a set. DrawingID is the only field voters ever see
// besides the image.
type DrawingEntry struct {
	DrawingID  string `json:"drawingId"`
	PlayerID   string `json:"playerId"`
	IsOriginal bool   `json:"isOriginal"`
	Image      string `json:"image"`
}

// DrawingSet is an original together with every copy made of it.
type DrawingSet struct {
	OriginalPlayerID string         `json:"originalPlayerId"`
	Prompt           string         `json:"prompt"`
	Copiers          []string       `json:"copiers"`
	Entries          []DrawingEntry `json:"entries"`
}

// Contributors lists the original drawer followed by the copiers.
func (ds *DrawingSet) Contributors() []string {
	return append([]string{ds.OriginalPlayerID}, ds.Copiers...)
}

// HasContributor reports whether playerID drew anything in this set.
func (ds *DrawingSet) HasContributor(playerID string) bool {
	return playerID == ds.OriginalPlayerID || slices.Contains(ds.Copiers, playerID)
}

func (ds *DrawingSet) entry(drawingID string) (DrawingEntry, bool) {
	for _, e := range ds.Entries {
		if e.DrawingID == drawingID {
			return e, true
		}
	}
	return DrawingEntry{}, false
}

func (ds *DrawingSet) anonymized() []AnonymousDrawing {
	out := make([]AnonymousDrawing, 0, len(ds.Entries))
	for _, e := range ds.Entries {
		out = append(out, AnonymousDrawing{DrawingID: e.DrawingID, Image: e.Image})
	}
	return out
}

// buildDrawingSets makes one set per original, in roster order. Copies missing from
// copies are filled with the blank placeholder so every set has one slot per copier.
func buildDrawingSets(
	playerIDs []string,
	prompts map[string]string,
	originals map[string]string,
	assignments map[string][]string,
	copies map[string]map[string]string,
	newID func() string,
	shuffle ShuffleFunc,
) []*DrawingSet {
	sets := make([]*DrawingSet, 0, len(playerIDs))
	for _, owner := range playerIDs {
		img, ok := originals[owner]
		if !ok {
			continue
		}
		set := &DrawingSet{OriginalPlayerID: owner, Prompt: prompts[owner]}
		set.Entries = append(set.Entries, DrawingEntry{DrawingID: newID(), PlayerID: owner, IsOriginal: true, Image: img})
		for _, copier := range playerIDs {
			if !slices.Contains(assignments[copier], owner) {
				continue
			}
			copyImg := copies[copier][owner]
			if copyImg == "" {
				copyImg = BlankImage
			}
			set.Copiers = append(set.Copiers, copier)
			set.Entries = append(set.Entries, DrawingEntry{DrawingID: newID(), PlayerID: copier, Image: copyImg})
		}
		shuffle(len(set.Entries), func(i, j int) { set.Entries[i], set.Entries[j] = set.Entries[j], set.Entries[i] })
		sets = append(sets, set)
	}
	return sets
}

// startVoting builds the drawing sets and opens the first round. Assumes lock is held.
func (s *Session) startVoting() {
	if !s.advancePhase(PhaseVoting) {
		return
	}
	s.sets = buildDrawingSets(s.roster.ids(), s.prompts, s.originals, s.assignments, s.copies, s.newID, s.shuffle)
	s.fireEvent(GameEvent{Type: EventPhaseChanged, Phase: PhaseVoting, Seconds: s.Rules.VotingSec})

	if len(s.sets) == 0 {
		s.calculateResults()
		return
	}
	s.startRound(0)
}

// eligibleVoters is every connected player with no drawing in the set.
func (s *Session) eligibleVoters(setIndex int) []string {
	set := s.sets[setIndex]
	var out []string
	for _, p := range s.roster.connected() {
		if !set.HasContributor(p.ID) {
			out = append(out, p.ID)
		}
	}
	return out
}

// startRound puts one set to the vote. Assumes lock is held.
func (s *Session) startRound(setIndex int) {
	s.currentSet = setIndex
	s.phaseStarted = s.clock.Now()
	s.votes[setIndex] = make(map[string]string)
	set := s.sets[setIndex]
	eligible := s.eligibleVoters(setIndex)
	log.Infof("Room %s: voting on set %d/%d (%d eligible)", s.ID, setIndex+1, len(s.sets), len(eligible))

	s.scheduleTimer(seconds(s.Rules.VotingSec), "voting", s.onVotingTimeout)
	for _, p := range s.roster.connected() {
		round := VotingRound{
			SetIndex:  setIndex,
			TotalSets: len(s.sets),
			Prompt:    set.Prompt,
			Drawings:  set.anonymized(),
			CanVote:   slices.Contains(eligible, p.ID),
		}
		evType := EventVotingRound
		if !round.CanVote {
			evType = EventVotingExcluded
		}
		s.fireEventToPlayer(p.ID, GameEvent{Type: evType, Phase: PhaseVoting, Seconds: s.Rules.VotingSec, Round: &round})
	}
	s.logAction("", "voting_round", map[string]interface{}{"set_index": setIndex, "eligible": eligible})

	s.checkRoundComplete()
}

// SubmitVote records a vote for drawingID in the set currently being voted on.
func (s *Session) SubmitVote(playerID string, setIndex int, drawingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseVoting || setIndex != s.currentSet {
		return ErrWrongPhase
	}
	p, ok := s.roster.get(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	set := s.sets[setIndex]
	if !p.Connected || set.HasContributor(playerID) {
		return ErrIneligibleVoter
	}
	if _, voted := s.votes[setIndex][playerID]; voted {
		return ErrDuplicateVote
	}
	if _, found := set.entry(drawingID); !found {
		return ErrInvalidChoice
	}

	s.votes[setIndex][playerID] = drawingID
	log.Infof("Room %s: vote from %s on set %d", s.ID, playerID, setIndex)

	sum := summarize(p)
	s.fireEvent(GameEvent{
		Type:     EventVoteCast,
		Phase:    s.phase,
		Player:   &sum,
		Progress: &Progress{Submitted: len(s.votes[setIndex]), Expected: len(s.eligibleVoters(setIndex))},
	})
	s.logAction(playerID, "vote", map[string]interface{}{"set_index": setIndex, "drawing_id": drawingID})

	s.checkRoundComplete()
	return nil
}

// checkRoundComplete advances once every eligible voter has voted and the round has
// run for at least MinVotingSec. A round nobody may vote in counts as complete.
// Assumes lock is held.
func (s *Session) checkRoundComplete() {
	votes := s.votes[s.currentSet]
	for _, id := range s.eligibleVoters(s.currentSet) {
		if _, ok := votes[id]; !ok {
			return
		}
	}
	s.advanceAfterFloor("voting", seconds(s.Rules.MinVotingSec), s.advanceRound)
}

func (s *Session) onVotingTimeout() {
	log.Infof("Room %s: voting timer expired on set %d", s.ID, s.currentSet)
	s.advanceRound()
}

// advanceRound opens the next set, or scores the game after the last one.
// Assumes lock is held.
func (s *Session) advanceRound() {
	if s.phase != PhaseVoting {
		return
	}
	s.timer.cancel()
	if next := s.currentSet + 1; next < len(s.sets) {
		s.startRound(next)
		return
	}
	s.calculateResults()
}
