// internal/game/view.go
package game

import "time"

// RoomSummary is the room as listed in the lobby.
type RoomSummary struct {
	ID          string    `json:"id"`
	Phase       Phase     `json:"phase"`
	PlayerCount int       `json:"playerCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	MinStake    int       `json:"minStake"`
	EntryFee    int       `json:"entryFee"`
	CreatedAt   time.Time `json:"createdAt"`
}

// View is a snapshot of the room from one player's perspective, sent when the player
// (re)opens a connection. It never exposes other players' prompts or drawing owners.
type View struct {
	RoomID           string          `json:"roomId"`
	Phase            Phase           `json:"phase"`
	MinStake         int             `json:"minStake"`
	EntryFee         int             `json:"entryFee"`
	Players          []PlayerSummary `json:"players"`
	SecondsRemaining int             `json:"secondsRemaining"`

	Prompt               string       `json:"prompt,omitempty"`
	HasSubmittedOriginal bool         `json:"hasSubmittedOriginal,omitempty"`
	Targets              []CopyTarget `json:"targets,omitempty"`
	CopiedTargets        []string     `json:"copiedTargets,omitempty"`
	Round                *VotingRound `json:"round,omitempty"`
	HasVoted             bool         `json:"hasVoted,omitempty"`
	Results              *Results     `json:"results,omitempty"`
	EndedEarly           *EarlyEnd    `json:"endedEarly,omitempty"`
}

// Summary returns the room's lobby listing.
func (s *Session) Summary() RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RoomSummary{
		ID:          s.ID,
		Phase:       s.phase,
		PlayerCount: s.roster.len(),
		MaxPlayers:  s.Rules.MaxPlayers,
		MinStake:    s.Rules.MinStake,
		EntryFee:    s.Rules.EntryFee,
		CreatedAt:   s.CreatedAt,
	}
}

// Snapshot returns the room as forPlayer may see it.
func (s *Session) Snapshot(forPlayer string) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		RoomID:           s.ID,
		Phase:            s.phase,
		MinStake:         s.Rules.MinStake,
		EntryFee:         s.Rules.EntryFee,
		Players:          s.roster.summaries(),
		SecondsRemaining: s.timer.remainingSeconds(s.clock.Now()),
		Results:          s.results,
		EndedEarly:       s.endedEarly,
	}
	p, seated := s.roster.get(forPlayer)
	if !seated {
		return v
	}

	switch s.phase {
	case PhaseDrawing:
		v.Prompt = s.prompts[forPlayer]
		v.HasSubmittedOriginal = p.HasSubmittedOriginal
	case PhaseCopying:
		v.Targets = s.copyTargets(forPlayer)
		for _, t := range s.assignments[forPlayer] {
			if _, done := s.copies[forPlayer][t]; done {
				v.CopiedTargets = append(v.CopiedTargets, t)
			}
		}
	case PhaseVoting:
		set := s.sets[s.currentSet]
		v.Round = &VotingRound{
			SetIndex:  s.currentSet,
			TotalSets: len(s.sets),
			Prompt:    set.Prompt,
			Drawings:  set.anonymized(),
			CanVote:   p.Connected && !set.HasContributor(forPlayer),
		}
		_, v.HasVoted = s.votes[s.currentSet][forPlayer]
	}
	return v
}

// PlayerCount returns the number of seated players, connected or not.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.len()
}
