// internal/game/roster.go
package game

import (
	"context"

	"github.com/jason-s-yu/plagiarist/internal/models"
	log "github.com/sirupsen/logrus"
)

// roster is the room's players in join order.
type roster struct {
	order   []string
	players map[string]*models.Player
}

func newRoster() *roster {
	return &roster{players: make(map[string]*models.Player)}
}

func (r *roster) add(p *models.Player) {
	r.order = append(r.order, p.ID)
	r.players[p.ID] = p
}

func (r *roster) get(id string) (*models.Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *roster) remove(id string) {
	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *roster) len() int { return len(r.order) }

func (r *roster) all() []*models.Player {
	out := make([]*models.Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

func (r *roster) ids() []string {
	return append([]string(nil), r.order...)
}

func (r *roster) connected() []*models.Player {
	out := make([]*models.Player, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; p.Connected {
			out = append(out, p)
		}
	}
	return out
}

func (r *roster) activeCount() int {
	n := 0
	for _, p := range r.players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (r *roster) isActive(id string) bool {
	p, ok := r.players[id]
	return ok && p.Connected
}

func (r *roster) summaries() []PlayerSummary {
	out := make([]PlayerSummary, 0, len(r.order))
	for _, p := range r.all() {
		out = append(out, summarize(p))
	}
	return out
}

// Join seats a player who arrives with the given balance. The entry fee is taken
// immediately and is not refunded.
func (s *Session) Join(playerID, username string, balance int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.roster.get(playerID); exists {
		return ErrAlreadyJoined
	}
	if s.roster.len() >= s.Rules.MaxPlayers {
		return ErrRoomFull
	}
	if s.phase != PhaseWaiting {
		return ErrWrongPhase
	}
	if balance < s.Rules.EntryFee {
		return ErrInsufficientBalance
	}

	p := &models.Player{
		ID:              playerID,
		Username:        username,
		Balance:         balance - s.Rules.EntryFee,
		Connected:       true,
		StartingBalance: balance,
		JoinedAt:        s.clock.Now(),
	}
	s.roster.add(p)
	log.Infof("Room %s: player %s (%s) joined (%d/%d)", s.ID, playerID, username, s.roster.len(), s.Rules.MaxPlayers)

	sum := summarize(p)
	s.fireEvent(GameEvent{Type: EventPlayerJoined, Phase: s.phase, Player: &sum, Players: s.roster.summaries()})
	s.logAction(playerID, "join", map[string]interface{}{"username": username, "entry_fee": s.Rules.EntryFee})

	roomID, newBalance := s.ID, p.Balance
	s.persist("room join", func(ctx context.Context, ps Persister) error {
		if err := ps.RecordRoomJoin(ctx, roomID, playerID); err != nil {
			return err
		}
		return ps.UpdatePlayerBalance(ctx, playerID, newBalance)
	})

	s.updateCountdown(playerID)
	return nil
}

// PlaceStake sets the player's wager for the coming game. A previous stake is returned
// to the balance before the new one is taken.
func (s *Session) PlaceStake(playerID string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseWaiting {
		return ErrWrongPhase
	}
	p, ok := s.roster.get(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	if amount < 0 || amount < s.Rules.MinStake {
		return ErrStakeTooLow
	}
	available := p.Balance + p.Stake
	if amount > available {
		return ErrInsufficientBalance
	}

	p.Balance = available - amount
	p.Stake = amount
	sum := summarize(p)
	s.fireEvent(GameEvent{Type: EventStakePlaced, Phase: s.phase, Player: &sum})
	s.logAction(playerID, "stake", map[string]interface{}{"amount": amount})
	return nil
}

// Leave removes the player while no game is running. Mid-game the player is only
// marked disconnected, so the sets they contributed to stay intact.
func (s *Session) Leave(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.roster.get(playerID)
	if !ok {
		return ErrPlayerNotFound
	}

	switch {
	case s.phase == PhaseWaiting:
		refund := p.Stake
		p.Balance += refund
		p.Stake = 0
		s.roster.remove(playerID)
		log.Infof("Room %s: player %s left, stake %d refunded", s.ID, playerID, refund)

		sum := summarize(p)
		s.fireEvent(GameEvent{Type: EventPlayerLeft, Phase: s.phase, Player: &sum, Players: s.roster.summaries()})
		s.logAction(playerID, "leave", map[string]interface{}{"refund": refund})
		if refund > 0 {
			balance := p.Balance
			s.persist("stake refund", func(ctx context.Context, ps Persister) error {
				return ps.UpdatePlayerBalance(ctx, playerID, balance)
			})
		}
		s.updateCountdown("")

	case s.phase.Terminal():
		s.roster.remove(playerID)
		sum := summarize(p)
		s.fireEvent(GameEvent{Type: EventPlayerLeft, Phase: s.phase, Player: &sum, Players: s.roster.summaries()})

	default:
		if !p.Connected {
			return ErrPlayerNotFound
		}
		p.Connected = false
		log.Infof("Room %s: player %s disconnected during %s", s.ID, playerID, s.phase)

		sum := summarize(p)
		s.fireEvent(GameEvent{Type: EventPlayerDisconnected, Phase: s.phase, Player: &sum})
		s.logAction(playerID, "disconnect", map[string]interface{}{"phase": string(s.phase)})

		if s.roster.activeCount() < s.Rules.MinPlayers {
			s.endEarly("not enough players remaining")
		} else {
			s.recheckProgress()
		}
	}

	if s.roster.len() == 0 && s.OnEmpty != nil {
		go s.OnEmpty(s.ID)
	}
	return nil
}

// recheckProgress re-evaluates early advance after the set of connected players shrank.
// Assumes lock is held.
func (s *Session) recheckProgress() {
	switch s.phase {
	case PhaseDrawing:
		s.checkDrawingComplete()
	case PhaseCopying:
		s.checkCopyingComplete()
	case PhaseVoting:
		s.checkRoundComplete()
	}
}

// updateCountdown starts or cancels the lobby countdown after the roster changed.
// joinedID, when set, is the player who just arrived. Assumes lock is held.
func (s *Session) updateCountdown(joinedID string) {
	count := s.roster.len()
	switch {
	case count >= s.Rules.MaxPlayers:
		log.Infof("Room %s: room is full, starting now", s.ID)
		s.startGame()

	case count >= s.Rules.MinPlayers:
		if !s.timer.active() {
			log.Infof("Room %s: countdown started (%ds)", s.ID, s.Rules.CountdownSec)
			s.scheduleTimer(seconds(s.Rules.CountdownSec), "countdown", s.startGame)
			s.fireEvent(GameEvent{Type: EventCountdownStarted, Phase: s.phase, Seconds: s.Rules.CountdownSec})
			return
		}
		if joinedID != "" {
			remaining := s.timer.remainingSeconds(s.clock.Now())
			s.fireEventToPlayer(joinedID, GameEvent{Type: EventCountdownStarted, Phase: s.phase, Seconds: remaining})
		}

	default:
		if s.timer.active() {
			s.timer.cancel()
			log.Infof("Room %s: countdown cancelled, %d players", s.ID, count)
			s.fireEvent(GameEvent{Type: EventCountdownCancelled, Phase: s.phase})
		}
	}
}
