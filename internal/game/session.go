// internal/game/session.go
package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/plagiarist/internal/cache"
	"github.com/jason-s-yu/plagiarist/internal/models"
	log "github.com/sirupsen/logrus"
)

const (
	persistTimeout   = 5 * time.Second
	actionLogTimeout = 2 * time.Second
)

// ShuffleFunc permutes n elements through swap, with the signature of rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// SessionConfig holds everything a Session is created with. Only RoomID and Rules
// are required; the rest default to production implementations.
type SessionConfig struct {
	RoomID    string
	Rules     Rules
	Prompts   []string
	Clock     Clock
	Scheduler Scheduler
	Shuffle   ShuffleFunc
	NewID     func() string // opaque drawing IDs
	Persister Persister
	Actions   ActionPublisher
}

// Session is one room: its roster, its phase, and everything submitted so far.
// All state is guarded by mu; every exported method and every timer fire takes it,
// so a room processes exactly one event at a time.
type Session struct {
	ID        string
	Rules     Rules
	CreatedAt time.Time

	mu     sync.Mutex
	phase  Phase
	roster *roster

	prompts     map[string]string            // player -> prompt
	originals   map[string]string            // player -> image
	assignments map[string][]string          // copier -> targets
	copies      map[string]map[string]string // copier -> target -> image
	sets        []*DrawingSet
	votes       map[int]map[string]string // set index -> voter -> drawing ID
	currentSet  int

	phaseStarted      time.Time // start of the current phase, or of the current voting round
	resultsCalculated bool
	results           *Results
	endedEarly        *EarlyEnd

	timer       phaseTimer
	clock       Clock
	shuffle     ShuffleFunc
	newID       func() string
	promptPool  []string
	persister   Persister
	actions     ActionPublisher
	actionIndex int

	// BroadcastFn and BroadcastToPlayerFn deliver events. They run under the session
	// lock and must not block or call back into the session.
	BroadcastFn         func(ev GameEvent)
	BroadcastToPlayerFn func(playerID string, ev GameEvent)

	// OnGameStarted, OnGameEnd and OnEmpty notify the owner of the room. They run on
	// their own goroutine and may call back into the session.
	OnGameStarted func(roomID string)
	OnGameEnd     func(roomID string, phase Phase)
	OnEmpty       func(roomID string)
}

// NewRoomID returns a short room code: the first 8 characters of a UUID, upper-cased.
func NewRoomID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// NewSession validates cfg and returns a room in the WAITING phase.
func NewSession(cfg *SessionConfig) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("session config is required")
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		ID:          cfg.RoomID,
		Rules:       cfg.Rules,
		phase:       PhaseWaiting,
		roster:      newRoster(),
		prompts:     make(map[string]string),
		originals:   make(map[string]string),
		assignments: make(map[string][]string),
		copies:      make(map[string]map[string]string),
		votes:       make(map[int]map[string]string),
		clock:       cfg.Clock,
		shuffle:     cfg.Shuffle,
		newID:       cfg.NewID,
		promptPool:  append([]string(nil), cfg.Prompts...),
		persister:   cfg.Persister,
		actions:     cfg.Actions,
	}
	if s.ID == "" {
		s.ID = NewRoomID()
	}
	if s.clock == nil {
		s.clock = systemClock{}
	}
	if s.shuffle == nil {
		s.shuffle = rand.Shuffle
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.timer.sched = cfg.Scheduler
	if s.timer.sched == nil {
		s.timer.sched = systemScheduler{}
	}
	s.CreatedAt = s.clock.Now()
	s.phaseStarted = s.CreatedAt
	return s, nil
}

// Phase returns the room's current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Close stops any pending timer. The room must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer.cancel()
}

// advancePhase moves to next if it is a legal successor, cancelling the previous
// phase's timer in the same step. Assumes lock is held.
func (s *Session) advancePhase(next Phase) bool {
	if !s.phase.CanAdvanceTo(next) {
		log.Errorf("Room %s: illegal transition %s -> %s ignored", s.ID, s.phase, next)
		return false
	}
	s.timer.cancel()
	prev := s.phase
	s.phase = next
	s.phaseStarted = s.clock.Now()
	log.Infof("Room %s: %s -> %s", s.ID, prev, next)
	s.logAction("", "phase", map[string]interface{}{"from": string(prev), "to": string(next)})
	return true
}

// scheduleTimer replaces the room's pending timer. When it fires, onFire runs under
// the session lock unless the timer was superseded in the meantime. Assumes lock is held.
func (s *Session) scheduleTimer(d time.Duration, kind string, onFire func()) {
	s.timer.schedule(s.clock.Now(), d, func(gen uint64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.timer.claim(gen) {
			log.Debugf("Room %s: stale %s timer (gen %d) ignored", s.ID, kind, gen)
			return
		}
		log.Debugf("Room %s: %s timer fired in phase %s", s.ID, kind, s.phase)
		onFire()
	})
}

// advanceAfterFloor runs next now if the current phase (or voting round) has lasted at
// least floor. Otherwise the pending timer is pulled in so that next runs once it has.
// Assumes lock is held.
func (s *Session) advanceAfterFloor(kind string, floor time.Duration, next func()) {
	now := s.clock.Now()
	elapsed := now.Sub(s.phaseStarted)
	phase := s.phase
	advance := func() {
		s.fireEvent(GameEvent{Type: EventEarlyAdvance, Phase: phase})
		next()
	}
	if elapsed >= floor {
		s.timer.cancel()
		advance()
		return
	}

	wait := floor - elapsed
	if s.timer.active() && s.timer.remaining(now) <= wait {
		return
	}
	log.Debugf("Room %s: %s complete, advancing in %s", s.ID, kind, wait)
	s.scheduleTimer(wait, kind+" floor", advance)
}

// ForceStart starts a WAITING room now instead of waiting for the countdown.
func (s *Session) ForceStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseWaiting {
		return ErrWrongPhase
	}
	if s.roster.len() < s.Rules.MinPlayers {
		return ErrNotEnoughPlayers
	}
	log.Infof("Room %s: force started", s.ID)
	s.logAction("", "force_start", nil)
	s.startGame()
	return nil
}

// Holds reports whether playerID is committed to a running game in this room. A player
// who disconnected mid-game is still held: their stake stays in play until the end.
func (s *Session) Holds(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, seated := s.roster.get(playerID)
	return seated && s.phase.InGame()
}

// startGame commits stakes and opens the drawing phase. Assumes lock is held.
func (s *Session) startGame() {
	if s.phase != PhaseWaiting {
		return
	}
	if s.roster.len() < s.Rules.MinPlayers {
		log.Warnf("Room %s: cannot start with %d players", s.ID, s.roster.len())
		return
	}

	for _, p := range s.roster.all() {
		if p.Stake > 0 {
			continue
		}
		stake := min(s.Rules.MinStake, p.Balance)
		p.Balance -= stake
		p.Stake = stake
	}
	log.Infof("Room %s: starting game with %d players", s.ID, s.roster.len())
	s.logAction("", "game_start", map[string]interface{}{"players": s.roster.ids()})
	if s.OnGameStarted != nil {
		go s.OnGameStarted(s.ID)
	}
	s.startDrawing()
}

// endEarly stops the game, refunds stakes and skips scoring. Assumes lock is held.
func (s *Session) endEarly(reason string) {
	if !s.advancePhase(PhaseEndedEarly) {
		return
	}

	players := s.roster.all()
	refunds := refundStakes(players)
	stakes := make(map[string]int, len(players))
	final := make(map[string]int, len(players))
	for _, p := range players {
		stakes[p.ID] = p.Stake
		p.Balance += refunds[p.ID]
		p.Stake = 0
		final[p.ID] = p.Balance
	}
	s.endedEarly = &EarlyEnd{Reason: reason, Refunds: refunds, FinalBalances: final}
	log.Infof("Room %s: game ended early: %s", s.ID, reason)

	s.fireEvent(GameEvent{Type: EventGameEndedEarly, Phase: PhaseEndedEarly, EndedEarly: s.endedEarly, Players: s.roster.summaries()})
	s.logAction("", "ended_early", map[string]interface{}{"reason": reason, "refunds": refunds})
	s.persistOutcome(s.earlyStats(stakes))
	s.notifyGameEnd()
}

// calculateResults scores the game once and settles balances. Assumes lock is held.
func (s *Session) calculateResults() {
	if s.resultsCalculated {
		return
	}
	if !s.advancePhase(PhaseResults) {
		return
	}
	s.resultsCalculated = true

	res := Score(ScoreInput{
		Rules:   s.Rules,
		Players: s.roster.all(),
		Sets:    s.sets,
		Votes:   s.votes,
	})
	for _, p := range s.roster.all() {
		p.Balance = res.FinalBalances[p.ID]
		p.Stake = 0
	}
	s.results = res

	s.fireEvent(GameEvent{Type: EventGameResults, Phase: PhaseResults, Results: res, Players: s.roster.summaries()})
	s.logAction("", "results", map[string]interface{}{"points": res.Points, "balances": res.FinalBalances})

	stats := make([]models.PlayerStats, 0, len(res.Stats))
	for _, id := range s.roster.ids() {
		stats = append(stats, res.Stats[id])
	}
	s.persistOutcome(stats)
	s.notifyGameEnd()
}

// earlyStats builds the per-player summary for a game that never reached scoring.
func (s *Session) earlyStats(stakes map[string]int) []models.PlayerStats {
	out := make([]models.PlayerStats, 0, s.roster.len())
	for _, p := range s.roster.all() {
		votes, correct := 0, 0
		for idx, byVoter := range s.votes {
			choice, ok := byVoter[p.ID]
			if !ok {
				continue
			}
			votes++
			if e, found := s.sets[idx].entry(choice); found && e.IsOriginal {
				correct++
			}
		}
		originals := 0
		if p.HasSubmittedOriginal {
			originals = 1
		}
		out = append(out, models.PlayerStats{
			PlayerID:       p.ID,
			Username:       p.Username,
			OriginalsDrawn: originals,
			CopiesMade:     p.CopiesCompleted,
			VotesCast:      votes,
			CorrectVotes:   correct,
			Stake:          stakes[p.ID],
			BalanceBefore:  p.StartingBalance,
			BalanceAfter:   p.Balance,
		})
	}
	return out
}

func (s *Session) notifyGameEnd() {
	if s.OnGameEnd != nil {
		go s.OnGameEnd(s.ID, s.phase)
	}
}

// persistOutcome hands final balances and stats to the Persister without blocking the room.
func (s *Session) persistOutcome(stats []models.PlayerStats) {
	if s.persister == nil {
		return
	}
	p := s.persister
	roomID := s.ID
	for _, st := range stats {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := p.UpdatePlayerBalance(ctx, st.PlayerID, st.BalanceAfter); err != nil {
				log.Warnf("Room %s: failed to persist balance for %s: %v", roomID, st.PlayerID, err)
			}
			if err := p.RecordPlayerGameCompletion(ctx, roomID, st); err != nil {
				log.Warnf("Room %s: failed to record game completion for %s: %v", roomID, st.PlayerID, err)
			}
		}()
	}
}

// persist runs fn against the Persister on a background goroutine.
func (s *Session) persist(desc string, fn func(ctx context.Context, p Persister) error) {
	if s.persister == nil {
		return
	}
	p := s.persister
	roomID := s.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := fn(ctx, p); err != nil {
			log.Warnf("Room %s: failed to persist %s: %v", roomID, desc, err)
		}
	}()
}

// logAction appends to the room's action log. Assumes lock is held.
func (s *Session) logAction(actorID, actionType string, payload map[string]interface{}) {
	if s.actions == nil {
		return
	}
	s.actionIndex++
	record := cache.GameActionRecord{
		RoomID:        s.ID,
		ActionIndex:   s.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     s.clock.Now().UnixMilli(),
	}
	pub := s.actions
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), actionLogTimeout)
		defer cancel()
		if err := pub.PublishGameAction(ctx, record); err != nil {
			log.Errorf("Room %s: failed to publish action %d (%s): %v", record.RoomID, record.ActionIndex, actionType, err)
		}
	}()
}
