// internal/lobby/manager.go
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/plagiarist/internal/game"
	log "github.com/sirupsen/logrus"
)

var (
	ErrRoomNotFound    = fmt.Errorf("%w: room not found", game.ErrIneligibleAction)
	ErrNotSeated       = fmt.Errorf("%w: player is not in this room", game.ErrIneligibleAction)
	ErrSeatedElsewhere = fmt.Errorf("%w: player is already in another room", game.ErrDuplicateAction)
)

// BalanceSource returns the balance a player brings into a room, creating the player
// with initial tokens when it has never seen them.
type BalanceSource interface {
	PlayerBalance(ctx context.Context, playerID, username string, initial int) (int, error)
}

// Broadcaster delivers room events to connected clients.
type Broadcaster interface {
	Broadcast(roomID string, ev game.GameEvent)
	SendToPlayer(roomID, playerID string, ev game.GameEvent)
	CloseRoom(roomID string)
}

// ManagerConfig configures a Manager. Rules are the defaults for new rooms and for the
// default room that is always kept open.
type ManagerConfig struct {
	Rules         game.Rules
	Prompts       []string
	Balances      BalanceSource
	Persister     game.Persister
	Actions       game.ActionPublisher
	Broadcaster   Broadcaster
	ResultsLinger time.Duration // how long a finished room stays listed

	Clock     game.Clock
	Scheduler game.Scheduler
}

// Manager owns every live room and knows which room each player sits in.
type Manager struct {
	cfg   ManagerConfig
	store *RoomStore

	mu         sync.Mutex
	playerRoom map[string]string // player ID -> room ID
}

func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		cfg:        cfg,
		store:      NewRoomStore(),
		playerRoom: make(map[string]string),
	}
}

// DefaultRules are the rules new rooms start from.
func (m *Manager) DefaultRules() game.Rules {
	return m.cfg.Rules
}

// CreateRoom opens a new WAITING room with the given rules.
func (m *Manager) CreateRoom(rules game.Rules) (*game.Session, error) {
	room, err := game.NewSession(&game.SessionConfig{
		Rules:     rules,
		Prompts:   m.cfg.Prompts,
		Clock:     m.cfg.Clock,
		Scheduler: m.cfg.Scheduler,
		Persister: m.cfg.Persister,
		Actions:   m.cfg.Actions,
	})
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	if b := m.cfg.Broadcaster; b != nil {
		roomID := room.ID
		room.BroadcastFn = func(ev game.GameEvent) { b.Broadcast(roomID, ev) }
		room.BroadcastToPlayerFn = func(playerID string, ev game.GameEvent) { b.SendToPlayer(roomID, playerID, ev) }
	}
	room.OnEmpty = m.onRoomEmpty
	room.OnGameStarted = func(string) { m.EnsureDefaultRoom() }
	room.OnGameEnd = m.onGameEnd

	if !m.store.Add(room) {
		room.Close()
		return nil, fmt.Errorf("create room: id %s already in use", room.ID)
	}
	log.Infof("Manager: created room %s (min stake %d)", room.ID, rules.MinStake)
	return room, nil
}

func (m *Manager) GetRoom(id string) (*game.Session, bool) {
	return m.store.Get(id)
}

// ListRooms summarizes every room, newest first.
func (m *Manager) ListRooms() []game.RoomSummary {
	rooms := m.store.All()
	out := make([]game.RoomSummary, 0, len(rooms))
	for i := len(rooms) - 1; i >= 0; i-- {
		out = append(out, rooms[i].Summary())
	}
	return out
}

// RoomOf returns the room the player is seated in.
func (m *Manager) RoomOf(playerID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.playerRoom[playerID]
	return id, ok
}

// JoinRoom seats the player in roomID with the balance reported by the BalanceSource.
// The room is returned even when the session refuses the join, so callers can tell a
// rejoin (game.ErrAlreadyJoined) from other failures.
func (m *Manager) JoinRoom(ctx context.Context, roomID, playerID, username string) (*game.Session, error) {
	room, ok := m.store.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}

	m.mu.Lock()
	if current, seated := m.playerRoom[playerID]; seated && current != roomID {
		if other, ok := m.store.Get(current); ok && !other.Phase().Terminal() {
			m.mu.Unlock()
			return nil, ErrSeatedElsewhere
		}
		delete(m.playerRoom, playerID)
	}
	m.mu.Unlock()

	balance := room.Rules.InitialBalance
	if m.cfg.Balances != nil {
		b, err := m.cfg.Balances.PlayerBalance(ctx, playerID, username, room.Rules.InitialBalance)
		if err != nil {
			return nil, fmt.Errorf("look up balance for %s: %w", playerID, err)
		}
		balance = b
	}

	if err := room.Join(playerID, username, balance); err != nil {
		return room, err
	}
	m.mu.Lock()
	m.playerRoom[playerID] = roomID
	m.mu.Unlock()
	return room, nil
}

// LeaveRoom takes the player out of roomID. A player who leaves a running game stays
// indexed to it until the game ends, since their stake is still in play there.
func (m *Manager) LeaveRoom(roomID, playerID string) error {
	room, ok := m.store.Get(roomID)
	if !ok {
		m.forget(playerID, roomID)
		return ErrRoomNotFound
	}
	err := room.Leave(playerID)
	if !room.Holds(playerID) {
		m.forget(playerID, roomID)
	}
	if err != nil {
		if errors.Is(err, game.ErrPlayerNotFound) {
			return ErrNotSeated
		}
		return err
	}
	return nil
}

func (m *Manager) forget(playerID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playerRoom[playerID] == roomID {
		delete(m.playerRoom, playerID)
	}
}

// RemoveRoom closes the room, forgets its players and tops the default room back up.
func (m *Manager) RemoveRoom(id string) {
	room, ok := m.store.Delete(id)
	if !ok {
		return
	}
	room.Close()

	m.mu.Lock()
	for playerID, roomID := range m.playerRoom {
		if roomID == id {
			delete(m.playerRoom, playerID)
		}
	}
	m.mu.Unlock()

	if b := m.cfg.Broadcaster; b != nil {
		b.CloseRoom(id)
	}
	m.EnsureDefaultRoom()
}

// EnsureDefaultRoom keeps at least one joinable WAITING room at the default stake and
// returns it.
func (m *Manager) EnsureDefaultRoom() *game.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, room := range m.store.All() {
		sum := room.Summary()
		if sum.Phase == game.PhaseWaiting && sum.MinStake == m.cfg.Rules.MinStake && sum.PlayerCount < sum.MaxPlayers {
			return room
		}
	}
	room, err := m.CreateRoom(m.cfg.Rules)
	if err != nil {
		log.Errorf("Manager: failed to create default room: %v", err)
		return nil
	}
	log.Infof("Manager: default room %s opened", room.ID)
	return room
}

// Close stops every room's timers.
func (m *Manager) Close() {
	for _, room := range m.store.All() {
		room.Close()
	}
}

func (m *Manager) onRoomEmpty(roomID string) {
	log.Infof("Manager: room %s is empty", roomID)
	m.RemoveRoom(roomID)
}

func (m *Manager) onGameEnd(roomID string, phase game.Phase) {
	log.Infof("Manager: room %s finished (%s), removing in %s", roomID, phase, m.cfg.ResultsLinger)
	if m.cfg.ResultsLinger <= 0 {
		m.RemoveRoom(roomID)
		return
	}
	sched := m.cfg.Scheduler
	if sched == nil {
		time.AfterFunc(m.cfg.ResultsLinger, func() { m.RemoveRoom(roomID) })
		return
	}
	sched.AfterFunc(m.cfg.ResultsLinger, func() { m.RemoveRoom(roomID) })
}

// ForceStart starts a WAITING room without waiting for its countdown.
func (m *Manager) ForceStart(roomID string) error {
	room, ok := m.store.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if err := room.ForceStart(); err != nil {
		return err
	}
	log.Infof("Manager: room %s force started", roomID)
	return nil
}

// DebugState is an operator's view of every live room.
type DebugState struct {
	TotalRooms   int                `json:"totalRooms"`
	TotalPlayers int                `json:"totalPlayers"`
	Rooms        []game.RoomSummary `json:"rooms"`
}

func (m *Manager) DebugState() DebugState {
	rooms := m.ListRooms()
	m.mu.Lock()
	players := len(m.playerRoom)
	m.mu.Unlock()
	return DebugState{TotalRooms: len(rooms), TotalPlayers: players, Rooms: rooms}
}

// CleanupRooms removes every room nobody is seated in and returns their IDs. A fresh
// default room is opened afterwards.
func (m *Manager) CleanupRooms() []string {
	cleaned := []string{}
	for _, room := range m.store.All() {
		if room.PlayerCount() > 0 {
			continue
		}
		m.RemoveRoom(room.ID)
		cleaned = append(cleaned, room.ID)
	}
	m.EnsureDefaultRoom()
	log.Infof("Manager: cleanup removed %d empty rooms", len(cleaned))
	return cleaned
}
