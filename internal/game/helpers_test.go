package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []GameEvent
	playerEvents map[string][]GameEvent
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{playerEvents: make(map[string][]GameEvent)}
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(playerID string, ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = nil
	mb.playerEvents = make(map[string][]GameEvent)
}

func (mb *mockBroadcaster) getLastEvent() *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.allEvents) == 0 {
		return nil
	}
	return &mb.allEvents[len(mb.allEvents)-1]
}

func (mb *mockBroadcaster) getLastPlayerEvent(playerID string) *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events := mb.playerEvents[playerID]
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

// eventsOfType returns every room-wide event of type t, oldest first.
func (mb *mockBroadcaster) eventsOfType(t GameEventType) []GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []GameEvent
	for _, ev := range mb.allEvents {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// manualTimer is a scheduled callback that only runs when a test fires it.
type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// fire runs the callback even if the timer was stopped, the way a real timer that
// already expired would race a Stop call.
func (t *manualTimer) fire() {
	t.fired = true
	t.f()
}

type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	m.timers = append(m.timers, t)
	return t
}

// pending returns the most recently scheduled timer that is neither stopped nor fired.
func (m *manualScheduler) pending() *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.timers) - 1; i >= 0; i-- {
		if t := m.timers[i]; !t.stopped && !t.fired {
			return t
		}
	}
	return nil
}

func (m *manualScheduler) firePending(t *testing.T) {
	t.Helper()
	tm := m.pending()
	require.NotNil(t, tm, "expected a pending timer")
	tm.fire()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func noShuffle(int, func(i, j int)) {}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("d%d", n)
	}
}

type testRoom struct {
	s     *Session
	mb    *mockBroadcaster
	sched *manualScheduler
	clock *fakeClock
}

func testRules() Rules {
	r := DefaultRules()
	r.MinCopyingSec = 5
	r.MinVotingSec = 3
	return r
}

// setupTestRoom creates a room with deterministic ordering, IDs, clock and timers.
func setupTestRoom(t *testing.T, rules Rules, persister Persister) *testRoom {
	t.Helper()
	mb := newMockBroadcaster()
	sched := &manualScheduler{}
	clock := newFakeClock()

	s, err := NewSession(&SessionConfig{
		RoomID:    "ROOM0001",
		Rules:     rules,
		Prompts:   []string{"P1", "P2", "P3", "P4", "P5"},
		Clock:     clock,
		Scheduler: sched,
		Shuffle:   noShuffle,
		NewID:     sequentialIDs(),
		Persister: persister,
	})
	require.NoError(t, err)
	s.BroadcastFn = mb.broadcastFn
	s.BroadcastToPlayerFn = mb.broadcastToPlayerFn
	return &testRoom{s: s, mb: mb, sched: sched, clock: clock}
}

// seat joins each player with a balance of 100.
func (tr *testRoom) seat(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, tr.s.Join(id, "user-"+id, 100))
	}
}

// startWith seats the players and fires the lobby countdown.
func (tr *testRoom) startWith(t *testing.T, ids ...string) {
	t.Helper()
	tr.seat(t, ids...)
	tr.sched.firePending(t)
	require.Equal(t, PhaseDrawing, tr.s.Phase())
}

// drawAll submits an original for every listed player.
func (tr *testRoom) drawAll(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, tr.s.SubmitOriginal(id, "data:image/png;base64,orig-"+id))
	}
}

// copyAll submits every assigned copy for the listed players.
func (tr *testRoom) copyAll(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		for _, target := range tr.targets(id) {
			require.NoError(t, tr.s.SubmitCopy(id, target, "data:image/png;base64,copy-"+id+"-of-"+target))
		}
	}
}

func (tr *testRoom) targets(id string) []string {
	tr.s.mu.Lock()
	defer tr.s.mu.Unlock()
	return append([]string(nil), tr.s.assignments[id]...)
}

func (tr *testRoom) set(idx int) *DrawingSet {
	tr.s.mu.Lock()
	defer tr.s.mu.Unlock()
	return tr.s.sets[idx]
}

func (tr *testRoom) player(id string) PlayerSummary {
	tr.s.mu.Lock()
	defer tr.s.mu.Unlock()
	p, _ := tr.s.roster.get(id)
	return summarize(p)
}

// drawingOf returns the drawing ID owned by playerID in set idx.
func (tr *testRoom) drawingOf(t *testing.T, idx int, playerID string) string {
	t.Helper()
	for _, e := range tr.set(idx).Entries {
		if e.PlayerID == playerID {
			return e.DrawingID
		}
	}
	t.Fatalf("player %s has no drawing in set %d", playerID, idx)
	return ""
}
