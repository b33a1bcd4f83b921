// internal/lobby/room_store.go
package lobby

import (
	"sort"
	"sync"

	"github.com/jason-s-yu/plagiarist/internal/game"
	log "github.com/sirupsen/logrus"
)

// RoomStore holds the live rooms in memory, keyed by room ID.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*game.Session
}

// NewRoomStore returns an empty RoomStore.
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*game.Session)}
}

// Add stores room. A room whose ID is already taken is rejected.
func (s *RoomStore) Add(room *game.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.ID]; exists {
		log.Warnf("RoomStore: room %s already exists", room.ID)
		return false
	}
	s.rooms[room.ID] = room
	log.Infof("RoomStore: added room %s", room.ID)
	return true
}

// Delete removes the room and returns it, if it was present.
func (s *RoomStore) Delete(id string) (*game.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if ok {
		delete(s.rooms, id)
		log.Infof("RoomStore: deleted room %s", id)
	}
	return room, ok
}

func (s *RoomStore) Get(id string) (*game.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	return room, ok
}

// All returns every room, oldest first. Callers must not hold the store lock while
// calling into the rooms, so the slice is a copy.
func (s *RoomStore) All() []*game.Session {
	s.mu.Lock()
	out := make([]*game.Session, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
