// internal/game/persister.go
package game

import (
	"context"

	"github.com/jason-s-yu/plagiarist/internal/cache"
	"github.com/jason-s-yu/plagiarist/internal/models"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_persister.go github.com/jason-s-yu/plagiarist/internal/game Persister

// Persister stores balances and per-game statistics outside the room. A Session only
// ever calls it from background goroutines; errors are logged and never affect play.
type Persister interface {
	RecordRoomJoin(ctx context.Context, roomID, playerID string) error
	UpdatePlayerBalance(ctx context.Context, playerID string, newBalance int) error
	RecordPlayerGameCompletion(ctx context.Context, roomID string, stats models.PlayerStats) error
}

// ActionPublisher receives the room's action log. *cache.Publisher implements it.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, record cache.GameActionRecord) error
}
