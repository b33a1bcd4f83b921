// internal/database/ledger.go
package database

import (
	"context"

	"github.com/jason-s-yu/plagiarist/internal/cache"
	"github.com/jason-s-yu/plagiarist/internal/models"
)

// Ledger exposes the player tables to the game rooms: it reports balances to the room
// manager and stores what the rooms persist.
type Ledger struct{}

func (Ledger) PlayerBalance(ctx context.Context, playerID, username string, initial int) (int, error) {
	u, err := GetOrCreatePlayer(ctx, playerID, username, initial)
	if err != nil {
		return 0, err
	}
	return u.Balance, nil
}

func (Ledger) RecordRoomJoin(ctx context.Context, roomID, playerID string) error {
	return RecordRoomJoin(ctx, roomID, playerID)
}

func (Ledger) UpdatePlayerBalance(ctx context.Context, playerID string, newBalance int) error {
	return UpdatePlayerBalance(ctx, playerID, newBalance)
}

func (Ledger) RecordPlayerGameCompletion(ctx context.Context, roomID string, stats models.PlayerStats) error {
	return RecordGameCompletion(ctx, roomID, stats)
}

// InsertGameActions lets the historian flush into the game_actions table.
func (Ledger) InsertGameActions(ctx context.Context, records []cache.GameActionRecord) error {
	return InsertGameActions(ctx, records)
}

func (Ledger) GetPlayer(ctx context.Context, playerID string) (*models.User, error) {
	return GetPlayer(ctx, playerID)
}

func (Ledger) GetLeaderboard(ctx context.Context, limit int) ([]models.User, error) {
	return GetLeaderboard(ctx, limit)
}
