// internal/database/action.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/plagiarist/internal/cache"
)

// RecordRoomJoin notes that a player sat down in a room.
func RecordRoomJoin(ctx context.Context, roomID, playerID string) error {
	_, err := DB.Exec(ctx, `INSERT INTO room_joins (room_id, player_id) VALUES ($1, $2)`, roomID, playerID)
	if err != nil {
		return fmt.Errorf("record join of %s to room %s: %w", playerID, roomID, err)
	}
	return nil
}

// InsertGameActions stores a batch of action log records in one transaction. Records
// already stored under the same room and index are skipped, so a replayed batch is harmless.
func InsertGameActions(ctx context.Context, records []cache.GameActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	q := `
	INSERT INTO game_actions (room_id, action_index, actor_id, action_type, action_payload, recorded_at)
	VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
	ON CONFLICT (room_id, action_index) DO NOTHING`

	batch := &pgx.Batch{}
	for _, rec := range records {
		payload, err := json.Marshal(rec.ActionPayload)
		if err != nil {
			return fmt.Errorf("marshal payload of %s/%d: %w", rec.RoomID, rec.ActionIndex, err)
		}
		batch.Queue(q, rec.RoomID, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, time.UnixMilli(rec.Timestamp))
	}

	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("insert %d game actions: %w", len(records), err)
	}
	return nil
}
