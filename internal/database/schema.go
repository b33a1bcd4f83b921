// internal/database/schema.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id                   TEXT PRIMARY KEY,
		username             TEXT NOT NULL,
		balance              INTEGER NOT NULL DEFAULT 100,
		games_played         INTEGER NOT NULL DEFAULT 0,
		total_winnings       INTEGER NOT NULL DEFAULT 0,
		total_losses         INTEGER NOT NULL DEFAULT 0,
		successful_originals INTEGER NOT NULL DEFAULT 0,
		successful_copies    INTEGER NOT NULL DEFAULT 0,
		total_originals      INTEGER NOT NULL DEFAULT 0,
		total_copies         INTEGER NOT NULL DEFAULT 0,
		total_votes_cast     INTEGER NOT NULL DEFAULT 0,
		correct_votes        INTEGER NOT NULL DEFAULT 0,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_played          TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS game_history (
		id              BIGSERIAL PRIMARY KEY,
		room_id         TEXT NOT NULL,
		player_id       TEXT NOT NULL REFERENCES players (id),
		username        TEXT NOT NULL,
		balance_before  INTEGER NOT NULL,
		balance_after   INTEGER NOT NULL,
		stake           INTEGER NOT NULL,
		points_earned   INTEGER NOT NULL DEFAULT 0,
		originals_drawn INTEGER NOT NULL DEFAULT 0,
		copies_made     INTEGER NOT NULL DEFAULT 0,
		votes_cast      INTEGER NOT NULL DEFAULT 0,
		correct_votes   INTEGER NOT NULL DEFAULT 0,
		game_date       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS game_actions (
		id             BIGSERIAL PRIMARY KEY,
		room_id        TEXT NOT NULL,
		action_index   INTEGER NOT NULL,
		actor_id       TEXT,
		action_type    TEXT NOT NULL,
		action_payload JSONB,
		recorded_at    TIMESTAMPTZ NOT NULL,
		UNIQUE (room_id, action_index)
	)`,
	`CREATE TABLE IF NOT EXISTS room_joins (
		id        BIGSERIAL PRIMARY KEY,
		room_id   TEXT NOT NULL,
		player_id TEXT NOT NULL REFERENCES players (id),
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_players_username ON players (username)`,
	`CREATE INDEX IF NOT EXISTS idx_players_balance ON players (balance DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_game_history_player ON game_history (player_id)`,
	`CREATE INDEX IF NOT EXISTS idx_game_history_room ON game_history (room_id)`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
