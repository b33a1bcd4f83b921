// internal/database/player.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/plagiarist/internal/models"
)

var ErrPlayerNotFound = errors.New("player not found")

const playerColumns = `id, username, balance, games_played, total_winnings, total_losses,
	successful_originals, successful_copies, total_originals, total_copies,
	total_votes_cast, correct_votes, created_at, last_played`

func scanPlayer(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Balance, &u.GamesPlayed, &u.TotalWinnings, &u.TotalLosses,
		&u.SuccessfulOriginals, &u.SuccessfulCopies, &u.TotalOriginals, &u.TotalCopies,
		&u.TotalVotesCast, &u.CorrectVotes, &u.CreatedAt, &u.LastPlayed,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetOrCreatePlayer returns the stored player, creating it with initialBalance tokens on
// first sight. A changed username is written through.
func GetOrCreatePlayer(ctx context.Context, id, username string, initialBalance int) (*models.User, error) {
	q := `
	INSERT INTO players (id, username, balance)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
	RETURNING ` + playerColumns
	u, err := scanPlayer(DB.QueryRow(ctx, q, id, username, initialBalance))
	if err != nil {
		return nil, fmt.Errorf("get or create player %s: %w", id, err)
	}
	return u, nil
}

func GetPlayer(ctx context.Context, id string) (*models.User, error) {
	q := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	u, err := scanPlayer(DB.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", id, err)
	}
	return u, nil
}

func UpdatePlayerBalance(ctx context.Context, id string, balance int) error {
	tag, err := DB.Exec(ctx, `UPDATE players SET balance = $1 WHERE id = $2`, balance, id)
	if err != nil {
		return fmt.Errorf("update balance for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// completionCounters are the lifetime counter increments one finished game adds.
type completionCounters struct {
	Winnings            int
	Losses              int
	SuccessfulOriginals int
	SuccessfulCopies    int
}

// countersFor derives the counter increments from a game's stats. An original is
// successful when somebody voted for it; copies are successful when they fooled a voter.
func countersFor(st models.PlayerStats) completionCounters {
	c := completionCounters{}
	if diff := st.BalanceAfter - st.BalanceBefore; diff > 0 {
		c.Winnings = diff
	} else {
		c.Losses = -diff
	}
	if st.OriginalVotes > 0 {
		c.SuccessfulOriginals = 1
	}
	if st.CopyVotes > 0 {
		c.SuccessfulCopies = 1
	}
	return c
}

// RecordGameCompletion writes a game_history row and folds the game into the player's
// lifetime counters and balance, in one transaction.
func RecordGameCompletion(ctx context.Context, roomID string, st models.PlayerStats) error {
	c := countersFor(st)
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		insertHistory := `
		INSERT INTO game_history (
			room_id, player_id, username, balance_before, balance_after, stake,
			points_earned, originals_drawn, copies_made, votes_cast, correct_votes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		if _, err := tx.Exec(ctx, insertHistory,
			roomID, st.PlayerID, st.Username, st.BalanceBefore, st.BalanceAfter, st.Stake,
			st.Points, st.OriginalsDrawn, st.CopiesMade, st.VotesCast, st.CorrectVotes,
		); err != nil {
			return err
		}

		updateCounters := `
		UPDATE players SET
			games_played = games_played + 1,
			total_winnings = total_winnings + $1,
			total_losses = total_losses + $2,
			successful_originals = successful_originals + $3,
			successful_copies = successful_copies + $4,
			total_originals = total_originals + $5,
			total_copies = total_copies + $6,
			total_votes_cast = total_votes_cast + $7,
			correct_votes = correct_votes + $8,
			balance = $9,
			last_played = NOW()
		WHERE id = $10`
		_, err := tx.Exec(ctx, updateCounters,
			c.Winnings, c.Losses, c.SuccessfulOriginals, c.SuccessfulCopies,
			st.OriginalsDrawn, st.CopiesMade, st.VotesCast, st.CorrectVotes,
			st.BalanceAfter, st.PlayerID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("record game completion for %s in room %s: %w", st.PlayerID, roomID, err)
	}
	return nil
}

// GetLeaderboard returns the players with the highest balances.
func GetLeaderboard(ctx context.Context, limit int) ([]models.User, error) {
	q := `SELECT ` + playerColumns + ` FROM players ORDER BY balance DESC, username ASC LIMIT $1`
	rows, err := DB.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
