package models

import "time"

// User is the persistent account behind a player: balance and lifetime counters
// carried across games.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Balance  int    `json:"balance"`

	GamesPlayed         int `json:"games_played"`
	TotalWinnings       int `json:"total_winnings"`
	TotalLosses         int `json:"total_losses"`
	SuccessfulOriginals int `json:"successful_originals"`
	SuccessfulCopies    int `json:"successful_copies"`
	TotalOriginals      int `json:"total_originals"`
	TotalCopies         int `json:"total_copies"`
	TotalVotesCast      int `json:"total_votes_cast"`
	CorrectVotes        int `json:"correct_votes"`

	CreatedAt  time.Time  `json:"created_at"`
	LastPlayed *time.Time `json:"last_played,omitempty"`
}
