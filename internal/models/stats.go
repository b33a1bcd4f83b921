package models

// PlayerStats is the per-game summary handed to persistent storage when a room finishes.
type PlayerStats struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`

	OriginalsDrawn int `json:"originals_drawn"` // explicit submissions only, blanks excluded
	CopiesMade     int `json:"copies_made"`
	VotesCast      int `json:"votes_cast"`
	CorrectVotes   int `json:"correct_votes"`
	OriginalVotes  int `json:"original_votes"` // votes received by this player's original
	CopyVotes      int `json:"copy_votes"`     // votes received by this player's copies
	Points         int `json:"points"`

	Stake         int `json:"stake"`
	BalanceBefore int `json:"balance_before"`
	BalanceAfter  int `json:"balance_after"`
}
