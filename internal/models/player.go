package models

import "time"

// Player is a seat in a room. Balance and Stake are in tokens.
type Player struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Balance   int    `json:"balance"`
	Stake     int    `json:"stake"`
	Connected bool   `json:"connected"`

	HasSubmittedOriginal bool `json:"hasSubmittedOriginal"`
	CopiesCompleted      int  `json:"copiesCompleted"`

	// StartingBalance is what the player arrived with, before the entry fee.
	StartingBalance int       `json:"-"`
	JoinedAt        time.Time `json:"joinedAt"`
}
