// internal/game/rules.go
package game

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultMinPlayers     = 3
	DefaultMaxPlayers     = 12
	DefaultMinStake       = 10
	DefaultEntryFee       = 1
	DefaultInitialBalance = 100

	// PlayerCap is the most players any room may seat.
	PlayerCap = 12
)

// Rules is the read-only configuration a Session is created with.
type Rules struct {
	MinPlayers     int `json:"minPlayers"`
	MaxPlayers     int `json:"maxPlayers"`
	MinStake       int `json:"minStake"`
	EntryFee       int `json:"entryFee"`
	InitialBalance int `json:"initialBalance"` // balance granted to players the ledger has never seen

	CountdownSec  int `json:"countdownSec"`  // lobby countdown once MinPlayers have joined
	DrawingSec    int `json:"drawingSec"`    // drawing phase timeout
	CopyingSec    int `json:"copyingSec"`    // copying phase timeout
	VotingSec     int `json:"votingSec"`     // per-set voting round timeout
	MinCopyingSec int `json:"minCopyingSec"` // earliest early-advance out of copying
	MinVotingSec  int `json:"minVotingSec"`  // earliest early-advance out of a voting round

	OriginalVotePoints int `json:"originalVotePoints"` // per vote on an original, to its drawer
	CopyVotePoints     int `json:"copyVotePoints"`     // per vote on a copy, to its copier
	CorrectVotePoints  int `json:"correctVotePoints"`  // to each voter who picked the original
}

// DefaultRules returns the standard room configuration.
func DefaultRules() Rules {
	return Rules{
		MinPlayers:         DefaultMinPlayers,
		MaxPlayers:         DefaultMaxPlayers,
		MinStake:           DefaultMinStake,
		EntryFee:           DefaultEntryFee,
		InitialBalance:     DefaultInitialBalance,
		CountdownSec:       20,
		DrawingSec:         60,
		CopyingSec:         60,
		VotingSec:          30,
		MinCopyingSec:      5,
		MinVotingSec:       3,
		OriginalVotePoints: 100,
		CopyVotePoints:     150,
		CorrectVotePoints:  25,
	}
}

// RulesFromEnv starts from DefaultRules and applies any overrides found in the environment.
// TESTING_MODE=true shortens every timer to 2 seconds and drops the early-advance floors.
func RulesFromEnv() Rules {
	r := DefaultRules()
	r.MinPlayers = getEnvInt("MIN_PLAYERS", r.MinPlayers)
	r.MaxPlayers = getEnvInt("MAX_PLAYERS", r.MaxPlayers)
	r.MinStake = getEnvInt("MIN_STAKE", r.MinStake)
	r.EntryFee = getEnvInt("ENTRY_FEE", r.EntryFee)
	r.InitialBalance = getEnvInt("INITIAL_BALANCE", r.InitialBalance)
	r.CountdownSec = getEnvInt("COUNTDOWN_SEC", r.CountdownSec)
	r.DrawingSec = getEnvInt("DRAWING_SEC", r.DrawingSec)
	r.CopyingSec = getEnvInt("COPYING_SEC", r.CopyingSec)
	r.VotingSec = getEnvInt("VOTING_SEC", r.VotingSec)
	r.MinCopyingSec = getEnvInt("MIN_COPYING_SEC", r.MinCopyingSec)
	r.MinVotingSec = getEnvInt("MIN_VOTING_SEC", r.MinVotingSec)

	if strings.EqualFold(os.Getenv("TESTING_MODE"), "true") {
		r.CountdownSec, r.DrawingSec, r.CopyingSec, r.VotingSec = 2, 2, 2, 2
		r.MinCopyingSec, r.MinVotingSec = 0, 0
	}
	return r
}

// Validate checks the invariants a Session relies on.
func (r Rules) Validate() error {
	if r.MinPlayers < 3 {
		return fmt.Errorf("minPlayers must be at least 3")
	}
	if r.MaxPlayers < r.MinPlayers {
		return fmt.Errorf("maxPlayers must be >= minPlayers")
	}
	if r.MaxPlayers > PlayerCap {
		return fmt.Errorf("maxPlayers must be at most %d", PlayerCap)
	}
	if r.MinStake < 0 || r.EntryFee < 0 || r.InitialBalance < 0 {
		return fmt.Errorf("minStake, entryFee and initialBalance must be non-negative")
	}
	if r.DrawingSec <= 0 || r.CopyingSec <= 0 || r.VotingSec <= 0 {
		return fmt.Errorf("phase timers must be positive")
	}
	if r.MinCopyingSec > r.CopyingSec || r.MinVotingSec > r.VotingSec {
		return fmt.Errorf("early-advance floors must not exceed their phase timers")
	}
	return nil
}

// Update applies per-room overrides from a decoded JSON object.
// Unknown or nil keys are ignored and the old value persists.
func (r *Rules) Update(overrides map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal, maxVal int) error {
		val, exists := overrides[key]
		if !exists || val == nil {
			return nil
		}
		switch v := val.(type) {
		case float64:
			*field = int(v)
		case int:
			*field = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if *field < minVal {
			return fmt.Errorf("%s must be at least %d", key, minVal)
		}
		if maxVal > 0 && *field > maxVal {
			return fmt.Errorf("%s must be at most %d", key, maxVal)
		}
		return nil
	}

	fields := []struct {
		field  *int
		key    string
		minVal int
		maxVal int // 0 means unbounded
	}{
		{&r.MinPlayers, "minPlayers", 3, PlayerCap},
		{&r.MaxPlayers, "maxPlayers", 3, PlayerCap},
		{&r.MinStake, "minStake", 0, 0},
		{&r.EntryFee, "entryFee", 0, 0},
		{&r.CountdownSec, "countdownSec", 0, 0},
		{&r.DrawingSec, "drawingSec", 1, 0},
		{&r.CopyingSec, "copyingSec", 1, 0},
		{&r.VotingSec, "votingSec", 1, 0},
		{&r.MinCopyingSec, "minCopyingSec", 0, 0},
		{&r.MinVotingSec, "minVotingSec", 0, 0},
	}
	for _, f := range fields {
		if err := assignInt(f.field, f.key, f.minVal, f.maxVal); err != nil {
			return err
		}
	}
	return r.Validate()
}

// ParseRules returns a copy of current with overrides applied.
func ParseRules(overrides map[string]interface{}, current Rules) (Rules, error) {
	rules := current
	err := rules.Update(overrides)
	return rules, err
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
