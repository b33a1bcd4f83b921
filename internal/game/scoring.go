// internal/game/scoring.go
package game

import (
	"sort"

	"github.com/jason-s-yu/plagiarist/internal/models"
)

// ScoreInput is everything the scoring engine reads. Players are in join order with
// stakes still committed; Balance is the balance after the stake was taken.
type ScoreInput struct {
	Rules   Rules
	Players []*models.Player
	Sets    []*DrawingSet
	Votes   map[int]map[string]string
}

// RevealedDrawing is a set entry with its owner and vote count disclosed.
type RevealedDrawing struct {
	DrawingID  string `json:"drawingId"`
	PlayerID   string `json:"playerId"`
	Username   string `json:"username"`
	IsOriginal bool   `json:"isOriginal"`
	Image      string `json:"image"`
	Votes      int    `json:"votes"`
}

// SetResult is the outcome of voting on one set.
type SetResult struct {
	SetIndex         int               `json:"setIndex"`
	OriginalPlayerID string            `json:"originalPlayerId"`
	Prompt           string            `json:"prompt"`
	Drawings         []RevealedDrawing `json:"drawings"`
	ArtistPoints     map[string]int    `json:"artistPoints"` // drawer and copiers
	VoterPoints      map[string]int    `json:"voterPoints"`
	Pool             int               `json:"pool"`
	Payouts          map[string]int    `json:"payouts"`
}

// Results is the scored game.
type Results struct {
	Sets          []SetResult                   `json:"sets"`
	Points        map[string]int                `json:"points"`
	Payouts       map[string]int                `json:"payouts"`
	BalanceDeltas map[string]int                `json:"balanceDeltas"` // payout minus stake
	FinalBalances map[string]int                `json:"finalBalances"`
	Stats         map[string]models.PlayerStats `json:"stats"`
	PlayerNames   map[string]string             `json:"playerNames"`
}

// Score tallies every set, awards points, and splits each set's stake pool among the
// set's contributors in proportion to the points they earned in it.
func Score(in ScoreInput) *Results {
	res := &Results{
		Sets:          make([]SetResult, 0, len(in.Sets)),
		Points:        make(map[string]int),
		Payouts:       make(map[string]int),
		BalanceDeltas: make(map[string]int),
		FinalBalances: make(map[string]int),
		Stats:         make(map[string]models.PlayerStats),
		PlayerNames:   make(map[string]string),
	}

	active := make(map[string]bool, len(in.Players))
	stakes := make(map[string]int, len(in.Players))
	for _, p := range in.Players {
		active[p.ID] = p.Connected
		stakes[p.ID] = p.Stake
		res.PlayerNames[p.ID] = p.Username
	}
	stats := make(map[string]*models.PlayerStats, len(in.Players))
	statFor := func(id string) *models.PlayerStats {
		st, ok := stats[id]
		if !ok {
			st = &models.PlayerStats{PlayerID: id, Username: res.PlayerNames[id]}
			stats[id] = st
		}
		return st
	}

	setsPerPlayer := make(map[string]int)
	for _, set := range in.Sets {
		for _, c := range set.Contributors() {
			setsPerPlayer[c]++
		}
	}
	sharesTaken := make(map[string]int)

	for idx, set := range in.Sets {
		sr := SetResult{
			SetIndex:         idx,
			OriginalPlayerID: set.OriginalPlayerID,
			Prompt:           set.Prompt,
			ArtistPoints:     make(map[string]int),
			VoterPoints:      make(map[string]int),
		}

		counts := make(map[string]int, len(set.Entries))
		for voter, choice := range in.Votes[idx] {
			if set.HasContributor(voter) {
				continue
			}
			e, ok := set.entry(choice)
			if !ok {
				continue
			}
			counts[choice]++
			st := statFor(voter)
			st.VotesCast++
			if e.IsOriginal {
				st.CorrectVotes++
				if active[voter] {
					sr.VoterPoints[voter] += in.Rules.CorrectVotePoints
					res.Points[voter] += in.Rules.CorrectVotePoints
				}
			}
		}

		for _, e := range set.Entries {
			n := counts[e.DrawingID]
			perVote := in.Rules.CopyVotePoints
			if e.IsOriginal {
				perVote = in.Rules.OriginalVotePoints
				statFor(e.PlayerID).OriginalVotes += n
			} else {
				statFor(e.PlayerID).CopyVotes += n
			}
			if active[e.PlayerID] && n > 0 {
				sr.ArtistPoints[e.PlayerID] += n * perVote
				res.Points[e.PlayerID] += n * perVote
			}
			sr.Drawings = append(sr.Drawings, RevealedDrawing{
				DrawingID:  e.DrawingID,
				PlayerID:   e.PlayerID,
				Username:   res.PlayerNames[e.PlayerID],
				IsOriginal: e.IsOriginal,
				Image:      e.Image,
				Votes:      n,
			})
		}

		contributors := set.Contributors()
		shares := make(map[string]int, len(contributors))
		for _, c := range contributors {
			shares[c] = stakeShare(stakes[c], sharesTaken[c], setsPerPlayer[c])
			sharesTaken[c]++
			sr.Pool += shares[c]
		}
		sr.Payouts = distributePool(contributors, shares, sr.ArtistPoints, active)
		for id, amt := range sr.Payouts {
			res.Payouts[id] += amt
		}
		res.Sets = append(res.Sets, sr)
	}

	for _, p := range in.Players {
		if setsPerPlayer[p.ID] == 0 {
			// Drew in no set, so nothing was ever at risk.
			res.Payouts[p.ID] += p.Stake
		}
		res.BalanceDeltas[p.ID] = res.Payouts[p.ID] - p.Stake
		res.FinalBalances[p.ID] = p.Balance + res.Payouts[p.ID]

		st := statFor(p.ID)
		if p.HasSubmittedOriginal {
			st.OriginalsDrawn = 1
		}
		st.CopiesMade = p.CopiesCompleted
		st.Points = res.Points[p.ID]
		st.Stake = p.Stake
		st.BalanceBefore = p.StartingBalance
		st.BalanceAfter = res.FinalBalances[p.ID]
		res.Stats[p.ID] = *st
	}
	return res
}

// stakeShare splits stake into m near-equal parts and returns part j. The parts sum to
// exactly stake.
func stakeShare(stake, j, m int) int {
	if m <= 0 {
		return 0
	}
	return stake*(j+1)/m - stake*j/m
}

// distributePool pays out the sum of shares to the contributors in order. With any
// points earned, payouts are proportional to points and leftover tokens go one at a
// time by largest remainder. With no points at all, connected contributors get their
// own share back plus an even split of the disconnected ones' shares.
// The payouts always sum to the pool.
func distributePool(order []string, shares, points map[string]int, active map[string]bool) map[string]int {
	out := make(map[string]int, len(order))
	pool, total := 0, 0
	for _, id := range order {
		pool += shares[id]
		total += points[id]
	}
	if pool == 0 {
		return out
	}

	if total == 0 {
		var live []string
		forfeited := 0
		for _, id := range order {
			if active[id] {
				live = append(live, id)
				out[id] += shares[id]
			} else {
				forfeited += shares[id]
			}
		}
		if len(live) == 0 {
			for _, id := range order {
				out[id] = shares[id]
			}
			return out
		}
		splitEvenly(forfeited, live, out)
		return out
	}

	type remainder struct {
		id   string
		frac int
		pos  int
	}
	var rems []remainder
	paid := 0
	for pos, id := range order {
		if points[id] <= 0 {
			continue
		}
		num := pool * points[id]
		out[id] = num / total
		paid += out[id]
		rems = append(rems, remainder{id: id, frac: num % total, pos: pos})
	}
	sort.SliceStable(rems, func(a, b int) bool {
		if rems[a].frac != rems[b].frac {
			return rems[a].frac > rems[b].frac
		}
		return rems[a].pos < rems[b].pos
	})
	for i := 0; paid < pool; i++ {
		out[rems[i%len(rems)].id]++
		paid++
	}
	return out
}

// splitEvenly adds amount to out across ids, earlier ids taking any leftover tokens.
func splitEvenly(amount int, ids []string, out map[string]int) {
	if amount <= 0 || len(ids) == 0 {
		return
	}
	each, extra := amount/len(ids), amount%len(ids)
	for i, id := range ids {
		out[id] += each
		if i < extra {
			out[id]++
		}
	}
}

// refundStakes computes ENDED_EARLY refunds: connected players get their own stake
// back, and the stakes of disconnected players are split evenly among them.
func refundStakes(players []*models.Player) map[string]int {
	refunds := make(map[string]int, len(players))
	var live []string
	forfeited := 0
	for _, p := range players {
		if p.Connected {
			live = append(live, p.ID)
			refunds[p.ID] = p.Stake
		} else {
			forfeited += p.Stake
		}
	}
	if len(live) == 0 {
		for _, p := range players {
			refunds[p.ID] = p.Stake
		}
		return refunds
	}
	splitEvenly(forfeited, live, refunds)
	return refunds
}
