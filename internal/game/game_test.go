// internal/game/game_test.go
package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinValidation(t *testing.T) {
	rules := testRules()
	rules.MaxPlayers = 4
	tr := setupTestRoom(t, rules, nil)

	err := tr.s.Join("poor", "poor", 0)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.ErrorIs(t, err, ErrCapacity)

	tr.seat(t, "A")
	assert.Equal(t, 99, tr.player("A").Balance, "entry fee should be taken on join")
	assert.ErrorIs(t, tr.s.Join("A", "again", 100), ErrAlreadyJoined)

	tr.seat(t, "B", "C", "D")
	require.Equal(t, PhaseDrawing, tr.s.Phase(), "a full room starts immediately")

	err = tr.s.Join("E", "late", 100)
	require.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, "capacity", ErrorCode(err))
}

func TestJoinAfterStartIsWrongPhase(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.startWith(t, "A", "B", "C")
	assert.ErrorIs(t, tr.s.Join("D", "late", 100), ErrWrongPhase)
}

func TestCountdownStartsAtMinimumAndCancelsBelowIt(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.seat(t, "A", "B")
	assert.Nil(t, tr.sched.pending(), "no countdown below minimum players")

	tr.seat(t, "C")
	countdown := tr.sched.pending()
	require.NotNil(t, countdown)
	assert.Equal(t, 20*time.Second, countdown.d)
	last := tr.mb.getLastEvent()
	require.NotNil(t, last)
	assert.Equal(t, EventCountdownStarted, last.Type)
	assert.Equal(t, 20, last.Seconds)

	require.NoError(t, tr.s.Leave("C"))
	assert.Equal(t, EventCountdownCancelled, tr.mb.getLastEvent().Type)
	assert.True(t, countdown.stopped)
	assert.Nil(t, tr.sched.pending())

	// A countdown that raced its cancellation must not start the game.
	countdown.fire()
	assert.Equal(t, PhaseWaiting, tr.s.Phase())
}

func TestLateJoinerReceivesRemainingCountdown(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.seat(t, "A", "B", "C")
	tr.clock.Advance(5 * time.Second)
	tr.seat(t, "D")

	ev := tr.mb.getLastPlayerEvent("D")
	require.NotNil(t, ev)
	assert.Equal(t, EventCountdownStarted, ev.Type)
	assert.Equal(t, 15, ev.Seconds)
}

func TestPlaceStake(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.seat(t, "A", "B")

	assert.ErrorIs(t, tr.s.PlaceStake("A", 5), ErrStakeTooLow)
	assert.ErrorIs(t, tr.s.PlaceStake("A", 200), ErrInsufficientBalance)
	assert.ErrorIs(t, tr.s.PlaceStake("Z", 20), ErrPlayerNotFound)

	require.NoError(t, tr.s.PlaceStake("A", 30))
	assert.Equal(t, 69, tr.player("A").Balance)
	require.NoError(t, tr.s.PlaceStake("A", 20))
	assert.Equal(t, 79, tr.player("A").Balance)
	assert.Equal(t, 20, tr.player("A").Stake)

	require.NoError(t, tr.s.Leave("A"))
	last := tr.mb.getLastEvent()
	require.NotNil(t, last)
	require.Equal(t, EventPlayerLeft, last.Type)
	assert.Equal(t, 99, last.Player.Balance, "stake is refunded when leaving before the game")
}

func TestNegativeStakeRejectedWithoutMinimum(t *testing.T) {
	rules := testRules()
	rules.MinStake = 0
	tr := setupTestRoom(t, rules, nil)
	tr.seat(t, "A")

	assert.ErrorIs(t, tr.s.PlaceStake("A", -50), ErrStakeTooLow)
	assert.Equal(t, 99, tr.player("A").Balance)
	assert.Zero(t, tr.player("A").Stake)

	require.NoError(t, tr.s.PlaceStake("A", 0))
	assert.Equal(t, 99, tr.player("A").Balance)
}

func TestForceStart(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.seat(t, "A", "B")
	err := tr.s.ForceStart()
	require.ErrorIs(t, err, ErrNotEnoughPlayers)
	assert.Equal(t, "capacity", ErrorCode(err))

	tr.seat(t, "C")
	countdown := tr.sched.pending()
	require.NotNil(t, countdown)

	require.NoError(t, tr.s.ForceStart())
	assert.Equal(t, PhaseDrawing, tr.s.Phase())
	assert.True(t, countdown.stopped, "the lobby countdown is superseded")
	assert.Equal(t, 10, tr.player("B").Stake)
	assert.ErrorIs(t, tr.s.ForceStart(), ErrWrongPhase)

	countdown.fire()
	assert.Equal(t, PhaseDrawing, tr.s.Phase())
}

func TestHoldsOnlyDuringRunningGame(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.seat(t, "A", "B", "C", "D")
	assert.False(t, tr.s.Holds("A"), "a waiting room holds nobody")

	tr.sched.firePending(t)
	assert.True(t, tr.s.Holds("A"))
	assert.False(t, tr.s.Holds("Z"))

	require.NoError(t, tr.s.Leave("A"))
	assert.True(t, tr.s.Holds("A"), "a disconnected player keeps their stake in play")

	require.NoError(t, tr.s.Leave("B"))
	require.Equal(t, PhaseEndedEarly, tr.s.Phase())
	assert.False(t, tr.s.Holds("C"))
}

func TestMinimumStakeTakenAtStart(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.seat(t, "A", "B", "C")
	require.NoError(t, tr.s.PlaceStake("A", 20))
	tr.sched.firePending(t)
	require.Equal(t, PhaseDrawing, tr.s.Phase())

	assert.Equal(t, 79, tr.player("A").Balance)
	assert.Equal(t, 20, tr.player("A").Stake)
	assert.Equal(t, 89, tr.player("B").Balance)
	assert.Equal(t, 10, tr.player("B").Stake)
	assert.ErrorIs(t, tr.s.PlaceStake("B", 30), ErrWrongPhase)
}

func TestPromptsAreUniqueAndPrivate(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.startWith(t, "A", "B", "C")

	seen := map[string]bool{}
	for _, id := range []string{"A", "B", "C"} {
		ev := tr.mb.getLastPlayerEvent(id)
		require.NotNil(t, ev)
		assert.Equal(t, EventPhaseChanged, ev.Type)
		assert.Equal(t, PhaseDrawing, ev.Phase)
		assert.NotEmpty(t, ev.Prompt)
		assert.False(t, seen[ev.Prompt], "prompt %q handed out twice", ev.Prompt)
		seen[ev.Prompt] = true
	}
	assert.Equal(t, "P1", tr.mb.getLastPlayerEvent("A").Prompt)
}

func TestAllOriginalsAdvanceEarlyAndDropLateTimer(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.startWith(t, "A", "B", "C")
	drawTimer := tr.sched.pending()
	require.NotNil(t, drawTimer)
	assert.Equal(t, 60*time.Second, drawTimer.d)

	tr.drawAll(t, "A", "B", "C")
	require.Equal(t, PhaseCopying, tr.s.Phase())
	assert.True(t, drawTimer.stopped, "drawing timer must be cancelled by the early advance")
	early := tr.mb.eventsOfType(EventEarlyAdvance)
	require.Len(t, early, 1)
	assert.Equal(t, PhaseDrawing, early[0].Phase)

	copyTimer := tr.sched.pending()
	require.NotNil(t, copyTimer)

	// The drawing timer fires anyway; it must not touch the copying phase.
	drawTimer.fire()
	assert.Equal(t, PhaseCopying, tr.s.Phase())
	assert.Same(t, copyTimer, tr.sched.pending(), "copying timer must survive a stale fire")
	require.NoError(t, tr.s.SubmitCopy("A", "B", "data:image/png;base64,copy"))
}

func TestDrawingTimeoutFillsBlanks(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.startWith(t, "A", "B", "C")
	tr.drawAll(t, "A")
	tr.sched.firePending(t)

	require.Equal(t, PhaseCopying, tr.s.Phase())
	ev := tr.mb.getLastPlayerEvent("A")
	require.NotNil(t, ev)
	require.Equal(t, EventCopyingTargets, ev.Type)
	require.Len(t, ev.Targets, 1)
	assert.Equal(t, "B", ev.Targets[0].TargetID)
	assert.Equal(t, BlankImage, ev.Targets[0].Image)

	tr.s.mu.Lock()
	defer tr.s.mu.Unlock()
	assert.Equal(t, BlankImage, tr.s.originals["C"])
	p, _ := tr.s.roster.get("B")
	assert.False(t, p.HasSubmittedOriginal, "a blank is not a submission")
}

func TestSubmitOriginalRejections(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.seat(t, "A", "B", "C")
	assert.ErrorIs(t, tr.s.SubmitOriginal("A", "data:image/png;base64,x"), ErrWrongPhase)

	tr.sched.firePending(t)
	require.NoError(t, tr.s.SubmitOriginal("A", "data:image/png;base64,first"))
	err := tr.s.SubmitOriginal("A", "data:image/png;base64,second")
	require.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.ErrorIs(t, err, ErrDuplicateAction)
	assert.Len(t, tr.mb.eventsOfType(EventDrawingSubmitted), 1)
	assert.ErrorIs(t, tr.s.SubmitOriginal("Z", "data:image/png;base64,x"), ErrPlayerNotFound)

	tr.s.mu.Lock()
	assert.Equal(t, "data:image/png;base64,first", tr.s.originals["A"])
	tr.s.mu.Unlock()
}

func TestSubmitCopyRejections(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.startWith(t, "A", "B", "C")
	tr.drawAll(t, "A", "B", "C")

	assert.ErrorIs(t, tr.s.SubmitCopy("A", "A", "data:image/png;base64,x"), ErrTargetNotAssigned)
	assert.ErrorIs(t, tr.s.SubmitCopy("A", "C", "data:image/png;base64,x"), ErrTargetNotAssigned)
	require.NoError(t, tr.s.SubmitCopy("A", "B", "data:image/png;base64,x"))
	assert.ErrorIs(t, tr.s.SubmitCopy("A", "B", "data:image/png;base64,y"), ErrAlreadySubmitted)
	assert.ErrorIs(t, tr.s.SubmitOriginal("A", "data:image/png;base64,z"), ErrWrongPhase)
}

func TestCopyingWaitsForFloor(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.startWith(t, "A", "B", "C")
	tr.drawAll(t, "A", "B", "C")

	tr.clock.Advance(time.Second)
	tr.copyAll(t, "A", "B", "C")
	require.Equal(t, PhaseCopying, tr.s.Phase(), "must not advance before the floor")
	floor := tr.sched.pending()
	require.NotNil(t, floor)
	assert.Equal(t, 4*time.Second, floor.d)

	floor.fire()
	assert.Equal(t, PhaseVoting, tr.s.Phase())
}

func TestThreePlayerGame(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.startWith(t, "A", "B", "C")
	tr.drawAll(t, "A", "B", "C")

	assert.Equal(t, []string{"B"}, tr.targets("A"))
	assert.Equal(t, []string{"C"}, tr.targets("B"))
	assert.Equal(t, []string{"A"}, tr.targets("C"))

	tr.clock.Advance(5 * time.Second)
	tr.copyAll(t, "A", "B", "C")
	require.Equal(t, PhaseVoting, tr.s.Phase())

	// A copies B, B copies C, C copies A, so A's set is drawn by A and C and only B
	// may vote on it. Copiers come from the (i+k) mod N assignment, not from seat order.
	set0 := tr.set(0)
	assert.Equal(t, "A", set0.OriginalPlayerID)
	assert.Equal(t, []string{"C"}, set0.Copiers)
	assert.Len(t, set0.Entries, 2)

	assert.Equal(t, EventVotingRound, tr.mb.getLastPlayerEvent("B").Type)
	assert.True(t, tr.mb.getLastPlayerEvent("B").Round.CanVote)
	assert.Equal(t, EventVotingExcluded, tr.mb.getLastPlayerEvent("A").Type)
	assert.Equal(t, EventVotingExcluded, tr.mb.getLastPlayerEvent("C").Type)

	origA := tr.drawingOf(t, 0, "A")
	assert.ErrorIs(t, tr.s.SubmitVote("A", 0, origA), ErrIneligibleVoter)
	assert.ErrorIs(t, tr.s.SubmitVote("C", 0, origA), ErrIneligibleVoter)
	assert.ErrorIs(t, tr.s.SubmitVote("B", 1, origA), ErrWrongPhase)
	assert.ErrorIs(t, tr.s.SubmitVote("B", 0, "nope"), ErrInvalidChoice)

	// Set 0: B spots A's original.
	tr.clock.Advance(3 * time.Second)
	require.NoError(t, tr.s.SubmitVote("B", 0, origA))
	assert.ErrorIs(t, tr.s.SubmitVote("B", 0, origA), ErrWrongPhase, "round 0 is over")

	// Set 1: C is fooled by A's copy of B. The round waits for its floor.
	require.NoError(t, tr.s.SubmitVote("C", 1, tr.drawingOf(t, 1, "A")))
	assert.ErrorIs(t, tr.s.SubmitVote("C", 1, tr.drawingOf(t, 1, "B")), ErrDuplicateVote)
	tr.sched.firePending(t)

	// Set 2: A spots C's original.
	tr.clock.Advance(3 * time.Second)
	require.NoError(t, tr.s.SubmitVote("A", 2, tr.drawingOf(t, 2, "C")))
	require.Equal(t, PhaseResults, tr.s.Phase())

	results := tr.mb.eventsOfType(EventGameResults)
	require.Len(t, results, 1)
	res := results[0].Results
	require.NotNil(t, res)

	assert.Equal(t, 275, res.Points["A"])
	assert.Equal(t, 25, res.Points["B"])
	assert.Equal(t, 100, res.Points["C"])
	assert.Equal(t, map[string]int{"A": 109, "B": 89, "C": 99}, res.FinalBalances)
	assert.Equal(t, map[string]int{"A": 10, "B": -10, "C": 0}, res.BalanceDeltas)
	assert.Equal(t, 1, res.Stats["B"].CorrectVotes)
	assert.Equal(t, 1, res.Stats["C"].VotesCast)
	assert.Equal(t, 0, res.Stats["C"].CorrectVotes)
	assert.Nil(t, tr.sched.pending(), "no timer may outlive the game")

	// Scoring runs once.
	tr.s.mu.Lock()
	tr.s.calculateResults()
	tr.s.mu.Unlock()
	assert.Len(t, tr.mb.eventsOfType(EventGameResults), 1)
}

func TestFourPlayersCopyTwoDistinctTargets(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	ids := []string{"A", "B", "C", "D"}
	tr.startWith(t, ids...)
	tr.drawAll(t, ids...)

	copiesOf := map[string]int{}
	for _, id := range ids {
		targets := tr.targets(id)
		require.Len(t, targets, 2)
		assert.NotEqual(t, targets[0], targets[1])
		assert.NotContains(t, targets, id)
		for _, tgt := range targets {
			copiesOf[tgt]++
		}
		ev := tr.mb.getLastPlayerEvent(id)
		require.NotNil(t, ev)
		assert.Len(t, ev.Targets, 2)
	}
	for _, id := range ids {
		assert.Equal(t, 2, copiesOf[id], "original of %s", id)
	}
}

func TestDisconnectDuringCopyingLeavesSetsIntact(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	ids := []string{"A", "B", "C", "D"}
	tr.startWith(t, ids...)
	tr.drawAll(t, ids...)

	require.Equal(t, []string{"A", "B"}, tr.targets("D"))
	require.NoError(t, tr.s.SubmitCopy("D", "A", "data:image/png;base64,d-copies-a"))
	require.NoError(t, tr.s.Leave("D"))
	assert.Equal(t, PhaseCopying, tr.s.Phase(), "three players remain")
	assert.Equal(t, EventPlayerDisconnected, tr.mb.getLastEvent().Type)

	tr.copyAll(t, "A", "B", "C")
	tr.sched.firePending(t)
	require.Equal(t, PhaseVoting, tr.s.Phase())

	set1 := tr.set(1)
	require.Equal(t, "B", set1.OriginalPlayerID)
	require.Equal(t, []string{"A", "D"}, set1.Copiers)
	require.Len(t, set1.Entries, 3)
	for _, e := range set1.Entries {
		if e.PlayerID == "D" {
			assert.Equal(t, BlankImage, e.Image)
		}
	}

	// B is the only eligible voter on A's set and picks D's copy.
	tr.clock.Advance(3 * time.Second)
	require.NoError(t, tr.s.SubmitVote("B", 0, tr.drawingOf(t, 0, "D")))
	for tr.s.Phase() == PhaseVoting {
		tr.sched.firePending(t)
	}
	require.Equal(t, PhaseResults, tr.s.Phase())

	res := tr.mb.eventsOfType(EventGameResults)[0].Results
	assert.Equal(t, 0, res.Points["D"])
	assert.Equal(t, 0, res.Payouts["D"])
	assert.Equal(t, 1, res.Stats["D"].CopiesMade)
	assert.Equal(t, 1, res.Stats["D"].CopyVotes)
	assert.Equal(t, 0, res.Points["B"], "a fooled voter earns nothing")

	total := 0
	for _, set := range res.Sets {
		paid := 0
		for _, amt := range set.Payouts {
			paid += amt
		}
		assert.Equal(t, set.Pool, paid, "set %d", set.SetIndex)
		total += paid
	}
	assert.Equal(t, 40, total)
}

func TestLeavingBelowMinimumEndsEarly(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	ended := make(chan Phase, 1)
	tr.s.OnGameEnd = func(_ string, phase Phase) { ended <- phase }

	tr.seat(t, "A", "B", "C")
	require.NoError(t, tr.s.PlaceStake("A", 20))
	tr.sched.firePending(t)
	tr.drawAll(t, "A")

	require.NoError(t, tr.s.Leave("C"))
	require.Equal(t, PhaseEndedEarly, tr.s.Phase())
	assert.Nil(t, tr.sched.pending())

	last := tr.mb.getLastEvent()
	require.NotNil(t, last)
	require.Equal(t, EventGameEndedEarly, last.Type)
	assert.Equal(t, map[string]int{"A": 25, "B": 15, "C": 0}, last.EndedEarly.Refunds)
	assert.Equal(t, 104, last.EndedEarly.FinalBalances["A"])
	assert.Equal(t, 104, last.EndedEarly.FinalBalances["B"])
	assert.Equal(t, 89, last.EndedEarly.FinalBalances["C"])

	assert.ErrorIs(t, tr.s.SubmitOriginal("B", "data:image/png;base64,x"), ErrWrongPhase)

	select {
	case phase := <-ended:
		assert.Equal(t, PhaseEndedEarly, phase)
	case <-time.After(time.Second):
		t.Fatal("OnGameEnd was not called")
	}
}

func TestLeaveMidGameTwice(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.startWith(t, "A", "B", "C", "D")
	require.NoError(t, tr.s.Leave("D"))
	assert.ErrorIs(t, tr.s.Leave("D"), ErrPlayerNotFound)
	assert.ErrorIs(t, tr.s.SubmitOriginal("D", "data:image/png;base64,x"), ErrPlayerNotFound)

	// The remaining three finishing is enough to advance.
	tr.drawAll(t, "A", "B", "C")
	assert.Equal(t, PhaseCopying, tr.s.Phase())
}

func TestPhaseEdges(t *testing.T) {
	assert.True(t, PhaseWaiting.CanAdvanceTo(PhaseDrawing))
	assert.False(t, PhaseWaiting.CanAdvanceTo(PhaseCopying))
	assert.False(t, PhaseWaiting.CanAdvanceTo(PhaseEndedEarly))
	assert.True(t, PhaseDrawing.CanAdvanceTo(PhaseCopying))
	assert.False(t, PhaseDrawing.CanAdvanceTo(PhaseVoting))
	assert.True(t, PhaseVoting.CanAdvanceTo(PhaseResults))
	assert.True(t, PhaseCopying.CanAdvanceTo(PhaseEndedEarly))
	for _, terminal := range []Phase{PhaseResults, PhaseEndedEarly} {
		assert.True(t, terminal.Terminal())
		for _, next := range []Phase{PhaseWaiting, PhaseDrawing, PhaseCopying, PhaseVoting, PhaseResults, PhaseEndedEarly} {
			assert.False(t, terminal.CanAdvanceTo(next))
		}
	}
}

func TestPhaseSequenceFollowsEdges(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.startWith(t, "A", "B", "C")
	tr.sched.firePending(t) // drawing timeout
	tr.sched.firePending(t) // copying timeout
	for tr.s.Phase() == PhaseVoting {
		tr.sched.firePending(t)
	}

	var seen []Phase
	for _, ev := range tr.mb.eventsOfType(EventPhaseChanged) {
		seen = append(seen, ev.Phase)
	}
	assert.Equal(t, []Phase{PhaseCopying, PhaseVoting}, seen, "drawing is announced privately")
	assert.Equal(t, PhaseResults, tr.s.Phase())
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, "wrong_phase", ErrorCode(ErrWrongPhase))
	assert.Equal(t, "duplicate_action", ErrorCode(ErrDuplicateVote))
	assert.Equal(t, "ineligible_action", ErrorCode(ErrInvalidChoice))
	assert.Equal(t, "resource_exhausted", ErrorCode(ErrPromptsExhausted))
	assert.Equal(t, "internal", ErrorCode(errors.New("boom")))
}
