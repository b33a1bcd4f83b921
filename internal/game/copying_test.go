package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyRounds(t *testing.T) {
	assert.Equal(t, 1, copyRounds(3))
	assert.Equal(t, 2, copyRounds(4))
	assert.Equal(t, 2, copyRounds(12))
}

func TestAssignCopyTargetsIsDerangement(t *testing.T) {
	for n := 3; n <= 12; n++ {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("p%02d", i)
			}
			got := assignCopyTargets(ids)
			require.Len(t, got, n)

			copied := make(map[string]int)
			for _, id := range ids {
				targets := got[id]
				require.Len(t, targets, copyRounds(n))
				seen := make(map[string]bool)
				for _, tgt := range targets {
					assert.NotEqual(t, id, tgt, "player copies own drawing")
					assert.False(t, seen[tgt], "target repeated for %s", id)
					seen[tgt] = true
					copied[tgt]++
				}
			}
			for _, id := range ids {
				assert.Equal(t, copyRounds(n), copied[id], "copies of %s", id)
			}
		})
	}
}

func TestAssignCopyTargetsOffsets(t *testing.T) {
	got := assignCopyTargets([]string{"A", "B", "C", "D"})
	assert.Equal(t, map[string][]string{
		"A": {"B", "C"},
		"B": {"C", "D"},
		"C": {"D", "A"},
		"D": {"A", "B"},
	}, got)
	assert.Empty(t, assignCopyTargets([]string{"solo"}))
}

func TestBuildDrawingSets(t *testing.T) {
	ids := []string{"A", "B", "C"}
	sets := buildDrawingSets(
		ids,
		map[string]string{"A": "pa", "B": "pb", "C": "pc"},
		map[string]string{"A": "img-a", "B": "img-b", "C": "img-c"},
		assignCopyTargets(ids),
		map[string]map[string]string{"A": {"B": "copy-ab"}},
		sequentialIDs(),
		noShuffle,
	)
	require.Len(t, sets, 3)

	// With three players the only copier of A is C (C copies (2+1) mod 3), so B is the
	// one eligible voter on set 0.
	assert.Equal(t, "A", sets[0].OriginalPlayerID)
	assert.Equal(t, "pa", sets[0].Prompt)
	assert.Equal(t, []string{"C"}, sets[0].Copiers)
	assert.Equal(t, []string{"A", "C"}, sets[0].Contributors())
	assert.Equal(t, []DrawingEntry{
		{DrawingID: "d1", PlayerID: "A", IsOriginal: true, Image: "img-a"},
		{DrawingID: "d2", PlayerID: "C", Image: BlankImage},
	}, sets[0].Entries)

	assert.Equal(t, "copy-ab", sets[1].Entries[1].Image)
	assert.True(t, sets[2].HasContributor("B"))
	assert.False(t, sets[2].HasContributor("A"))

	for _, a := range sets[1].anonymized() {
		assert.NotEmpty(t, a.DrawingID)
	}
}

func TestReviewTarget(t *testing.T) {
	tr := setupTestRoom(t, testRules(), nil)
	tr.startWith(t, "A", "B", "C")

	_, err := tr.s.ReviewTarget("A", "B")
	assert.ErrorIs(t, err, ErrWrongPhase)

	tr.drawAll(t, "A", "B", "C")
	require.Equal(t, PhaseCopying, tr.s.Phase())

	target, err := tr.s.ReviewTarget("A", "B")
	require.NoError(t, err)
	assert.Equal(t, "B", target.TargetID)
	assert.Equal(t, "data:image/png;base64,orig-B", target.Image)
	assert.NotEmpty(t, target.Prompt)

	_, err = tr.s.ReviewTarget("A", "C")
	assert.ErrorIs(t, err, ErrTargetNotAssigned)
	_, err = tr.s.ReviewTarget("Z", "B")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	require.NoError(t, tr.s.SubmitCopy("A", "B", "data:image/png;base64,copy"))
	_, err = tr.s.ReviewTarget("A", "B")
	assert.NoError(t, err, "a finished copy can still be reviewed while copying lasts")
}
