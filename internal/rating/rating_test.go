package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeSymmetricPod(t *testing.T) {
	// Four players at 1000, no games played: expected score is 0.5 for
	// everyone, so deltas follow the placement score table directly.
	testCases := []struct {
		placement int
		expected  int
	}{
		{placement: 1, expected: 16},
		{placement: 2, expected: 5},
		{placement: 3, expected: -5},
		{placement: 4, expected: -16},
	}

	for _, tc := range testCases {
		delta, err := Change(1000, []int{1000, 1000, 1000}, tc.placement, 0)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, delta, "placement %d", tc.placement)
	}
}

func TestChangeKFactorBoundary(t *testing.T) {
	// 29 games still counts as new (K=32), 30 flips to established (K=24).
	delta, err := Change(1000, []int{1000, 1000, 1000}, 1, EstablishedGames-1)
	require.NoError(t, err)
	assert.Equal(t, 16, delta)

	delta, err = Change(1000, []int{1000, 1000, 1000}, 1, EstablishedGames)
	require.NoError(t, err)
	assert.Equal(t, 12, delta)
}

func TestChangeFavorsUnderdog(t *testing.T) {
	underdog, err := Change(800, []int{1200, 1200, 1200}, 1, 0)
	require.NoError(t, err)

	favorite, err := Change(1200, []int{800, 800, 800}, 1, 0)
	require.NoError(t, err)

	assert.Greater(t, underdog, favorite)
	assert.Positive(t, favorite, "a win never costs rating")
}

func TestChangeApproximatelyZeroSum(t *testing.T) {
	ratings := []int{1000, 1050, 950, 1100}
	sum := 0
	for i, r := range ratings {
		opponents := make([]int, 0, OpponentCount)
		for j, o := range ratings {
			if j != i {
				opponents = append(opponents, o)
			}
		}
		delta, err := Change(r, opponents, i+1, 0)
		require.NoError(t, err)
		sum += delta
	}

	// Placement scores sum to 1.99, not 2, so the pod is only
	// approximately zero-sum.
	assert.InDelta(t, 0, sum, 4)
}

func TestChangeRejectsMalformedInput(t *testing.T) {
	_, err := Change(1000, []int{1000, 1000}, 1, 0)
	assert.Error(t, err)

	_, err = Change(1000, []int{1000, 1000, 1000, 1000}, 1, 0)
	assert.Error(t, err)

	_, err = Change(1000, []int{1000, 1000, 1000}, 0, 0)
	assert.Error(t, err)

	_, err = Change(1000, []int{1000, 1000, 1000}, 5, 0)
	assert.Error(t, err)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, "Bronze", TierFor(0).Name)
	assert.Equal(t, "Silver", TierFor(800).Name)
	assert.Equal(t, "Gold", TierFor(StartingRating).Name)
	assert.Equal(t, "Platinum", TierFor(1200).Name)
	assert.Equal(t, "Diamond", TierFor(1399).Name)
	assert.Equal(t, "Mythic", TierFor(2400).Name)
}
