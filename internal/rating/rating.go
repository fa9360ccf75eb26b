package rating

import (
	"fmt"
	"math"
)

const (
	// StartingRating is assigned to new players and decks.
	StartingRating = 1000

	// KFactorNew applies until a player has EstablishedGames games.
	KFactorNew         = 32
	KFactorEstablished = 24
	EstablishedGames   = 30

	// OpponentCount is the number of other players in a pod.
	OpponentCount = 3
)

// placementScores maps placement 1..4 onto an actual score. This is a
// deliberate non-linear multiplayer approximation of pairwise Elo, not
// true multiplayer Elo.
var placementScores = [4]float64{1.0, 0.66, 0.33, 0}

// Change computes the signed rating delta for one participant of a
// finished four-player match. The result is unclamped; any bounding
// happens at the display layer.
func Change(playerRating int, opponentRatings []int, placement, gamesPlayed int) (int, error) {
	if len(opponentRatings) != OpponentCount {
		return 0, fmt.Errorf("rating: expected %d opponent ratings, got %d", OpponentCount, len(opponentRatings))
	}
	if placement < 1 || placement > len(placementScores) {
		return 0, fmt.Errorf("rating: placement %d out of range [1,%d]", placement, len(placementScores))
	}

	sum := 0
	for _, r := range opponentRatings {
		sum += r
	}
	avgOpponent := float64(sum) / float64(OpponentCount)

	expected := 1 / (1 + math.Pow(10, (avgOpponent-float64(playerRating))/400))
	actual := placementScores[placement-1]

	k := float64(KFactorNew)
	if gamesPlayed >= EstablishedGames {
		k = KFactorEstablished
	}

	return int(math.Round(k * (actual - expected))), nil
}
