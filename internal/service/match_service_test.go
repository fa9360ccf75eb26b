package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pdhleague/pdh-league/internal/league"
	"github.com/pdhleague/pdh-league/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) resultFor(t *testing.T, matchID, playerID uuid.UUID) *league.MatchResult {
	t.Helper()

	data, err := e.matches.Get(context.Background(), matchID)
	require.NoError(t, err)
	for _, r := range data.Results {
		if r.Result.PlayerID == playerID {
			result := r.Result
			return &result
		}
	}
	t.Fatalf("no result for player %s in match %s", playerID, matchID)
	return nil
}

func TestSubmitPlacementsRejectsMalformed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, players, _ := env.createFullLobby(t)
	match := env.startMatch(t, lobby, players)

	outsider := env.createPlayer(t, "eve", 1000, 0)

	testCases := []struct {
		name       string
		placements map[uuid.UUID]int
	}{
		{
			name: "missing participant",
			placements: map[uuid.UUID]int{
				players[0].ID: 1, players[1].ID: 2, players[2].ID: 3,
			},
		},
		{
			name: "duplicate rank",
			placements: map[uuid.UUID]int{
				players[0].ID: 1, players[1].ID: 1, players[2].ID: 3, players[3].ID: 4,
			},
		},
		{
			name: "rank out of range",
			placements: map[uuid.UUID]int{
				players[0].ID: 1, players[1].ID: 2, players[2].ID: 3, players[3].ID: 5,
			},
		},
		{
			name: "unknown player",
			placements: map[uuid.UUID]int{
				players[0].ID: 1, players[1].ID: 2, players[2].ID: 3, outsider.ID: 4,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.matches.SubmitPlacements(ctx, match.ID, players[0].ID, tc.placements)
			assert.ErrorIs(t, err, ErrInvalidPlacements)
		})
	}

	// nothing partial should have been written
	data, err := env.matches.Get(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, league.MatchInProgress, data.Match.Status)
	for _, r := range data.Results {
		assert.Nil(t, r.Result.Placement)
	}
}

func TestSubmitPlacementsParticipantsOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, players, _ := env.createFullLobby(t)
	match := env.startMatch(t, lobby, players)

	outsider := env.createPlayer(t, "eve", 1000, 0)
	_, err := env.matches.SubmitPlacements(ctx, match.ID, outsider.ID, map[uuid.UUID]int{
		players[0].ID: 1, players[1].ID: 2, players[2].ID: 3, players[3].ID: 4,
	})
	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestSubmitPlacementsOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, players, _ := env.createFullLobby(t)
	match := env.startMatch(t, lobby, players)

	placements := map[uuid.UUID]int{
		players[0].ID: 1, players[1].ID: 2, players[2].ID: 3, players[3].ID: 4,
	}
	submitted, err := env.matches.SubmitPlacements(ctx, match.ID, players[0].ID, placements)
	require.NoError(t, err)
	assert.Equal(t, league.MatchPendingValidation, submitted.Status)
	require.NotNil(t, submitted.WinnerID)
	assert.Equal(t, players[0].ID, *submitted.WinnerID)

	// a second reporter is rejected, even with different placements
	rival := map[uuid.UUID]int{
		players[0].ID: 4, players[1].ID: 3, players[2].ID: 2, players[3].ID: 1,
	}
	_, err = env.matches.SubmitPlacements(ctx, match.ID, players[1].ID, rival)
	assert.ErrorIs(t, err, ErrMatchNotInProgress)

	result := env.resultFor(t, match.ID, players[0].ID)
	require.NotNil(t, result.Placement)
	assert.Equal(t, 1, *result.Placement)
}

func TestValidateAppliesRatingOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, players, decks := env.createFullLobby(t)
	match := env.startMatch(t, lobby, players)

	_, err := env.matches.SubmitPlacements(ctx, match.ID, players[0].ID, map[uuid.UUID]int{
		players[0].ID: 1, players[1].ID: 2, players[2].ID: 3, players[3].ID: 4,
	})
	require.NoError(t, err)

	expected, err := rating.Change(1000, []int{1000, 1000, 1000}, 1, 0)
	require.NoError(t, err)

	result := env.resultFor(t, match.ID, players[0].ID)
	validated, err := env.matches.Validate(ctx, result.ID, players[0].ID)
	require.NoError(t, err)
	require.NotNil(t, validated.EloChange)
	assert.Equal(t, expected, *validated.EloChange)

	winner, err := env.players.GetPlayer(ctx, players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1000+expected, winner.Rating)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 0, winner.Losses)
	assert.Equal(t, 1, winner.MatchesPlayed)

	deck, err := env.decks.GetDeck(ctx, decks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1000+expected, deck.Elo)
	assert.Equal(t, 1, deck.Wins)
	assert.Equal(t, 1, deck.GamesPlayed)

	// replay must not move the rating again
	_, err = env.matches.Validate(ctx, result.ID, players[0].ID)
	assert.ErrorIs(t, err, ErrResultAlreadyFinalized)

	winner, err = env.players.GetPlayer(ctx, players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1000+expected, winner.Rating)
	assert.Equal(t, 1, winner.MatchesPlayed)
}

func TestValidateOwnRowOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, players, _ := env.createFullLobby(t)
	match := env.startMatch(t, lobby, players)

	_, err := env.matches.SubmitPlacements(ctx, match.ID, players[0].ID, map[uuid.UUID]int{
		players[0].ID: 1, players[1].ID: 2, players[2].ID: 3, players[3].ID: 4,
	})
	require.NoError(t, err)

	result := env.resultFor(t, match.ID, players[1].ID)
	_, err = env.matches.Validate(ctx, result.ID, players[0].ID)
	assert.ErrorIs(t, err, ErrNotYourResult)
}

func TestValidateBeforePlacements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, players, _ := env.createFullLobby(t)
	match := env.startMatch(t, lobby, players)

	result := env.resultFor(t, match.ID, players[0].ID)
	_, err := env.matches.Validate(ctx, result.ID, players[0].ID)
	assert.ErrorIs(t, err, ErrPlacementsNotSubmitted)
}

func TestChallengeFilesReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, players, _ := env.createFullLobby(t)
	match := env.startMatch(t, lobby, players)

	_, err := env.matches.SubmitPlacements(ctx, match.ID, players[0].ID, map[uuid.UUID]int{
		players[0].ID: 1, players[1].ID: 2, players[2].ID: 3, players[3].ID: 4,
	})
	require.NoError(t, err)

	result := env.resultFor(t, match.ID, players[2].ID)

	_, err = env.matches.Challenge(ctx, result.ID, players[2].ID, "")
	assert.ErrorIs(t, err, ErrChallengeReasonRequired)

	challenged, err := env.matches.Challenge(ctx, result.ID, players[2].ID, "I finished second, not third")
	require.NoError(t, err)
	assert.True(t, challenged.Challenged)

	reports, err := env.reports.ListByStatus(ctx, league.ReportPending)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, players[2].ID, reports[0].ReporterID)
	assert.Equal(t, players[0].ID, reports[0].ReportedPlayerID)
	require.NotNil(t, reports[0].MatchID)
	assert.Equal(t, match.ID, *reports[0].MatchID)

	// a challenged row can no longer be validated
	_, err = env.matches.Validate(ctx, result.ID, players[2].ID)
	assert.ErrorIs(t, err, ErrResultAlreadyFinalized)

	// and the player's rating stays untouched
	player, err := env.players.GetPlayer(ctx, players[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, player.Rating)
	assert.Equal(t, 0, player.MatchesPlayed)
}

func TestAllValidationsCompleteMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lobby, players, _ := env.createFullLobby(t)
	match := env.startMatch(t, lobby, players)

	_, err := env.matches.SubmitPlacements(ctx, match.ID, players[0].ID, map[uuid.UUID]int{
		players[0].ID: 1, players[1].ID: 2, players[2].ID: 3, players[3].ID: 4,
	})
	require.NoError(t, err)

	for i, p := range players {
		result := env.resultFor(t, match.ID, p.ID)
		_, err := env.matches.Validate(ctx, result.ID, p.ID)
		require.NoError(t, err)

		data, err := env.matches.Get(ctx, match.ID)
		require.NoError(t, err)
		if i < len(players)-1 {
			assert.Equal(t, league.MatchPendingValidation, data.Match.Status)
		} else {
			assert.Equal(t, league.MatchCompleted, data.Match.Status)
		}
	}

	pending, err := env.matches.PendingValidation(ctx, players[0].ID)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

// TestKnownPodRatings plays out a full pod with four distinct rating and
// experience profiles and checks the exact deltas each validation applies.
func TestKnownPodRatings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	profiles := []struct {
		name          string
		rating        int
		matchesPlayed int
		placement     int
		expectedDelta int
	}{
		{"amy", 1000, 10, 4, -14},
		{"ben", 1050, 40, 1, 11},
		{"cam", 950, 5, 3, -1},
		{"dot", 1100, 60, 2, 0},
	}

	players := make([]*league.Player, len(profiles))
	decks := make([]*league.Deck, len(profiles))
	for i, p := range profiles {
		players[i] = env.createPlayer(t, p.name, p.rating, p.matchesPlayed)
		decks[i] = env.createDeck(t, players[i].ID)
	}

	lobby, err := env.lobbies.Create(ctx, players[0].ID, "ranked pod", decks[0].ID)
	require.NoError(t, err)
	for i := 1; i < len(players); i++ {
		_, err := env.lobbies.Join(ctx, lobby.ID, players[i].ID, decks[i].ID)
		require.NoError(t, err)
	}
	match := env.startMatch(t, lobby, players)

	placements := make(map[uuid.UUID]int, len(profiles))
	for i, p := range profiles {
		placements[players[i].ID] = p.placement
	}
	submitted, err := env.matches.SubmitPlacements(ctx, match.ID, players[1].ID, placements)
	require.NoError(t, err)
	require.NotNil(t, submitted.WinnerID)
	assert.Equal(t, players[1].ID, *submitted.WinnerID)

	for i, profile := range profiles {
		opponents := make([]int, 0, 3)
		for j, other := range profiles {
			if j != i {
				opponents = append(opponents, other.rating)
			}
		}
		fromFormula, err := rating.Change(profile.rating, opponents, profile.placement, profile.matchesPlayed)
		require.NoError(t, err)
		require.Equal(t, profile.expectedDelta, fromFormula, "formula drifted for %s", profile.name)

		result := env.resultFor(t, match.ID, players[i].ID)
		validated, err := env.matches.Validate(ctx, result.ID, players[i].ID)
		require.NoError(t, err)
		require.NotNil(t, validated.EloChange)
		assert.Equal(t, profile.expectedDelta, *validated.EloChange, "delta for %s", profile.name)

		after, err := env.players.GetPlayer(ctx, players[i].ID)
		require.NoError(t, err)
		assert.Equal(t, profile.rating+profile.expectedDelta, after.Rating, "rating for %s", profile.name)
		assert.Equal(t, profile.matchesPlayed+1, after.MatchesPlayed)
		if profile.placement == 1 {
			assert.Equal(t, 1, after.Wins)
		} else {
			assert.Equal(t, 1, after.Losses)
		}
	}

	data, err := env.matches.Get(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, league.MatchCompleted, data.Match.Status)
}
