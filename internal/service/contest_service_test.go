package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitEntryWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	player := env.createPlayer(t, "alice", 1000, 0)
	now := time.Now().UTC()

	upcoming, err := env.contests.Create(ctx, "next month", "", now.Add(24*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)
	_, err = env.contests.SubmitEntry(ctx, upcoming.ID, player.ID, "https://example.com/list", "")
	assert.ErrorIs(t, err, ErrContestNotOpen)

	ended, err := env.contests.Create(ctx, "last month", "", now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	require.NoError(t, err)
	_, err = env.contests.SubmitEntry(ctx, ended.ID, player.ID, "https://example.com/list", "")
	assert.ErrorIs(t, err, ErrContestNotOpen)

	open, err := env.contests.Create(ctx, "brew of the month", "monthly deckbuilding contest", now.Add(-time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)
	entry, err := env.contests.SubmitEntry(ctx, open.ID, player.ID, "https://example.com/list", "")
	require.NoError(t, err)
	assert.Equal(t, open.ID, entry.ContestID)
}

func TestSubmitEntryOncePerPlayer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	player := env.createPlayer(t, "alice", 1000, 0)
	now := time.Now().UTC()

	contest, err := env.contests.Create(ctx, "brew of the month", "", now.Add(-time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)

	_, err = env.contests.SubmitEntry(ctx, contest.ID, player.ID, "", "1 Commander\n99 cards")
	require.NoError(t, err)

	_, err = env.contests.SubmitEntry(ctx, contest.ID, player.ID, "", "a different list")
	assert.ErrorIs(t, err, ErrAlreadyEntered)

	data, err := env.contests.Get(ctx, contest.ID)
	require.NoError(t, err)
	assert.Len(t, data.Entries, 1)
}
