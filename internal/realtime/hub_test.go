package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToMatchingSubscribers(t *testing.T) {
	hub := NewHub()
	lobbyID := uuid.New()
	otherID := uuid.New()

	sub := hub.Subscribe(SetLobbyPlayers, lobbyID)
	defer sub.Cancel()
	other := hub.Subscribe(SetLobbyPlayers, otherID)
	defer other.Cancel()
	wrongSet := hub.Subscribe(SetMatches, lobbyID)
	defer wrongSet.Cancel()

	hub.Publish(Event{Set: SetLobbyPlayers, Action: ActionInsert, ParentID: lobbyID, Payload: "joined"})

	select {
	case e := <-sub.C:
		assert.Equal(t, ActionInsert, e.Action)
		assert.Equal(t, lobbyID, e.ParentID)
	default:
		t.Fatal("expected event for matching subscriber")
	}

	assert.Empty(t, other.C)
	assert.Empty(t, wrongSet.C)
}

func TestHubCancelStopsDelivery(t *testing.T) {
	hub := NewHub()
	lobbyID := uuid.New()

	sub := hub.Subscribe(SetLobbies, lobbyID)
	sub.Cancel()
	// repeated cancel is a no-op
	sub.Cancel()

	hub.Publish(Event{Set: SetLobbies, Action: ActionUpdate, ParentID: lobbyID})

	_, open := <-sub.C
	assert.False(t, open, "channel should be closed after cancel")
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()
	matchID := uuid.New()

	sub := hub.Subscribe(SetMatchResults, matchID)
	defer sub.Cancel()

	for i := 0; i < subscriptionBuffer+5; i++ {
		hub.Publish(Event{Set: SetMatchResults, Action: ActionUpdate, ParentID: matchID, Payload: i})
	}

	require.Len(t, sub.C, subscriptionBuffer)

	// the buffered events survive in order
	first := <-sub.C
	assert.Equal(t, 0, first.Payload)
}
