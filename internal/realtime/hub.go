package realtime

import (
	"sync"

	"github.com/google/uuid"
)

type RecordSet string

const (
	SetLobbies      RecordSet = "lobbies"
	SetLobbyPlayers RecordSet = "lobby_players"
	SetMatches      RecordSet = "matches"
	SetMatchResults RecordSet = "match_results"
)

type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event describes one row change. ParentID is the lobby or match the row
// belongs to (the row's own id for lobby/match rows), so subscribers can
// filter on the aggregate they are watching.
type Event struct {
	Set      RecordSet `json:"set"`
	Action   Action    `json:"action"`
	ParentID uuid.UUID `json:"parent_id"`
	Payload  any       `json:"payload"`
}

type Subscription struct {
	C      chan Event
	cancel func()
	once   sync.Once
}

// Cancel tears the subscription down. Safe to call more than once; the
// event channel is closed.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Hub fans row-change events out to per-aggregate subscribers. Publish
// never blocks: a subscriber that cannot keep up loses events and is
// expected to re-fetch.
type Hub struct {
	mu   sync.RWMutex
	subs map[RecordSet]map[uuid.UUID]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[RecordSet]map[uuid.UUID]map[*Subscription]struct{})}
}

const subscriptionBuffer = 16

func (h *Hub) Subscribe(set RecordSet, parentID uuid.UUID) *Subscription {
	sub := &Subscription{C: make(chan Event, subscriptionBuffer)}
	sub.cancel = func() {
		h.mu.Lock()
		if parents, ok := h.subs[set]; ok {
			if siblings, ok := parents[parentID]; ok {
				delete(siblings, sub)
				if len(siblings) == 0 {
					delete(parents, parentID)
				}
			}
		}
		h.mu.Unlock()
		close(sub.C)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[set] == nil {
		h.subs[set] = make(map[uuid.UUID]map[*Subscription]struct{})
	}
	if h.subs[set][parentID] == nil {
		h.subs[set][parentID] = make(map[*Subscription]struct{})
	}
	h.subs[set][parentID][sub] = struct{}{}
	return sub
}

func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[e.Set][e.ParentID] {
		select {
		case sub.C <- e:
		default:
			// slow consumer, drop
		}
	}
}
