package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSMessage is the envelope every pushed event is wrapped in.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Socket bridges hub subscriptions to browser websocket clients. A
// client connects with ?watch=lobby|match&id=<uuid> and receives every
// change event for that aggregate until it disconnects.
type Socket struct {
	hub      *Hub
	upgrader websocket.Upgrader
	connMap  sync.Map
}

func NewSocket(hub *Hub) *Socket {
	return &Socket{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// watchedSets maps an aggregate kind onto the record sets whose changes
// a watcher of that kind cares about.
var watchedSets = map[string][]RecordSet{
	"lobby": {SetLobbies, SetLobbyPlayers},
	"match": {SetMatches, SetMatchResults},
}

func (s *Socket) Handler(w http.ResponseWriter, r *http.Request) {
	sets, ok := watchedSets[r.URL.Query().Get("watch")]
	if !ok {
		http.Error(w, "watch must be lobby or match", http.StatusBadRequest)
		return
	}
	parentID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	socketID := uuid.New().String()
	s.connMap.Store(socketID, conn)

	subs := make([]*Subscription, 0, len(sets))
	for _, set := range sets {
		subs = append(subs, s.hub.Subscribe(set, parentID))
	}

	done := make(chan struct{})

	// read loop only to observe the close
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go s.pump(socketID, conn, subs, done)
}

func (s *Socket) pump(socketID string, conn *websocket.Conn, subs []*Subscription, done chan struct{}) {
	defer func() {
		for _, sub := range subs {
			sub.Cancel()
		}
		s.connMap.Delete(socketID)
		conn.Close()
	}()

	merged := make(chan Event, subscriptionBuffer)
	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(c chan Event) {
			defer wg.Done()
			for e := range c {
				select {
				case merged <- e:
				case <-done:
					return
				}
			}
		}(sub.C)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	for {
		select {
		case <-done:
			return
		case e, ok := <-merged:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to marshal event", "error", err)
				continue
			}
			msg := WSMessage{Type: string(e.Set) + "." + string(e.Action), Data: data}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
