package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
	"github.com/pdhleague/pdh-league/internal/realtime"
	"github.com/pdhleague/pdh-league/internal/store"
)

// DefaultCountdown is the grace window between the last ready signal and
// the match actually starting; an un-ready during the window aborts it.
const DefaultCountdown = 3 * time.Second

type LobbyService struct {
	db      *sqlx.DB
	lobbies *store.LobbyStore
	decks   *store.DeckStore
	players *store.PlayerStore
	matches *store.MatchStore
	hub     *realtime.Hub

	countdown time.Duration
	mu        sync.Mutex
	pending   map[uuid.UUID]*time.Timer
}

func NewLobbyService(db *sqlx.DB, lobbies *store.LobbyStore, decks *store.DeckStore,
	players *store.PlayerStore, matches *store.MatchStore, hub *realtime.Hub) *LobbyService {
	return &LobbyService{
		db:        db,
		lobbies:   lobbies,
		decks:     decks,
		players:   players,
		matches:   matches,
		hub:       hub,
		countdown: DefaultCountdown,
		pending:   make(map[uuid.UUID]*time.Timer),
	}
}

type LobbyMemberData struct {
	Membership league.LobbyPlayer `json:"membership"`
	Player     *league.Player     `json:"player"`
	Deck       *league.Deck       `json:"deck"`
}

type LobbyData struct {
	Lobby    *league.Lobby     `json:"lobby"`
	Members  []LobbyMemberData `json:"members"`
	Starting bool              `json:"starting"`
}

func (s *LobbyService) Create(ctx context.Context, playerID uuid.UUID, name string, deckID uuid.UUID) (*league.Lobby, error) {
	if err := s.checkDeck(ctx, playerID, deckID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lobby := &league.Lobby{
		ID:        uuid.New(),
		Name:      name,
		CreatedBy: playerID,
		Status:    league.LobbyWaiting,
	}
	if err := s.lobbies.CreateLobbyTx(ctx, tx, lobby); err != nil {
		return nil, fmt.Errorf("failed to create lobby: %w", err)
	}

	member := &league.LobbyPlayer{
		ID:       uuid.New(),
		LobbyID:  lobby.ID,
		PlayerID: playerID,
		DeckID:   deckID,
	}
	if err := s.lobbies.AddMemberTx(ctx, tx, member); err != nil {
		return nil, fmt.Errorf("failed to add creator to lobby: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.hub.Publish(realtime.Event{Set: realtime.SetLobbies, Action: realtime.ActionInsert, ParentID: lobby.ID, Payload: lobby})
	s.hub.Publish(realtime.Event{Set: realtime.SetLobbyPlayers, Action: realtime.ActionInsert, ParentID: lobby.ID, Payload: member})
	return lobby, nil
}

// Join adds a membership while the lobby is waiting and under capacity.
// The capacity check and the insert share one transaction, and the
// (lobby_id, player_id) unique index backs the duplicate check, so two
// racing joins cannot overbook the lobby.
func (s *LobbyService) Join(ctx context.Context, lobbyID, playerID, deckID uuid.UUID) (*league.LobbyPlayer, error) {
	if err := s.checkDeck(ctx, playerID, deckID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lobby, err := s.lobbies.GetLobbyTx(ctx, tx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lobby: %w", err)
	}
	if lobby.Status != league.LobbyWaiting {
		return nil, ErrLobbyNotJoinable
	}

	count, err := s.lobbies.CountMembersTx(ctx, tx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if count >= league.LobbyCapacity {
		return nil, ErrLobbyFull
	}

	member := &league.LobbyPlayer{
		ID:       uuid.New(),
		LobbyID:  lobbyID,
		PlayerID: playerID,
		DeckID:   deckID,
	}
	if err := s.lobbies.AddMemberTx(ctx, tx, member); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyInLobby
		}
		return nil, fmt.Errorf("failed to join lobby: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.hub.Publish(realtime.Event{Set: realtime.SetLobbyPlayers, Action: realtime.ActionInsert, ParentID: lobbyID, Payload: member})
	return member, nil
}

func (s *LobbyService) Leave(ctx context.Context, lobbyID, playerID uuid.UUID) error {
	lobby, err := s.lobbies.GetLobby(ctx, lobbyID)
	if err != nil {
		return fmt.Errorf("failed to get lobby: %w", err)
	}
	if lobby.Status != league.LobbyWaiting {
		return ErrLobbyNotJoinable
	}

	removed, err := s.lobbies.RemoveMember(ctx, lobbyID, playerID)
	if err != nil {
		return fmt.Errorf("failed to leave lobby: %w", err)
	}
	if !removed {
		return ErrNotInLobby
	}

	// losing a member always aborts a pending start
	s.cancelCountdown(lobbyID)

	s.hub.Publish(realtime.Event{Set: realtime.SetLobbyPlayers, Action: realtime.ActionDelete, ParentID: lobbyID, Payload: playerID})
	return nil
}

// SetReady flips the caller's own ready flag. When the flip makes all
// four members ready the start countdown is armed; un-readying cancels
// a pending countdown.
func (s *LobbyService) SetReady(ctx context.Context, lobbyID, playerID uuid.UUID, ready bool) error {
	lobby, err := s.lobbies.GetLobby(ctx, lobbyID)
	if err != nil {
		return fmt.Errorf("failed to get lobby: %w", err)
	}
	if lobby.Status != league.LobbyWaiting {
		return ErrLobbyNotJoinable
	}

	var readyAt *time.Time
	if ready {
		now := time.Now().UTC()
		readyAt = &now
	}

	updated, err := s.lobbies.SetReady(ctx, lobbyID, playerID, ready, readyAt)
	if err != nil {
		return fmt.Errorf("failed to set ready: %w", err)
	}
	if !updated {
		return ErrNotInLobby
	}

	s.hub.Publish(realtime.Event{Set: realtime.SetLobbyPlayers, Action: realtime.ActionUpdate, ParentID: lobbyID, Payload: playerID})

	if !ready {
		s.cancelCountdown(lobbyID)
		return nil
	}

	members, err := s.lobbies.GetMembers(ctx, lobbyID)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	if len(members) != league.LobbyCapacity {
		return nil
	}
	for _, m := range members {
		if !m.IsReady {
			return nil
		}
	}

	s.armCountdown(lobbyID)
	return nil
}

func (s *LobbyService) armCountdown(lobbyID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, armed := s.pending[lobbyID]; armed {
		return
	}
	s.pending[lobbyID] = time.AfterFunc(s.countdown, func() {
		s.mu.Lock()
		delete(s.pending, lobbyID)
		s.mu.Unlock()

		if _, err := s.Start(context.Background(), lobbyID); err != nil {
			slog.Error("failed to start match from lobby", "lobby_id", lobbyID, "error", err)
		}
	})
	s.hub.Publish(realtime.Event{Set: realtime.SetLobbies, Action: realtime.ActionUpdate, ParentID: lobbyID, Payload: "starting"})
}

func (s *LobbyService) cancelCountdown(lobbyID uuid.UUID) {
	s.mu.Lock()
	timer, armed := s.pending[lobbyID]
	if armed {
		timer.Stop()
		delete(s.pending, lobbyID)
	}
	s.mu.Unlock()

	if armed {
		s.hub.Publish(realtime.Event{Set: realtime.SetLobbies, Action: realtime.ActionUpdate, ParentID: lobbyID, Payload: "countdown_cancelled"})
	}
}

// IsStarting reports whether the lobby currently has an armed countdown.
func (s *LobbyService) IsStarting(lobbyID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, armed := s.pending[lobbyID]
	return armed
}

// Start materializes the match: one transaction creates the match plus
// one result row per membership and flips the lobby to in_progress. Any
// failure rolls the whole transition back, so the lobby is never marked
// in_progress without its match.
func (s *LobbyService) Start(ctx context.Context, lobbyID uuid.UUID) (*league.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lobby, err := s.lobbies.GetLobbyTx(ctx, tx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lobby: %w", err)
	}
	if lobby.Status != league.LobbyWaiting {
		return nil, ErrConflict
	}

	members, err := s.lobbies.GetMembersTx(ctx, tx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	if len(members) != league.LobbyCapacity {
		return nil, ErrConflict
	}
	for _, m := range members {
		if !m.IsReady {
			return nil, ErrConflict
		}
	}

	match := &league.Match{
		ID:      uuid.New(),
		LobbyID: lobbyID,
		Status:  league.MatchInProgress,
	}
	if err := s.matches.CreateMatchTx(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	results := make([]league.MatchResult, 0, len(members))
	for _, m := range members {
		results = append(results, league.MatchResult{
			ID:       uuid.New(),
			MatchID:  match.ID,
			PlayerID: m.PlayerID,
			DeckID:   m.DeckID,
		})
	}
	if err := s.matches.CreateResultsTx(ctx, tx, results); err != nil {
		return nil, fmt.Errorf("failed to create match results: %w", err)
	}

	flipped, err := s.lobbies.UpdateLobbyStatusTx(ctx, tx, lobbyID, league.LobbyWaiting, league.LobbyInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to update lobby status: %w", err)
	}
	if !flipped {
		return nil, ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.hub.Publish(realtime.Event{Set: realtime.SetLobbies, Action: realtime.ActionUpdate, ParentID: lobbyID, Payload: league.LobbyInProgress})
	s.hub.Publish(realtime.Event{Set: realtime.SetMatches, Action: realtime.ActionInsert, ParentID: match.ID, Payload: match})
	return match, nil
}

// Get is the relational fetch for a lobby view: the lobby, its
// memberships and each membership's player and deck in one call.
func (s *LobbyService) Get(ctx context.Context, lobbyID uuid.UUID) (*LobbyData, error) {
	lobby, err := s.lobbies.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}

	members, err := s.lobbies.GetMembers(ctx, lobbyID)
	if err != nil {
		return nil, err
	}

	data := &LobbyData{Lobby: lobby, Starting: s.IsStarting(lobbyID)}
	for _, m := range members {
		player, err := s.players.GetPlayer(ctx, m.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get member player: %w", err)
		}
		deck, err := s.decks.GetDeck(ctx, m.DeckID)
		if err != nil {
			return nil, fmt.Errorf("failed to get member deck: %w", err)
		}
		data.Members = append(data.Members, LobbyMemberData{Membership: m, Player: player, Deck: deck})
	}
	return data, nil
}

func (s *LobbyService) List(ctx context.Context) ([]*LobbyData, error) {
	lobbies, err := s.lobbies.ListWaitingLobbies(ctx)
	if err != nil {
		return nil, err
	}

	data := make([]*LobbyData, 0, len(lobbies))
	for _, lobby := range lobbies {
		d, err := s.Get(ctx, lobby.ID)
		if err != nil {
			return nil, err
		}
		data = append(data, d)
	}
	return data, nil
}

func (s *LobbyService) checkDeck(ctx context.Context, playerID, deckID uuid.UUID) error {
	deck, err := s.decks.GetDeck(ctx, deckID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDeckNotUsable
		}
		return fmt.Errorf("failed to get deck: %w", err)
	}
	if deck.PlayerID != playerID || !deck.IsActive {
		return ErrDeckNotUsable
	}
	return nil
}
