package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
)

type LobbyStore struct {
	db *sqlx.DB
}

const (
	getLobbyQuery      = "SELECT * FROM lobbies WHERE id = ?"
	createLobbyQuery   = "INSERT INTO lobbies (id, name, created_by, status) VALUES (:id, :name, :created_by, :status)"
	listWaitingQuery   = "SELECT * FROM lobbies WHERE status = ? ORDER BY created_at DESC"
	setLobbyStatus     = "UPDATE lobbies SET status = ? WHERE id = ? AND status = ?"
	countMembersQuery  = "SELECT COUNT(*) FROM lobby_players WHERE lobby_id = ?"
	getMembersQuery    = "SELECT * FROM lobby_players WHERE lobby_id = ? ORDER BY created_at ASC"
	getMemberQuery     = "SELECT * FROM lobby_players WHERE lobby_id = ? AND player_id = ?"
	addMemberQuery     = "INSERT INTO lobby_players (id, lobby_id, player_id, deck_id) VALUES (:id, :lobby_id, :player_id, :deck_id)"
	removeMemberQuery  = "DELETE FROM lobby_players WHERE lobby_id = ? AND player_id = ?"
	setReadyQuery      = "UPDATE lobby_players SET is_ready = ?, ready_at = ? WHERE lobby_id = ? AND player_id = ?"
	countUnreadyQuery  = "SELECT COUNT(*) FROM lobby_players WHERE lobby_id = ? AND is_ready = 0"
	staleLobbiesDelete = `
		DELETE FROM lobbies
		WHERE status = 'waiting'
		AND created_at < ?
		AND NOT EXISTS (SELECT 1 FROM lobby_players WHERE lobby_players.lobby_id = lobbies.id)
	`
)

func NewLobbyStore(db *sqlx.DB) *LobbyStore {
	return &LobbyStore{db: db}
}

func (s *LobbyStore) GetLobby(ctx context.Context, id uuid.UUID) (*league.Lobby, error) {
	var lobby league.Lobby
	err := s.db.GetContext(ctx, &lobby, getLobbyQuery, id)
	if err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (s *LobbyStore) GetLobbyTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*league.Lobby, error) {
	var lobby league.Lobby
	err := tx.GetContext(ctx, &lobby, getLobbyQuery, id)
	if err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (s *LobbyStore) CreateLobbyTx(ctx context.Context, tx *sqlx.Tx, lobby *league.Lobby) error {
	_, err := tx.NamedExecContext(ctx, createLobbyQuery, lobby)
	return err
}

func (s *LobbyStore) ListWaitingLobbies(ctx context.Context) ([]league.Lobby, error) {
	var lobbies []league.Lobby
	err := s.db.SelectContext(ctx, &lobbies, listWaitingQuery, league.LobbyWaiting)
	return lobbies, err
}

// UpdateLobbyStatusTx flips the lobby status conditionally on its current
// status. Returns false when the guard did not match (someone else won
// the transition).
func (s *LobbyStore) UpdateLobbyStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to league.LobbyStatus) (bool, error) {
	res, err := tx.ExecContext(ctx, setLobbyStatus, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *LobbyStore) CountMembersTx(ctx context.Context, tx *sqlx.Tx, lobbyID uuid.UUID) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, countMembersQuery, lobbyID)
	return count, err
}

func (s *LobbyStore) GetMembers(ctx context.Context, lobbyID uuid.UUID) ([]league.LobbyPlayer, error) {
	var members []league.LobbyPlayer
	err := s.db.SelectContext(ctx, &members, getMembersQuery, lobbyID)
	return members, err
}

func (s *LobbyStore) GetMembersTx(ctx context.Context, tx *sqlx.Tx, lobbyID uuid.UUID) ([]league.LobbyPlayer, error) {
	var members []league.LobbyPlayer
	err := tx.SelectContext(ctx, &members, getMembersQuery, lobbyID)
	return members, err
}

func (s *LobbyStore) GetMember(ctx context.Context, lobbyID, playerID uuid.UUID) (*league.LobbyPlayer, error) {
	var member league.LobbyPlayer
	err := s.db.GetContext(ctx, &member, getMemberQuery, lobbyID, playerID)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *LobbyStore) AddMemberTx(ctx context.Context, tx *sqlx.Tx, member *league.LobbyPlayer) error {
	_, err := tx.NamedExecContext(ctx, addMemberQuery, member)
	return err
}

func (s *LobbyStore) RemoveMember(ctx context.Context, lobbyID, playerID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, removeMemberQuery, lobbyID, playerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetReady only matches the caller's own membership row, so a player can
// never flip someone else's flag.
func (s *LobbyStore) SetReady(ctx context.Context, lobbyID, playerID uuid.UUID, ready bool, readyAt *time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, setReadyQuery, ready, readyAt, lobbyID, playerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *LobbyStore) CountUnready(ctx context.Context, lobbyID uuid.UUID) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, countUnreadyQuery, lobbyID)
	return count, err
}

func (s *LobbyStore) DeleteStaleEmptyLobbies(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, staleLobbiesDelete, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
