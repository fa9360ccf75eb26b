package httputil

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pdhleague/pdh-league/internal/service"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	slog.Warn("conflict", "message", msg, "error", err)
	http.Error(w, msg, http.StatusConflict)
}

func Forbidden(w http.ResponseWriter, msg string) {
	slog.Warn("forbidden", "message", msg)
	http.Error(w, msg, http.StatusForbidden)
}

// ServiceError maps the service error taxonomy onto HTTP statuses:
// validation errors reject with 400/403, lost conditional writes with
// 409 (retryable after a re-fetch), missing rows with 404, and anything
// else is a collaborator failure.
func ServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		NotFound(w, "not found", err)
	case errors.Is(err, service.ErrConflict):
		Conflict(w, err.Error(), err)
	case errors.Is(err, service.ErrNotYourResult), errors.Is(err, service.ErrNotAdmin):
		Forbidden(w, err.Error())
	case errors.Is(err, service.ErrLobbyFull),
		errors.Is(err, service.ErrLobbyNotJoinable),
		errors.Is(err, service.ErrAlreadyInLobby),
		errors.Is(err, service.ErrNotInLobby),
		errors.Is(err, service.ErrDeckNotUsable),
		errors.Is(err, service.ErrMatchNotInProgress),
		errors.Is(err, service.ErrNotAParticipant),
		errors.Is(err, service.ErrInvalidPlacements),
		errors.Is(err, service.ErrPlacementsNotSubmitted),
		errors.Is(err, service.ErrResultAlreadyFinalized),
		errors.Is(err, service.ErrChallengeReasonRequired),
		errors.Is(err, service.ErrContestNotOpen),
		errors.Is(err, service.ErrAlreadyEntered):
		BadRequest(w, err.Error(), err)
	default:
		InternalServerError(w, "request failed", err)
	}
}
