package middleware

import (
	"context"
	"net/http"
	"os"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
	"github.com/pdhleague/pdh-league/internal/league"
	"github.com/pdhleague/pdh-league/internal/store"
)

type ContextKey string

const PlayerIDKey ContextKey = "playerID"

func InitAuth() {
	discordKey := os.Getenv("DISCORD_KEY")
	discordSecret := os.Getenv("DISCORD_SECRET")
	discordCallbackURL := os.Getenv("DISCORD_CALLBACK_URL")

	googleKey := os.Getenv("GOOGLE_KEY")
	googleSecret := os.Getenv("GOOGLE_SECRET")
	googleCallbackURL := os.Getenv("GOOGLE_CALLBACK_URL")

	goth.UseProviders(
		discord.New(discordKey, discordSecret, discordCallbackURL, discord.ScopeIdentify, discord.ScopeEmail),
		google.New(googleKey, googleSecret, googleCallbackURL, "email", "profile"),
	)
}

// LoadAuthenticatedPlayer resolves the session's player id and puts the
// id and the player record on the request context. The core trusts this
// id as the acting player for every write.
func LoadAuthenticatedPlayer(sessionManager *scs.SessionManager, playerStore *store.PlayerStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			playerIDStr := sessionManager.GetString(r.Context(), "playerID")
			if playerIDStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			playerID, err := uuid.Parse(playerIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), "playerID")
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), PlayerIDKey, playerID)
			if player, err := playerStore.GetPlayer(ctx, playerID); err == nil {
				ctx = context.WithValue(ctx, league.PlayerKey, player)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPlayerIDFromContext(r.Context()); !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		player := GetAuthenticatedPlayer(r.Context())
		if player == nil || !player.IsAdmin {
			http.Error(w, "admin privileges required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetPlayerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(PlayerIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedPlayer(ctx context.Context) *league.Player {
	val := ctx.Value(league.PlayerKey)
	if val == nil {
		return nil
	}
	player, ok := val.(*league.Player)
	if !ok {
		return nil
	}
	return player
}
