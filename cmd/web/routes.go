package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
	"github.com/pdhleague/pdh-league/internal/httputil"
	"github.com/pdhleague/pdh-league/internal/league"
	"github.com/pdhleague/pdh-league/internal/middleware"
	"github.com/pdhleague/pdh-league/internal/realtime"
	"github.com/pdhleague/pdh-league/internal/service"
	"github.com/pdhleague/pdh-league/internal/store"
)

type services struct {
	players  *service.PlayerService
	decks    *service.DeckService
	lobbies  *service.LobbyService
	matches  *service.MatchService
	reports  *service.ReportService
	contests *service.ContestService
}

func newRouter(sessionManager *scs.SessionManager, playerStore *store.PlayerStore, svc *services, socket *realtime.Socket) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(120, 1*time.Minute))
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadAuthenticatedPlayer(sessionManager, playerStore))

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		player, err := svc.players.FindOrCreateByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create player", err)
			return
		}

		sessionManager.Put(r.Context(), "playerID", player.ID.String())
		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		player, err := svc.players.EnsureGuestPlayer(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to login as guest", err)
			return
		}

		sessionManager.Put(r.Context(), "playerID", player.ID.String())
		httputil.JSON(w, http.StatusOK, player)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Destroy(r.Context())
		httputil.NoContent(w)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/ws", socket.Handler)

		r.Get("/api/me", func(w http.ResponseWriter, r *http.Request) {
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			player, err := svc.players.GetProfile(r.Context(), playerID)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, player)
		})

		r.Patch("/api/me", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Username string `json:"username"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" {
				httputil.BadRequest(w, "username is required", err)
				return
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			player, err := svc.players.UpdateUsername(r.Context(), playerID, body.Username)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, player)
		})

		r.Get("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			rows, err := svc.players.Leaderboard(r.Context(), limit)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, rows)
		})

		r.Get("/api/leaderboard/decks", func(w http.ResponseWriter, r *http.Request) {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			decks, err := svc.players.DeckLeaderboard(r.Context(), limit)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, decks)
		})

		r.Get("/api/decks", func(w http.ResponseWriter, r *http.Request) {
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			decks, err := svc.decks.ListMine(r.Context(), playerID)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, decks)
		})

		r.Post("/api/decks", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Name          string `json:"name"`
				CommanderName string `json:"commander_name"`
				ColorIdentity string `json:"color_identity"`
				DecklistURL   string `json:"decklist_url"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			if body.Name == "" || body.CommanderName == "" {
				httputil.BadRequest(w, "name and commander_name are required", nil)
				return
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			deck, err := svc.decks.Register(r.Context(), playerID, service.DeckInput{
				Name:          body.Name,
				CommanderName: body.CommanderName,
				ColorIdentity: body.ColorIdentity,
				DecklistURL:   body.DecklistURL,
			})
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusCreated, deck)
		})

		r.Post("/api/decks/{id}/deactivate", func(w http.ResponseWriter, r *http.Request) {
			deckID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid deck ID", err)
				return
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			if err := svc.decks.Deactivate(r.Context(), playerID, deckID); err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.NoContent(w)
		})

		r.Get("/api/lobbies", func(w http.ResponseWriter, r *http.Request) {
			lobbies, err := svc.lobbies.List(r.Context())
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, lobbies)
		})

		r.Post("/api/lobbies", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Name   string `json:"name"`
				DeckID string `json:"deck_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			deckID, err := uuid.Parse(body.DeckID)
			if err != nil || body.Name == "" {
				httputil.BadRequest(w, "name and deck_id are required", err)
				return
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			lobby, err := svc.lobbies.Create(r.Context(), playerID, body.Name, deckID)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusCreated, lobby)
		})

		r.Get("/api/lobbies/{id}", func(w http.ResponseWriter, r *http.Request) {
			lobbyID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid lobby ID", err)
				return
			}
			data, err := svc.lobbies.Get(r.Context(), lobbyID)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, data)
		})

		r.Post("/api/lobbies/{id}/join", func(w http.ResponseWriter, r *http.Request) {
			lobbyID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid lobby ID", err)
				return
			}
			var body struct {
				DeckID string `json:"deck_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			deckID, err := uuid.Parse(body.DeckID)
			if err != nil {
				httputil.BadRequest(w, "deck_id is required", err)
				return
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			member, err := svc.lobbies.Join(r.Context(), lobbyID, playerID, deckID)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusCreated, member)
		})

		r.Post("/api/lobbies/{id}/leave", func(w http.ResponseWriter, r *http.Request) {
			lobbyID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid lobby ID", err)
				return
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			if err := svc.lobbies.Leave(r.Context(), lobbyID, playerID); err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.NoContent(w)
		})

		r.Post("/api/lobbies/{id}/ready", func(w http.ResponseWriter, r *http.Request) {
			lobbyID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid lobby ID", err)
				return
			}
			var body struct {
				Ready bool `json:"ready"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			if err := svc.lobbies.SetReady(r.Context(), lobbyID, playerID, body.Ready); err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.NoContent(w)
		})

		r.Get("/api/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
			matchID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}
			data, err := svc.matches.Get(r.Context(), matchID)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, data)
		})

		r.Post("/api/matches/{id}/results", func(w http.ResponseWriter, r *http.Request) {
			matchID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}
			var body struct {
				Placements map[string]int `json:"placements"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			placements := make(map[uuid.UUID]int, len(body.Placements))
			for playerIDStr, place := range body.Placements {
				playerID, err := uuid.Parse(playerIDStr)
				if err != nil {
					httputil.BadRequest(w, "Invalid player ID in placements", err)
					return
				}
				placements[playerID] = place
			}
			actingID, _ := middleware.GetPlayerIDFromContext(r.Context())
			match, err := svc.matches.SubmitPlacements(r.Context(), matchID, actingID, placements)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, match)
		})

		r.Get("/api/validation/pending", func(w http.ResponseWriter, r *http.Request) {
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			result, err := svc.matches.PendingValidation(r.Context(), playerID)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, result)
		})

		r.Post("/api/results/{id}/validate", func(w http.ResponseWriter, r *http.Request) {
			resultID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid result ID", err)
				return
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			result, err := svc.matches.Validate(r.Context(), resultID, playerID)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, result)
		})

		r.Post("/api/results/{id}/challenge", func(w http.ResponseWriter, r *http.Request) {
			resultID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid result ID", err)
				return
			}
			var body struct {
				Reason string `json:"reason"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			result, err := svc.matches.Challenge(r.Context(), resultID, playerID, body.Reason)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, result)
		})

		r.Get("/api/matches", func(w http.ResponseWriter, r *http.Request) {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			if limit <= 0 {
				limit = 20
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			results, err := svc.matches.History(r.Context(), playerID, limit)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, results)
		})

		r.Post("/api/reports", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				ReportedPlayerID string `json:"reported_player_id"`
				MatchID          string `json:"match_id"`
				Reason           string `json:"reason"`
				Details          string `json:"details"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			reportedID, err := uuid.Parse(body.ReportedPlayerID)
			if err != nil || body.Reason == "" {
				httputil.BadRequest(w, "reported_player_id and reason are required", err)
				return
			}
			var matchID *uuid.UUID
			if body.MatchID != "" {
				id, err := uuid.Parse(body.MatchID)
				if err != nil {
					httputil.BadRequest(w, "Invalid match ID", err)
					return
				}
				matchID = &id
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			report, err := svc.reports.Submit(r.Context(), playerID, reportedID, matchID, body.Reason, body.Details)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusCreated, report)
		})

		r.Get("/api/contests", func(w http.ResponseWriter, r *http.Request) {
			contests, err := svc.contests.List(r.Context())
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, contests)
		})

		r.Get("/api/contests/{id}", func(w http.ResponseWriter, r *http.Request) {
			contestID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid contest ID", err)
				return
			}
			data, err := svc.contests.Get(r.Context(), contestID)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, data)
		})

		r.Post("/api/contests/{id}/entries", func(w http.ResponseWriter, r *http.Request) {
			contestID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid contest ID", err)
				return
			}
			var body struct {
				DecklistURL  string `json:"decklist_url"`
				DecklistText string `json:"decklist_text"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			playerID, _ := middleware.GetPlayerIDFromContext(r.Context())
			entry, err := svc.contests.SubmitEntry(r.Context(), contestID, playerID, body.DecklistURL, body.DecklistText)
			if err != nil {
				httputil.ServiceError(w, err)
				return
			}
			httputil.JSON(w, http.StatusCreated, entry)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/api/admin/reports", func(w http.ResponseWriter, r *http.Request) {
				status := league.ReportStatus(r.URL.Query().Get("status"))
				if status == "" {
					status = league.ReportPending
				}
				reports, err := svc.reports.ListByStatus(r.Context(), status)
				if err != nil {
					httputil.ServiceError(w, err)
					return
				}
				httputil.JSON(w, http.StatusOK, reports)
			})

			r.Post("/api/admin/reports/{id}/resolve", func(w http.ResponseWriter, r *http.Request) {
				reportID, err := uuid.Parse(chi.URLParam(r, "id"))
				if err != nil {
					httputil.BadRequest(w, "Invalid report ID", err)
					return
				}
				if err := svc.reports.Resolve(r.Context(), reportID, league.ReportResolved); err != nil {
					httputil.ServiceError(w, err)
					return
				}
				httputil.NoContent(w)
			})

			r.Post("/api/admin/reports/{id}/dismiss", func(w http.ResponseWriter, r *http.Request) {
				reportID, err := uuid.Parse(chi.URLParam(r, "id"))
				if err != nil {
					httputil.BadRequest(w, "Invalid report ID", err)
					return
				}
				if err := svc.reports.Resolve(r.Context(), reportID, league.ReportDismissed); err != nil {
					httputil.ServiceError(w, err)
					return
				}
				httputil.NoContent(w)
			})

			r.Post("/api/admin/contests", func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					Name        string    `json:"name"`
					Description string    `json:"description"`
					StartDate   time.Time `json:"start_date"`
					EndDate     time.Time `json:"end_date"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					httputil.BadRequest(w, "Invalid request body", err)
					return
				}
				if body.Name == "" || !body.EndDate.After(body.StartDate) {
					httputil.BadRequest(w, "name and a valid date window are required", nil)
					return
				}
				contest, err := svc.contests.Create(r.Context(), body.Name, body.Description, body.StartDate, body.EndDate)
				if err != nil {
					httputil.ServiceError(w, err)
					return
				}
				httputil.JSON(w, http.StatusCreated, contest)
			})
		})
	})

	return r
}
