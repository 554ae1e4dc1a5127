package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tg-channel-catalog/internal/adapters/repo"
	"tg-channel-catalog/internal/adapters/tgmeta"
	"tg-channel-catalog/internal/auth"
	"tg-channel-catalog/internal/domain"
	"tg-channel-catalog/internal/infra/cache"
	"tg-channel-catalog/internal/infra/config"
	"tg-channel-catalog/internal/infra/db"
	httpinfra "tg-channel-catalog/internal/infra/http"
	applog "tg-channel-catalog/internal/infra/log"
	"tg-channel-catalog/internal/infra/metrics"
	"tg-channel-catalog/internal/infra/queue"
	"tg-channel-catalog/internal/usecase/catalog"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, "api")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.Token, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось создать бота")
	}

	roles := domain.NewRoleDirectory(cfg.Roles.SuperAdmins, cfg.Roles.Moderators, cfg.Roles.Editors)
	verifier := auth.NewWidgetVerifier(cfg.Telegram.Token, cfg.Auth.MaxAge, roles)
	sessions := auth.NewRedisSessions(redisClient, cfg.Auth.SessionTTL)

	var events domain.ModerationQueue
	if cfg.Queues.RabbitURL != "" {
		events, err = queue.NewRabbitModerationQueue(cfg.Queues.RabbitURL, cfg.Queues.RabbitMgmtURL, cfg.Queues.Moderation)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: не удалось создать очередь RabbitMQ")
		}
	} else {
		events = queue.NewRedisModerationQueue(redisClient, cfg.Queues.Moderation)
	}

	repoAdapter := repo.NewPostgres(pool)
	metaCache := cache.NewMemory(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	provider := tgmeta.NewProvider(botAPI, logger.With().Str("component", "tgmeta").Logger())
	service := catalog.NewService(repoAdapter, repoAdapter, repoAdapter, metaCache, provider, events,
		logger.With().Str("component", "catalog").Logger())

	server := httpinfra.NewServer(logger)
	r := server.Router
	r.Use(httpinfra.SessionMiddleware(sessions))

	r.Get("/auth/telegram/callback", httpinfra.LoginCallbackHandler(verifier, sessions, cfg.Auth.SessionTTL, cfg.Auth.LoginURL))
	r.Post("/auth/logout", httpinfra.LogoutHandler(sessions))

	r.Get("/api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		httpinfra.WriteJSON(w, httpinfra.IdentityFrom(r.Context()))
	})

	r.Get("/api/v1/catalog", func(w http.ResponseWriter, r *http.Request) {
		filter := domain.ListingFilter{
			Category: r.URL.Query().Get("category"),
			Search:   r.URL.Query().Get("q"),
		}
		if raw := r.URL.Query().Get("verified"); raw != "" {
			verified, err := strconv.ParseBool(raw)
			if err != nil {
				httpinfra.WriteError(w, http.StatusBadRequest, err)
				return
			}
			filter.Verified = &verified
		}
		limit := cfg.Listing.PageSize
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 || parsed > 100 {
				httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректный limit"))
				return
			}
			limit = parsed
		}
		listing, err := service.BuildListing(r.Context(), filter, r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		httpinfra.WriteJSON(w, listingResponse(listing))
	})

	r.Group(func(protected chi.Router) {
		protected.Use(httpinfra.RequireUser)

		protected.Post("/api/v1/channels", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var req submitRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpinfra.WriteError(w, http.StatusBadRequest, err)
				return
			}
			created, err := service.Submit(r.Context(), catalog.SubmitInput{
				Handle:      req.Handle,
				Category:    req.Category,
				Description: req.Description,
			}, httpinfra.IdentityFrom(r.Context()))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusCreated)
			httpinfra.WriteJSON(w, submissionResponse(created))
		})

		protected.Get("/api/v1/bookmarks", func(w http.ResponseWriter, r *http.Request) {
			bookmarks, err := service.ListBookmarks(r.Context(), httpinfra.IdentityFrom(r.Context()))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]map[string]any, 0, len(bookmarks))
			for _, b := range bookmarks {
				resp = append(resp, map[string]any{
					"added_at": b.AddedAt,
					"channel":  submissionResponse(b.Channel),
				})
			}
			httpinfra.WriteJSON(w, resp)
		})

		protected.Post("/api/v1/bookmarks/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := pathID(r)
			if err != nil {
				httpinfra.WriteError(w, http.StatusBadRequest, err)
				return
			}
			if err := service.Bookmark(r.Context(), httpinfra.IdentityFrom(r.Context()), id); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		protected.Delete("/api/v1/bookmarks/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := pathID(r)
			if err != nil {
				httpinfra.WriteError(w, http.StatusBadRequest, err)
				return
			}
			if err := service.Unbookmark(r.Context(), httpinfra.IdentityFrom(r.Context()), id); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Group(func(moderation chi.Router) {
		moderation.Use(httpinfra.RequireModerator)

		moderation.Get("/api/v1/moderation/board", func(w http.ResponseWriter, r *http.Request) {
			groups, err := service.Board(r.Context(), httpinfra.IdentityFrom(r.Context()))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			httpinfra.WriteJSON(w, map[string]any{
				"pending":  submissionsResponse(groups.Pending),
				"approved": submissionsResponse(groups.Approved),
				"rejected": submissionsResponse(groups.Rejected),
			})
		})

		moderation.Post("/api/v1/moderation/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
			id, err := pathID(r)
			if err != nil {
				httpinfra.WriteError(w, http.StatusBadRequest, err)
				return
			}
			action := domain.ModerationAction(chi.URLParam(r, "action"))
			updated, err := service.Moderate(r.Context(), action, id, httpinfra.IdentityFrom(r.Context()))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			httpinfra.WriteJSON(w, submissionResponse(updated))
		})

		moderation.Delete("/api/v1/channels/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := pathID(r)
			if err != nil {
				httpinfra.WriteError(w, http.StatusBadRequest, err)
				return
			}
			if err := service.Remove(r.Context(), id, httpinfra.IdentityFrom(r.Context())); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		moderation.Put("/api/v1/promo/{slot}", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var content domain.PromotionalContent
			if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
				httpinfra.WriteError(w, http.StatusBadRequest, err)
				return
			}
			content.Slot = domain.PromoSlot(chi.URLParam(r, "slot"))
			if err := service.SetPromo(r.Context(), content, httpinfra.IdentityFrom(r.Context())); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":"+strconv.Itoa(cfg.MetricsPort))
	go func() {
		if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !httpinfra.IsServerClosed(err) {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

type submitRequest struct {
	Handle      string `json:"handle"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func submissionResponse(s domain.ChannelSubmission) map[string]any {
	return map[string]any{
		"id":           s.ID,
		"handle":       s.Handle,
		"title":        s.Title,
		"category":     s.Category,
		"description":  s.Description,
		"avatar_url":   s.AvatarURL,
		"members":      s.Members,
		"status":       s.Status,
		"featured":     s.Featured,
		"verified":     s.Verified,
		"submitted_at": s.SubmittedAt,
		"updated_at":   s.UpdatedAt,
	}
}

func submissionsResponse(items []domain.ChannelSubmission) []map[string]any {
	resp := make([]map[string]any, 0, len(items))
	for _, s := range items {
		resp = append(resp, submissionResponse(s))
	}
	return resp
}

func listingResponse(l catalog.Listing) map[string]any {
	return map[string]any{
		"items":       submissionsResponse(l.Page.Items),
		"next_cursor": l.Page.NextCursor,
		"has_more":    l.Page.HasMore,
		"featured":    submissionsResponse(l.Featured),
		"promo": map[string]any{
			"primary":   l.PromoPrimary,
			"secondary": l.PromoSecondary,
		},
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpinfra.WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrForbidden):
		httpinfra.WriteError(w, http.StatusForbidden, err)
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrHandleTaken):
		httpinfra.WriteError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrChannelNotFound), errors.Is(err, domain.ErrProviderLookup):
		httpinfra.WriteError(w, http.StatusUnprocessableEntity, err)
	default:
		httpinfra.WriteError(w, http.StatusInternalServerError, err)
	}
}
