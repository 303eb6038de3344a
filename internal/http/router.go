// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, rate limiting, and per-endpoint quotas.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/moonbrew/go-rewards-backend/internal/config"
	"github.com/moonbrew/go-rewards-backend/internal/domain"
	"github.com/moonbrew/go-rewards-backend/internal/http/handlers"
	"github.com/moonbrew/go-rewards-backend/internal/http/middleware"
	"github.com/moonbrew/go-rewards-backend/internal/ratelimit"
	"github.com/moonbrew/go-rewards-backend/internal/repo"
	"github.com/moonbrew/go-rewards-backend/internal/search"
	"github.com/moonbrew/go-rewards-backend/internal/services"
)

// prizeRepoShim adapts the repository free functions to the services.PrizeRepo
// interface expected by the PrizeService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type prizeRepoShim struct{}

// CreatePrizeEntry proxies repo.CreatePrizeEntry.
func (prizeRepoShim) CreatePrizeEntry(ctx context.Context, db *gorm.DB, e *domain.PrizeEntry) error {
	return repo.CreatePrizeEntry(ctx, db, e)
}

// CountPrizes proxies repo.CountPrizes.
func (prizeRepoShim) CountPrizes(ctx context.Context, db *gorm.DB, userID string, activeOnly bool, now time.Time) (int64, error) {
	return repo.CountPrizes(ctx, db, userID, activeOnly, now)
}

// ListPrizesPage proxies repo.ListPrizesPage.
func (prizeRepoShim) ListPrizesPage(ctx context.Context, db *gorm.DB, userID string, activeOnly bool, now time.Time, offset, limit int) ([]domain.PrizeEntry, error) {
	return repo.ListPrizesPage(ctx, db, userID, activeOnly, now, offset, limit)
}

// GetPrize proxies repo.GetPrize.
func (prizeRepoShim) GetPrize(ctx context.Context, db *gorm.DB, id, userID string) (*domain.PrizeEntry, error) {
	return repo.GetPrize(ctx, db, id, userID)
}

// MarkRedeemed proxies repo.MarkRedeemed.
func (prizeRepoShim) MarkRedeemed(ctx context.Context, db *gorm.DB, id, userID string, now time.Time) error {
	return repo.MarkRedeemed(ctx, db, id, userID, now)
}

// PrizesStats proxies repo.PrizesStats.
func (prizeRepoShim) PrizesStats(ctx context.Context, db *gorm.DB, userID string, now time.Time) (repo.PrizeStats, error) {
	return repo.PrizesStats(ctx, db, userID, now)
}

// allowanceRepoShim adapts the allowance repository free functions to the
// services.AllowanceRepo interface.
type allowanceRepoShim struct{}

// GetAllowance proxies repo.GetAllowance.
func (allowanceRepoShim) GetAllowance(ctx context.Context, db *gorm.DB, userID, game string) (*domain.PlayAllowance, error) {
	return repo.GetAllowance(ctx, db, userID, game)
}

// SaveAllowance proxies repo.SaveAllowance.
func (allowanceRepoShim) SaveAllowance(ctx context.Context, db *gorm.DB, a *domain.PlayAllowance) error {
	return repo.SaveAllowance(ctx, db, a)
}

// idemStoreShim adapts the idempotency repository free functions to the
// handlers.IdemStore interface so game handlers can replay stored results.
type idemStoreShim struct{ db *gorm.DB }

// Load proxies repo.GetIdempotency.
func (s idemStoreShim) Load(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
}

// Store proxies repo.CreateIdempotency.
func (s idemStoreShim) Store(ctx context.Context, userID, scope, key, resultID string, status int, result string, ttl time.Duration) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resultID, status, result, ttl)
	return err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency, rate
// limiting and endpoint quotas, CORS and security headers, health and metrics
// endpoints, and then mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before limiters to allow bypass on replay)
//  8. Token-bucket rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
//
// Fixed-window quotas mount per route group, after the global chain: game
// play endpoints share the play quota, the menu assistant gets the strict
// chat quota.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, idx search.Index, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/index
	loc, err := time.LoadLocation(cfg.AllowanceTZ)
	if err != nil {
		loc = time.UTC // validated at config load; belt and suspenders
	}
	allowanceSvc := services.NewAllowanceService(db, allowanceRepoShim{}, loc)
	prizeSvc := services.NewPrizeService(db, prizeRepoShim{})
	minesSvc := services.NewMinesService(prizeSvc, allowanceSvc, nil)
	plinkoSvc := services.NewPlinkoService(prizeSvc, allowanceSvc, nil)
	assistantSvc := services.NewAssistantService(idx, cfg.Threshold)

	h := handlers.New(minesSvc, plinkoSvc, allowanceSvc, prizeSvc, assistantSvc).
		WithIdempotency(idemStoreShim{db: db}, cfg.IdempotencyTTL)

	// Fixed-window quotas, shared limiter, separate policies per group.
	quotas := ratelimit.NewLimiter()
	playQuota := middleware.Quota(quotas, ratelimit.Policy{
		Name:   "play",
		Max:    cfg.PlayQuota.Max,
		Window: cfg.PlayQuota.Window,
	}, middleware.KeyByUserOrIP())
	chatQuota := middleware.Quota(quotas, ratelimit.Policy{
		Name:   "chat",
		Max:    cfg.ChatQuota.Max,
		Window: cfg.ChatQuota.Window,
	}, middleware.KeyByUserOrIP())

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Games
		games := api.Group("/games", playQuota)
		{
			games.POST("/mines/start", h.StartMines)
			games.POST("/mines/reveal", h.RevealTile)
			games.POST("/mines/cashout", h.CashOut)
			games.GET("/mines/session", h.MinesSession)
			games.POST("/plinko/drop", h.DropBall)
			games.GET("/:game/plays", h.RemainingPlays)
		}

		// Prizes
		api.GET("/prizes", h.ListPrizes)
		api.GET("/prizes/summary", h.PrizesSummary)
		api.POST("/prizes/:id/redeem", h.RedeemPrize)

		// Menu assistant
		api.POST("/assistant", chatQuota, h.AskAssistant)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
