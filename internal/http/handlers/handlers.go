package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
	"github.com/moonbrew/go-rewards-backend/internal/http/middleware"
	"github.com/moonbrew/go-rewards-backend/internal/utils"
)

// defaultIdemTTL bounds how long a play result stays replayable.
const defaultIdemTTL = 24 * time.Hour

// IdemStore persists and recalls play results keyed by
// (user, route, Idempotency-Key), so a retried POST is served the original
// outcome instead of rolling a new round.
type IdemStore interface {
	// Load returns the unexpired record for the tuple, or an error on miss.
	Load(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error)
	// Store records the rendered response body of a completed play.
	Store(ctx context.Context, userID, scope, key, resultID string, status int, result string, ttl time.Duration) error
}

// Handlers groups HTTP endpoints for games, prizes, and the menu assistant.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	minesSvc     MinesService
	plinkoSvc    PlinkoService
	allowance    AllowanceReader
	prizeSvc     PrizeService
	assistantSvc AssistantService

	idem    IdemStore
	idemTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(minesSvc MinesService, plinkoSvc PlinkoService, allowance AllowanceReader, prizeSvc PrizeService, assistantSvc AssistantService) *Handlers {
	return &Handlers{
		minesSvc:     minesSvc,
		plinkoSvc:    plinkoSvc,
		allowance:    allowance,
		prizeSvc:     prizeSvc,
		assistantSvc: assistantSvc,
	}
}

// WithIdempotency enables stored-result replays on the game POST endpoints.
// A ttl <= 0 uses the default window. Without a store the endpoints still
// work; retries just roll fresh rounds.
func (h *Handlers) WithIdempotency(store IdemStore, ttl time.Duration) *Handlers {
	if ttl <= 0 {
		ttl = defaultIdemTTL
	}
	h.idem = store
	h.idemTTL = ttl
	return h
}

// replayStored serves the originally rendered body for a request the
// idempotency middleware flagged as a replay. Returns false when no stored
// result can be served, in which case the caller proceeds normally.
func (h *Handlers) replayStored(c *gin.Context, uid string) bool {
	if h.idem == nil || !middleware.IsReplay(c) {
		return false
	}
	key, present := middleware.GetIdempotencyKey(c)
	if !present {
		return false
	}
	rec, err := h.idem.Load(c.Request.Context(), uid, c.FullPath(), key, time.Now().UTC())
	if err != nil || rec == nil || rec.Result == "" {
		return false
	}
	c.Header("Idempotency-Replayed", "true")
	c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.Result))
	return true
}

// storeResult records a completed play's response body under the request's
// idempotency key. Best effort: a failed write only loses retry protection.
func (h *Handlers) storeResult(c *gin.Context, uid, resultID string, status int, payload any) {
	if h.idem == nil || middleware.IsReplay(c) {
		return
	}
	key, present := middleware.GetIdempotencyKey(c)
	if !present {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = h.idem.Store(c.Request.Context(), uid, c.FullPath(), key, resultID, status, string(body), h.idemTTL)
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}
