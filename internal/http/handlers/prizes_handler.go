// Prize HTTP handlers.
//
// This file exposes REST endpoints for the prize wallet:
//   - GET  /prizes              (list, paginated, ETag support)
//   - GET  /prizes/summary      (won / redeemed / active / expired counts)
//   - POST /prizes/{id}/redeem  (one-shot redemption at the counter)
//
// Labels in list responses are localized from the Accept-Language header;
// the stored English label is the fallback.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
	"github.com/moonbrew/go-rewards-backend/internal/prize"
	"github.com/moonbrew/go-rewards-backend/internal/repo"
	"github.com/moonbrew/go-rewards-backend/internal/services"
)

// PrizeService defines prize wallet operations consumed by HTTP handlers.
type PrizeService interface {
	// ListPage returns a page of the user's prize entries and the total count.
	ListPage(ctx context.Context, userID string, activeOnly bool, page, pageSize int) ([]domain.PrizeEntry, int64, error)
	// Redeem marks a prize entry as used, exactly once.
	Redeem(ctx context.Context, userID, prizeID string) (*domain.PrizeEntry, error)
	// Summary returns aggregate prize counts for the user.
	Summary(ctx context.Context, userID string) (repo.PrizeStats, error)
}

//
// DTOs
//

// PrizeView is a prize entry shaped for API responses, with the label
// localized for the requesting client.
type PrizeView struct {
	ID         string     `json:"id"`
	Game       string     `json:"game"`
	PrizeType  string     `json:"prize_type"`
	Label      string     `json:"label"`
	Value      string     `json:"value"`
	Multiplier float64    `json:"multiplier,omitempty"`
	Slot       *int       `json:"slot,omitempty"`
	WonAt      time.Time  `json:"won_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	Active     bool       `json:"active"`
}

// ListPrizesResponse wraps a page of prizes and pagination information.
type ListPrizesResponse struct {
	Prizes     []PrizeView `json:"prizes"`
	Pagination Pagination  `json:"pagination"`
}

func prizeView(e domain.PrizeEntry, acceptLanguage string, now time.Time) PrizeView {
	return PrizeView{
		ID:         e.ID,
		Game:       e.Game,
		PrizeType:  e.PrizeType,
		Label:      prize.LocalizedLabelType(e.PrizeType, e.Label, acceptLanguage),
		Value:      e.Value,
		Multiplier: e.Multiplier,
		Slot:       e.Slot,
		WonAt:      e.WonAt,
		ExpiresAt:  e.ExpiresAt,
		RedeemedAt: e.RedeemedAt,
		Active:     e.Active(now),
	}
}

//
// Handlers
//

// ListPrizes godoc
// @ID          listPrizes
// @Summary     List prizes (paginated)
// @Description Returns a page of the user's won prizes, newest first. Supports weak ETag via If-None-Match and may return 304. Set active=true to hide redeemed and expired entries.
// @Tags        Prizes
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"           example(user123)
// @Param       Accept-Language  header  string  false "Preferred label language"        example(zh)
// @Param       If-None-Match    header  string  false "Return 304 if ETag matches"      example(W/\"abc123\")
// @Param       active           query   bool    false "Only redeemable entries"         default(false)
// @Param       page             query   int     false "Page number"                      minimum(1) default(1)
// @Param       page_size        query   int     false "Items per page"                  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListPrizesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /prizes [get]
func (h *Handlers) ListPrizes(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)
	activeOnly := c.Query("active") == "true"

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.prizeSvc.(*services.PrizeService); ok {
		db = svc.DB
	}
	if db != nil {
		maxTS, err := repo.PrizesMaxUpdatedAt(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"prizes:%s:%t:%d"`, uid, activeOnly, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.prizeSvc.ListPage(ctx, uid, activeOnly, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list prizes")
		return
	}

	lang := c.GetHeader("Accept-Language")
	now := time.Now()
	views := make([]PrizeView, 0, len(items))
	for _, e := range items {
		views = append(views, prizeView(e, lang, now))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListPrizesResponse{
		Prizes: views,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// PrizesSummary godoc
// @ID          prizesSummary
// @Summary     Prize counts
// @Description Returns how many prizes the user has won, redeemed, still holds, and let expire.
// @Tags        Prizes
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object} repo.PrizeStats
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /prizes/summary [get]
func (h *Handlers) PrizesSummary(c *gin.Context) {
	stats, err := h.prizeSvc.Summary(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not summarize prizes")
		return
	}
	ok(c, http.StatusOK, stats)
}

// RedeemPrize godoc
// @ID          redeemPrize
// @Summary     Redeem a prize
// @Description Marks a prize entry as used. Redemption is one-shot: a second attempt returns 409, and an entry past its expiry returns 410.
// @Tags        Prizes
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"     example(user123)
// @Param       Accept-Language  header  string  false "Preferred label language"  example(es)
// @Param       id               path    string  true  "Prize entry ID (UUID)"     format(uuid)
//
// @Success     200  {object} handlers.PrizeView
// @Failure     400  {object} handlers.ErrorResponse "Malformed ID"
// @Failure     404  {object} handlers.ErrorResponse "Prize not found"
// @Failure     409  {object} handlers.ErrorResponse "Already redeemed"
// @Failure     410  {object} handlers.ErrorResponse "Prize expired"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /prizes/{id}/redeem [post]
func (h *Handlers) RedeemPrize(c *gin.Context) {
	prizeID := c.Param("id")
	if _, err := uuid.Parse(prizeID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prize id must be a UUID")
		return
	}

	e, err := h.prizeSvc.Redeem(c.Request.Context(), userID(c), prizeID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPrizeNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "prize not found")
		case errors.Is(err, services.ErrPrizeRedeemed):
			fail(c, http.StatusConflict, ErrCodePrizeRedeemed, "prize already redeemed")
		case errors.Is(err, services.ErrPrizeExpired):
			fail(c, http.StatusGone, ErrCodePrizeExpired, "prize has expired")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not redeem prize")
		}
		return
	}
	ok(c, http.StatusOK, prizeView(*e, c.GetHeader("Accept-Language"), time.Now()))
}
