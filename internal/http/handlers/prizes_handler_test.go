package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
	"github.com/moonbrew/go-rewards-backend/internal/repo"
	"github.com/moonbrew/go-rewards-backend/internal/services"
)

// ---------- flexible prize service stub ----------

type stubPrizeSvc struct {
	listPage func(context.Context, string, bool, int, int) ([]domain.PrizeEntry, int64, error)
	redeem   func(context.Context, string, string) (*domain.PrizeEntry, error)
	summary  func(context.Context, string) (repo.PrizeStats, error)
}

func (s stubPrizeSvc) ListPage(ctx context.Context, u string, a bool, p, ps int) ([]domain.PrizeEntry, int64, error) {
	if s.listPage != nil {
		return s.listPage(ctx, u, a, p, ps)
	}
	return nil, 0, nil
}

func (s stubPrizeSvc) Redeem(ctx context.Context, u, id string) (*domain.PrizeEntry, error) {
	if s.redeem != nil {
		return s.redeem(ctx, u, id)
	}
	return &domain.PrizeEntry{ID: id, UserID: u}, nil
}

func (s stubPrizeSvc) Summary(ctx context.Context, u string) (repo.PrizeStats, error) {
	if s.summary != nil {
		return s.summary(ctx, u)
	}
	return repo.PrizeStats{}, nil
}

func prizeRouter(svc PrizeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(stubMinesSvc{}, stubPlinkoSvc{}, stubAllowanceReader{}, svc, stubAssistantSvc{})
	r := gin.New()
	r.GET("/prizes", h.ListPrizes)
	r.GET("/prizes/summary", h.PrizesSummary)
	r.POST("/prizes/:id/redeem", h.RedeemPrize)
	return r
}

// ---------- test DB + repo shim (like router.go wires the real thing) ----------

func newPrizeDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:prize_handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.PrizeEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type testPrizeRepo struct{}

func (testPrizeRepo) CreatePrizeEntry(ctx context.Context, db *gorm.DB, e *domain.PrizeEntry) error {
	return repo.CreatePrizeEntry(ctx, db, e)
}

func (testPrizeRepo) CountPrizes(ctx context.Context, db *gorm.DB, userID string, activeOnly bool, now time.Time) (int64, error) {
	return repo.CountPrizes(ctx, db, userID, activeOnly, now)
}

func (testPrizeRepo) ListPrizesPage(ctx context.Context, db *gorm.DB, userID string, activeOnly bool, now time.Time, offset, limit int) ([]domain.PrizeEntry, error) {
	return repo.ListPrizesPage(ctx, db, userID, activeOnly, now, offset, limit)
}

func (testPrizeRepo) GetPrize(ctx context.Context, db *gorm.DB, id, userID string) (*domain.PrizeEntry, error) {
	return repo.GetPrize(ctx, db, id, userID)
}

func (testPrizeRepo) MarkRedeemed(ctx context.Context, db *gorm.DB, id, userID string, now time.Time) error {
	return repo.MarkRedeemed(ctx, db, id, userID, now)
}

func (testPrizeRepo) PrizesStats(ctx context.Context, db *gorm.DB, userID string, now time.Time) (repo.PrizeStats, error) {
	return repo.PrizesStats(ctx, db, userID, now)
}

func seedWalletEntry(t *testing.T, db *gorm.DB, id, userID string, wonAt time.Time) {
	t.Helper()
	e := domain.PrizeEntry{
		ID: id, UserID: userID, Game: "mines",
		PrizeID: "discount_20", PrizeType: "discount_20", Label: "20% Off", Value: "20%",
		WonAt: wonAt, ExpiresAt: wonAt.Add(30 * 24 * time.Hour),
	}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

// ---------- ListPrizes ----------

func TestListPrizes_StubbedPageAndLocalization(t *testing.T) {
	now := time.Now().UTC()
	entries := []domain.PrizeEntry{{
		ID: "p1", UserID: "u1", Game: "mines",
		PrizeID: "discount_20", PrizeType: "discount_20", Label: "20% Off", Value: "20%",
		WonAt: now.Add(-time.Hour), ExpiresAt: now.Add(29 * 24 * time.Hour),
	}}
	svc := stubPrizeSvc{listPage: func(_ context.Context, u string, active bool, p, ps int) ([]domain.PrizeEntry, int64, error) {
		if u != "u1" || active || p != 1 || ps != 20 {
			t.Fatalf("list args u=%q active=%v p=%d ps=%d", u, active, p, ps)
		}
		return entries, 45, nil
	}}
	r := prizeRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/prizes", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d body=%s", w.Code, w.Body.String())
	}

	var out ListPrizesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.Prizes) != 1 || out.Prizes[0].Label != "8折优惠" {
		t.Fatalf("localized page: %+v", out.Prizes)
	}
	if !out.Prizes[0].Active {
		t.Fatalf("entry should be active: %+v", out.Prizes[0])
	}
	if out.Pagination.Total != 45 || out.Pagination.TotalPages != 3 || !out.Pagination.HasNext {
		t.Fatalf("pagination: %+v", out.Pagination)
	}
}

func TestListPrizes_ActiveQueryForwarded(t *testing.T) {
	var gotActive bool
	svc := stubPrizeSvc{listPage: func(_ context.Context, _ string, active bool, _, _ int) ([]domain.PrizeEntry, int64, error) {
		gotActive = active
		return nil, 0, nil
	}}
	r := prizeRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/prizes?active=true", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !gotActive {
		t.Fatalf("active filter not forwarded: %d %v", w.Code, gotActive)
	}
}

func TestListPrizes_ServiceError(t *testing.T) {
	svc := stubPrizeSvc{listPage: func(context.Context, string, bool, int, int) ([]domain.PrizeEntry, int64, error) {
		return nil, 0, errors.New("db down")
	}}
	r := prizeRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/prizes", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("list error -> %d", w.Code)
	}
}

func TestListPrizes_ETag_304(t *testing.T) {
	db := newPrizeDB(t)
	svc := services.NewPrizeService(db, testPrizeRepo{})
	seedWalletEntry(t, db, "p1", "u1", time.Now().UTC().Add(-time.Hour))
	r := prizeRouter(svc)

	// First request returns the ETag.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/prizes", nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first list -> %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	// Same If-None-Match -> 304 with empty body.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/prizes", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional list -> %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("304 must not carry a body: %s", w.Body.String())
	}

	// A new win changes the ledger; the old tag stops matching.
	seedWalletEntry(t, db, "p2", "u1", time.Now().UTC())
	db.Model(&domain.PrizeEntry{}).Where("id = ?", "p2").
		Update("updated_at", time.Now().UTC().Add(2*time.Second))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/prizes", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("stale tag should refetch, got %d", w.Code)
	}
}

// ---------- PrizesSummary ----------

func TestPrizesSummary_SuccessAndError(t *testing.T) {
	svc := stubPrizeSvc{summary: func(_ context.Context, u string) (repo.PrizeStats, error) {
		if u != "u1" {
			t.Fatalf("summary user = %q", u)
		}
		return repo.PrizeStats{TotalWon: 4, Redeemed: 1, Active: 2, Expired: 1}, nil
	}}
	r := prizeRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/prizes/summary", nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("summary -> %d", w.Code)
	}
	var st repo.PrizeStats
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if st.TotalWon != 4 || st.Active != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	failing := stubPrizeSvc{summary: func(context.Context, string) (repo.PrizeStats, error) {
		return repo.PrizeStats{}, errors.New("db down")
	}}
	r = prizeRouter(failing)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/prizes/summary", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("summary error -> %d", w.Code)
	}
}

// ---------- RedeemPrize ----------

func TestRedeemPrize_MalformedID(t *testing.T) {
	called := false
	svc := stubPrizeSvc{redeem: func(context.Context, string, string) (*domain.PrizeEntry, error) {
		called = true
		return nil, nil
	}}
	r := prizeRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/prizes/not-a-uuid/redeem", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed id -> %d", w.Code)
	}
	if called {
		t.Fatalf("service reached with malformed id")
	}
}

func TestRedeemPrize_SuccessLocalizesLabel(t *testing.T) {
	id := uuid.NewString()
	now := time.Now().UTC()
	svc := stubPrizeSvc{redeem: func(_ context.Context, u, pid string) (*domain.PrizeEntry, error) {
		if u != "u1" || pid != id {
			t.Fatalf("redeem args u=%q id=%q", u, pid)
		}
		return &domain.PrizeEntry{
			ID: pid, UserID: u, Game: "plinko",
			PrizeID: "free_drink", PrizeType: "free_drink", Label: "Free Drink", Value: "free",
			WonAt: now.Add(-time.Hour), ExpiresAt: now.Add(29 * 24 * time.Hour), RedeemedAt: &now,
		}, nil
	}}
	r := prizeRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/prizes/"+id+"/redeem", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("Accept-Language", "es")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("redeem -> %d body=%s", w.Code, w.Body.String())
	}
	var out PrizeView
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Label != "Bebida Gratis" {
		t.Fatalf("localized label = %q", out.Label)
	}
	if out.RedeemedAt == nil || out.Active {
		t.Fatalf("redeemed view: %+v", out)
	}
}

func TestRedeemPrize_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrPrizeNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrPrizeRedeemed, http.StatusConflict, ErrCodePrizeRedeemed},
		{services.ErrPrizeExpired, http.StatusGone, ErrCodePrizeExpired},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	id := uuid.NewString()
	for _, tc := range cases {
		svc := stubPrizeSvc{redeem: func(context.Context, string, string) (*domain.PrizeEntry, error) {
			return nil, tc.err
		}}
		r := prizeRouter(svc)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/prizes/"+id+"/redeem", nil))
		if w.Code != tc.status || errCode(t, w) != tc.code {
			t.Fatalf("%v -> %d %s, want %d %s", tc.err, w.Code, errCode(t, w), tc.status, tc.code)
		}
	}
}
