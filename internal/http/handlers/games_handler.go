// Game HTTP handlers.
//
// This file exposes REST endpoints for the reward mini-games:
//   - POST /games/mines/start     (open a board)
//   - POST /games/mines/reveal    (uncover a tile)
//   - POST /games/mines/cashout   (bank the current multiplier)
//   - GET  /games/mines/session   (current board view)
//   - POST /games/plinko/drop     (one ball drop)
//   - GET  /games/{game}/plays    (plays remaining today)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results (including gameplay rejections) into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moonbrew/go-rewards-backend/internal/games"
	"github.com/moonbrew/go-rewards-backend/internal/games/mines"
	"github.com/moonbrew/go-rewards-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// MinesService defines Mines session operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MinesService interface {
	// Start consumes a play and opens a fresh board.
	Start(ctx context.Context, userID string, minesCount int) (*services.MinesSessionState, error)
	// Reveal uncovers a tile on the active board.
	Reveal(ctx context.Context, userID string, tileID int) (*services.MinesSessionState, error)
	// CashOut banks the current multiplier immediately.
	CashOut(ctx context.Context, userID string) (*services.MinesSessionState, error)
	// State returns the current board view without mutating it.
	State(ctx context.Context, userID string) (*services.MinesSessionState, error)
}

// PlinkoService defines Plinko drop operations consumed by HTTP handlers.
type PlinkoService interface {
	// Drop consumes a play and simulates one ball to a landing slot.
	Drop(ctx context.Context, userID string) (*services.PlinkoDropResult, error)
}

// AllowanceReader reports plays remaining without consuming one.
type AllowanceReader interface {
	Remaining(ctx context.Context, userID string, game games.Type) (int, error)
}

//
// DTOs
//

// StartMinesRequest is the JSON payload for opening a Mines board.
type StartMinesRequest struct {
	// MinesCount is how many mines to bury (1–24).
	MinesCount int `json:"mines_count" binding:"required,min=1,max=24" example:"5"`
}

// RevealRequest is the JSON payload for uncovering a tile.
type RevealRequest struct {
	// TileID is the tile to reveal (0–24). Pointer so tile 0 binds.
	TileID *int `json:"tile_id" binding:"required" example:"12"`
}

// PlaysResponse reports the plays remaining today for one game.
type PlaysResponse struct {
	Game           string `json:"game" example:"mines"`
	PlaysRemaining int    `json:"plays_remaining" example:"2"`
}

//
// Handlers
//

// StartMines godoc
// @ID          startMines
// @Summary     Start a Mines board
// @Description Consumes one daily play and opens a fresh 25-tile board with the requested mine count.
// @Tags        Games
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Retry key; the same key replays the original result"
// @Param       body             body    handlers.StartMinesRequest  true  "Board configuration"
//
// @Success     201  {object}  services.MinesSessionState
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid mines count"
// @Failure     403  {object}  handlers.ErrorResponse  "Daily play limit reached"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /games/mines/start [post]
func (h *Handlers) StartMines(c *gin.Context) {
	var req StartMinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	uid := userID(c)
	if h.replayStored(c, uid) {
		return
	}

	st, err := h.minesSvc.Start(c.Request.Context(), uid, req.MinesCount)
	if err != nil {
		failGame(c, err)
		return
	}
	h.storeResult(c, uid, st.PrizeEntryID, http.StatusCreated, st)
	ok(c, http.StatusCreated, st)
}

// RevealTile godoc
// @ID          revealTile
// @Summary     Reveal a tile
// @Description Uncovers one hidden tile on the caller's active board. A mine ends the board (no prize); clearing the last safe tile wins at the maximal multiplier.
// @Tags        Games
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Retry key; the same key replays the original result"
// @Param       body             body    handlers.RevealRequest  true  "Tile to reveal"
//
// @Success     200  {object}  services.MinesSessionState
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid or already revealed tile"
// @Failure     404  {object}  handlers.ErrorResponse  "No active session"
// @Failure     409  {object}  handlers.ErrorResponse  "Session already finished"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /games/mines/reveal [post]
func (h *Handlers) RevealTile(c *gin.Context) {
	var req RevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	uid := userID(c)
	if h.replayStored(c, uid) {
		return
	}

	st, err := h.minesSvc.Reveal(c.Request.Context(), uid, *req.TileID)
	if err != nil {
		failGame(c, err)
		return
	}
	h.storeResult(c, uid, st.PrizeEntryID, http.StatusOK, st)
	ok(c, http.StatusOK, st)
}

// CashOut godoc
// @ID          cashOut
// @Summary     Cash out the active board
// @Description Ends the caller's board immediately at the current multiplier and finalizes the prize.
// @Tags        Games
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Retry key; the same key replays the original result"
//
// @Success     200  {object}  services.MinesSessionState
// @Failure     404  {object}  handlers.ErrorResponse  "No active session"
// @Failure     409  {object}  handlers.ErrorResponse  "Session already finished"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /games/mines/cashout [post]
func (h *Handlers) CashOut(c *gin.Context) {
	uid := userID(c)
	if h.replayStored(c, uid) {
		return
	}

	st, err := h.minesSvc.CashOut(c.Request.Context(), uid)
	if err != nil {
		failGame(c, err)
		return
	}
	h.storeResult(c, uid, st.PrizeEntryID, http.StatusOK, st)
	ok(c, http.StatusOK, st)
}

// MinesSession godoc
// @ID          minesSession
// @Summary     Current Mines session
// @Description Returns the caller's board view. Mine positions stay masked until the board is terminal.
// @Tags        Games
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  services.MinesSessionState
// @Failure     404  {object}  handlers.ErrorResponse  "No active session"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /games/mines/session [get]
func (h *Handlers) MinesSession(c *gin.Context) {
	st, err := h.minesSvc.State(c.Request.Context(), userID(c))
	if err != nil {
		failGame(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// DropBall godoc
// @ID          dropBall
// @Summary     Drop a Plinko ball
// @Description Consumes one daily play and simulates a single ball to a landing slot. Center slots award nothing; that is a normal outcome, not an error.
// @Tags        Games
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Retry key; the same key replays the original result"
//
// @Success     200  {object}  services.PlinkoDropResult
// @Failure     403  {object}  handlers.ErrorResponse  "Daily play limit reached"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /games/plinko/drop [post]
func (h *Handlers) DropBall(c *gin.Context) {
	uid := userID(c)
	if h.replayStored(c, uid) {
		return
	}

	res, err := h.plinkoSvc.Drop(c.Request.Context(), uid)
	if err != nil {
		failGame(c, err)
		return
	}
	h.storeResult(c, uid, res.PrizeEntryID, http.StatusOK, res)
	ok(c, http.StatusOK, res)
}

// RemainingPlays godoc
// @ID          remainingPlays
// @Summary     Plays remaining today
// @Description Reports how many plays the caller has left today for the given game, without consuming one.
// @Tags        Games
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       game       path    string  true  "Game name"              Enums(mines, plinko)
//
// @Success     200  {object}  handlers.PlaysResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown game"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /games/{game}/plays [get]
func (h *Handlers) RemainingPlays(c *gin.Context) {
	game, valid := games.Parse(c.Param("game"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown game")
		return
	}

	n, err := h.allowance.Remaining(c.Request.Context(), userID(c), game)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not read allowance")
		return
	}
	ok(c, http.StatusOK, PlaysResponse{Game: game.String(), PlaysRemaining: n})
}

// failGame translates service and board errors into the error envelope.
// A daily-limit denial is deliberately a different code (and status) from
// a rate-limit rejection so clients can message them differently.
func failGame(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAllowanceExhausted):
		fail(c, http.StatusForbidden, ErrCodeDailyLimit, "daily play limit reached")
	case errors.Is(err, services.ErrNoSession):
		fail(c, http.StatusNotFound, ErrCodeNoSession, "no active game session")
	case errors.Is(err, services.ErrSessionOver):
		fail(c, http.StatusConflict, ErrCodeSessionOver, "game session already finished")
	case errors.Is(err, mines.ErrMinesCount):
		fail(c, http.StatusBadRequest, ErrCodeInvalidMines, err.Error())
	case errors.Is(err, mines.ErrNotPlaying):
		fail(c, http.StatusConflict, ErrCodeSessionOver, "board is not in play")
	case errors.Is(err, mines.ErrNoSuchTile), errors.Is(err, mines.ErrTileRevealed):
		fail(c, http.StatusBadRequest, ErrCodeInvalidTile, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "unexpected error")
	}
}
