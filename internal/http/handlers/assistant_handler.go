// Menu assistant HTTP handler.
//
// Exposes POST /assistant: a stateless question-answering endpoint over the
// café menu knowledge file. This route sits behind the strict chat quota,
// separate from the gameplay quota.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moonbrew/go-rewards-backend/internal/services"
)

// AssistantService defines the menu question-answering operation.
type AssistantService interface {
	// Answer returns the best menu snippet for prompt, or a fallback reply.
	Answer(ctx context.Context, prompt string) (services.AssistantReply, error)
}

// AskRequest is the JSON payload for a menu question.
type AskRequest struct {
	// Prompt is the customer's question about the menu.
	Prompt string `json:"prompt" binding:"required" example:"Do you have oat milk lattes?"`
}

// AskAssistant godoc
// @ID          askAssistant
// @Summary     Ask the menu assistant
// @Description Answers a free-text question from the café menu. Questions the menu cannot answer get a polite fallback, not an error.
// @Tags        Assistant
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.AskRequest  true  "Question"
//
// @Success     200  {object}  services.AssistantReply
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or oversized prompt"
// @Failure     429  {object}  handlers.ErrorResponse  "Chat quota exceeded"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /assistant [post]
func (h *Handlers) AskAssistant(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt required")
		return
	}

	reply, err := h.assistantSvc.Answer(c.Request.Context(), req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt must not be empty")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt too long")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, "could not answer")
		}
		return
	}
	ok(c, http.StatusOK, reply)
}
