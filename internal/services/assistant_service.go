// Package services – AssistantService
//
// This file implements the café menu assistant: a stateless Q&A surface
// over the Markdown menu/knowledge file, answered through the search
// index with a confidence threshold. No conversation state is kept;
// each prompt is answered on its own, so the transport gates this
// endpoint with the strictest quota policy.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moonbrew/go-rewards-backend/internal/search"
)

// fallbackReply is returned when nothing in the menu file matches the
// prompt confidently enough.
const fallbackReply = "I can’t answer that from the café menu."

// AssistantReply is the outcome of one answered prompt. Score carries
// the retrieval confidence of the best snippet, nil on fallback.
type AssistantReply struct {
	Answer string   `json:"answer"`
	Score  *float64 `json:"score,omitempty"`
}

// AssistantService answers menu questions from an immutable index.
// It is safe for concurrent use: the index is read-only and the service
// keeps no per-request state.
type AssistantService struct {
	// Index is the paragraph index over the menu file.
	Index search.Index
	// Threshold is the minimum retrieval score for a confident answer.
	Threshold float64
	// MaxPromptRunes caps accepted prompt length.
	MaxPromptRunes int
}

// NewAssistantService constructs an AssistantService with a sane prompt cap.
func NewAssistantService(idx search.Index, threshold float64) *AssistantService {
	return &AssistantService{
		Index:          idx,
		Threshold:      threshold,
		MaxPromptRunes: 2000,
	}
}

// Answer validates the prompt and retrieves the best-matching menu
// snippet. Below-threshold matches return the fallback reply with a nil
// score; that is a normal outcome, not an error.
func (s *AssistantService) Answer(ctx context.Context, prompt string) (AssistantReply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return AssistantReply{}, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return AssistantReply{}, ErrTooLong
	}

	tr := otel.Tracer("services/AssistantService")
	_, span := tr.Start(ctx, "answer",
		trace.WithAttributes(attribute.String("query", prompt)),
	)
	defer span.End()

	if s.Index == nil {
		return AssistantReply{Answer: fallbackReply}, nil
	}

	results := s.Index.TopK(prompt, 3)
	if len(results) == 0 {
		return AssistantReply{Answer: fallbackReply}, nil
	}

	thr := s.Threshold
	if thr <= 0 {
		thr = 0.20
	}
	top := results[0]
	if top.Score < thr {
		return AssistantReply{Answer: fallbackReply}, nil
	}

	score := top.Score
	return AssistantReply{Answer: top.Snippet, Score: &score}, nil
}
