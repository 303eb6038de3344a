// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., daily_limit_reached, invalid_tile) are reserved
//     for gameplay outcomes that cannot be conveyed by status alone. In particular,
//     a denied play must be distinguishable from a rate-limited request and from a
//     game loss (which is not an error at all): clients show "come back tomorrow"
//     for daily_limit_reached and "slow down" for too_many_requests.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "daily_limit_reached",
//	  "message": "daily play limit reached"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeDailyLimit       = "daily_limit_reached"
	ErrCodeInvalidMines     = "invalid_mines_count"
	ErrCodeInvalidTile      = "invalid_tile"
	ErrCodeSessionOver      = "session_finished"
	ErrCodeNoSession        = "no_active_session"
	ErrCodePrizeRedeemed    = "prize_already_redeemed"
	ErrCodePrizeExpired     = "prize_expired"
	ErrCodeAnswerFailed     = "answer_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
