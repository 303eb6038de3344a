// Package services defines the business logic for the reward games,
// the daily play allowance, and the prize ledger. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer. None of them is a fault:
// a rejected reveal or an exhausted allowance is an ordinary,
// caller-visible outcome (losing a game is not even an error).
package services

import "errors"

// Gameplay errors.
var (
	// ErrAllowanceExhausted is returned when the user has no plays left
	// today. It is a normal negative result, distinct from a game loss,
	// so callers can message "come back tomorrow" rather than
	// "better luck next time".
	ErrAllowanceExhausted = errors.New("daily play limit reached")

	// ErrNoSession is returned when an action targets a game session
	// that does not exist for the user.
	ErrNoSession = errors.New("no active game session")

	// ErrSessionOver is returned when an action targets a session that
	// has already reached a terminal state.
	ErrSessionOver = errors.New("game session already finished")
)

// Prize ledger errors.
var (
	// ErrPrizeNotFound indicates the requested prize entry does not
	// exist or is not owned by the current user.
	ErrPrizeNotFound = errors.New("prize not found")

	// ErrPrizeRedeemed is returned when redeeming a prize that has
	// already been redeemed; redeemed_at is immutable once set.
	ErrPrizeRedeemed = errors.New("prize already redeemed")

	// ErrPrizeExpired is returned when redeeming a prize past its
	// 30-day expiry.
	ErrPrizeExpired = errors.New("prize expired")
)

// Assistant errors.
var (
	// ErrEmptyPrompt is returned when an assistant request contains an
	// empty prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when an assistant prompt exceeds the
	// maximum configured length limit.
	ErrTooLong = errors.New("prompt too long")
)
