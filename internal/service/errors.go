package service

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrWrongPhase       = errors.New("operation not allowed in the current phase")
	ErrTurnInFlight     = errors.New("a turn is already awaiting its result")
	ErrNoActiveSession  = errors.New("no active session")
	// ErrChoiceOutOfRange is a programming error on the caller's side:
	// the submitted index is not one of the current snapshot's choices.
	// It is rejected before anything is dispatched to the backend.
	ErrChoiceOutOfRange = errors.New("choice index is not part of the current turn")
	// ErrSuperseded reports that the session state was reset (logout,
	// back to menu, new game) while the request was in flight; its result
	// was discarded instead of applied.
	ErrSuperseded = errors.New("session state changed while the request was in flight")
)
