package engine

import "errors"

// Validation sentinels. Every action is validated in full before any state
// is touched, so a returned error means the session is exactly as it was.
// Callers match with errors.Is; nothing here is retried internally.
var (
	ErrInvalidTurn         = errors.New("not your turn")
	ErrInvalidPhase        = errors.New("no betting in this phase")
	ErrIllegalCheck        = errors.New("cannot check facing a bet")
	ErrIllegalCall         = errors.New("nothing to call")
	ErrIllegalRaise        = errors.New("raise must exceed the current bet")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadySettled      = errors.New("hand already settled")
	ErrUnknownAction       = errors.New("unknown action kind")
	ErrDeckExhausted       = errors.New("deck exhausted")
)
