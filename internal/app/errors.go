package app

import (
	"errors"
	"fmt"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrTurnNotSaved         = errors.New("answer generated but turn not saved")
)

// TurnNotSavedError reports a persistence failure that happened after the
// answer was already generated. The generated turn rides along so the
// caller can decide what to surface; nothing is retried automatically since
// the generation call has token-cost side effects.
type TurnNotSavedError struct {
	Result *TurnResult
	Cause  error
}

func (e *TurnNotSavedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTurnNotSaved, e.Cause)
}

func (e *TurnNotSavedError) Unwrap() error { return ErrTurnNotSaved }
