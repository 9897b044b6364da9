package ai

import "fmt"

// CallError wraps a provider failure together with the session it belongs to.
type CallError struct {
	SessionID string
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("model call failed for session %s: %v", e.SessionID, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
