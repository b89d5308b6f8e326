package ringba

import (
	"fmt"
	"strings"
)

// AuthError means the login flow exhausted every strategy and timeout.
type AuthError struct {
	Attempted []string
	Err       error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (tried: %s): %v", strings.Join(e.Attempted, ", "), e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NavError means the reporting surface was unreachable or unresponsive.
type NavError struct {
	Err error
}

func (e *NavError) Error() string { return fmt.Sprintf("navigation failed: %v", e.Err) }
func (e *NavError) Unwrap() error { return e.Err }

// ExtractError means no extraction strategy yielded rows.
type ExtractError struct {
	Attempted []string
	Err       error
}

func (e *ExtractError) Error() string {
	msg := "extraction failed"
	if len(e.Attempted) > 0 {
		msg += fmt.Sprintf(" (tried: %s)", strings.Join(e.Attempted, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractError) Unwrap() error { return e.Err }
