// Package workflow contains the pure state-machine rules of the portal.
// Guards evaluate preconditions without side effects; services call them
// before touching storage.
package workflow

import (
	"fmt"

	"iris/internal/apperr"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to a precondition error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return apperr.Precondition(r.Reason)
}

func allow() GuardResult {
	return GuardResult{Allowed: true}
}

func deny(format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}
