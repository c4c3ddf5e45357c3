package decision

import (
	"fmt"
	"strings"
)

// ConflictError is a fatal configuration conflict for one lane/plex: either
// mutually exclusive split flags are set together, or a split flag does not
// match the reference species. It aborts the whole generation pass.
type ConflictError struct {
	Entity string
	Flags  []string
	Reason string
}

func (e *ConflictError) Error() string {
	if len(e.Flags) > 0 {
		return fmt.Sprintf("decision conflict for %s: %s (flags: %s)",
			e.Entity, e.Reason, strings.Join(e.Flags, ", "))
	}
	return fmt.Sprintf("decision conflict for %s: %s", e.Entity, e.Reason)
}
