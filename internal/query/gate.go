package query

import (
	"fmt"
	"strings"

	"github.com/clinreg/registry-mcp/internal/registry"
)

// UnsafeQueryError rejects a statement before it reaches the database.
type UnsafeQueryError struct {
	Reason string
}

func (e *UnsafeQueryError) Error() string {
	return "unsafe query rejected: " + e.Reason
}

// Enforce is the safety gate. It admits only statements whose leading keyword
// is SELECT or WITH, clamps the requested row limit into [1, MaxLimit]
// (falling back to the tool default when the caller supplied none), and
// appends a single trailing LIMIT clause. Pure; no I/O.
//
// The keyword check is a syntactic prefix test only: it cannot detect a WITH
// clause wrapping a mutating common-table-expression on engines that permit
// one. Known limitation, accepted rather than hidden behind a partial parser.
//
// Caller-supplied SQL that already carries its own LIMIT receives a second
// trailing LIMIT. Known sharp edge; callers must omit LIMIT and use the
// limit argument instead.
func Enforce(stmt string, requested, fallback int) (string, int, error) {
	trimmed := strings.TrimSpace(stmt)
	if trimmed == "" {
		return "", 0, &UnsafeQueryError{Reason: "empty statement"}
	}
	if strings.Contains(trimmed, ";") {
		return "", 0, &UnsafeQueryError{Reason: "multiple statements are not allowed"}
	}

	keyword := strings.ToLower(firstToken(trimmed))
	if keyword != "select" && keyword != "with" {
		return "", 0, &UnsafeQueryError{Reason: fmt.Sprintf("only SELECT statements are allowed, got %q", keyword)}
	}

	limit := clampLimit(requested, fallback)
	return fmt.Sprintf("%s LIMIT %d", trimmed, limit), limit, nil
}

// clampLimit yields max(1, min(requested, MaxLimit)); a zero request means
// the caller supplied no limit and takes the tool default instead.
func clampLimit(requested, fallback int) int {
	n := requested
	if n == 0 {
		n = fallback
	}
	if n < 1 {
		return 1
	}
	if n > registry.MaxLimit {
		return registry.MaxLimit
	}
	return n
}

func firstToken(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' {
			return s[:i]
		}
	}
	return s
}
