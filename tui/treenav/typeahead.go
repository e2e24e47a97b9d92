package treenav

import (
	"strings"
	"time"
)

// DefaultTypeaheadTimeout is the idle time after which the accumulated
// query resets.
const DefaultTypeaheadTimeout = 400 * time.Millisecond

// typeahead accumulates printable keystrokes into a prefix query.
type typeahead struct {
	query   string
	timeout time.Duration
	lastKey time.Time
}

func newTypeahead(timeout time.Duration) typeahead {
	if timeout <= 0 {
		timeout = DefaultTypeaheadTimeout
	}
	return typeahead{timeout: timeout}
}

// push appends a rune, resetting the query first if the previous
// keystroke is older than the timeout. Returns the active query.
func (t *typeahead) push(r rune, now time.Time) string {
	if now.Sub(t.lastKey) > t.timeout {
		t.query = ""
	}
	t.lastKey = now
	t.query += strings.ToLower(string(r))
	return t.query
}

// expired reports whether the query should be considered stale.
func (t *typeahead) expired(now time.Time) bool {
	return t.query != "" && now.Sub(t.lastKey) > t.timeout
}

func (t *typeahead) reset() {
	t.query = ""
}

// FindPrefix scans rows cyclically, starting at the row after selected,
// for the first node whose name starts with query (case-insensitive).
// Returns -1 when nothing matches. The scan wraps past the end, so a
// match above the selection is still found; the selected row itself is
// considered last.
func FindPrefix(rows []Row, selected int, query string) int {
	if len(rows) == 0 || query == "" {
		return -1
	}
	q := strings.ToLower(query)
	for offset := 1; offset <= len(rows); offset++ {
		i := (selected + offset) % len(rows)
		if i < 0 {
			i += len(rows)
		}
		if strings.HasPrefix(strings.ToLower(rows[i].Node.Name), q) {
			return i
		}
	}
	return -1
}
