package background

import "errors"

// ErrOutOfBudget marks a file outside the indexing budget (too large or
// pattern-excluded). Callers skip it silently; it is never surfaced as a
// user-facing failure.
var ErrOutOfBudget = errors.New("file out of indexing budget")
