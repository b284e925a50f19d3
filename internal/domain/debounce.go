package domain

import "context"

// SubmissionDebouncer suppresses repeated settings submissions by the same
// administrator within a short window. IsDebounced returns true when the
// submission should be dropped. Release ends the window early, for
// submissions that were rejected without side effects.
type SubmissionDebouncer interface {
	IsDebounced(ctx context.Context, username string) (bool, error)
	Release(ctx context.Context, username string) error
}
