package repositories

import "errors"

// Sentinel errors returned by repositories. Services translate these into
// domain errors; the conditional-update guards surface invariant races here.
var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned on unique constraint violations
	ErrDuplicate = errors.New("record already exists")

	// ErrLimitReached is returned when a guarded insert loses against the
	// organization member cap
	ErrLimitReached = errors.New("member limit reached")

	// ErrLastOwner is returned when a guarded role update or delete would
	// remove an organization's last owner
	ErrLastOwner = errors.New("organization must retain at least one owner")

	// ErrStaleState is returned when a conditional status transition matched
	// no rows because the row changed concurrently
	ErrStaleState = errors.New("record state changed concurrently")
)
