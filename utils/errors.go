package utils

import "errors"

// Sentinel errors surfaced by the ledger, redemption, and linking core.
// Handlers map these to HTTP statuses; nothing inside the core swallows them.
var (
	// ErrProfileNotFound: no profile exists for the given device identifier.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInsufficientBalance: redemption cost exceeds the current balance.
	ErrInsufficientBalance = errors.New("not enough points")
	// ErrStorageConflict: concurrent-write contention; the whole operation is
	// safe to retry from the caller.
	ErrStorageConflict = errors.New("storage conflict, retry")
	// ErrAlreadyClaimed: the daily check-in was already claimed today.
	ErrAlreadyClaimed = errors.New("already claimed today")
)
