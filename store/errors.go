package store

import "errors"

// Sentinel errors for the store package.
var (
	// ErrNotFound is returned when an entry cannot be found for the calling
	// owner. Covers both "does not exist" and "owned by someone else".
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidID is returned when an invalid ID is provided.
	ErrInvalidID = errors.New("store: invalid id")

	// ErrNotConnected is returned when operations are attempted before Connect().
	ErrNotConnected = errors.New("store: not connected")

	// ErrAlreadyConnected is returned when Connect() is called twice.
	ErrAlreadyConnected = errors.New("store: already connected")

	// ErrEmptyBatch is returned when CreateEntries is called with no data.
	ErrEmptyBatch = errors.New("store: empty batch")

	// ErrFilterInvalid is returned when a filter is invalid.
	ErrFilterInvalid = errors.New("store: invalid filter")

	// ErrTransactionFailed is returned when a database transaction fails.
	// The atomic operation could not complete and no changes were made.
	ErrTransactionFailed = errors.New("store: transaction failed")
)

// Error checking helpers.

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}
