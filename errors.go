package webmail

import (
	"errors"
	"fmt"

	"github.com/rbaliyan/webmail/identity"
	"github.com/rbaliyan/webmail/store"
)

// Sentinel errors for the webmail package.
// Use errors.Is() to check for these errors.
//
// These errors wrap corresponding store- and identity-level errors where
// applicable, so errors.Is(err, webmail.ErrNotFound) will match both
// webmail-level and store-level "not found" errors.
var (
	// ErrNotFound is returned when an entry cannot be found for the calling
	// owner. An entry owned by someone else reports the same error, so the
	// caller cannot probe for existence. Wraps store.ErrNotFound.
	ErrNotFound = fmt.Errorf("webmail: %w", store.ErrNotFound)

	// ErrNoRecipients is returned when a compose request names no recipients
	// after splitting and trimming.
	ErrNoRecipients = errors.New("webmail: at least one recipient required")

	// ErrUnknownRecipient is returned when a recipient token does not resolve
	// to a registered user. Use IsUnknownRecipient to recover the token.
	ErrUnknownRecipient = errors.New("webmail: unknown recipient")

	// ErrSubjectTooLong is returned when a subject exceeds the configured
	// maximum length.
	ErrSubjectTooLong = errors.New("webmail: subject too long")

	// ErrBodyTooLarge is returned when a body exceeds the configured
	// maximum size.
	ErrBodyTooLarge = errors.New("webmail: body too large")

	// ErrTooManyRecipients is returned when a compose request names more
	// distinct recipients than the configured maximum.
	ErrTooManyRecipients = errors.New("webmail: too many recipients")

	// ErrInvalidMailbox is returned for mailbox names other than
	// inbox, sent, and archive.
	ErrInvalidMailbox = errors.New("webmail: invalid mailbox")

	// ErrSenderProtected is returned when deleting a user who is the sender
	// of record of an existing entry.
	ErrSenderProtected = errors.New("webmail: user is sender of existing messages")

	// ErrDuplicateEmail is returned when registering an already-taken email.
	// Wraps identity.ErrDuplicateEmail for consistent error checking.
	ErrDuplicateEmail = fmt.Errorf("webmail: %w", identity.ErrDuplicateEmail)

	// ErrWeakPassword is returned for passwords below the minimum length.
	// Wraps identity.ErrWeakPassword for consistent error checking.
	ErrWeakPassword = fmt.Errorf("webmail: %w", identity.ErrWeakPassword)

	// ErrMissingField is returned when registration input is incomplete.
	// Wraps identity.ErrMissingField for consistent error checking.
	ErrMissingField = fmt.Errorf("webmail: %w", identity.ErrMissingField)

	// ErrInvalidCredentials is returned on authentication failure.
	// Wraps identity.ErrInvalidCredentials for consistent error checking.
	ErrInvalidCredentials = fmt.Errorf("webmail: %w", identity.ErrInvalidCredentials)

	// ErrStoreRequired is returned when no entry store is configured.
	ErrStoreRequired = errors.New("webmail: store is required")

	// ErrResolverRequired is returned when no recipient resolver is configured.
	ErrResolverRequired = errors.New("webmail: recipient resolver is required")

	// ErrIdentityRequired is returned when an operation needs the identity
	// store but none is configured.
	ErrIdentityRequired = errors.New("webmail: identity store is required")

	// ErrNotConnected is returned when operations are attempted before Connect().
	// Wraps store.ErrNotConnected for consistent error checking.
	ErrNotConnected = fmt.Errorf("webmail: %w", store.ErrNotConnected)

	// ErrAlreadyConnected is returned when Connect() is called twice.
	// Wraps store.ErrAlreadyConnected for consistent error checking.
	ErrAlreadyConnected = fmt.Errorf("webmail: %w", store.ErrAlreadyConnected)

	// ErrInvalidID is returned when an invalid entry ID is provided.
	// Wraps store.ErrInvalidID for consistent error checking.
	ErrInvalidID = fmt.Errorf("webmail: %w", store.ErrInvalidID)
)

// EventPublishError reports that an operation succeeded but its event
// failed to publish. Only returned when WithEventErrorsFatal(true) is set.
type EventPublishError struct {
	// Event is the event name (e.g., "MessageSent").
	Event string
	// EntryID is the entry the event describes.
	EntryID int64
	// Err is the underlying publish error.
	Err error
}

func (e *EventPublishError) Error() string {
	return fmt.Sprintf("webmail: publish %s for entry %d: %v", e.Event, e.EntryID, e.Err)
}

func (e *EventPublishError) Unwrap() error {
	return e.Err
}

// UnknownRecipientError reports which recipient token failed to resolve.
// Compose aborts on the first unresolvable token; no entries are written.
type UnknownRecipientError struct {
	// Email is the trimmed recipient token that did not resolve.
	Email string
}

func (e *UnknownRecipientError) Error() string {
	return fmt.Sprintf("webmail: user with email %s does not exist", e.Email)
}

func (e *UnknownRecipientError) Unwrap() error {
	return ErrUnknownRecipient
}

// IsUnknownRecipient checks if the error is an unknown recipient error and
// returns the failing token.
func IsUnknownRecipient(err error) (*UnknownRecipientError, bool) {
	var ure *UnknownRecipientError
	if errors.As(err, &ure) {
		return ure, true
	}
	return nil, false
}
