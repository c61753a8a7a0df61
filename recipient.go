package webmail

import "context"

// Recipient contains resolved information about a user.
type Recipient struct {
	// UserID is the unique user identifier.
	UserID int64
	// Email is the user's registered email address.
	Email string
}

// RecipientResolver maps between email addresses and user identities.
// Implementations should be safe for concurrent use.
//
// The distribution engine uses ResolveEmail to validate compose recipients;
// the serialization layer uses Resolve/ResolveBatch to render sender and
// recipient addresses in mailbox views.
type RecipientResolver interface {
	// ResolveEmail returns recipient information for an email address.
	// The error for an unknown address is implementation-defined; callers
	// treat any failure as "no such user".
	ResolveEmail(ctx context.Context, email string) (*Recipient, error)

	// Resolve returns recipient information for a single user ID.
	Resolve(ctx context.Context, userID int64) (*Recipient, error)

	// ResolveBatch returns recipient information for multiple user IDs.
	// Returns results in the same order as input. Unknown IDs have nil entries.
	ResolveBatch(ctx context.Context, userIDs []int64) ([]*Recipient, error)
}
