// Package resolver provides webmail.RecipientResolver implementations.
//
// The identity-backed resolver is the standard choice: it maps addresses
// through the identity store that registration writes to, so a recipient
// resolves exactly when the address belongs to a registered account.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbaliyan/webmail"
	"github.com/rbaliyan/webmail/identity"
)

// ErrUnknownUser is returned when a lookup does not match a registered user.
var ErrUnknownUser = errors.New("resolver: unknown user")

// Compile-time check
var _ webmail.RecipientResolver = (*IdentityResolver)(nil)

// IdentityResolver resolves recipients against an identity store.
type IdentityResolver struct {
	users identity.Store
}

// NewIdentityResolver creates a resolver backed by the given identity store.
func NewIdentityResolver(users identity.Store) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// ResolveEmail resolves an email address to a registered user.
// The address is normalized the same way registration normalizes it, so
// lookups are case- and whitespace-insensitive.
func (r *IdentityResolver) ResolveEmail(ctx context.Context, email string) (*webmail.Recipient, error) {
	normalized, err := identity.NormalizeEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, email)
	}

	u, err := r.users.LookupByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, email)
		}
		return nil, err
	}
	return &webmail.Recipient{UserID: u.ID, Email: u.Email}, nil
}

// Resolve resolves a user ID to a recipient.
func (r *IdentityResolver) Resolve(ctx context.Context, userID int64) (*webmail.Recipient, error) {
	u, err := r.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownUser, userID)
		}
		return nil, err
	}
	return &webmail.Recipient{UserID: u.ID, Email: u.Email}, nil
}

// ResolveBatch resolves multiple user IDs in one identity store call.
// Results are positional; unknown IDs yield nil entries rather than errors,
// so views of entries naming deleted users still render.
func (r *IdentityResolver) ResolveBatch(ctx context.Context, userIDs []int64) ([]*webmail.Recipient, error) {
	users, err := r.users.GetBatch(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	recipients := make([]*webmail.Recipient, len(users))
	for i, u := range users {
		if u != nil {
			recipients[i] = &webmail.Recipient{UserID: u.ID, Email: u.Email}
		}
	}
	return recipients, nil
}
