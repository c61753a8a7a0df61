package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rbaliyan/webmail"
)

// Compile-time check
var _ webmail.RecipientResolver = (*StaticResolver)(nil)

// StaticResolver resolves recipients from a fixed in-memory map.
// Useful for tests and tools that do not carry an identity store.
type StaticResolver struct {
	mu      sync.RWMutex
	byID    map[int64]string
	byEmail map[string]int64
}

// NewStaticResolver creates a resolver over a fixed userID -> email mapping.
func NewStaticResolver(users map[int64]string) *StaticResolver {
	r := &StaticResolver{
		byID:    make(map[int64]string, len(users)),
		byEmail: make(map[string]int64, len(users)),
	}
	for id, email := range users {
		r.byID[id] = email
		r.byEmail[strings.ToLower(email)] = id
	}
	return r
}

// Add registers or replaces a mapping.
func (r *StaticResolver) Add(userID int64, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[userID] = email
	r.byEmail[strings.ToLower(email)] = userID
}

func (r *StaticResolver) ResolveEmail(_ context.Context, email string) (*webmail.Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, email)
	}
	return &webmail.Recipient{UserID: id, Email: r.byID[id]}, nil
}

func (r *StaticResolver) Resolve(_ context.Context, userID int64) (*webmail.Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email, ok := r.byID[userID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownUser, userID)
	}
	return &webmail.Recipient{UserID: userID, Email: email}, nil
}

func (r *StaticResolver) ResolveBatch(_ context.Context, userIDs []int64) ([]*webmail.Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recipients := make([]*webmail.Recipient, len(userIDs))
	for i, id := range userIDs {
		if email, ok := r.byID[id]; ok {
			recipients[i] = &webmail.Recipient{UserID: id, Email: email}
		}
	}
	return recipients, nil
}
