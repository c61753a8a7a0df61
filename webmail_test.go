package webmail

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rbaliyan/webmail/store/memory"
)

// Fixed test users shared across the package tests.
const (
	aliceID int64 = 1
	bobID   int64 = 2
	carolID int64 = 3
)

var testUsers = map[int64]string{
	aliceID: "alice@example.com",
	bobID:   "bob@example.com",
	carolID: "carol@example.com",
}

// testResolver resolves a fixed userID -> email mapping without going
// through an identity store.
type testResolver struct {
	users map[int64]string
}

func newTestResolver(users map[int64]string) *testResolver {
	return &testResolver{users: users}
}

func (r *testResolver) ResolveEmail(_ context.Context, email string) (*Recipient, error) {
	addr := strings.ToLower(strings.TrimSpace(email))
	for id, known := range r.users {
		if known == addr {
			return &Recipient{UserID: id, Email: known}, nil
		}
	}
	return nil, fmt.Errorf("no user with email %q", email)
}

func (r *testResolver) Resolve(_ context.Context, userID int64) (*Recipient, error) {
	email, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("no user with id %d", userID)
	}
	return &Recipient{UserID: userID, Email: email}, nil
}

func (r *testResolver) ResolveBatch(_ context.Context, userIDs []int64) ([]*Recipient, error) {
	recipients := make([]*Recipient, len(userIDs))
	for i, id := range userIDs {
		if email, ok := r.users[id]; ok {
			recipients[i] = &Recipient{UserID: id, Email: email}
		}
	}
	return recipients, nil
}

// setupTestService creates a connected service over an in-memory store with
// the fixed test users resolvable.
func setupTestService(t *testing.T, opts ...Option) Service {
	t.Helper()

	base := []Option{
		WithStore(memory.New()),
		WithResolver(newTestResolver(testUsers)),
	}
	svc, err := NewService(append(base, opts...)...)
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("connect service: %v", err)
	}
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc
}

// mustCompose sends a message and fails the test on any error.
func mustCompose(t *testing.T, mb Mailbox, recipients, subject, body string) *ComposeResult {
	t.Helper()
	res, err := mb.Compose(context.Background(), recipients, subject, body)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	return res
}
