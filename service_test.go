package webmail

import (
	"context"
	"errors"
	"testing"

	"github.com/rbaliyan/webmail/identity"
	"github.com/rbaliyan/webmail/store/memory"
)

func TestNewService(t *testing.T) {
	t.Run("requires store", func(t *testing.T) {
		_, err := NewService(WithResolver(newTestResolver(nil)))
		if !errors.Is(err, ErrStoreRequired) {
			t.Errorf("expected ErrStoreRequired, got %v", err)
		}
	})

	t.Run("requires resolver", func(t *testing.T) {
		_, err := NewService(WithStore(memory.New()))
		if !errors.Is(err, ErrResolverRequired) {
			t.Errorf("expected ErrResolverRequired, got %v", err)
		}
	})

	t.Run("creates service with store and resolver", func(t *testing.T) {
		svc, err := NewService(
			WithStore(memory.New()),
			WithResolver(newTestResolver(testUsers)),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc == nil {
			t.Fatal("expected non-nil service")
		}
	})
}

func TestServiceLifecycle(t *testing.T) {
	t.Run("connect and close", func(t *testing.T) {
		svc, err := NewService(
			WithStore(memory.New()),
			WithResolver(newTestResolver(testUsers)),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ctx := context.Background()

		if svc.IsConnected() {
			t.Error("expected disconnected before Connect")
		}

		if err := svc.Connect(ctx); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if !svc.IsConnected() {
			t.Error("expected connected after Connect")
		}

		// Double connect should fail
		if err := svc.Connect(ctx); !errors.Is(err, ErrAlreadyConnected) {
			t.Errorf("expected ErrAlreadyConnected, got %v", err)
		}

		if err := svc.Close(ctx); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		// Double close should be safe
		if err := svc.Close(ctx); err != nil {
			t.Errorf("second close should not error, got %v", err)
		}
	})
}

func TestUserMailbox(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	t.Run("UserID returns correct ID", func(t *testing.T) {
		mb := svc.Client(aliceID)
		if mb.UserID() != aliceID {
			t.Errorf("expected UserID %d, got %d", aliceID, mb.UserID())
		}
	})

	t.Run("operations fail when not connected", func(t *testing.T) {
		disconnectedSvc, _ := NewService(
			WithStore(memory.New()),
			WithResolver(newTestResolver(testUsers)),
		)
		mb := disconnectedSvc.Client(aliceID)

		if _, err := mb.Get(ctx, 1); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
		if _, err := mb.Inbox(ctx); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
		if _, err := mb.Compose(ctx, "bob@example.com", "s", "b"); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})

	t.Run("non-positive user ID is rejected", func(t *testing.T) {
		mb := svc.Client(0)
		if _, err := mb.Get(ctx, 1); !errors.Is(err, ErrInvalidID) {
			t.Errorf("expected ErrInvalidID, got %v", err)
		}
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()

	// An identity-backed setup so DeleteUser has somewhere to delete from.
	setup := func(t *testing.T) (Service, *identity.User, *identity.User) {
		t.Helper()
		users := identity.NewMemoryStore()
		if err := users.Connect(ctx); err != nil {
			t.Fatalf("connect identity: %v", err)
		}
		alice, err := users.Register(ctx, "alice@example.com", "password123")
		if err != nil {
			t.Fatalf("register alice: %v", err)
		}
		bob, err := users.Register(ctx, "bob@example.com", "password123")
		if err != nil {
			t.Fatalf("register bob: %v", err)
		}

		svc, err := NewService(
			WithStore(memory.New()),
			WithIdentityStore(users),
			WithResolver(newTestResolver(map[int64]string{
				alice.ID: alice.Email,
				bob.ID:   bob.Email,
			})),
		)
		if err != nil {
			t.Fatalf("create service: %v", err)
		}
		// The service connects the identity store itself; release the
		// connection made for registration first.
		if err := users.Close(ctx); err != nil {
			t.Fatalf("close identity: %v", err)
		}
		if err := svc.Connect(ctx); err != nil {
			t.Fatalf("connect service: %v", err)
		}
		t.Cleanup(func() { svc.Close(context.Background()) })
		return svc, alice, bob
	}

	t.Run("requires identity store", func(t *testing.T) {
		svc := setupTestService(t)
		if err := svc.DeleteUser(ctx, aliceID); !errors.Is(err, ErrIdentityRequired) {
			t.Errorf("expected ErrIdentityRequired, got %v", err)
		}
	})

	t.Run("sender of record is protected", func(t *testing.T) {
		svc, alice, bob := setup(t)
		mustCompose(t, svc.Client(alice.ID), bob.Email, "Hi", "Body")

		if err := svc.DeleteUser(ctx, alice.ID); !errors.Is(err, ErrSenderProtected) {
			t.Errorf("expected ErrSenderProtected, got %v", err)
		}
	})

	t.Run("cascade removes owned copies", func(t *testing.T) {
		svc, alice, bob := setup(t)
		mustCompose(t, svc.Client(alice.ID), bob.Email, "Hi", "Body")

		// Bob only received; deleting him removes his copy and account.
		if err := svc.DeleteUser(ctx, bob.ID); err != nil {
			t.Fatalf("delete bob: %v", err)
		}

		inbox, err := svc.Client(bob.ID).Inbox(ctx)
		if err != nil {
			t.Fatalf("inbox: %v", err)
		}
		if len(inbox) != 0 {
			t.Errorf("expected empty inbox after delete, got %d", len(inbox))
		}

		// Alice's sent copy survives.
		sent, err := svc.Client(alice.ID).Sent(ctx)
		if err != nil {
			t.Fatalf("sent: %v", err)
		}
		if len(sent) != 1 {
			t.Errorf("expected 1 sent entry, got %d", len(sent))
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := setup(t)
		if err := svc.DeleteUser(ctx, 9999); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
