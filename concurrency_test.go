package webmail

import (
	"context"
	"sync"
	"testing"
)

func TestConcurrentCompose(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	const senders = 8
	const perSender = 5

	var wg sync.WaitGroup
	errs := make(chan error, senders*perSender)

	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mb := svc.Client(aliceID)
			for j := 0; j < perSender; j++ {
				if _, err := mb.Compose(ctx, "bob@example.com", "Load", "Body"); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent compose failed: %v", err)
	}

	inbox, err := svc.Client(bobID).Inbox(ctx)
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != senders*perSender {
		t.Errorf("expected %d entries, got %d", senders*perSender, len(inbox))
	}

	// Every copy is distinct; no IDs were reused under contention.
	seen := make(map[int64]bool, len(inbox))
	for _, msg := range inbox {
		if seen[msg.ID()] {
			t.Errorf("duplicate entry ID %d", msg.ID())
		}
		seen[msg.ID()] = true
	}
}

func TestConcurrentFlagUpdates(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	mustCompose(t, svc.Client(aliceID), "bob@example.com", "Hello", "Body")

	bob := svc.Client(bobID)
	inbox, _ := bob.Inbox(ctx)
	id := inbox[0].ID()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(read bool) {
			defer wg.Done()
			_ = bob.UpdateFlags(ctx, id, Flags{}.WithRead(read))
		}(i%2 == 0)
	}
	wg.Wait()

	// Whatever won, the entry is still consistent and readable.
	msg, err := bob.Get(ctx, id)
	if err != nil {
		t.Fatalf("get after concurrent updates: %v", err)
	}
	if msg.Archived() {
		t.Error("archived flag must be untouched by read updates")
	}
}
