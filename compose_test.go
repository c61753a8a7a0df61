package webmail

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCompose(t *testing.T) {
	ctx := context.Background()

	t.Run("creates one copy per participant", func(t *testing.T) {
		svc := setupTestService(t)
		res := mustCompose(t, svc.Client(aliceID), "bob@example.com, carol@example.com", "Hello", "Body")

		if res.Participants != 3 {
			t.Errorf("expected 3 participants, got %d", res.Participants)
		}

		// Sender sees it in sent, recipients in inbox.
		sent, _ := svc.Client(aliceID).Sent(ctx)
		if len(sent) != 1 {
			t.Fatalf("expected 1 sent entry, got %d", len(sent))
		}
		for _, id := range []int64{bobID, carolID} {
			inbox, _ := svc.Client(id).Inbox(ctx)
			if len(inbox) != 1 {
				t.Fatalf("expected 1 inbox entry for user %d, got %d", id, len(inbox))
			}
		}
	})

	t.Run("sender copy read, recipient copies unread", func(t *testing.T) {
		svc := setupTestService(t)
		mustCompose(t, svc.Client(aliceID), "bob@example.com", "Hello", "Body")

		sent, _ := svc.Client(aliceID).Sent(ctx)
		if !sent[0].Read() {
			t.Error("expected sender copy to start read")
		}
		inbox, _ := svc.Client(bobID).Inbox(ctx)
		if inbox[0].Read() {
			t.Error("expected recipient copy to start unread")
		}
	})

	t.Run("duplicate and self recipients collapse", func(t *testing.T) {
		svc := setupTestService(t)
		// Bob twice (once with spacing) plus the sender: 2 copies total.
		res := mustCompose(t, svc.Client(aliceID),
			"bob@example.com, bob@example.com , alice@example.com", "Hello", "Body")

		if res.Participants != 2 {
			t.Errorf("expected 2 participants, got %d", res.Participants)
		}
		if len(res.RecipientIDs) != 2 {
			t.Errorf("expected 2 distinct recipients, got %v", res.RecipientIDs)
		}

		// Self-addressed: the single copy shows up in both inbox and sent.
		inbox, _ := svc.Client(aliceID).Inbox(ctx)
		sent, _ := svc.Client(aliceID).Sent(ctx)
		if len(inbox) != 1 || len(sent) != 1 {
			t.Errorf("expected self copy in both views, got inbox=%d sent=%d", len(inbox), len(sent))
		}
		if inbox[0].ID() != sent[0].ID() {
			t.Error("expected the same copy in inbox and sent")
		}
	})

	t.Run("no recipients", func(t *testing.T) {
		svc := setupTestService(t)
		for _, recipients := range []string{"", "   "} {
			_, err := svc.Client(aliceID).Compose(ctx, recipients, "Hello", "Body")
			if !errors.Is(err, ErrNoRecipients) {
				t.Errorf("recipients %q: expected ErrNoRecipients, got %v", recipients, err)
			}
		}
	})

	t.Run("unknown recipient aborts without writes", func(t *testing.T) {
		svc := setupTestService(t)
		_, err := svc.Client(aliceID).Compose(ctx,
			"bob@example.com, nobody@example.com, carol@example.com", "Hello", "Body")
		if !errors.Is(err, ErrUnknownRecipient) {
			t.Fatalf("expected ErrUnknownRecipient, got %v", err)
		}

		ure, ok := IsUnknownRecipient(err)
		if !ok {
			t.Fatal("expected UnknownRecipientError")
		}
		if ure.Email != "nobody@example.com" {
			t.Errorf("expected failing token nobody@example.com, got %q", ure.Email)
		}

		// Nothing was written, not even for the valid recipients.
		for _, id := range []int64{aliceID, bobID, carolID} {
			sent, _ := svc.Client(id).Sent(ctx)
			inbox, _ := svc.Client(id).Inbox(ctx)
			if len(sent)+len(inbox) != 0 {
				t.Errorf("user %d: expected no entries after failed compose", id)
			}
		}
	})

	t.Run("empty token among recipients fails resolution", func(t *testing.T) {
		svc := setupTestService(t)
		_, err := svc.Client(aliceID).Compose(ctx, "bob@example.com,", "Hello", "Body")
		if !errors.Is(err, ErrUnknownRecipient) {
			t.Errorf("expected ErrUnknownRecipient for empty token, got %v", err)
		}
	})

	t.Run("empty subject and body are allowed", func(t *testing.T) {
		svc := setupTestService(t)
		mustCompose(t, svc.Client(aliceID), "bob@example.com", "", "")

		inbox, _ := svc.Client(bobID).Inbox(ctx)
		if len(inbox) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(inbox))
		}
		if inbox[0].Subject() != "" || inbox[0].Body() != "" {
			t.Error("expected empty subject and body preserved")
		}
	})

	t.Run("subject too long", func(t *testing.T) {
		svc := setupTestService(t)
		_, err := svc.Client(aliceID).Compose(ctx, "bob@example.com",
			strings.Repeat("s", DefaultMaxSubjectLength+1), "Body")
		if !errors.Is(err, ErrSubjectTooLong) {
			t.Errorf("expected ErrSubjectTooLong, got %v", err)
		}
	})

	t.Run("copies share timestamp and recipient list", func(t *testing.T) {
		svc := setupTestService(t)
		mustCompose(t, svc.Client(aliceID), "bob@example.com, carol@example.com", "Hello", "Body")

		sent, _ := svc.Client(aliceID).Sent(ctx)
		inbox, _ := svc.Client(bobID).Inbox(ctx)
		if !sent[0].Timestamp().Equal(inbox[0].Timestamp()) {
			t.Error("expected identical timestamps across copies")
		}
		if len(sent[0].RecipientIDs()) != 2 || len(inbox[0].RecipientIDs()) != 2 {
			t.Error("expected the full recipient list on every copy")
		}
		if sent[0].SenderID() != aliceID || inbox[0].SenderID() != aliceID {
			t.Error("expected sender of record on every copy")
		}
	})
}
