package webmail

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestServiceEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("noop transport by default", func(t *testing.T) {
		svc := setupTestService(t)

		events := svc.Events()
		if events == nil {
			t.Fatal("expected events after connect")
		}
		if events.MessageSent == nil || events.MessageRead == nil || events.MessageDeleted == nil {
			t.Error("expected all event instances")
		}

		// Operations publish without error even with no real transport.
		res := mustCompose(t, svc.Client(aliceID), "bob@example.com", "Hello", "Body")
		bob := svc.Client(bobID)
		inbox, _ := bob.Inbox(ctx)
		if err := bob.UpdateFlags(ctx, inbox[0].ID(), MarkRead()); err != nil {
			t.Fatalf("mark read: %v", err)
		}
		if err := svc.Client(aliceID).Delete(ctx, res.EntryID); err != nil {
			t.Fatalf("delete: %v", err)
		}
	})

	t.Run("redis transport", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		svc := setupTestService(t, WithRedisClient(client))

		mustCompose(t, svc.Client(aliceID), "bob@example.com", "Hello", "Body")

		if err := svc.Close(ctx); err != nil {
			t.Fatalf("close with redis transport: %v", err)
		}
	})

	t.Run("per-service events are independent", func(t *testing.T) {
		svc1 := setupTestService(t)
		svc2 := setupTestService(t)

		if svc1.Events() == svc2.Events() {
			t.Error("expected distinct event sets per service")
		}
	})
}
