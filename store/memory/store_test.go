package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rbaliyan/webmail/store"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func entryData(owner, sender int64, recipients []int64, ts time.Time) store.EntryData {
	return store.EntryData{
		OwnerID:      owner,
		SenderID:     sender,
		RecipientIDs: recipients,
		Subject:      "subject",
		Body:         "body",
		Timestamp:    ts,
		Read:         owner == sender,
	}
}

func TestLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.CreateEntry(ctx, entryData(1, 1, []int64{2}, time.Now())); !errors.Is(err, store.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.Connect(ctx); !errors.Is(err, store.ErrAlreadyConnected) {
		t.Errorf("expected ErrAlreadyConnected, got %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCreateEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns sequential IDs in batch order", func(t *testing.T) {
		s := setupStore(t)
		ts := time.Now().UTC()
		batch := []store.EntryData{
			entryData(1, 1, []int64{2, 3}, ts),
			entryData(2, 1, []int64{2, 3}, ts),
			entryData(3, 1, []int64{2, 3}, ts),
		}
		created, err := s.CreateEntries(ctx, batch)
		if err != nil {
			t.Fatalf("create entries: %v", err)
		}
		if len(created) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(created))
		}
		for i := 1; i < len(created); i++ {
			if created[i].ID != created[i-1].ID+1 {
				t.Errorf("expected sequential IDs, got %d then %d", created[i-1].ID, created[i].ID)
			}
			if created[i].OwnerID != batch[i].OwnerID {
				t.Errorf("batch order not preserved at %d", i)
			}
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		s := setupStore(t)
		if _, err := s.CreateEntries(ctx, nil); !errors.Is(err, store.ErrEmptyBatch) {
			t.Errorf("expected ErrEmptyBatch, got %v", err)
		}
	})

	t.Run("returned entries are copies", func(t *testing.T) {
		s := setupStore(t)
		created, err := s.CreateEntry(ctx, entryData(1, 1, []int64{2}, time.Now()))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		created.Subject = "mutated"
		created.RecipientIDs[0] = 99

		stored, _ := s.Get(ctx, 1, created.ID)
		if stored.Subject == "mutated" || stored.RecipientIDs[0] == 99 {
			t.Error("mutating the returned entry must not affect storage")
		}
	})
}

func TestGetOwnership(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	created, err := s.CreateEntry(ctx, entryData(1, 1, []int64{2}, time.Now()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Get(ctx, 1, created.ID); err != nil {
		t.Errorf("owner get failed: %v", err)
	}
	if _, err := s.Get(ctx, 2, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("foreign get: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, 1, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing get: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, 1, 0); !errors.Is(err, store.ErrInvalidID) {
		t.Errorf("zero id: expected ErrInvalidID, got %v", err)
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()

	t.Run("filters and default order", func(t *testing.T) {
		s := setupStore(t)
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

		// Three entries for owner 2, increasing timestamps.
		for i := 0; i < 3; i++ {
			if _, err := s.CreateEntry(ctx, entryData(2, 1, []int64{2}, base.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		// Noise for another owner.
		if _, err := s.CreateEntry(ctx, entryData(3, 1, []int64{3}, base)); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := s.Find(ctx, []store.Filter{store.OwnerIs(2)}, store.ListOptions{})
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Timestamp.After(got[i-1].Timestamp) {
				t.Errorf("expected newest first at %d", i)
			}
		}
	})

	t.Run("equal timestamps keep insertion order", func(t *testing.T) {
		s := setupStore(t)
		ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		var ids []int64
		for i := 0; i < 4; i++ {
			e, err := s.CreateEntry(ctx, entryData(2, 1, []int64{2}, ts))
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			ids = append(ids, e.ID)
		}

		got, err := s.Find(ctx, []store.Filter{store.OwnerIs(2)}, store.ListOptions{})
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		for i, e := range got {
			if e.ID != ids[i] {
				t.Errorf("tie order broken: position %d has ID %d, want %d", i, e.ID, ids[i])
			}
		}
	})

	t.Run("recipient contains filter", func(t *testing.T) {
		s := setupStore(t)
		ts := time.Now().UTC()
		if _, err := s.CreateEntry(ctx, entryData(1, 1, []int64{2, 3}, ts)); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := s.CreateEntry(ctx, entryData(1, 1, []int64{3}, ts)); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := s.Find(ctx, []store.Filter{
			store.OwnerIs(1),
			store.RecipientIs(2),
		}, store.ListOptions{})
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 entry addressed to 2, got %d", len(got))
		}
	})

	t.Run("limit", func(t *testing.T) {
		s := setupStore(t)
		for i := 0; i < 5; i++ {
			if _, err := s.CreateEntry(ctx, entryData(2, 1, []int64{2}, time.Now().UTC())); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		got, _ := s.Find(ctx, []store.Filter{store.OwnerIs(2)}, store.ListOptions{Limit: 2})
		if len(got) != 2 {
			t.Errorf("expected 2 entries with limit, got %d", len(got))
		}
	})
}

func TestUpdateFlags(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	created, err := s.CreateEntry(ctx, entryData(2, 1, []int64{2}, time.Now()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	read := true
	if err := s.UpdateFlags(ctx, 2, created.ID, &read, nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Get(ctx, 2, created.ID)
	if !got.Read || got.Archived {
		t.Errorf("partial update wrong: read=%v archived=%v", got.Read, got.Archived)
	}

	archived := true
	if err := s.UpdateFlags(ctx, 2, created.ID, nil, &archived); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.Get(ctx, 2, created.ID)
	if !got.Read || !got.Archived {
		t.Errorf("second update wrong: read=%v archived=%v", got.Read, got.Archived)
	}

	if err := s.UpdateFlags(ctx, 1, created.ID, &read, nil); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("foreign update: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndMaintenance(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	ts := time.Now().UTC()

	// Sender's copy plus two recipient copies.
	batch := []store.EntryData{
		entryData(1, 1, []int64{2, 3}, ts),
		entryData(2, 1, []int64{2, 3}, ts),
		entryData(3, 1, []int64{2, 3}, ts),
	}
	created, err := s.CreateEntries(ctx, batch)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Delete(ctx, 2, created[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, 2, created[1].ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected deleted copy gone, got %v", err)
	}
	if _, err := s.Get(ctx, 1, created[0].ID); err != nil {
		t.Errorf("other copies must survive: %v", err)
	}

	count, err := s.CountBySender(ctx, 1)
	if err != nil {
		t.Fatalf("count by sender: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 remaining entries by sender, got %d", count)
	}

	deleted, err := s.DeleteByOwner(ctx, 3)
	if err != nil {
		t.Fatalf("delete by owner: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 entry removed, got %d", deleted)
	}
}
