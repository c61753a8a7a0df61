package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rbaliyan/webmail/store"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"
)

// setupMongo connects to the MongoDB deployment named by
// WEBMAIL_TEST_MONGO_URI, skipping the test when none is configured.
func setupMongo(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("WEBMAIL_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("WEBMAIL_TEST_MONGO_URI not set")
	}

	client, err := mongo.Connect(mongoopts.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}

	collection := fmt.Sprintf("entries_test_%d", time.Now().UnixNano())
	s := New(client, WithDatabase("webmail_test"), WithCollection(collection))
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect store: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		s.collection.Drop(ctx)
		s.counters.Drop(ctx)
		s.Close(ctx)
		client.Disconnect(ctx)
	})
	return s
}

func TestCreateEntriesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := setupMongo(t)

	data := func(owner int64) store.EntryData {
		return store.EntryData{
			OwnerID:      owner,
			SenderID:     1,
			RecipientIDs: []int64{2, 3},
			Subject:      "subject",
			Body:         "body",
			Timestamp:    time.Now().UTC(),
		}
	}

	// Learn the current counter position.
	seed, err := s.CreateEntry(ctx, data(1))
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	// Plant a document at the id the middle of the next batch will get,
	// so the insert fails partway through.
	planted := &entryDoc{ID: seed.ID + 2, OwnerID: 999, SenderID: 999, Timestamp: time.Now().UTC()}
	if _, err := s.collection.InsertOne(ctx, planted); err != nil {
		t.Fatalf("plant conflicting doc: %v", err)
	}

	batch := []store.EntryData{data(7), data(8), data(9)}
	if _, err := s.CreateEntries(ctx, batch); !errors.Is(err, store.ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}

	// No copy from the failed batch may survive, for any participant.
	for _, owner := range []int64{7, 8, 9} {
		got, err := s.Find(ctx, []store.Filter{store.OwnerIs(owner)}, store.ListOptions{})
		if err != nil {
			t.Fatalf("find owner %d: %v", owner, err)
		}
		if len(got) != 0 {
			t.Errorf("owner %d: expected no entries after failed batch, got %d", owner, len(got))
		}
	}

	// Entries written before the failed batch are untouched.
	if _, err := s.Get(ctx, 1, seed.ID); err != nil {
		t.Errorf("seed entry must survive: %v", err)
	}
}
