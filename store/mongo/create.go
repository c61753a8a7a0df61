package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbaliyan/webmail/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateEntry(ctx context.Context, data store.EntryData) (*store.Entry, error) {
	entries, err := s.CreateEntries(ctx, []store.EntryData{data})
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

func (s *Store) CreateEntries(ctx context.Context, data []store.EntryData) ([]*store.Entry, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, store.ErrEmptyBatch
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	first, err := s.nextIDs(ctx, int64(len(data)))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	docs := make([]any, 0, len(data))
	entries := make([]*store.Entry, 0, len(data))

	for i, d := range data {
		ts := d.Timestamp
		if ts.IsZero() {
			ts = now
		}
		doc := &entryDoc{
			ID:           first + int64(i),
			OwnerID:      d.OwnerID,
			SenderID:     d.SenderID,
			RecipientIDs: append([]int64(nil), d.RecipientIDs...),
			Subject:      d.Subject,
			Body:         d.Body,
			Read:         d.Read,
			Timestamp:    ts,
		}
		docs = append(docs, doc)
		entries = append(entries, doc.entry())
	}

	// Insert inside a transaction so a mid-batch failure leaves no copies
	// behind. Standalone deployments don't support sessions; those fall back
	// to a compensated insert.
	session, err := s.client.StartSession()
	if err != nil {
		return s.insertCompensated(ctx, docs, entries, first, int64(len(docs)))
	}
	defer session.EndSession(ctx)

	_, txErr := session.WithTransaction(ctx, func(sessCtx context.Context) (any, error) {
		_, insertErr := s.collection.InsertMany(sessCtx, docs, mongoopts.InsertMany().SetOrdered(true))
		return nil, insertErr
	})
	if txErr != nil {
		if isTransactionUnsupported(txErr) {
			return s.insertCompensated(ctx, docs, entries, first, int64(len(docs)))
		}
		return nil, fmt.Errorf("%w: insert entries: %v", store.ErrTransactionFailed, txErr)
	}

	return entries, nil
}

// insertCompensated inserts the batch without a transaction and deletes the
// allocated _id range if the insert fails partway. The freshly allocated ids
// are never reused, so the cleanup cannot touch anyone else's documents.
func (s *Store) insertCompensated(ctx context.Context, docs []any, entries []*store.Entry, first, n int64) ([]*store.Entry, error) {
	if _, err := s.collection.InsertMany(ctx, docs, mongoopts.InsertMany().SetOrdered(true)); err != nil {
		filter := bson.M{"_id": bson.M{"$gte": first, "$lte": first + n - 1}}
		if _, delErr := s.collection.DeleteMany(ctx, filter); delErr != nil {
			s.logger.Error("cleanup after partial batch insert failed",
				"error", delErr, "first_id", first, "count", n)
		}
		return nil, fmt.Errorf("%w: insert entries: %v", store.ErrTransactionFailed, err)
	}
	return entries, nil
}

// isTransactionUnsupported reports whether the error indicates the deployment
// cannot run transactions (standalone servers return code 20 or 263).
func isTransactionUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 20 || cmdErr.Code == 263
	}
	return false
}
