package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbaliyan/webmail/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) Get(ctx context.Context, ownerID, id int64) (*store.Entry, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	var doc entryDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}

	return doc.entry(), nil
}

func (s *Store) Find(ctx context.Context, filters []store.Filter, opts store.ListOptions) ([]*store.Entry, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query, err := buildQuery(filters)
	if err != nil {
		return nil, err
	}

	// _id rises in insertion order, so it breaks timestamp ties stably.
	dir := -1
	if opts.SortOrder == store.SortAsc {
		dir = 1
	}
	findOpts := mongoopts.Find().SetSort(bson.D{{Key: "timestamp", Value: dir}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.collection.Find(ctx, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	entries := make([]*store.Entry, len(docs))
	for i := range docs {
		entries[i] = docs[i].entry()
	}
	return entries, nil
}

func (s *Store) Count(ctx context.Context, filters []store.Filter) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query, err := buildQuery(filters)
	if err != nil {
		return 0, err
	}

	count, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// buildQuery translates filters into a MongoDB query document.
func buildQuery(filters []store.Filter) (bson.M, error) {
	query := bson.M{}
	for _, f := range filters {
		key := f.Key()
		if key == "id" {
			key = "_id"
		}
		switch f.Operator() {
		case "eq", "contains", "":
			// Array membership in MongoDB is plain equality on the field.
			query[key] = f.Value()
		case "ne":
			query[key] = bson.M{"$ne": f.Value()}
		default:
			return nil, fmt.Errorf("%w: unsupported operator: %s", store.ErrFilterInvalid, f.Operator())
		}
	}
	return query, nil
}
