package mongo

import (
	"context"
	"fmt"

	"github.com/rbaliyan/webmail/store"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func (s *Store) UpdateFlags(ctx context.Context, ownerID, id int64, read, archived *bool) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	if id <= 0 {
		return store.ErrInvalidID
	}
	if read == nil && archived == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	set := bson.M{}
	if read != nil {
		set["read"] = *read
	}
	if archived != nil {
		set["archived"] = *archived
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("update flags: %w", err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	if id <= 0 {
		return store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByOwner(ctx context.Context, ownerID int64) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	result, err := s.collection.DeleteMany(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("delete by owner: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *Store) CountBySender(ctx context.Context, senderID int64) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	count, err := s.collection.CountDocuments(ctx, bson.M{"sender_id": senderID})
	if err != nil {
		return 0, fmt.Errorf("count by sender: %w", err)
	}
	return count, nil
}
