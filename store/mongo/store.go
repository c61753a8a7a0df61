// Package mongo provides a MongoDB implementation of store.Store.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rbaliyan/webmail/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Compile-time check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	counters   *mongo.Collection
	opts       *options
	connected  int32
	logger     *slog.Logger
}

// New creates a new MongoDB store with the provided client.
// Call Connect() to initialize the collection and indexes.
func New(client *mongo.Client, opts ...Option) *Store {
	o := newOptions(opts...)
	return &Store{
		client: client,
		opts:   o,
		logger: o.logger,
	}
}

// Connect initializes the database, collection, and indexes.
func (s *Store) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&s.connected) == 1 {
		return store.ErrAlreadyConnected
	}

	if s.client == nil {
		return fmt.Errorf("mongo: client is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	s.db = s.client.Database(s.opts.database)
	s.collection = s.db.Collection(s.opts.collection)
	s.counters = s.db.Collection(s.opts.collection + "_counters")

	if err := s.ensureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	atomic.StoreInt32(&s.connected, 1)
	s.logger.Info("connected to MongoDB", "database", s.opts.database, "collection", s.opts.collection)
	return nil
}

// Close marks the store as disconnected.
// The caller is responsible for closing the MongoDB client.
func (s *Store) Close(ctx context.Context) error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return nil
	}
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

// ensureIndexes creates required indexes.
func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "timestamp", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}}},
		{Keys: bson.D{{Key: "recipient_ids", Value: 1}}},
	}

	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (s *Store) checkConnected() error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return store.ErrNotConnected
	}
	return nil
}

// nextIDs atomically allocates n sequential entry IDs via a counter document.
// FindOneAndUpdate with $inc is atomic, so concurrent fan-outs never overlap.
func (s *Store) nextIDs(ctx context.Context, n int64) (first int64, err error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err = s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "entries"},
		bson.M{"$inc": bson.M{"seq": n}},
		mongoopts.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(mongoopts.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate ids: %w", err)
	}
	return counter.Seq - n + 1, nil
}

// entryDoc is the BSON document shape for a mailbox entry.
type entryDoc struct {
	ID           int64     `bson:"_id"`
	OwnerID      int64     `bson:"owner_id"`
	SenderID     int64     `bson:"sender_id"`
	RecipientIDs []int64   `bson:"recipient_ids"`
	Subject      string    `bson:"subject"`
	Body         string    `bson:"body"`
	Read         bool      `bson:"read"`
	Archived     bool      `bson:"archived"`
	Timestamp    time.Time `bson:"timestamp"`
}

func (d *entryDoc) entry() *store.Entry {
	return &store.Entry{
		ID:           d.ID,
		OwnerID:      d.OwnerID,
		SenderID:     d.SenderID,
		RecipientIDs: d.RecipientIDs,
		Subject:      d.Subject,
		Body:         d.Body,
		Read:         d.Read,
		Archived:     d.Archived,
		Timestamp:    d.Timestamp,
	}
}
