// Package memory provides an in-memory Store implementation for testing.
// This store is not suitable for production use - data is not persisted.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbaliyan/webmail/store"
)

// Compile-time check
var _ store.Store = (*Store)(nil)

// Store implements store.Store with in-memory storage.
// Thread-safe for concurrent use. Not suitable for production.
type Store struct {
	mu        sync.RWMutex
	entries   map[int64]*store.Entry
	nextID    int64
	connected int32
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{entries: make(map[int64]*store.Entry)}
}

// Connect marks the store as connected.
func (s *Store) Connect(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return store.ErrAlreadyConnected
	}
	return nil
}

// Close marks the store as disconnected.
func (s *Store) Close(_ context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

func (s *Store) checkConnected() error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return store.ErrNotConnected
	}
	return nil
}

func (s *Store) CreateEntry(ctx context.Context, data store.EntryData) (*store.Entry, error) {
	entries, err := s.CreateEntries(ctx, []store.EntryData{data})
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

func (s *Store) CreateEntries(_ context.Context, data []store.EntryData) ([]*store.Entry, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, store.ErrEmptyBatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The whole batch is inserted under one lock, mirroring the transactional
	// guarantee of the database backends.
	created := make([]*store.Entry, 0, len(data))
	for _, d := range data {
		s.nextID++
		ts := d.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		e := &store.Entry{
			ID:           s.nextID,
			OwnerID:      d.OwnerID,
			SenderID:     d.SenderID,
			RecipientIDs: append([]int64(nil), d.RecipientIDs...),
			Subject:      d.Subject,
			Body:         d.Body,
			Timestamp:    ts,
			Read:         d.Read,
		}
		s.entries[e.ID] = e
		created = append(created, e.Clone())
	}
	return created, nil
}

func (s *Store) Get(_ context.Context, ownerID, id int64) (*store.Entry, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, store.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || e.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return e.Clone(), nil
}

func (s *Store) Find(_ context.Context, filters []store.Filter, opts store.ListOptions) ([]*store.Entry, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]*store.Entry, 0)
	for _, e := range s.entries {
		if matchesFilters(e, filters) {
			matched = append(matched, e.Clone())
		}
	}
	s.mu.RUnlock()

	// IDs are assigned in insertion order, so sorting by ID ascending first
	// makes the stable timestamp sort break ties by insertion order.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	asc := opts.SortOrder == store.SortAsc
	sort.SliceStable(matched, func(i, j int) bool {
		if asc {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (s *Store) Count(ctx context.Context, filters []store.Filter) (int64, error) {
	entries, err := s.Find(ctx, filters, store.ListOptions{})
	if err != nil {
		return 0, err
	}
	return int64(len(entries)), nil
}

func (s *Store) UpdateFlags(_ context.Context, ownerID, id int64, read, archived *bool) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	if id <= 0 {
		return store.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.OwnerID != ownerID {
		return store.ErrNotFound
	}
	if read != nil {
		e.Read = *read
	}
	if archived != nil {
		e.Archived = *archived
	}
	return nil
}

func (s *Store) Delete(_ context.Context, ownerID, id int64) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	if id <= 0 {
		return store.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) DeleteByOwner(_ context.Context, ownerID int64) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, e := range s.entries {
		if e.OwnerID == ownerID {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) CountBySender(_ context.Context, senderID int64) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, e := range s.entries {
		if e.SenderID == senderID {
			count++
		}
	}
	return count, nil
}
