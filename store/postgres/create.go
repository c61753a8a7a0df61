package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rbaliyan/webmail/store"
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

	// One transaction for the whole fan-out: either every participant's copy
	// is inserted or none are.
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", store.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, sender_id, recipient_ids, subject, body, read, archived, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
		RETURNING id, timestamp
	`, s.opts.table)

	now := time.Now().UTC()
	entries := make([]*store.Entry, 0, len(data))

	for _, d := range data {
		ts := d.Timestamp
		if ts.IsZero() {
			ts = now
		}

		var id int64
		var stored time.Time
		err := tx.QueryRowContext(ctx, query,
			d.OwnerID, d.SenderID, pq.Array(d.RecipientIDs), d.Subject, d.Body, d.Read, ts,
		).Scan(&id, &stored)
		if err != nil {
			return nil, fmt.Errorf("insert entry: %w", err)
		}

		entries = append(entries, &store.Entry{
			ID:           id,
			OwnerID:      d.OwnerID,
			SenderID:     d.SenderID,
			RecipientIDs: append([]int64(nil), d.RecipientIDs...),
			Subject:      d.Subject,
			Body:         d.Body,
			Read:         d.Read,
			Timestamp:    stored,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", store.ErrTransactionFailed, err)
	}

	return entries, nil
}
