package postgres

import (
	"context"
	"fmt"

	"github.com/rbaliyan/webmail/store"
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

	// COALESCE keeps omitted flags untouched: a nil *bool binds as NULL.
	query := fmt.Sprintf(`
		UPDATE %s
		SET read = COALESCE($1, read), archived = COALESCE($2, archived)
		WHERE id = $3 AND owner_id = $4
	`, s.opts.table)

	result, err := s.db.ExecContext(ctx, query, read, archived, id, ownerID)
	if err != nil {
		return fmt.Errorf("update flags: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
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

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND owner_id = $2`, s.opts.table)

	result, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
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

	query := fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1`, s.opts.table)

	result, err := s.db.ExecContext(ctx, query, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete by owner: %w", err)
	}

	return result.RowsAffected()
}

func (s *Store) CountBySender(ctx context.Context, senderID int64) (int64, error) {
	return s.Count(ctx, []store.Filter{store.SenderIs(senderID)})
}
