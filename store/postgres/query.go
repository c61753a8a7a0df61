package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rbaliyan/webmail/store"
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

	// Owner in the predicate: a foreign-owned row scans like a missing row.
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND owner_id = $2
	`, entryColumns, s.opts.table)

	var row entryRow
	if err := s.db.GetContext(ctx, &row, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}

	return row.entry(), nil
}

func (s *Store) Find(ctx context.Context, filters []store.Filter, opts store.ListOptions) ([]*store.Entry, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	where, args, err := buildWhere(filters)
	if err != nil {
		return nil, err
	}

	// Ties on timestamp resolve by id: BIGSERIAL assigns ids in insertion
	// order, which keeps equal-timestamp entries stable.
	order := "timestamp DESC, id ASC"
	if opts.SortOrder == store.SortAsc {
		order = "timestamp ASC, id ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s`, entryColumns, s.opts.table, where, order)
	if opts.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, opts.Limit)
	}

	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}

	entries := make([]*store.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].entry()
	}
	return entries, nil
}

func (s *Store) Count(ctx context.Context, filters []store.Filter) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	where, args, err := buildWhere(filters)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, s.opts.table, where)

	var count int64
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// buildWhere translates filters into a WHERE clause with positional args.
func buildWhere(filters []store.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	conditions := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))

	for _, f := range filters {
		key, ok := store.EntryFieldKey(f.Key())
		if !ok {
			return "", nil, fmt.Errorf("%w: unsupported field: %s", store.ErrFilterInvalid, f.Key())
		}
		args = append(args, f.Value())
		placeholder := fmt.Sprintf("$%d", len(args))

		switch f.Operator() {
		case "eq", "":
			conditions = append(conditions, fmt.Sprintf("%s = %s", key, placeholder))
		case "ne":
			conditions = append(conditions, fmt.Sprintf("%s <> %s", key, placeholder))
		case "contains":
			conditions = append(conditions, fmt.Sprintf("%s = ANY(%s)", placeholder, key))
		default:
			return "", nil, fmt.Errorf("%w: unsupported operator: %s", store.ErrFilterInvalid, f.Operator())
		}
	}

	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}
