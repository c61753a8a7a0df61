package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// Compile-time check
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sqlx.DB
	table  string
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgreSQL identity store.
// Call Connect() to initialize the schema.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		table:  "users",
		logger: slog.Default(),
	}
}

// Connect initializes the users table.
func (s *PostgresStore) Connect(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("identity: db is required")
	}

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, s.table)
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	s.logger.Info("connected identity store", "table", s.table)
	return nil
}

// Close is a no-op; the caller owns the database connection.
func (s *PostgresStore) Close(_ context.Context) error {
	return nil
}

func (s *PostgresStore) Register(ctx context.Context, email, password string) (*User, error) {
	normalized, err := ValidateRegistration(email, password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, s.table)

	u := &User{Email: normalized, Password: string(hash)}
	err = s.db.QueryRowContext(ctx, query, normalized, string(hash)).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (s *PostgresStore) Authenticate(ctx context.Context, email, password string) (*User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.LookupByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *PostgresStore) LookupByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT id, email, password_hash, created_at FROM %s WHERE email = $1
	`, s.table)

	var u User
	if err := s.db.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*User, error) {
	query := fmt.Sprintf(`
		SELECT id, email, password_hash, created_at FROM %s WHERE id = $1
	`, s.table)

	var u User
	if err := s.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetBatch(ctx context.Context, ids []int64) ([]*User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, email, password_hash, created_at FROM %s WHERE id = ANY($1)
	`, s.table)

	var rows []User
	if err := s.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	byID := make(map[int64]*User, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	users := make([]*User, len(ids))
	for i, id := range ids {
		users[i] = byID[id]
	}
	return users, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
