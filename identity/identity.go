// Package identity provides user accounts for the webmail service.
//
// Users register with an email address that doubles as their login name.
// Credentials are stored only as bcrypt hashes and are never serialized.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// Sentinel errors for the identity package.
var (
	// ErrNotFound is returned when a user cannot be found.
	ErrNotFound = errors.New("identity: user not found")

	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("identity: email already registered")

	// ErrWeakPassword is returned when the password is shorter than
	// MinPasswordLength.
	ErrWeakPassword = errors.New("identity: password too weak")

	// ErrMissingField is returned when email or password is empty.
	ErrMissingField = errors.New("identity: missing required field")

	// ErrInvalidEmail is returned when the email does not parse as an address.
	ErrInvalidEmail = errors.New("identity: invalid email address")

	// ErrInvalidCredentials is returned on authentication failure. Unknown
	// email and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
)

// User is a registered account.
// PasswordHash is excluded from any serialized form.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password_hash"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// Store holds user accounts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	// Register creates a new account. The email is normalized (trimmed,
	// lowercased) and must be unique; the password is stored as a bcrypt hash.
	Register(ctx context.Context, email, password string) (*User, error)

	// Authenticate verifies credentials against the stored hash.
	// Returns ErrInvalidCredentials for unknown email or wrong password.
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// LookupByEmail resolves an email to a user. Used by the distribution
	// engine to resolve recipient tokens.
	LookupByEmail(ctx context.Context, email string) (*User, error)

	// Get returns a user by ID.
	Get(ctx context.Context, id int64) (*User, error)

	// GetBatch returns users for the given IDs, in input order.
	// Unknown IDs have nil entries.
	GetBatch(ctx context.Context, ids []int64) ([]*User, error)

	// Delete removes an account. Entry cascade and sender protection are
	// enforced by the webmail service, not here.
	Delete(ctx context.Context, id int64) error
}

// NormalizeEmail trims, lowercases, and validates an email address.
func NormalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", ErrMissingField
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", ErrInvalidEmail
	}
	return addr.Address, nil
}

// ValidateRegistration checks registration input before any storage write.
func ValidateRegistration(email, password string) (normalized string, err error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", ErrMissingField
	}
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	return NormalizeEmail(email)
}
