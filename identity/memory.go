package identity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Compile-time check
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store with in-memory storage.
// Thread-safe for concurrent use. Not suitable for production.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[int64]*User
	byEmail   map[string]*User
	nextID    int64
	connected int32
}

// NewMemoryStore creates a new in-memory identity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[int64]*User),
		byEmail: make(map[string]*User),
	}
}

// Connect marks the store as connected.
func (s *MemoryStore) Connect(_ context.Context) error {
	atomic.StoreInt32(&s.connected, 1)
	return nil
}

// Close marks the store as disconnected.
func (s *MemoryStore) Close(_ context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

func (s *MemoryStore) Register(_ context.Context, email, password string) (*User, error) {
	normalized, err := ValidateRegistration(email, password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[normalized]; exists {
		return nil, ErrDuplicateEmail
	}

	s.nextID++
	u := &User{
		ID:        s.nextID,
		Email:     normalized,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u

	clone := *u
	return &clone, nil
}

func (s *MemoryStore) Authenticate(_ context.Context, email, password string) (*User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	s.mu.RLock()
	u, ok := s.byEmail[normalized]
	s.mu.RUnlock()
	if !ok {
		// Burn a comparison anyway so unknown email costs the same as a
		// wrong password.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	clone := *u
	return &clone, nil
}

// dummyHash is a valid bcrypt hash of an unguessable value, used to equalize
// authentication timing for unknown emails.
var dummyHash = func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("webmail-dummy-credential"), bcrypt.DefaultCost)
	return h
}()

func (s *MemoryStore) LookupByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *MemoryStore) GetBatch(_ context.Context, ids []int64) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, len(ids))
	for i, id := range ids {
		if u, ok := s.byID[id]; ok {
			clone := *u
			users[i] = &clone
		}
	}
	return users, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, u.Email)
	return nil
}
