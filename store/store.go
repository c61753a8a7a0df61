// Package store provides interfaces and types for webmail entry storage.
// Implementations are in store/memory, store/postgres, and store/mongo subpackages.
//
// # Architectural Principle: No Distributed Locks
//
// All concurrency concerns are handled through database-native atomicity:
//
//  1. Atomic operations: single-statement updates (PostgreSQL UPDATE ... WHERE,
//     MongoDB updateOne) that the engine guarantees to be atomic.
//
//  2. Transactional batches: the compose fan-out creates every participant's
//     copy in one transaction. Either all copies exist or none do - a failure
//     partway through leaves no partial fan-out visible to any reader.
//
//  3. Ownership in the predicate: reads and mutations always carry the owner
//     in the WHERE clause, so a row owned by someone else is indistinguishable
//     from a row that does not exist.
package store

import (
	"context"
)

// Store is the storage interface for mailbox entries.
//
// All operations must be safe for concurrent use. Implementations must use
// database-level atomicity (transactions, atomic operations) rather than
// external locking mechanisms. See package documentation for details.
type Store interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	EntryReader
	EntryWriter
	EntryCreator
	OwnerMaintenance
}

// EntryReader provides read operations for mailbox entries.
type EntryReader interface {
	// Get retrieves an entry by ID, scoped to the given owner.
	// Returns ErrNotFound when the entry does not exist or belongs to a
	// different owner - the two cases are deliberately indistinguishable.
	Get(ctx context.Context, ownerID, id int64) (*Entry, error)

	// Find retrieves entries matching the filters, ordered by timestamp
	// descending with ties broken by insertion order.
	Find(ctx context.Context, filters []Filter, opts ListOptions) ([]*Entry, error)

	// Count returns the count of entries matching the filters.
	Count(ctx context.Context, filters []Filter) (int64, error)
}

// EntryWriter provides mutation operations for mailbox entries.
// Mutations are owner-scoped: a mismatched owner behaves like a missing row.
type EntryWriter interface {
	// UpdateFlags applies a partial flag update. A nil field is left
	// untouched; a non-nil field is set to its value.
	UpdateFlags(ctx context.Context, ownerID, id int64, read, archived *bool) error

	// Delete removes the owner's copy of an entry. Copies owned by other
	// participants of the same compose action are unaffected.
	Delete(ctx context.Context, ownerID, id int64) error
}

// EntryCreator provides entry creation operations.
//
// Concurrency: all operations rely on database-level atomicity.
type EntryCreator interface {
	// CreateEntry creates a single entry. Pure storage primitive; the
	// caller is responsible for recipient validation.
	CreateEntry(ctx context.Context, data EntryData) (*Entry, error)

	// CreateEntries creates multiple entries atomically.
	//
	// This operation MUST be all-or-nothing. Implementations should use:
	//   - PostgreSQL: multi-row INSERT inside a transaction
	//   - MongoDB: ordered insertMany after atomic ID allocation
	//
	// The compose fan-out depends on this guarantee: if the operation fails,
	// no participant sees a partial set of copies.
	CreateEntries(ctx context.Context, data []EntryData) ([]*Entry, error)
}

// OwnerMaintenance supports administrative user deletion.
// Deleting a user cascades to entries they own but must be refused while
// they are the sender of record of any entry, matching the original
// cascade/protect relationship.
type OwnerMaintenance interface {
	// DeleteByOwner removes every entry owned by the given user and
	// returns the number of entries removed.
	DeleteByOwner(ctx context.Context, ownerID int64) (int64, error)

	// CountBySender returns the number of entries (any owner) whose sender
	// of record is the given user.
	CountBySender(ctx context.Context, senderID int64) (int64, error)
}
