package webmail

import (
	"context"

	"github.com/rbaliyan/webmail/store"
)

// Type aliases for commonly used store types.
// These allow users to work with the webmail package without importing store directly.
type (
	ListOptions = store.ListOptions
	SortOrder   = store.SortOrder
)

// Re-exported sort order constants.
const (
	SortAsc  = store.SortAsc
	SortDesc = store.SortDesc
)

// Mailbox view names accepted by MessageLister.List.
const (
	MailboxInbox   = "inbox"
	MailboxSent    = "sent"
	MailboxArchive = "archive"
)

// Service manages the webmail system (server-side).
// It handles connections to storage and creates mailbox clients.
type Service interface {
	// IsConnected returns true if the service is connected and ready.
	IsConnected() bool

	// Connect establishes connections to storage backends.
	Connect(ctx context.Context) error
	// Close closes all connections, draining in-flight composes first.
	Close(ctx context.Context) error
	// Client returns a mailbox client for the given user.
	// The returned client shares the service's connections.
	// Connection state is checked lazily on each operation; if the service
	// is not connected, operations will return ErrNotConnected.
	Client(userID int64) Mailbox
	// DeleteUser administratively removes an account, cascading to entries
	// the user owns. Fails with ErrSenderProtected while the user is the
	// sender of record of any surviving entry.
	DeleteUser(ctx context.Context, userID int64) error
	// Events returns per-service event instances for subscribing and publishing.
	Events() *ServiceEvents
}

// MessageReader provides single entry retrieval.
type MessageReader interface {
	// Get retrieves an entry by ID. An entry that does not exist and an
	// entry owned by another user both return ErrNotFound.
	Get(ctx context.Context, entryID int64) (*Message, error)
}

// MessageLister provides the three mailbox views.
type MessageLister interface {
	// List returns the named mailbox view, ordered by timestamp descending
	// with ties in insertion order. Valid names: inbox, sent, archive.
	// Any other name fails with ErrInvalidMailbox.
	List(ctx context.Context, mailbox string) ([]*Message, error)

	// Inbox lists entries the user received that are not archived.
	Inbox(ctx context.Context) ([]*Message, error)
	// Sent lists entries the user sent, regardless of the archived flag.
	Sent(ctx context.Context) ([]*Message, error)
	// Archive lists entries the user received and archived.
	Archive(ctx context.Context) ([]*Message, error)
}

// MessageComposer provides the compose fan-out.
type MessageComposer interface {
	// Compose sends a message to the comma-separated recipient emails.
	// One entry is created per distinct participant (sender included);
	// the sender's copy starts read, every other copy unread. Resolution
	// happens before any write, so failure creates nothing.
	Compose(ctx context.Context, recipients, subject, body string) (*ComposeResult, error)
}

// MessageMutator provides mutation operations on entries by ID.
type MessageMutator interface {
	// UpdateFlags applies a partial flag update to the user's copy.
	UpdateFlags(ctx context.Context, entryID int64, flags Flags) error

	// Delete removes the user's copy only; other participants keep theirs.
	Delete(ctx context.Context, entryID int64) error
}

// Mailbox provides webmail functionality for a single user.
// This is the main interface for mailbox operations.
//
// Composed of focused client interfaces:
//   - MessageReader: single entry retrieval (Get)
//   - MessageLister: the inbox/sent/archive views (List, Inbox, Sent, Archive)
//   - MessageComposer: the compose fan-out (Compose)
//   - MessageMutator: flag updates and per-copy deletion
type Mailbox interface {
	UserID() int64
	MessageReader
	MessageLister
	MessageComposer
	MessageMutator

	// UnreadCount returns the number of unread entries in the user's inbox.
	UnreadCount(ctx context.Context) (int64, error)
}

// ComposeResult reports a successful fan-out.
type ComposeResult struct {
	// EntryID is the ID of the sender's own copy.
	EntryID int64
	// Participants is the number of entries created: |{sender} ∪ recipients|.
	Participants int
	// RecipientIDs is the resolved, deduplicated recipient set shared by
	// every copy.
	RecipientIDs []int64
}
