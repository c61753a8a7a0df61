package webmail

import (
	"context"
	"fmt"
	"time"

	"github.com/rbaliyan/webmail/store"
	"go.opentelemetry.io/otel/attribute"
)

// Get retrieves an entry by ID.
// Entries owned by another user and entries that do not exist both return
// ErrNotFound; callers cannot probe for existence.
func (m *userMailbox) Get(ctx context.Context, entryID int64) (*Message, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}
	if entryID <= 0 {
		return nil, ErrInvalidID
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "webmail.get",
		attribute.Int64("user_id", m.userID),
		attribute.Int64("entry_id", entryID),
	)
	start := time.Now()
	var getErr error
	defer func() {
		endSpan(getErr)
		m.service.otel.recordGet(ctx, time.Since(start), getErr)
	}()

	entry, err := m.service.store.Get(ctx, m.userID, entryID)
	if err != nil {
		if store.IsNotFound(err) {
			getErr = ErrNotFound
			return nil, getErr
		}
		getErr = fmt.Errorf("get entry: %w", err)
		return nil, getErr
	}

	return newMessage(entry, m), nil
}

// List returns the named mailbox view: inbox, sent, or archive.
func (m *userMailbox) List(ctx context.Context, mailbox string) ([]*Message, error) {
	switch mailbox {
	case MailboxInbox:
		return m.Inbox(ctx)
	case MailboxSent:
		return m.Sent(ctx)
	case MailboxArchive:
		return m.Archive(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidMailbox, mailbox)
	}
}

// Inbox returns entries the user received that are not archived.
// A sender who addressed themselves sees that entry here too.
func (m *userMailbox) Inbox(ctx context.Context) ([]*Message, error) {
	return m.list(ctx, MailboxInbox, []store.Filter{
		store.OwnerIs(m.userID),
		store.RecipientIs(m.userID),
		store.ArchivedIs(false),
	})
}

// Sent returns entries the user sent. Archiving does not hide entries from
// this view.
func (m *userMailbox) Sent(ctx context.Context) ([]*Message, error) {
	return m.list(ctx, MailboxSent, []store.Filter{
		store.OwnerIs(m.userID),
		store.SenderIs(m.userID),
	})
}

// Archive returns entries the user received and archived.
func (m *userMailbox) Archive(ctx context.Context) ([]*Message, error) {
	return m.list(ctx, MailboxArchive, []store.Filter{
		store.OwnerIs(m.userID),
		store.RecipientIs(m.userID),
		store.ArchivedIs(true),
	})
}

// list runs an owner-scoped Find with OTel instrumentation.
func (m *userMailbox) list(ctx context.Context, mailbox string, filters []store.Filter) ([]*Message, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "webmail.list",
		attribute.Int64("user_id", m.userID),
		attribute.String("mailbox", mailbox),
	)
	start := time.Now()
	var listErr error
	var resultCount int
	defer func() {
		endSpan(listErr)
		m.service.otel.recordList(ctx, time.Since(start), mailbox, resultCount, listErr)
	}()

	entries, err := m.service.store.Find(ctx, filters, store.ListOptions{})
	if err != nil {
		listErr = fmt.Errorf("list %s: %w", mailbox, err)
		return nil, listErr
	}
	resultCount = len(entries)

	msgs := make([]*Message, len(entries))
	for i, e := range entries {
		msgs[i] = newMessage(e, m)
	}
	return msgs, nil
}

// UnreadCount returns the number of unread entries in the user's inbox.
func (m *userMailbox) UnreadCount(ctx context.Context) (int64, error) {
	if err := m.checkAccess(); err != nil {
		return 0, err
	}

	count, err := m.service.store.Count(ctx, []store.Filter{
		store.OwnerIs(m.userID),
		store.RecipientIs(m.userID),
		store.ArchivedIs(false),
		store.ReadIs(false),
	})
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
