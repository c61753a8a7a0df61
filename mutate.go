package webmail

import (
	"context"
	"fmt"
	"time"

	"github.com/rbaliyan/webmail/store"
	"go.opentelemetry.io/otel/attribute"
)

// UpdateFlags applies a partial flag update to the user's copy of an entry.
// A nil field leaves the stored value untouched, so marking read does not
// disturb the archived flag and vice versa.
func (m *userMailbox) UpdateFlags(ctx context.Context, entryID int64, flags Flags) error {
	if err := m.checkAccess(); err != nil {
		return err
	}
	if entryID <= 0 {
		return ErrInvalidID
	}
	if flags.IsZero() {
		// Nothing to change, but the entry must still exist and belong to
		// the caller; an empty update must not leak foreign entries.
		if _, err := m.service.store.Get(ctx, m.userID, entryID); err != nil {
			if store.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("update flags: %w", err)
		}
		return nil
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "webmail.update_flags",
		attribute.Int64("user_id", m.userID),
		attribute.Int64("entry_id", entryID),
	)
	start := time.Now()
	var updateErr error
	defer func() {
		endSpan(updateErr)
		m.service.otel.recordUpdate(ctx, time.Since(start), updateErr)
	}()

	if err := m.service.store.UpdateFlags(ctx, m.userID, entryID, flags.Read, flags.Archived); err != nil {
		if store.IsNotFound(err) {
			updateErr = ErrNotFound
			return updateErr
		}
		updateErr = fmt.Errorf("update flags: %w", err)
		return updateErr
	}

	// Publish read event (only for marking as read, not unread)
	if flags.Read != nil && *flags.Read {
		if err := m.service.events.MessageRead.Publish(ctx, MessageReadEvent{
			EntryID: entryID,
			UserID:  m.userID,
			ReadAt:  time.Now().UTC(),
		}); err != nil {
			if m.service.opts.eventErrorsFatal {
				updateErr = &EventPublishError{
					Event:   "MessageRead",
					EntryID: entryID,
					Err:     err,
				}
				return updateErr
			}
			m.service.opts.safeEventPublishFailure("MessageRead", err)
		}
	}

	return nil
}

// Delete removes the user's copy of an entry. Copies held by other
// participants of the same compose action are unaffected; in particular the
// sender's copy survives every recipient deleting theirs.
func (m *userMailbox) Delete(ctx context.Context, entryID int64) error {
	if err := m.checkAccess(); err != nil {
		return err
	}
	if entryID <= 0 {
		return ErrInvalidID
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "webmail.delete",
		attribute.Int64("user_id", m.userID),
		attribute.Int64("entry_id", entryID),
	)
	start := time.Now()
	var deleteErr error
	defer func() {
		endSpan(deleteErr)
		m.service.otel.recordDelete(ctx, time.Since(start), deleteErr)
	}()

	if err := m.service.store.Delete(ctx, m.userID, entryID); err != nil {
		if store.IsNotFound(err) {
			deleteErr = ErrNotFound
			return deleteErr
		}
		deleteErr = fmt.Errorf("delete entry: %w", err)
		return deleteErr
	}

	if err := m.service.events.MessageDeleted.Publish(ctx, MessageDeletedEvent{
		EntryID:   entryID,
		UserID:    m.userID,
		DeletedAt: time.Now().UTC(),
	}); err != nil {
		if m.service.opts.eventErrorsFatal {
			deleteErr = &EventPublishError{
				Event:   "MessageDeleted",
				EntryID: entryID,
				Err:     err,
			}
			return deleteErr
		}
		m.service.opts.safeEventPublishFailure("MessageDeleted", err)
	}

	return nil
}
