package webmail

import (
	"context"
	"fmt"
	"time"

	"github.com/rbaliyan/event/v3"
)

// Event names for webmail events.
const (
	EventNameMessageSent    = "webmail.message.sent"
	EventNameMessageRead    = "webmail.message.read"
	EventNameMessageDeleted = "webmail.message.deleted"
)

// MessageSentEvent is published when a compose fan-out completes.
// This is the primary event for notifying recipients of new messages.
type MessageSentEvent struct {
	EntryID      int64     `json:"entry_id"`
	SenderID     int64     `json:"sender_id"`
	RecipientIDs []int64   `json:"recipient_ids"`
	Subject      string    `json:"subject"`
	SentAt       time.Time `json:"sent_at"`
}

// MessageReadEvent is published when an entry is marked as read.
// Use this for read receipts and tracking message engagement.
type MessageReadEvent struct {
	EntryID int64     `json:"entry_id"`
	UserID  int64     `json:"user_id"`
	ReadAt  time.Time `json:"read_at"`
}

// MessageDeletedEvent is published when a user deletes their copy of an entry.
// Other participants keep their copies; this reports one owner's deletion only.
type MessageDeletedEvent struct {
	EntryID   int64     `json:"entry_id"`
	UserID    int64     `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// ServiceEvents provides access to per-service event instances.
// Each service creates its own events bound to its own event bus,
// enabling independent event routing and parallel testing.
//
// Subscribe to events:
//
//	svc.Events().MessageSent.Subscribe(ctx, handler)
//	svc.Events().MessageRead.Subscribe(ctx, handler)
//	svc.Events().MessageDeleted.Subscribe(ctx, handler)
type ServiceEvents struct {
	// MessageSent is published when a compose fan-out completes.
	MessageSent event.Event[MessageSentEvent]

	// MessageRead is published when an entry is marked as read.
	MessageRead event.Event[MessageReadEvent]

	// MessageDeleted is published when a user deletes their copy.
	MessageDeleted event.Event[MessageDeletedEvent]
}

// newServiceEvents creates per-service event instances with a unique name prefix.
func newServiceEvents(namePrefix string) *ServiceEvents {
	return &ServiceEvents{
		MessageSent:    event.New[MessageSentEvent](namePrefix + "." + EventNameMessageSent),
		MessageRead:    event.New[MessageReadEvent](namePrefix + "." + EventNameMessageRead),
		MessageDeleted: event.New[MessageDeletedEvent](namePrefix + "." + EventNameMessageDeleted),
	}
}

// registerServiceEvents registers per-service events with the given bus.
func registerServiceEvents(ctx context.Context, bus *event.Bus, events *ServiceEvents) error {
	if err := event.Register(ctx, bus, events.MessageSent); err != nil {
		return fmt.Errorf("register MessageSent: %w", err)
	}
	if err := event.Register(ctx, bus, events.MessageRead); err != nil {
		return fmt.Errorf("register MessageRead: %w", err)
	}
	if err := event.Register(ctx, bus, events.MessageDeleted); err != nil {
		return fmt.Errorf("register MessageDeleted: %w", err)
	}
	return nil
}
