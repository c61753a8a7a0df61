package webmail

import (
	"context"
	"fmt"
	"time"

	"github.com/rbaliyan/webmail/store"
)

// TimestampLayout is the display format for entry timestamps, e.g.
// "Aug 09 2026, 03:04 PM".
const TimestampLayout = "Jan 02 2006, 03:04 PM"

// Message is a user's view of one mailbox entry.
// It carries the owner's copy plus the mailbox it was loaded through, so
// view rendering can resolve participant emails.
type Message struct {
	entry   *store.Entry
	mailbox *userMailbox
}

func newMessage(entry *store.Entry, m *userMailbox) *Message {
	return &Message{entry: entry, mailbox: m}
}

// ID returns the entry ID of this copy.
func (msg *Message) ID() int64 { return msg.entry.ID }

// SenderID returns the user ID of the sender of record.
func (msg *Message) SenderID() int64 { return msg.entry.SenderID }

// RecipientIDs returns the shared recipient set.
func (msg *Message) RecipientIDs() []int64 { return msg.entry.RecipientIDs }

// Subject returns the message subject.
func (msg *Message) Subject() string { return msg.entry.Subject }

// Body returns the message body.
func (msg *Message) Body() string { return msg.entry.Body }

// Timestamp returns the shared compose timestamp.
func (msg *Message) Timestamp() time.Time { return msg.entry.Timestamp }

// Read reports whether the owner has read this copy.
func (msg *Message) Read() bool { return msg.entry.Read }

// Archived reports whether the owner has archived this copy.
func (msg *Message) Archived() bool { return msg.entry.Archived }

// Sent reports whether this copy belongs to the sender of record.
func (msg *Message) Sent() bool { return msg.entry.SentByOwner() }

// Entry returns the underlying storage entry.
func (msg *Message) Entry() *store.Entry { return msg.entry }

// EntryView is the serialized shape of an entry, with sender and recipients
// rendered as email addresses and the timestamp in display format.
type EntryView struct {
	ID         int64    `json:"id"`
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Timestamp  string   `json:"timestamp"`
	Read       bool     `json:"read"`
	Archived   bool     `json:"archived"`
}

// View resolves participant emails and returns the serialized shape of the
// entry. Users deleted after the entry was created render as empty addresses.
func (msg *Message) View(ctx context.Context) (*EntryView, error) {
	ids := make([]int64, 0, len(msg.entry.RecipientIDs)+1)
	ids = append(ids, msg.entry.SenderID)
	ids = append(ids, msg.entry.RecipientIDs...)

	resolved, err := msg.mailbox.service.resolver.ResolveBatch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve participants: %w", err)
	}

	emails := make([]string, len(resolved))
	for i, r := range resolved {
		if r != nil {
			emails[i] = r.Email
		}
	}

	return &EntryView{
		ID:         msg.entry.ID,
		Sender:     emails[0],
		Recipients: emails[1:],
		Subject:    msg.entry.Subject,
		Body:       msg.entry.Body,
		Timestamp:  msg.entry.Timestamp.Format(TimestampLayout),
		Read:       msg.entry.Read,
		Archived:   msg.entry.Archived,
	}, nil
}

// Views resolves a batch of messages into serialized shapes.
// All participants across the batch are resolved in one resolver call.
func Views(ctx context.Context, msgs []*Message) ([]*EntryView, error) {
	if len(msgs) == 0 {
		return []*EntryView{}, nil
	}

	// Collect the distinct participant IDs across the batch.
	seen := make(map[int64]bool)
	var ids []int64
	for _, msg := range msgs {
		if !seen[msg.entry.SenderID] {
			seen[msg.entry.SenderID] = true
			ids = append(ids, msg.entry.SenderID)
		}
		for _, id := range msg.entry.RecipientIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	resolved, err := msgs[0].mailbox.service.resolver.ResolveBatch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve participants: %w", err)
	}

	emailByID := make(map[int64]string, len(ids))
	for i, r := range resolved {
		if r != nil {
			emailByID[ids[i]] = r.Email
		}
	}

	views := make([]*EntryView, len(msgs))
	for i, msg := range msgs {
		recipients := make([]string, len(msg.entry.RecipientIDs))
		for j, id := range msg.entry.RecipientIDs {
			recipients[j] = emailByID[id]
		}
		views[i] = &EntryView{
			ID:         msg.entry.ID,
			Sender:     emailByID[msg.entry.SenderID],
			Recipients: recipients,
			Subject:    msg.entry.Subject,
			Body:       msg.entry.Body,
			Timestamp:  msg.entry.Timestamp.Format(TimestampLayout),
			Read:       msg.entry.Read,
			Archived:   msg.entry.Archived,
		}
	}
	return views, nil
}
