package webmail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rbaliyan/webmail/store"
	"go.opentelemetry.io/otel/attribute"
)

// splitRecipients splits a comma-separated recipient string into trimmed
// tokens. The token list for an empty input is [""], matching the shape
// callers check for the no-recipients case.
func splitRecipients(recipients string) []string {
	parts := strings.Split(recipients, ",")
	tokens := make([]string, len(parts))
	for i, p := range parts {
		tokens[i] = strings.TrimSpace(p)
	}
	return tokens
}

// deduplicateIDs returns unique IDs preserving first-seen order.
func deduplicateIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}

// validateCompose checks content limits before any resolution or writes.
func (m *userMailbox) validateCompose(subject, body string) error {
	limits := m.service.opts
	if len(subject) > limits.maxSubjectLength {
		return fmt.Errorf("%w: %d > %d", ErrSubjectTooLong, len(subject), limits.maxSubjectLength)
	}
	if len(body) > limits.maxBodySize {
		return fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, len(body), limits.maxBodySize)
	}
	return nil
}

// resolveRecipients resolves every token to a user ID, in order.
// The first token that does not resolve aborts the whole compose; an empty
// token is treated like any other unknown address.
func (m *userMailbox) resolveRecipients(ctx context.Context, tokens []string) ([]int64, error) {
	ids := make([]int64, 0, len(tokens))
	for _, token := range tokens {
		r, err := m.service.resolver.ResolveEmail(ctx, token)
		if err != nil || r == nil {
			return nil, &UnknownRecipientError{Email: token}
		}
		ids = append(ids, r.UserID)
	}
	return ids, nil
}

// Compose sends a message to the given comma-separated recipient emails.
//
// The fan-out creates one entry per distinct participant: the sender plus
// every resolved recipient, deduplicated. The sender's own copy starts read;
// every other copy starts unread. All copies share one timestamp and one
// recipient list, so each participant sees the same message.
//
// Recipient resolution happens before any entry is written and aborts on the
// first unknown address, so a failed compose creates nothing.
func (m *userMailbox) Compose(ctx context.Context, recipients, subject, body string) (*ComposeResult, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}

	tokens := splitRecipients(recipients)
	if len(tokens) == 1 && tokens[0] == "" {
		return nil, ErrNoRecipients
	}

	if err := m.validateCompose(subject, body); err != nil {
		return nil, err
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "webmail.compose",
		attribute.Int64("user_id", m.userID),
		attribute.Int("recipient_count", len(tokens)),
	)
	start := time.Now()
	var composeErr error
	var participantCount int
	defer func() {
		endSpan(composeErr)
		m.service.otel.recordCompose(ctx, time.Since(start), participantCount, composeErr)
	}()

	// Resolve before acquiring the semaphore so unknown recipients don't
	// consume a fan-out slot.
	recipientIDs, err := m.resolveRecipients(ctx, tokens)
	if err != nil {
		composeErr = err
		return nil, composeErr
	}
	recipientIDs = deduplicateIDs(recipientIDs)

	if len(recipientIDs) > m.service.opts.maxRecipientCount {
		composeErr = fmt.Errorf("%w: %d > %d", ErrTooManyRecipients,
			len(recipientIDs), m.service.opts.maxRecipientCount)
		return nil, composeErr
	}

	// Participant set: sender first, then recipients other than the sender.
	participants := make([]int64, 0, len(recipientIDs)+1)
	participants = append(participants, m.userID)
	for _, id := range recipientIDs {
		if id != m.userID {
			participants = append(participants, id)
		}
	}
	participantCount = len(participants)

	if err := m.service.composeSem.Acquire(ctx, 1); err != nil {
		composeErr = err
		return nil, composeErr
	}
	defer m.service.composeSem.Release(1)

	now := time.Now().UTC()
	batch := make([]store.EntryData, len(participants))
	for i, owner := range participants {
		batch[i] = store.EntryData{
			OwnerID:      owner,
			SenderID:     m.userID,
			RecipientIDs: recipientIDs,
			Subject:      subject,
			Body:         body,
			Timestamp:    now,
			Read:         owner == m.userID,
		}
	}

	created, err := m.service.store.CreateEntries(ctx, batch)
	if err != nil {
		composeErr = fmt.Errorf("create entries: %w", err)
		return nil, composeErr
	}

	// The sender's copy leads the batch; CreateEntries preserves order.
	senderEntryID := created[0].ID

	result := &ComposeResult{
		EntryID:      senderEntryID,
		Participants: len(created),
		RecipientIDs: recipientIDs,
	}

	if err := m.service.events.MessageSent.Publish(ctx, MessageSentEvent{
		EntryID:      senderEntryID,
		SenderID:     m.userID,
		RecipientIDs: recipientIDs,
		Subject:      subject,
		SentAt:       now,
	}); err != nil {
		if m.service.opts.eventErrorsFatal {
			// The fan-out succeeded; report the event failure alongside it.
			composeErr = &EventPublishError{
				Event:   "MessageSent",
				EntryID: senderEntryID,
				Err:     err,
			}
			return result, composeErr
		}
		m.service.opts.safeEventPublishFailure("MessageSent", err)
	}

	m.service.logger.Debug("composed message",
		"sender_id", m.userID,
		"entry_id", senderEntryID,
		"participants", len(created),
	)

	return result, nil
}
