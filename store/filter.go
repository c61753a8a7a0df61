package store

import (
	"fmt"
)

// Filter represents a query filter with a field key, comparison operator,
// and value.
type Filter struct {
	key      string
	value    any
	operator string
}

// Key returns the storage field key.
func (f Filter) Key() string { return f.key }

// Value returns the filter value.
func (f Filter) Value() any { return f.value }

// Operator returns the comparison operator (eq, ne, contains).
func (f Filter) Operator() string { return f.operator }

// validOperators is the set of supported filter operators.
var validOperators = map[string]bool{
	"eq":       true,
	"ne":       true,
	"contains": true,
}

// NewFilter creates a filter with the given key, operator, and value.
// Returns ErrFilterInvalid if the key or operator is unsupported.
func NewFilter(key, operator string, value any) (Filter, error) {
	storageKey, ok := EntryFieldKey(key)
	if !ok {
		return Filter{}, fmt.Errorf("%w: unsupported field: %s", ErrFilterInvalid, key)
	}
	if !validOperators[operator] {
		return Filter{}, fmt.Errorf("%w: unsupported operator: %s", ErrFilterInvalid, operator)
	}
	return Filter{key: storageKey, value: value, operator: operator}, nil
}

// EntryFieldKey maps field names to storage keys.
func EntryFieldKey(field string) (string, bool) {
	switch field {
	case "ID", "id":
		return "id", true
	case "OwnerID", "owner_id":
		return "owner_id", true
	case "SenderID", "sender_id":
		return "sender_id", true
	case "RecipientIDs", "recipient_ids":
		return "recipient_ids", true
	case "Read", "read":
		return "read", true
	case "Archived", "archived":
		return "archived", true
	case "Timestamp", "timestamp":
		return "timestamp", true
	default:
		return "", false
	}
}

// Convenience filter constructors for the views the mailbox serves.

// OwnerIs returns a filter for entries owned by a specific user.
func OwnerIs(ownerID int64) Filter {
	return Filter{key: "owner_id", value: ownerID, operator: "eq"}
}

// SenderIs returns a filter for entries whose sender of record is the user.
func SenderIs(senderID int64) Filter {
	return Filter{key: "sender_id", value: senderID, operator: "eq"}
}

// RecipientIs returns a filter for entries addressed to the user.
func RecipientIs(recipientID int64) Filter {
	return Filter{key: "recipient_ids", value: recipientID, operator: "contains"}
}

// ArchivedIs returns a filter on the owner-scoped archived flag.
func ArchivedIs(archived bool) Filter {
	return Filter{key: "archived", value: archived, operator: "eq"}
}

// ReadIs returns a filter on the owner-scoped read flag.
func ReadIs(read bool) Filter {
	return Filter{key: "read", value: read, operator: "eq"}
}
