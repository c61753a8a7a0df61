package memory

import (
	"slices"

	"github.com/rbaliyan/webmail/store"
)

func matchesFilters(e *store.Entry, filters []store.Filter) bool {
	for _, f := range filters {
		if !matchesFilter(e, f) {
			return false
		}
	}
	return true
}

func matchesFilter(e *store.Entry, f store.Filter) bool {
	key := f.Key()
	value := f.Value()
	op := f.Operator()

	// The recipient set is the only slice field.
	if key == "recipient_ids" {
		id, ok := value.(int64)
		if !ok {
			return false
		}
		contains := slices.Contains(e.RecipientIDs, id)
		switch op {
		case "contains", "eq", "":
			return contains
		case "ne":
			return !contains
		default:
			return true
		}
	}

	var fieldValue any
	switch key {
	case "id":
		fieldValue = e.ID
	case "owner_id":
		fieldValue = e.OwnerID
	case "sender_id":
		fieldValue = e.SenderID
	case "read":
		fieldValue = e.Read
	case "archived":
		fieldValue = e.Archived
	case "timestamp":
		fieldValue = e.Timestamp
	default:
		return true // Unknown field, skip filter
	}

	switch op {
	case "eq", "":
		return fieldValue == value
	case "ne":
		return fieldValue != value
	default:
		return true
	}
}
