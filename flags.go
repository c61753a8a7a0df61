package webmail

// Pre-allocated boolean pointers for efficient Flags creation.
var (
	ptrTrue  = ptr(true)
	ptrFalse = ptr(false)
)

func ptr(b bool) *bool { return &b }

// Flags represents entry flags that can be updated atomically.
// Use nil values to indicate no change: an update carrying only Read leaves
// Archived untouched, and vice versa.
type Flags struct {
	Read     *bool // nil = no change, true = mark read, false = mark unread
	Archived *bool // nil = no change, true = archive, false = unarchive
}

// IsZero reports whether the flags carry no changes.
func (f Flags) IsZero() bool {
	return f.Read == nil && f.Archived == nil
}

// WithRead returns flags with read status set.
func (f Flags) WithRead(read bool) Flags {
	if read {
		f.Read = ptrTrue
	} else {
		f.Read = ptrFalse
	}
	return f
}

// WithArchived returns flags with archived status set.
func (f Flags) WithArchived(archived bool) Flags {
	if archived {
		f.Archived = ptrTrue
	} else {
		f.Archived = ptrFalse
	}
	return f
}

// MarkRead returns flags to mark an entry as read.
func MarkRead() Flags {
	return Flags{Read: ptrTrue}
}

// MarkUnread returns flags to mark an entry as unread.
func MarkUnread() Flags {
	return Flags{Read: ptrFalse}
}

// MarkArchived returns flags to archive an entry.
func MarkArchived() Flags {
	return Flags{Archived: ptrTrue}
}

// MarkUnarchived returns flags to unarchive an entry.
func MarkUnarchived() Flags {
	return Flags{Archived: ptrFalse}
}
