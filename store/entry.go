package store

import (
	"slices"
	"time"
)

// Entry is one owner's materialized copy of a composed message.
//
// Content fields (SenderID, RecipientIDs, Subject, Body, Timestamp) are fixed
// at creation and identical across every participant's copy of one compose
// action. Read and Archived are owner-scoped and mutable; mutate them via
// Store.UpdateFlags, not by writing the struct back.
type Entry struct {
	ID           int64
	OwnerID      int64
	SenderID     int64
	RecipientIDs []int64
	Subject      string
	Body         string
	Timestamp    time.Time
	Read         bool
	Archived     bool
}

// SentByOwner reports whether this copy belongs to the sender of record.
func (e *Entry) SentByOwner() bool {
	return e.OwnerID == e.SenderID
}

// ReceivedByOwner reports whether the owner is in the recipient set.
// A sender who addressed themselves both sent and received the entry.
func (e *Entry) ReceivedByOwner() bool {
	return slices.Contains(e.RecipientIDs, e.OwnerID)
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.RecipientIDs = slices.Clone(e.RecipientIDs)
	return &c
}

// EntryData contains data for creating a new entry.
// Used by the distribution engine to create per-participant copies.
type EntryData struct {
	OwnerID      int64
	SenderID     int64
	RecipientIDs []int64
	Subject      string
	Body         string
	Timestamp    time.Time
	Read         bool
}

// SortOrder represents the sort direction.
type SortOrder int

const (
	// SortAsc sorts in ascending order.
	SortAsc SortOrder = 1
	// SortDesc sorts in descending order.
	SortDesc SortOrder = -1
)

// ListOptions configures entry listing. The zero value lists everything in
// the default order: timestamp descending, ties in insertion order.
type ListOptions struct {
	Limit     int
	SortOrder SortOrder
}
