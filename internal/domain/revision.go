package domain

import "time"

// RevisionReason records which mutation produced a revision snapshot.
type RevisionReason string

const (
	RevisionModify RevisionReason = "modify"
	RevisionDelete RevisionReason = "delete"
)

// EntryRevision is an immutable snapshot of an entry (with its lines) taken
// at the moment of a modify or delete. Revisions are append-only; nothing in
// normal operation mutates or removes them. They exist for audit and manual
// recovery.
type EntryRevision struct {
	ID        string
	EntryID   string
	Reason    RevisionReason
	ActorID   string
	Snapshot  Entry // pre-image of the entry, lines included
	CreatedAt time.Time
}
