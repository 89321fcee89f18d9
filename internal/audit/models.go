package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is an immutable, append-only audit log record.
//
// Invariants:
// - Entries are never updated; they are deleted only by retention cleanup.
// - ResourceID may be a public identifier, not necessarily a primary key;
//   the referenced record may have been hard- or soft-deleted since.
// - Recording is best-effort; no mutation ever blocks on or fails because
//   of an audit write.
type Entry struct {
	ID         int64        `json:"id" db:"id"`
	ActorID    string       `json:"actor_id" db:"actor_id"`
	Action     Action       `json:"action" db:"action"`
	Resource   ResourceKind `json:"resource" db:"resource"`
	ResourceID string       `json:"resource_id" db:"resource_id"`

	// Changes holds the serialized field-level diff, when the action has one.
	Changes json.RawMessage `json:"changes,omitempty" db:"changes"`

	// Metadata is an optional denormalized summary for display, e.g. a
	// deleted record's name.
	Metadata json.RawMessage `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionLogin  Action = "LOGIN"
	ActionLogout Action = "LOGOUT"
)

type ResourceKind string

const (
	ResourceCategory ResourceKind = "category"
	ResourceItem     ResourceKind = "item"
	ResourceOrder    ResourceKind = "order"
	ResourceUser     ResourceKind = "user"
	ResourceRole     ResourceKind = "role"
	ResourceAuth     ResourceKind = "auth"
)

// FieldChange is one before/after pair in a diff.
type FieldChange struct {
	Field string `json:"field"`
	From  any    `json:"from"`
	To    any    `json:"to"`
}

// EntryView is an entry prepared for the read surface: diffs split back into
// field/from/to triples and the actor's display name resolved.
type EntryView struct {
	Entry
	ActorName      string            `json:"actor_name"`
	ChangeList     []FieldChange     `json:"change_list,omitempty"`
	MetadataFields map[string]string `json:"metadata_fields,omitempty"`
}

// Filter narrows the audit query surface. Zero values mean "no constraint".
type Filter struct {
	Resource   ResourceKind
	ResourceID string
	Action     Action
	// ActorName matches the actor's display name by substring.
	ActorName string
	From      time.Time
	To        time.Time

	Limit  int
	Offset int
}

// Stats is the monitoring aggregate; computed store-side, never by scanning
// entries in the caller.
type Stats struct {
	Total      int64                  `json:"total"`
	OldestAt   time.Time              `json:"oldest_at"`
	PerKind    map[ResourceKind]int64 `json:"per_kind"`
}

// Repository is the persistence contract for audit entries.
// Append-only; the only deletion path is retention cleanup.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, f Filter) ([]EntryView, int64, error)
	DeleteOlderThan(ctx context.Context, kind ResourceKind, cutoff time.Time) (int64, error)
	CountOlderThan(ctx context.Context, kind ResourceKind, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (Stats, error)
}
