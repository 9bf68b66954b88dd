package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntityKind names the kinds of editable entities in the edit history.
type EntityKind string

const (
	EntityVariant  EntityKind = "variant"
	EntityRelation EntityKind = "relation"
)

// Edit is one committed change to a variant or relation: who changed it,
// the commit comment, the resulting version, and the tag snapshot after
// the change (the snapshot before deletion for deletes).
type Edit struct {
	ID         int64
	EntityKind EntityKind
	EntityID   int64
	Version    int64
	UserID     uuid.UUID
	Comment    string
	Tags       Tags
	Deletion   bool
	CreatedAt  time.Time
}

// EditRepository reads the edit history recorded by the variant and
// relation repositories.
type EditRepository interface {
	ListByEntity(ctx context.Context, kind EntityKind, entityID int64) ([]Edit, error)
}
