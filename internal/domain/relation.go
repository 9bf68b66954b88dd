package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TagType categorizes a relation (e.g. "clinvar-rcva"). It is required at
// creation and immutable afterwards.
const TagType = "type"

// RelationSpecialTags lists the protected tags of a relation.
var RelationSpecialTags = []string{TagType}

// Relation attaches tagged evidence to a variant.
type Relation struct {
	ID        int64
	VariantID int64
	Tags      Tags
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateRelationCreate checks that new relation tags carry the required
// type tag.
func ValidateRelationCreate(tags Tags) error {
	if tags[TagType] == "" {
		return fmt.Errorf("create must include required tag %q", TagType)
	}
	return nil
}

// RelationRepository abstracts relation persistence. Mutations record an
// Edit and bump the version in the same transaction. Delete is conditional
// on the expected version and returns ErrEditConflict on mismatch.
type RelationRepository interface {
	GetByID(ctx context.Context, id int64) (*Relation, error)
	ListByVariant(ctx context.Context, variantID int64) ([]Relation, error)
	List(ctx context.Context, limit, offset int) ([]Relation, error)
	Create(ctx context.Context, variantID int64, tags Tags, userID uuid.UUID, comment string) (*Relation, error)
	UpdateTags(ctx context.Context, id int64, tags Tags, userID uuid.UUID, comment string) (*Relation, error)
	Delete(ctx context.Context, id, expectedVersion int64, userID uuid.UUID, comment string) error
}
