package domain

import (
	"context"

	"github.com/google/uuid"
)

// AppService is the application layer contract. Handlers route all
// operations through here.
type AppService interface {
	// Accounts. Signup creates an unverified user and sends a verification
	// mail; login refuses unverified accounts.
	SignUp(ctx context.Context, username, email, password string) (*User, error)
	VerifyEmail(ctx context.Context, token string) (*User, error)
	LogIn(ctx context.Context, login, password string) (*User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)

	// Variants.
	GetVariant(ctx context.Context, sel VariantSelector) (*Variant, error)
	ListVariants(ctx context.Context, sels []VariantSelector, limit, offset int) ([]Variant, error)
	CreateVariant(ctx context.Context, userID uuid.UUID, tags Tags, comment string) (*Variant, error)
	UpdateVariantTags(ctx context.Context, userID uuid.UUID, sel VariantSelector, tags Tags, partial bool, comment string) (*Variant, error)
	VariantEdits(ctx context.Context, sel VariantSelector) ([]Edit, error)

	// Relations.
	GetRelation(ctx context.Context, id int64) (*Relation, error)
	ListRelations(ctx context.Context, limit, offset int) ([]Relation, error)
	ListVariantRelations(ctx context.Context, sel VariantSelector) ([]Relation, error)
	CreateRelation(ctx context.Context, userID uuid.UUID, variantID int64, tags Tags, comment string) (*Relation, error)
	UpdateRelationTags(ctx context.Context, userID uuid.UUID, id int64, tags Tags, partial bool, comment string) (*Relation, error)
	DeleteRelation(ctx context.Context, userID uuid.UUID, id, editedVersion int64, comment string) error
	RelationEdits(ctx context.Context, id int64) ([]Edit, error)
}
