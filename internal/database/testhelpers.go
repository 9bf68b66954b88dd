package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/PersonalGenomesOrg/gennotes/internal/domain"
)

// CreateTestUser creates a verified user for tests and returns it.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool, username string) *domain.User {
	t.Helper()

	repo := NewUserRepo(pool)
	ctx := context.Background()

	user, err := repo.Create(ctx, username, username+"@example.org", "$2a$10$testhashtesthashtesthash")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	require.NoError(t, repo.MarkVerified(ctx, user.ID))
	user.Verified = true
	return user
}

// CreateTestVariant creates a variant at the given b37 position.
func CreateTestVariant(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, chrom, pos, ref, alt string) *domain.Variant {
	t.Helper()

	repo := NewVariantRepo(pool)
	variant, err := repo.Create(context.Background(), domain.Tags{
		domain.TagChromB37:     chrom,
		domain.TagPosB37:       pos,
		domain.TagRefAlleleB37: ref,
		domain.TagVarAlleleB37: alt,
	}, userID, "test variant")
	require.NoError(t, err)

	return variant
}

// CreateTestRelation attaches a relation of the given type to a variant.
func CreateTestRelation(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, variantID int64, relType string) *domain.Relation {
	t.Helper()

	repo := NewRelationRepo(pool)
	relation, err := repo.Create(context.Background(), variantID, domain.Tags{
		domain.TagType: relType,
	}, userID, "test relation")
	require.NoError(t, err)

	return relation
}
