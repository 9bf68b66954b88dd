package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PersonalGenomesOrg/gennotes/internal/domain"
)

type EditRepo struct {
	pool *pgxpool.Pool
}

func NewEditRepo(pool *pgxpool.Pool) *EditRepo {
	return &EditRepo{pool: pool}
}

// ListByEntity returns the edit history of one variant or relation,
// newest first.
func (r *EditRepo) ListByEntity(ctx context.Context, kind domain.EntityKind, entityID int64) ([]domain.Edit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, entity_kind, entity_id, version, user_id, comment, tags, deletion, created_at
		FROM edits
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY version DESC
	`, kind, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	defer rows.Close()

	var edits []domain.Edit
	for rows.Next() {
		var e domain.Edit
		if err := rows.Scan(&e.ID, &e.EntityKind, &e.EntityID, &e.Version, &e.UserID, &e.Comment, &e.Tags, &e.Deletion, &e.CreatedAt); err != nil {
			return nil, err
		}
		edits = append(edits, e)
	}
	return edits, rows.Err()
}

// insertEdit records one committed change inside the caller's transaction.
func insertEdit(ctx context.Context, tx pgx.Tx, kind domain.EntityKind, entityID, version int64, userID uuid.UUID, comment string, tags domain.Tags, deletion bool) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO edits (entity_kind, entity_id, version, user_id, comment, tags, deletion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, kind, entityID, version, userID, comment, tags, deletion)
	if err != nil {
		return fmt.Errorf("failed to record edit: %w", err)
	}
	return nil
}
