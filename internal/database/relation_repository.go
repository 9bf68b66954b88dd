package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PersonalGenomesOrg/gennotes/internal/domain"
)

type RelationRepo struct {
	pool *pgxpool.Pool
}

func NewRelationRepo(pool *pgxpool.Pool) *RelationRepo {
	return &RelationRepo{pool: pool}
}

const relationColumns = "id, variant_id, tags, version, created_at, updated_at"

func scanRelation(row pgx.Row) (*domain.Relation, error) {
	var rel domain.Relation
	err := row.Scan(&rel.ID, &rel.VariantID, &rel.Tags, &rel.Version, &rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func collectRelations(rows pgx.Rows) ([]domain.Relation, error) {
	defer rows.Close()

	var relations []domain.Relation
	for rows.Next() {
		var rel domain.Relation
		if err := rows.Scan(&rel.ID, &rel.VariantID, &rel.Tags, &rel.Version, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
			return nil, err
		}
		relations = append(relations, rel)
	}
	return relations, rows.Err()
}

func (r *RelationRepo) GetByID(ctx context.Context, id int64) (*domain.Relation, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+relationColumns+" FROM relations WHERE id = $1", id)
	relation, err := scanRelation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRelationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relation by ID: %w", err)
	}
	return relation, nil
}

func (r *RelationRepo) ListByVariant(ctx context.Context, variantID int64) ([]domain.Relation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+relationColumns+` FROM relations WHERE variant_id = $1 ORDER BY id
	`, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relations by variant: %w", err)
	}
	return collectRelations(rows)
}

func (r *RelationRepo) List(ctx context.Context, limit, offset int) ([]domain.Relation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+relationColumns+` FROM relations ORDER BY id LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list relations: %w", err)
	}
	return collectRelations(rows)
}

func (r *RelationRepo) Create(ctx context.Context, variantID int64, tags domain.Tags, userID uuid.UUID, comment string) (*domain.Relation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO relations (variant_id, tags) VALUES ($1, $2) RETURNING `+relationColumns,
		variantID, tags)

	relation, err := scanRelation(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, domain.ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to create relation: %w", err)
	}

	if err := insertEdit(ctx, tx, domain.EntityRelation, relation.ID, relation.Version, userID, comment, relation.Tags, false); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return relation, nil
}

func (r *RelationRepo) UpdateTags(ctx context.Context, id int64, tags domain.Tags, userID uuid.UUID, comment string) (*domain.Relation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE relations SET tags = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+relationColumns, tags, id)

	relation, err := scanRelation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRelationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update relation tags: %w", err)
	}

	if err := insertEdit(ctx, tx, domain.EntityRelation, relation.ID, relation.Version, userID, comment, relation.Tags, false); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return relation, nil
}

// Delete removes a relation only if the caller's expected version still
// matches, so a stale client cannot wipe out edits it has not seen.
func (r *RelationRepo) Delete(ctx context.Context, id, expectedVersion int64, userID uuid.UUID, comment string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var tags domain.Tags
	var version int64
	err = tx.QueryRow(ctx, `
		DELETE FROM relations WHERE id = $1 AND version = $2 RETURNING tags, version
	`, id, expectedVersion).Scan(&tags, &version)

	if errors.Is(err, pgx.ErrNoRows) {
		var current int64
		err = tx.QueryRow(ctx, "SELECT version FROM relations WHERE id = $1", id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRelationNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check relation version: %w", err)
		}
		return domain.ErrEditConflict
	}
	if err != nil {
		return fmt.Errorf("failed to delete relation: %w", err)
	}

	if err := insertEdit(ctx, tx, domain.EntityRelation, id, version+1, userID, comment, tags, true); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
