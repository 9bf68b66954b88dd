package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PersonalGenomesOrg/gennotes/internal/domain"
)

type VariantRepo struct {
	pool *pgxpool.Pool
}

func NewVariantRepo(pool *pgxpool.Pool) *VariantRepo {
	return &VariantRepo{pool: pool}
}

const variantColumns = "id, tags, version, created_at, updated_at"

func scanVariant(row pgx.Row) (*domain.Variant, error) {
	var v domain.Variant
	err := row.Scan(&v.ID, &v.Tags, &v.Version, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVariants(rows pgx.Rows) ([]domain.Variant, error) {
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.Tags, &v.Version, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *VariantRepo) GetByID(ctx context.Context, id int64) (*domain.Variant, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+variantColumns+" FROM variants WHERE id = $1", id)
	variant, err := scanVariant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant by ID: %w", err)
	}
	return variant, nil
}

func (r *VariantRepo) GetByB37(ctx context.Context, ref domain.B37Ref) (*domain.Variant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+variantColumns+` FROM variants
		WHERE tags->>'chrom-b37' = $1
		  AND tags->>'pos-b37' = $2
		  AND tags->>'ref-allele-b37' = $3
		  AND tags->>'var-allele-b37' = $4
	`, ref.Chrom, strconv.FormatInt(ref.Pos, 10), ref.RefAllele, ref.VarAllele)

	variant, err := scanVariant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant by b37 position: %w", err)
	}
	return variant, nil
}

func (r *VariantRepo) List(ctx context.Context, limit, offset int) ([]domain.Variant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+variantColumns+` FROM variants ORDER BY id LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	return collectVariants(rows)
}

// Lookup fetches a batch of variants in one round trip. Selectors may mix
// numeric IDs and b37 positions; rows matching either set are returned,
// ordered by ID, without duplicates.
func (r *VariantRepo) Lookup(ctx context.Context, sels []domain.VariantSelector) ([]domain.Variant, error) {
	if len(sels) == 0 {
		return nil, nil
	}

	var ids []int64
	var b37Keys []string
	for _, sel := range sels {
		if sel.B37 != nil {
			key := strings.Join([]string{
				sel.B37.Chrom,
				strconv.FormatInt(sel.B37.Pos, 10),
				sel.B37.RefAllele,
				sel.B37.VarAllele,
			}, "|")
			b37Keys = append(b37Keys, key)
			continue
		}
		ids = append(ids, sel.ID)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+variantColumns+` FROM variants
		WHERE id = ANY($1)
		   OR concat_ws('|', tags->>'chrom-b37', tags->>'pos-b37',
		                tags->>'ref-allele-b37', tags->>'var-allele-b37') = ANY($2)
		ORDER BY id
	`, ids, b37Keys)
	if err != nil {
		return nil, fmt.Errorf("failed to look up variants: %w", err)
	}
	return collectVariants(rows)
}

func (r *VariantRepo) Create(ctx context.Context, tags domain.Tags, userID uuid.UUID, comment string) (*domain.Variant, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO variants (tags) VALUES ($1) RETURNING `+variantColumns, tags)
	variant, err := scanVariant(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create variant: %w", err)
	}

	if err := insertEdit(ctx, tx, domain.EntityVariant, variant.ID, variant.Version, userID, comment, variant.Tags, false); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return variant, nil
}

func (r *VariantRepo) UpdateTags(ctx context.Context, id int64, tags domain.Tags, userID uuid.UUID, comment string) (*domain.Variant, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE variants SET tags = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+variantColumns, tags, id)

	variant, err := scanVariant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update variant tags: %w", err)
	}

	if err := insertEdit(ctx, tx, domain.EntityVariant, variant.ID, variant.Version, userID, comment, variant.Tags, false); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return variant, nil
}
