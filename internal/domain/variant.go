package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tags is the free-form annotation map carried by variants and relations.
type Tags map[string]string

// Clone returns an independent copy of the tag map.
func (t Tags) Clone() Tags {
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Build-37 position tags. These identify a variant and are immutable once set.
const (
	TagChromB37     = "chrom-b37"
	TagPosB37       = "pos-b37"
	TagRefAlleleB37 = "ref-allele-b37"
	TagVarAlleleB37 = "var-allele-b37"
)

// VariantSpecialTags lists the protected tags of a variant, required at
// creation and rejected in any later edit.
var VariantSpecialTags = []string{TagChromB37, TagPosB37, TagRefAlleleB37, TagVarAlleleB37}

type Variant struct {
	ID        int64
	Tags      Tags
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// B37ID returns the positional identifier like "b37-1-883516-G-A".
func (v *Variant) B37ID() string {
	return strings.Join([]string{
		"b37",
		v.Tags[TagChromB37],
		v.Tags[TagPosB37],
		v.Tags[TagRefAlleleB37],
		v.Tags[TagVarAlleleB37],
	}, "-")
}

// B37Ref is a parsed build-37 positional reference.
type B37Ref struct {
	Chrom     string
	Pos       int64
	RefAllele string
	VarAllele string
}

var validChroms = func() map[string]bool {
	m := map[string]bool{"X": true, "Y": true, "M": true}
	for i := 1; i <= 22; i++ {
		m[strconv.Itoa(i)] = true
	}
	return m
}()

func validAllele(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch r {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			return false
		}
	}
	return true
}

// ParseB37Ref parses a reference like "b37-1-883516-G-A".
func ParseB37Ref(s string) (*B37Ref, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 5 || parts[0] != "b37" {
		return nil, fmt.Errorf("malformed b37 reference %q", s)
	}
	if !validChroms[parts[1]] {
		return nil, fmt.Errorf("invalid chromosome %q in %q", parts[1], s)
	}
	pos, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || pos < 1 {
		return nil, fmt.Errorf("invalid position %q in %q", parts[2], s)
	}
	if !validAllele(parts[3]) || !validAllele(parts[4]) {
		return nil, fmt.Errorf("invalid alleles in %q", s)
	}
	return &B37Ref{Chrom: parts[1], Pos: pos, RefAllele: parts[3], VarAllele: parts[4]}, nil
}

// VariantSelector identifies a variant either by primary key or by b37
// position, mirroring the API's dual lookup.
type VariantSelector struct {
	ID  int64
	B37 *B37Ref
}

// ParseVariantSelector accepts a numeric ID or a b37 reference string.
func ParseVariantSelector(s string) (VariantSelector, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		if id < 1 {
			return VariantSelector{}, fmt.Errorf("invalid variant id %q", s)
		}
		return VariantSelector{ID: id}, nil
	}
	ref, err := ParseB37Ref(s)
	if err != nil {
		return VariantSelector{}, err
	}
	return VariantSelector{B37: ref}, nil
}

// ValidateVariantCreate checks that new variant tags carry every b37
// position tag and that they form a well-formed reference.
func ValidateVariantCreate(tags Tags) error {
	for _, tag := range VariantSpecialTags {
		if tags[tag] == "" {
			return fmt.Errorf("create must include required tag %q", tag)
		}
	}
	ref := "b37-" + tags[TagChromB37] + "-" + tags[TagPosB37] + "-" +
		tags[TagRefAlleleB37] + "-" + tags[TagVarAlleleB37]
	if _, err := ParseB37Ref(ref); err != nil {
		return err
	}
	return nil
}

// ApplyTagUpdate computes the tag map resulting from a PUT (partial=false)
// or PATCH (partial=true) edit, enforcing the protected-tag rules:
// a full update must retain every special tag, and neither kind of update
// may change a special tag's value.
func ApplyTagUpdate(current, update Tags, special []string, partial bool) (Tags, error) {
	if !partial {
		for _, tag := range special {
			if _, had := current[tag]; had {
				if _, kept := update[tag]; !kept {
					return nil, fmt.Errorf("full updates must retain special tag %q", tag)
				}
			}
		}
	}
	for _, tag := range special {
		cur, had := current[tag]
		next, submitted := update[tag]
		if had && submitted && cur != next {
			return nil, fmt.Errorf("updates must not change special tag %q from %q to %q", tag, cur, next)
		}
	}

	if partial {
		merged := current.Clone()
		for k, v := range update {
			merged[k] = v
		}
		return merged, nil
	}
	return update.Clone(), nil
}

// VariantRepository abstracts variant persistence. Mutations record an Edit
// and bump the version in the same transaction.
type VariantRepository interface {
	GetByID(ctx context.Context, id int64) (*Variant, error)
	GetByB37(ctx context.Context, ref B37Ref) (*Variant, error)
	List(ctx context.Context, limit, offset int) ([]Variant, error)
	Lookup(ctx context.Context, sels []VariantSelector) ([]Variant, error)
	Create(ctx context.Context, tags Tags, userID uuid.UUID, comment string) (*Variant, error)
	UpdateTags(ctx context.Context, id int64, tags Tags, userID uuid.UUID, comment string) (*Variant, error)
}
