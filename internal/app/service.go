package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/PersonalGenomesOrg/gennotes/internal/domain"
	"github.com/PersonalGenomesOrg/gennotes/internal/email"
	"github.com/PersonalGenomesOrg/gennotes/internal/metrics"
	apperrors "github.com/PersonalGenomesOrg/gennotes/internal/platform/errors"
	"github.com/PersonalGenomesOrg/gennotes/internal/token"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 150

	defaultPageSize = 100
	maxPageSize     = 1000
)

// Service is the application layer. It is the only component that
// references multiple domain components and orchestrates all use cases.
type Service struct {
	users     domain.UserRepository
	variants  domain.VariantRepository
	relations domain.RelationRepository
	edits     domain.EditRepository
	mailer    email.Backend
	tokens    *token.Signer
	baseURL   string
	clock     clockwork.Clock
}

// NewService creates the application layer service. baseURL is the public
// address embedded into verification links.
func NewService(users domain.UserRepository, variants domain.VariantRepository, relations domain.RelationRepository, edits domain.EditRepository, mailer email.Backend, tokens *token.Signer, baseURL string, clock clockwork.Clock) *Service {
	return &Service{
		users:     users,
		variants:  variants,
		relations: relations,
		edits:     edits,
		mailer:    mailer,
		tokens:    tokens,
		baseURL:   strings.TrimRight(baseURL, "/"),
		clock:     clock,
	}
}

// SignUp creates an unverified account and mails a verification link.
func (s *Service) SignUp(ctx context.Context, username, emailAddr, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLength {
		return nil, apperrors.ValidationError("username must be 1-150 characters")
	}
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return nil, apperrors.ValidationError("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.ValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, emailAddr, string(hash))
	if err != nil {
		return nil, err
	}
	metrics.SignupsTotal.Inc()

	// Verification mail failures do not roll back the signup; the account
	// simply stays unverified until a working link reaches the user.
	if err := s.sendVerificationMail(ctx, user); err != nil {
		slog.ErrorContext(ctx, "Failed to send verification mail", "user_id", user.ID.String(), "error", err)
	}

	return user, nil
}

func (s *Service) sendVerificationMail(ctx context.Context, user *domain.User) error {
	link := s.baseURL + "/api/accounts/verify/" + s.tokens.Issue(user.ID, token.DefaultTTL)
	return s.mailer.Send(ctx, email.Message{
		To:      user.Email,
		Subject: "Verify your GenNotes account",
		Body: "Hi " + user.Username + ",\n\n" +
			"Please confirm your email address by visiting:\n\n" +
			link + "\n\n" +
			"The link expires in 48 hours. If you did not sign up, you can ignore this mail.\n",
	})
}

// VerifyEmail redeems a verification token and marks the account verified.
func (s *Service) VerifyEmail(ctx context.Context, tokenStr string) (*domain.User, error) {
	userID, err := s.tokens.Verify(tokenStr)
	if err != nil {
		return nil, apperrors.ValidationError("invalid or expired verification token")
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return nil, err
	}
	metrics.VerificationsTotal.Inc()

	return s.users.GetByID(ctx, userID)
}

// LogIn authenticates by username or email. Unverified accounts are
// refused even with correct credentials.
func (s *Service) LogIn(ctx context.Context, login, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, login)
	if err == domain.ErrUserNotFound && strings.Contains(login, "@") {
		user, err = s.users.GetByEmail(ctx, login)
	}
	if err == domain.ErrUserNotFound {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, domain.ErrEmailNotVerified
	}
	return user, nil
}

// GetUser retrieves a user by internal ID.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) resolveVariant(ctx context.Context, sel domain.VariantSelector) (*domain.Variant, error) {
	if sel.B37 != nil {
		return s.variants.GetByB37(ctx, *sel.B37)
	}
	return s.variants.GetByID(ctx, sel.ID)
}

// GetVariant retrieves a variant by ID or b37 position.
func (s *Service) GetVariant(ctx context.Context, sel domain.VariantSelector) (*domain.Variant, error) {
	return s.resolveVariant(ctx, sel)
}

// ListVariants returns a page of variants, or the batch lookup result when
// selectors are given.
func (s *Service) ListVariants(ctx context.Context, sels []domain.VariantSelector, limit, offset int) ([]domain.Variant, error) {
	if len(sels) > 0 {
		return s.variants.Lookup(ctx, sels)
	}
	return s.variants.List(ctx, clampPageSize(limit), max(offset, 0))
}

func clampPageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// CreateVariant records a new variant with its mandatory b37 position tags.
func (s *Service) CreateVariant(ctx context.Context, userID uuid.UUID, tags domain.Tags, comment string) (*domain.Variant, error) {
	if err := domain.ValidateVariantCreate(tags); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	variant, err := s.variants.Create(ctx, tags, userID, comment)
	if err != nil {
		return nil, err
	}
	metrics.EditsCommittedTotal.WithLabelValues("variant", "create").Inc()
	return variant, nil
}

// UpdateVariantTags applies a PUT (partial=false) or PATCH (partial=true)
// edit to a variant's tags.
func (s *Service) UpdateVariantTags(ctx context.Context, userID uuid.UUID, sel domain.VariantSelector, tags domain.Tags, partial bool, comment string) (*domain.Variant, error) {
	current, err := s.resolveVariant(ctx, sel)
	if err != nil {
		return nil, err
	}

	next, err := domain.ApplyTagUpdate(current.Tags, tags, domain.VariantSpecialTags, partial)
	if err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	variant, err := s.variants.UpdateTags(ctx, current.ID, next, userID, comment)
	if err != nil {
		return nil, err
	}
	metrics.EditsCommittedTotal.WithLabelValues("variant", "update").Inc()
	return variant, nil
}

// VariantEdits returns a variant's edit history, newest first.
func (s *Service) VariantEdits(ctx context.Context, sel domain.VariantSelector) ([]domain.Edit, error) {
	variant, err := s.resolveVariant(ctx, sel)
	if err != nil {
		return nil, err
	}
	return s.edits.ListByEntity(ctx, domain.EntityVariant, variant.ID)
}

// GetRelation retrieves a relation by ID.
func (s *Service) GetRelation(ctx context.Context, id int64) (*domain.Relation, error) {
	return s.relations.GetByID(ctx, id)
}

// ListRelations returns a page of relations.
func (s *Service) ListRelations(ctx context.Context, limit, offset int) ([]domain.Relation, error) {
	return s.relations.List(ctx, clampPageSize(limit), max(offset, 0))
}

// ListVariantRelations returns all relations attached to one variant.
func (s *Service) ListVariantRelations(ctx context.Context, sel domain.VariantSelector) ([]domain.Relation, error) {
	variant, err := s.resolveVariant(ctx, sel)
	if err != nil {
		return nil, err
	}
	return s.relations.ListByVariant(ctx, variant.ID)
}

// CreateRelation attaches tagged evidence to an existing variant.
func (s *Service) CreateRelation(ctx context.Context, userID uuid.UUID, variantID int64, tags domain.Tags, comment string) (*domain.Relation, error) {
	if err := domain.ValidateRelationCreate(tags); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	relation, err := s.relations.Create(ctx, variantID, tags, userID, comment)
	if err != nil {
		return nil, err
	}
	metrics.EditsCommittedTotal.WithLabelValues("relation", "create").Inc()
	return relation, nil
}

// UpdateRelationTags applies a PUT or PATCH edit to a relation's tags.
func (s *Service) UpdateRelationTags(ctx context.Context, userID uuid.UUID, id int64, tags domain.Tags, partial bool, comment string) (*domain.Relation, error) {
	current, err := s.relations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := domain.ApplyTagUpdate(current.Tags, tags, domain.RelationSpecialTags, partial)
	if err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	relation, err := s.relations.UpdateTags(ctx, id, next, userID, comment)
	if err != nil {
		return nil, err
	}
	metrics.EditsCommittedTotal.WithLabelValues("relation", "update").Inc()
	return relation, nil
}

// DeleteRelation deletes a relation if editedVersion still matches the
// stored version; otherwise the caller gets an edit conflict.
func (s *Service) DeleteRelation(ctx context.Context, userID uuid.UUID, id, editedVersion int64, comment string) error {
	err := s.relations.Delete(ctx, id, editedVersion, userID, comment)
	if err == domain.ErrEditConflict {
		metrics.EditConflictsTotal.Inc()
		return err
	}
	if err != nil {
		return err
	}
	metrics.EditsCommittedTotal.WithLabelValues("relation", "delete").Inc()
	return nil
}

// RelationEdits returns a relation's edit history, newest first.
func (s *Service) RelationEdits(ctx context.Context, id int64) ([]domain.Edit, error) {
	return s.edits.ListByEntity(ctx, domain.EntityRelation, id)
}
