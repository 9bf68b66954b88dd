package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/PersonalGenomesOrg/gennotes/internal/domain"
	"github.com/PersonalGenomesOrg/gennotes/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	signUpFn      func(ctx context.Context, username, email, password string) (*domain.User, error)
	verifyEmailFn func(ctx context.Context, token string) (*domain.User, error)
	logInFn       func(ctx context.Context, login, password string) (*domain.User, error)
	getUserFn     func(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	getVariantFn        func(ctx context.Context, sel domain.VariantSelector) (*domain.Variant, error)
	listVariantsFn      func(ctx context.Context, sels []domain.VariantSelector, limit, offset int) ([]domain.Variant, error)
	createVariantFn     func(ctx context.Context, userID uuid.UUID, tags domain.Tags, comment string) (*domain.Variant, error)
	updateVariantTagsFn func(ctx context.Context, userID uuid.UUID, sel domain.VariantSelector, tags domain.Tags, partial bool, comment string) (*domain.Variant, error)
	variantEditsFn      func(ctx context.Context, sel domain.VariantSelector) ([]domain.Edit, error)

	getRelationFn          func(ctx context.Context, id int64) (*domain.Relation, error)
	listRelationsFn        func(ctx context.Context, limit, offset int) ([]domain.Relation, error)
	listVariantRelationsFn func(ctx context.Context, sel domain.VariantSelector) ([]domain.Relation, error)
	createRelationFn       func(ctx context.Context, userID uuid.UUID, variantID int64, tags domain.Tags, comment string) (*domain.Relation, error)
	updateRelationTagsFn   func(ctx context.Context, userID uuid.UUID, id int64, tags domain.Tags, partial bool, comment string) (*domain.Relation, error)
	deleteRelationFn       func(ctx context.Context, userID uuid.UUID, id, editedVersion int64, comment string) error
	relationEditsFn        func(ctx context.Context, id int64) ([]domain.Edit, error)
}

func (m *mockAppService) SignUp(ctx context.Context, username, email, password string) (*domain.User, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, username, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	if m.verifyEmailFn != nil {
		return m.verifyEmailFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) LogIn(ctx context.Context, login, password string) (*domain.User, error) {
	if m.logInFn != nil {
		return m.logInFn(ctx, login, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockAppService) GetVariant(ctx context.Context, sel domain.VariantSelector) (*domain.Variant, error) {
	if m.getVariantFn != nil {
		return m.getVariantFn(ctx, sel)
	}
	return nil, domain.ErrVariantNotFound
}

func (m *mockAppService) ListVariants(ctx context.Context, sels []domain.VariantSelector, limit, offset int) ([]domain.Variant, error) {
	if m.listVariantsFn != nil {
		return m.listVariantsFn(ctx, sels, limit, offset)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) CreateVariant(ctx context.Context, userID uuid.UUID, tags domain.Tags, comment string) (*domain.Variant, error) {
	if m.createVariantFn != nil {
		return m.createVariantFn(ctx, userID, tags, comment)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) UpdateVariantTags(ctx context.Context, userID uuid.UUID, sel domain.VariantSelector, tags domain.Tags, partial bool, comment string) (*domain.Variant, error) {
	if m.updateVariantTagsFn != nil {
		return m.updateVariantTagsFn(ctx, userID, sel, tags, partial, comment)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) VariantEdits(ctx context.Context, sel domain.VariantSelector) ([]domain.Edit, error) {
	if m.variantEditsFn != nil {
		return m.variantEditsFn(ctx, sel)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) GetRelation(ctx context.Context, id int64) (*domain.Relation, error) {
	if m.getRelationFn != nil {
		return m.getRelationFn(ctx, id)
	}
	return nil, domain.ErrRelationNotFound
}

func (m *mockAppService) ListRelations(ctx context.Context, limit, offset int) ([]domain.Relation, error) {
	if m.listRelationsFn != nil {
		return m.listRelationsFn(ctx, limit, offset)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) ListVariantRelations(ctx context.Context, sel domain.VariantSelector) ([]domain.Relation, error) {
	if m.listVariantRelationsFn != nil {
		return m.listVariantRelationsFn(ctx, sel)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) CreateRelation(ctx context.Context, userID uuid.UUID, variantID int64, tags domain.Tags, comment string) (*domain.Relation, error) {
	if m.createRelationFn != nil {
		return m.createRelationFn(ctx, userID, variantID, tags, comment)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) UpdateRelationTags(ctx context.Context, userID uuid.UUID, id int64, tags domain.Tags, partial bool, comment string) (*domain.Relation, error) {
	if m.updateRelationTagsFn != nil {
		return m.updateRelationTagsFn(ctx, userID, id, tags, partial, comment)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) DeleteRelation(ctx context.Context, userID uuid.UUID, id, editedVersion int64, comment string) error {
	if m.deleteRelationFn != nil {
		return m.deleteRelationFn(ctx, userID, id, editedVersion, comment)
	}
	return errors.New("not implemented")
}

func (m *mockAppService) RelationEdits(ctx context.Context, id int64) ([]domain.Edit, error) {
	if m.relationEditsFn != nil {
		return m.relationEditsFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

// --- Test helpers ---

func newTestServer(t *testing.T, app *mockAppService) *Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:    "test",
		Port:      "8080",
		SecretKey: "test-secret-key-test-secret-key!",
	}

	srv := NewServer(cfg, app, &mockPinger{})
	require.NotNil(t, srv)
	return srv
}

// doRequest runs a request through the full middleware chain.
func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

// callHandler invokes a handler directly with the error middleware applied,
// so structured errors turn into status codes as in production.
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}
