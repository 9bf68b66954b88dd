package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError("invalid input")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Nil(t, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Contains(t, err.Error(), "validation")
	assert.Contains(t, err.Error(), "invalid input")
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("variant not found")

	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
	assert.Contains(t, err.Error(), "not_found")
}

func TestConflictError(t *testing.T) {
	err := ConflictError("edit conflict")

	assert.Equal(t, TypeConflict, err.Type)
	assert.Equal(t, http.StatusConflict, err.HTTPStatus())
	assert.Contains(t, err.Error(), "conflict")
}

func TestUnauthorizedAndForbidden(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, UnauthorizedError("no session").HTTPStatus())
	assert.Equal(t, http.StatusForbidden, ForbiddenError("email not verified").HTTPStatus())
}

func TestInternalError(t *testing.T) {
	cause := fmt.Errorf("database connection failed")
	err := InternalError("failed to save user", cause)

	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, cause, err.Cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Contains(t, err.Error(), "database connection failed")
}

func TestInternalErrorWithoutCause(t *testing.T) {
	err := InternalError("something went wrong", nil)

	assert.Nil(t, err.Cause)
	assert.NotContains(t, err.Error(), "<nil>")
}

func TestExternalError(t *testing.T) {
	cause := fmt.Errorf("smtp dial timeout")
	err := ExternalError("failed to deliver mail", cause)

	assert.Equal(t, TypeExternal, err.Type)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
	assert.Contains(t, err.Error(), "smtp dial timeout")
}

func TestWithContextChaining(t *testing.T) {
	err := ConflictError("edit conflict").
		WithContext("current_version", int64(4)).
		WithContext("submitted_version", int64(3))

	assert.Len(t, err.Context, 2)
	assert.Equal(t, int64(4), err.Context["current_version"])
	assert.Equal(t, int64(3), err.Context["submitted_version"])
}

func TestWithContextNilMap(t *testing.T) {
	err := &Error{Type: TypeValidation, Message: "test"}
	err = err.WithContext("key", "value")

	require.NotNil(t, err.Context)
	assert.Equal(t, "value", err.Context["key"])
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := InternalError("wrapped", cause)

	assert.True(t, errors.Is(err, cause))
}

func TestToResponse(t *testing.T) {
	err := ValidationError("tags field is required").WithContext("field", "tags")
	resp := err.ToResponse()

	assert.Equal(t, "tags field is required", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, "tags", resp.Context["field"])
}

func TestAsStructuredError_Passthrough(t *testing.T) {
	original := NotFoundError("relation not found")
	converted := AsStructuredError(original)

	assert.Same(t, original, converted)
}

func TestAsStructuredError_WrapsPlainError(t *testing.T) {
	plain := fmt.Errorf("boom")
	converted := AsStructuredError(plain)

	assert.Equal(t, TypeInternal, converted.Type)
	assert.Equal(t, plain, converted.Cause)
}

func TestAsStructuredError_Nil(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))
}
