package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmailNotVerified   = errors.New("email address not verified")

	ErrVariantNotFound  = errors.New("variant not found")
	ErrRelationNotFound = errors.New("relation not found")
	ErrEditConflict     = errors.New("edit conflict: submitted version is not current")
)
