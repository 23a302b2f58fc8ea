package model

import "errors"

var (
	// ErrNotFound is returned when no row matches a lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when another active account holds the email.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrDuplicateNationalID is returned when another active account holds the CPF.
	ErrDuplicateNationalID = errors.New("national id already in use")
	// ErrNotDeleted is returned when restoring an account that is active.
	ErrNotDeleted = errors.New("account is not deleted")
	// ErrInvalidCredentials is returned when login email or password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrTimeout is returned when a store round-trip exceeds its deadline.
	ErrTimeout = errors.New("operation timed out")
)
