package models

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every input or precondition failure that the
// views recover from locally by showing a notice. Match it with errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError is a user-facing input or precondition failure.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Is reports every ValidationError as ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var (
	ErrEmptyName        = &ValidationError{"name is required"}
	ErrDuplicateName    = &ValidationError{"you already have a wishlist with this name, please choose a unique name"}
	ErrNotRenaming      = &ValidationError{"wishlist is not in rename mode"}
	ErrNotPendingDelete = &ValidationError{"wishlist delete was not requested"}
	ErrNotOwner         = &ValidationError{"only the owner can change this wishlist"}
	ErrInvalidID        = &ValidationError{"invalid wishlist ID"}
	ErrNotLoaded        = &ValidationError{"wishlist is not loaded"}
)

// ErrNotAuthenticated is returned when an action needs a signed-in principal.
var ErrNotAuthenticated = errors.New("please sign in to continue")

// StoreError wraps a failed document store call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err came from the document store.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
