package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every sentinel below wraps exactly one of them.
var (
	ErrInvalidArgs = errors.New("invalid args")
	ErrNotFound    = errors.New("not found")
	ErrBackend     = errors.New("backend failure")
)

// Categories errors
var (
	ErrCategoryNotFound    = fmt.Errorf("category %w", ErrNotFound)
	ErrCategoryInvalidArgs = fmt.Errorf("category %w", ErrInvalidArgs)
)

// Tasks errors
var (
	ErrTaskNotFound    = fmt.Errorf("task %w", ErrNotFound)
	ErrTaskInvalidArgs = fmt.Errorf("task %w", ErrInvalidArgs)
)

// BackendErr marks err as a failure of the storage transport.
func BackendErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
}
