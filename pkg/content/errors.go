package content

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an item does not exist in the catalog.
var ErrNotFound = errors.New("item not found")

// ErrDuplicatePath is returned when a different item already holds the path.
var ErrDuplicatePath = errors.New("path already in use")

// StorageError represents an error from a catalog backend.
type StorageError struct {
	Backend   string // Backend type ("sqlite", "memory")
	Operation string // Operation that failed ("get", "put", "search", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("catalog error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// ValidationError reports an item that cannot be stored.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid item: %s: %s", e.Field, e.Message)
}

// Validate checks the fields every stored item must carry.
func Validate(item *Item) error {
	if item == nil {
		return &ValidationError{Field: "item", Message: "item is nil"}
	}
	if item.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if item.Path == "" {
		return &ValidationError{Field: "path", Message: "path is required"}
	}
	if item.PortalType == "" {
		return &ValidationError{Field: "portal_type", Message: "portal type is required"}
	}
	if item.ReviewState == "" {
		return &ValidationError{Field: "review_state", Message: "review state is required"}
	}
	return nil
}
