package simpleregistry

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrNotInitialized indicates the registry has not been initialized yet
	ErrNotInitialized = errors.New("registry not initialized")

	// ErrAlreadyInitialized indicates the registry was already initialized
	ErrAlreadyInitialized = errors.New("registry already initialized")

	// ErrUnauthorized indicates the caller is not the registry admin
	ErrUnauthorized = errors.New("caller is not the admin")

	// ErrInvalidContent indicates the content hash was rejected by the validator
	ErrInvalidContent = errors.New("invalid content hash")

	// ErrDuplicateContent indicates the content hash is already registered
	ErrDuplicateContent = errors.New("content hash already registered")

	// ErrContentNotFound indicates a content was not found
	ErrContentNotFound = errors.New("content not found")

	// ErrNotOwner indicates the caller does not own the content
	ErrNotOwner = errors.New("caller is not the content owner")

	// ErrIDExhausted indicates the content ID counter cannot advance
	ErrIDExhausted = errors.New("content id space exhausted")

	// ErrEmptyIdentity indicates a required identity was empty
	ErrEmptyIdentity = errors.New("identity is required")

	// ErrEmptyHash indicates a required content hash was empty
	ErrEmptyHash = errors.New("content hash is required")
)

// RegistryError represents an error related to registry operations
type RegistryError struct {
	ContentID ContentID
	Op        string
	Err       error
}

func (e *RegistryError) Error() string {
	if e.ContentID == 0 {
		return fmt.Sprintf("registry operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("registry operation %s failed for content %d: %v", e.Op, e.ContentID, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}
