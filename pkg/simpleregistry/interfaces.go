package simpleregistry

import (
	"context"
)

// Repository defines the interface for registry persistence.
//
// Implementations must be safe for concurrent use. CreateContent must
// perform its duplicate check, ID allocation, and insert atomically: a
// failed registration never advances the ID counter.
type Repository interface {
	// Registry state operations
	InitializeRegistry(ctx context.Context, admin Identity, oracleReference string) (*RegistryInfo, error)
	GetRegistryInfo(ctx context.Context) (*RegistryInfo, error)
	UpdateOracleReference(ctx context.Context, reference string) error

	// Content operations
	CreateContent(ctx context.Context, hash string, owner Identity) (*Content, error)
	GetContent(ctx context.Context, id ContentID) (*Content, error)
	GetContentByHash(ctx context.Context, hash string) (*Content, error)
	UpdateContentOwner(ctx context.Context, id ContentID, newOwner Identity) (*Content, error)
	ListContentByOwner(ctx context.Context, owner Identity) ([]*Content, error)
}

// ContentValidator decides whether a content hash is acceptable given the
// current oracle reference. Implementations must be deterministic and
// side-effect free: same inputs, same answer, no I/O.
//
// The registry never interprets the oracle reference itself; only the
// validator gives it meaning.
type ContentValidator interface {
	ValidateContent(contentHash, oracleReference string) bool
}

// ValidatorFunc adapts a plain function to the ContentValidator interface.
type ValidatorFunc func(contentHash, oracleReference string) bool

// ValidateContent calls f(contentHash, oracleReference).
func (f ValidatorFunc) ValidateContent(contentHash, oracleReference string) bool {
	return f(contentHash, oracleReference)
}

// EventSink defines the interface for event handling
type EventSink interface {
	// RegistryInitialized is fired once, when the registry is initialized
	RegistryInitialized(ctx context.Context, info *RegistryInfo) error

	// OracleReferenceUpdated is fired when the admin replaces the oracle reference
	OracleReferenceUpdated(ctx context.Context, reference string, updatedBy Identity) error

	// ContentRegistered is fired when a content hash is registered
	ContentRegistered(ctx context.Context, content *Content) error

	// OwnershipTransferred is fired when a content entry changes owner
	OwnershipTransferred(ctx context.Context, content *Content, previousOwner Identity) error
}
