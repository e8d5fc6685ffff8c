package simpleregistry

import (
	"context"
)

// Service defines the main interface for the simple-registry library
type Service interface {
	// Registry state operations
	Initialize(ctx context.Context, req InitializeRequest) (*RegistryInfo, error)
	UpdateOracleReference(ctx context.Context, req UpdateOracleReferenceRequest) error
	GetOracleReference(ctx context.Context) (string, error)
	GetRegistryInfo(ctx context.Context) (*RegistryInfo, error)

	// Content operations
	RegisterContent(ctx context.Context, req RegisterContentRequest) (*Content, error)
	TransferOwnership(ctx context.Context, req TransferOwnershipRequest) (*Content, error)
	GetContent(ctx context.Context, id ContentID) (*Content, error)
	GetContentByHash(ctx context.Context, hash string) (*Content, error)
	ListContentByOwner(ctx context.Context, owner Identity) ([]*Content, error)
}
