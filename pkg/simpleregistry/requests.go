package simpleregistry

// Request/Response DTOs

// InitializeRequest contains parameters for the one-time registry
// initialization. OracleReference may be empty; Admin may not.
type InitializeRequest struct {
	Admin           Identity
	OracleReference string
}

// UpdateOracleReferenceRequest contains parameters for replacing the oracle
// reference. Caller must be the registry admin. An empty reference is
// allowed; it clears the current value.
type UpdateOracleReferenceRequest struct {
	Caller          Identity
	OracleReference string
}

// RegisterContentRequest contains parameters for registering a content hash.
// The caller becomes the initial owner.
type RegisterContentRequest struct {
	Caller Identity
	Hash   string
}

// TransferOwnershipRequest contains parameters for transferring a content
// entry to a new owner. Caller must be the current owner. Transferring to
// oneself is permitted.
type TransferOwnershipRequest struct {
	Caller    Identity
	ContentID ContentID
	NewOwner  Identity
}
