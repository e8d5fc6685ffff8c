package simpleregistry

import (
	"strconv"
	"time"
)

// Identity is an opaque principal identifier: an account ID, a JWT subject,
// a service name. The registry never parses identities; it only compares
// them for equality and rejects empty ones.
type Identity string

// String returns the identity as a plain string.
func (i Identity) String() string {
	return string(i)
}

// ContentID is a registry-assigned content identifier. IDs are allocated
// sequentially starting at 1 and are never reused; 0 is never a valid ID.
type ContentID uint64

// String returns the decimal form of the ID.
func (id ContentID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Content represents a single ownership record.
//
// Hash is an opaque, uninterpreted string. Callers may use any scheme
// (sha256 hex, multihash, URI); the registry only guarantees uniqueness.
type Content struct {
	ID        ContentID `json:"id"`
	Hash      string    `json:"hash"`
	Owner     Identity  `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegistryInfo is a snapshot of registry-level state.
type RegistryInfo struct {
	Admin           Identity  `json:"admin"`
	OracleReference string    `json:"oracle_reference"`
	NextID          ContentID `json:"next_id"`
	ContentCount    int64     `json:"content_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
