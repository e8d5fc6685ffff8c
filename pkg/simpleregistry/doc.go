// Package simpleregistry provides a reusable library for tracking content
// ownership with pluggable repository and validation backends.
//
// It exposes a single Service interface that orchestrates registry
// initialization, oracle reference maintenance, content registration,
// ownership transfer, and lookups. Implementations of repositories (e.g.,
// memory, Postgres) and event sinks (e.g., logging, S3 audit archive) are
// provided under subpackages.
//
// # Ownership Model
//
// The registry records WHO owns WHAT, not the content itself. Each entry
// binds a registry-assigned numeric ID to an opaque content hash and an
// owner identity. Hashes are unique for the lifetime of the registry and
// IDs are never reused; content bytes live outside the registry entirely.
//
// A single admin identity, fixed at initialization, maintains an opaque
// oracle reference string. The registry never interprets that string; it is
// handed to a pluggable ContentValidator together with each candidate hash,
// and the validator alone decides whether the hash is acceptable.
package simpleregistry
