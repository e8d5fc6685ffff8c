package simpleregistry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// service implements the Service interface
type service struct {
	repository Repository
	validator  ContentValidator
	eventSink  EventSink

	// mu serializes mutating operations. Registration and transfer are
	// read-then-write sequences; interleaving them would let two callers
	// race past the duplicate or ownership checks.
	mu sync.Mutex
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithValidator sets the content validator for the service
func WithValidator(v ContentValidator) Option {
	return func(s *service) {
		s.validator = v
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.validator == nil {
		s.validator = AcceptNonEmpty()
	}

	return s, nil
}

// Registry state operations

func (s *service) Initialize(ctx context.Context, req InitializeRequest) (*RegistryInfo, error) {
	if req.Admin == "" {
		return nil, &RegistryError{Op: "initialize", Err: ErrEmptyIdentity}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.repository.InitializeRegistry(ctx, req.Admin, req.OracleReference)
	if err != nil {
		return nil, &RegistryError{Op: "initialize", Err: err}
	}

	// Fire event
	if s.eventSink != nil {
		if err := s.eventSink.RegistryInitialized(ctx, info); err != nil {
			slog.Error("event sink failed", "event", "registry_initialized", "error", err)
		}
	}

	return info, nil
}

func (s *service) UpdateOracleReference(ctx context.Context, req UpdateOracleReferenceRequest) error {
	if req.Caller == "" {
		return &RegistryError{Op: "update_oracle", Err: ErrEmptyIdentity}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.repository.GetRegistryInfo(ctx)
	if err != nil {
		return &RegistryError{Op: "update_oracle", Err: err}
	}
	if req.Caller != info.Admin {
		return &RegistryError{Op: "update_oracle", Err: ErrUnauthorized}
	}

	if err := s.repository.UpdateOracleReference(ctx, req.OracleReference); err != nil {
		return &RegistryError{Op: "update_oracle", Err: err}
	}

	// Fire event
	if s.eventSink != nil {
		if err := s.eventSink.OracleReferenceUpdated(ctx, req.OracleReference, req.Caller); err != nil {
			slog.Error("event sink failed", "event", "oracle_reference_updated", "error", err)
		}
	}

	return nil
}

func (s *service) GetOracleReference(ctx context.Context) (string, error) {
	info, err := s.repository.GetRegistryInfo(ctx)
	if err != nil {
		return "", err
	}
	return info.OracleReference, nil
}

func (s *service) GetRegistryInfo(ctx context.Context) (*RegistryInfo, error) {
	return s.repository.GetRegistryInfo(ctx)
}

// Content operations

func (s *service) RegisterContent(ctx context.Context, req RegisterContentRequest) (*Content, error) {
	if req.Caller == "" {
		return nil, &RegistryError{Op: "register", Err: ErrEmptyIdentity}
	}
	if req.Hash == "" {
		return nil, &RegistryError{Op: "register", Err: ErrEmptyHash}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.repository.GetRegistryInfo(ctx)
	if err != nil {
		return nil, &RegistryError{Op: "register", Err: err}
	}

	// Validation comes first: a rejected hash must not reach the
	// duplicate check or touch the ID counter.
	if !s.validator.ValidateContent(req.Hash, info.OracleReference) {
		return nil, &RegistryError{Op: "register", Err: ErrInvalidContent}
	}

	content, err := s.repository.CreateContent(ctx, req.Hash, req.Caller)
	if err != nil {
		return nil, &RegistryError{Op: "register", Err: err}
	}

	// Fire event
	if s.eventSink != nil {
		if err := s.eventSink.ContentRegistered(ctx, content); err != nil {
			slog.Error("event sink failed", "event", "content_registered", "content_id", content.ID, "error", err)
		}
	}

	return content, nil
}

func (s *service) TransferOwnership(ctx context.Context, req TransferOwnershipRequest) (*Content, error) {
	if req.Caller == "" || req.NewOwner == "" {
		return nil, &RegistryError{ContentID: req.ContentID, Op: "transfer", Err: ErrEmptyIdentity}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.repository.GetContent(ctx, req.ContentID)
	if err != nil {
		return nil, &RegistryError{ContentID: req.ContentID, Op: "transfer", Err: err}
	}
	if content.Owner != req.Caller {
		return nil, &RegistryError{ContentID: req.ContentID, Op: "transfer", Err: ErrNotOwner}
	}

	updated, err := s.repository.UpdateContentOwner(ctx, req.ContentID, req.NewOwner)
	if err != nil {
		return nil, &RegistryError{ContentID: req.ContentID, Op: "transfer", Err: err}
	}

	// Fire event
	if s.eventSink != nil {
		if err := s.eventSink.OwnershipTransferred(ctx, updated, content.Owner); err != nil {
			slog.Error("event sink failed", "event", "ownership_transferred", "content_id", updated.ID, "error", err)
		}
	}

	return updated, nil
}

func (s *service) GetContent(ctx context.Context, id ContentID) (*Content, error) {
	return s.repository.GetContent(ctx, id)
}

func (s *service) GetContentByHash(ctx context.Context, hash string) (*Content, error) {
	return s.repository.GetContentByHash(ctx, hash)
}

func (s *service) ListContentByOwner(ctx context.Context, owner Identity) ([]*Content, error) {
	return s.repository.ListContentByOwner(ctx, owner)
}
