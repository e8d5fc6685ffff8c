package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-registry/pkg/simpleregistry"
)

// RegistryHandler handles HTTP requests for the content registry
type RegistryHandler struct {
	service simpleregistry.Service
}

// NewRegistryHandler creates a new registry handler
func NewRegistryHandler(service simpleregistry.Service) *RegistryHandler {
	return &RegistryHandler{service: service}
}

// Routes returns the routes for the registry
func (h *RegistryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/registry", h.Initialize)
	r.Get("/registry", h.GetRegistryInfo)
	r.Get("/registry/oracle", h.GetOracleReference)
	r.Put("/registry/oracle", h.UpdateOracleReference)

	r.Post("/contents", h.RegisterContent)
	r.Get("/contents", h.LookupContent)
	r.Get("/contents/{contentID}", h.GetContent)
	r.Post("/contents/{contentID}/transfer", h.TransferOwnership)

	return r
}

// ErrorResponse is the body returned for all error statuses
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps registry errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, simpleregistry.ErrEmptyIdentity):
		writeError(w, r, http.StatusBadRequest, "empty_identity", err.Error())
	case errors.Is(err, simpleregistry.ErrEmptyHash):
		writeError(w, r, http.StatusBadRequest, "empty_hash", err.Error())
	case errors.Is(err, simpleregistry.ErrNotInitialized):
		writeError(w, r, http.StatusNotFound, "registry_not_initialized", err.Error())
	case errors.Is(err, simpleregistry.ErrAlreadyInitialized):
		writeError(w, r, http.StatusConflict, "already_initialized", err.Error())
	case errors.Is(err, simpleregistry.ErrUnauthorized):
		writeError(w, r, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, simpleregistry.ErrNotOwner):
		writeError(w, r, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, simpleregistry.ErrInvalidContent):
		writeError(w, r, http.StatusUnprocessableEntity, "invalid_content", err.Error())
	case errors.Is(err, simpleregistry.ErrDuplicateContent):
		writeError(w, r, http.StatusConflict, "duplicate_content", err.Error())
	case errors.Is(err, simpleregistry.ErrContentNotFound):
		writeError(w, r, http.StatusNotFound, "content_not_found", err.Error())
	default:
		slog.Error("Registry operation failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// InitializeRegistryRequest is the request body for initializing the registry
type InitializeRegistryRequest struct {
	Admin           string `json:"admin"`
	OracleReference string `json:"oracle_reference,omitempty"`
}

// RegistryInfoResponse is the response body for registry state
type RegistryInfoResponse struct {
	Admin           string    `json:"admin"`
	OracleReference string    `json:"oracle_reference"`
	NextID          uint64    `json:"next_id"`
	ContentCount    int64     `json:"content_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Initialize initializes the registry with an admin identity
func (h *RegistryHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRegistryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	admin := simpleregistry.Identity(req.Admin)
	if admin == "" {
		if caller, ok := CallerFromContext(r.Context()); ok {
			admin = caller
		}
	}

	info, err := h.service.Initialize(r.Context(), simpleregistry.InitializeRequest{
		Admin:           admin,
		OracleReference: req.OracleReference,
	})
	if err != nil {
		slog.Error("Failed to initialize registry", "admin", admin, "error", err)
		writeServiceError(w, r, err)
		return
	}

	slog.Info("Registry initialized", "admin", info.Admin)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, RegistryInfoResponse{
		Admin:           info.Admin.String(),
		OracleReference: info.OracleReference,
		NextID:          uint64(info.NextID),
		ContentCount:    info.ContentCount,
		CreatedAt:       info.CreatedAt,
		UpdatedAt:       info.UpdatedAt,
	})
}

// GetRegistryInfo retrieves the registry state
func (h *RegistryHandler) GetRegistryInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetRegistryInfo(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, RegistryInfoResponse{
		Admin:           info.Admin.String(),
		OracleReference: info.OracleReference,
		NextID:          uint64(info.NextID),
		ContentCount:    info.ContentCount,
		CreatedAt:       info.CreatedAt,
		UpdatedAt:       info.UpdatedAt,
	})
}

// OracleReferenceResponse is the response body for the oracle reference
type OracleReferenceResponse struct {
	OracleReference string `json:"oracle_reference"`
}

// GetOracleReference retrieves the current oracle reference
func (h *RegistryHandler) GetOracleReference(w http.ResponseWriter, r *http.Request) {
	reference, err := h.service.GetOracleReference(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, OracleReferenceResponse{OracleReference: reference})
}

// UpdateOracleReferenceRequest is the request body for updating the oracle reference
type UpdateOracleReferenceRequest struct {
	OracleReference string `json:"oracle_reference"`
}

// UpdateOracleReference replaces the oracle reference. Admin only.
func (h *RegistryHandler) UpdateOracleReference(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing_identity", "caller identity is required")
		return
	}

	var req UpdateOracleReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.service.UpdateOracleReference(r.Context(), simpleregistry.UpdateOracleReferenceRequest{
		Caller:          caller,
		OracleReference: req.OracleReference,
	}); err != nil {
		slog.Error("Failed to update oracle reference", "caller", caller, "error", err)
		writeServiceError(w, r, err)
		return
	}

	slog.Info("Oracle reference updated", "updated_by", caller)

	render.JSON(w, r, OracleReferenceResponse{OracleReference: req.OracleReference})
}

// RegisterContentRequest is the request body for registering content
type RegisterContentRequest struct {
	Hash string `json:"hash"`
}

// ContentResponse is the response body for a content entry
type ContentResponse struct {
	ID        uint64    `json:"id"`
	Hash      string    `json:"hash"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterContent registers a new content hash owned by the caller
func (h *RegistryHandler) RegisterContent(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing_identity", "caller identity is required")
		return
	}

	var req RegisterContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	content, err := h.service.RegisterContent(r.Context(), simpleregistry.RegisterContentRequest{
		Caller: caller,
		Hash:   req.Hash,
	})
	if err != nil {
		slog.Error("Failed to register content", "caller", caller, "error", err)
		writeServiceError(w, r, err)
		return
	}

	slog.Info("Content registered", "content_id", content.ID, "owner", content.Owner)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, ContentResponse{
		ID:        uint64(content.ID),
		Hash:      content.Hash,
		Owner:     content.Owner.String(),
		CreatedAt: content.CreatedAt,
		UpdatedAt: content.UpdatedAt,
	})
}

// GetContent retrieves a content entry by ID
func (h *RegistryHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "contentID")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_content_id", "content ID must be a positive integer")
		return
	}

	content, err := h.service.GetContent(r.Context(), simpleregistry.ContentID(id))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, ContentResponse{
		ID:        uint64(content.ID),
		Hash:      content.Hash,
		Owner:     content.Owner.String(),
		CreatedAt: content.CreatedAt,
		UpdatedAt: content.UpdatedAt,
	})
}

// LookupContent resolves content by hash or lists content by owner
func (h *RegistryHandler) LookupContent(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	owner := r.URL.Query().Get("owner")

	switch {
	case hash != "":
		content, err := h.service.GetContentByHash(r.Context(), hash)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		render.JSON(w, r, ContentResponse{
			ID:        uint64(content.ID),
			Hash:      content.Hash,
			Owner:     content.Owner.String(),
			CreatedAt: content.CreatedAt,
			UpdatedAt: content.UpdatedAt,
		})
	case owner != "":
		contents, err := h.service.ListContentByOwner(r.Context(), simpleregistry.Identity(owner))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		resp := make([]ContentResponse, 0, len(contents))
		for _, content := range contents {
			resp = append(resp, ContentResponse{
				ID:        uint64(content.ID),
				Hash:      content.Hash,
				Owner:     content.Owner.String(),
				CreatedAt: content.CreatedAt,
				UpdatedAt: content.UpdatedAt,
			})
		}
		render.JSON(w, r, resp)
	default:
		writeError(w, r, http.StatusBadRequest, "missing_query", "hash or owner query parameter is required")
	}
}

// TransferOwnershipRequest is the request body for transferring ownership
type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

// TransferOwnership transfers a content entry to a new owner
func (h *RegistryHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing_identity", "caller identity is required")
		return
	}

	idStr := chi.URLParam(r, "contentID")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_content_id", "content ID must be a positive integer")
		return
	}

	var req TransferOwnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	content, err := h.service.TransferOwnership(r.Context(), simpleregistry.TransferOwnershipRequest{
		Caller:    caller,
		ContentID: simpleregistry.ContentID(id),
		NewOwner:  simpleregistry.Identity(req.NewOwner),
	})
	if err != nil {
		slog.Error("Failed to transfer ownership", "content_id", id, "caller", caller, "error", err)
		writeServiceError(w, r, err)
		return
	}

	slog.Info("Ownership transferred", "content_id", content.ID, "new_owner", content.Owner)

	render.JSON(w, r, ContentResponse{
		ID:        uint64(content.ID),
		Hash:      content.Hash,
		Owner:     content.Owner.String(),
		CreatedAt: content.CreatedAt,
		UpdatedAt: content.UpdatedAt,
	})
}
