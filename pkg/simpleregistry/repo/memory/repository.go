package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tendant/simple-registry/pkg/simpleregistry"
)

// Repository implements simpleregistry.Repository using in-memory storage
type Repository struct {
	mu          sync.RWMutex
	initialized bool
	admin       simpleregistry.Identity
	oracleRef   string
	nextID      simpleregistry.ContentID
	createdAt   time.Time
	updatedAt   time.Time
	contents    map[simpleregistry.ContentID]*simpleregistry.Content
	byHash      map[string]simpleregistry.ContentID
}

// New creates a new in-memory repository
func New() simpleregistry.Repository {
	return &Repository{
		nextID:   1,
		contents: make(map[simpleregistry.ContentID]*simpleregistry.Content),
		byHash:   make(map[string]simpleregistry.ContentID),
	}
}

// Registry state operations

func (r *Repository) InitializeRegistry(ctx context.Context, admin simpleregistry.Identity, oracleReference string) (*simpleregistry.RegistryInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil, simpleregistry.ErrAlreadyInitialized
	}

	now := time.Now().UTC()
	r.initialized = true
	r.admin = admin
	r.oracleRef = oracleReference
	r.createdAt = now
	r.updatedAt = now

	return r.infoLocked(), nil
}

func (r *Repository) GetRegistryInfo(ctx context.Context) (*simpleregistry.RegistryInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.initialized {
		return nil, simpleregistry.ErrNotInitialized
	}
	return r.infoLocked(), nil
}

func (r *Repository) UpdateOracleReference(ctx context.Context, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return simpleregistry.ErrNotInitialized
	}
	r.oracleRef = reference
	r.updatedAt = time.Now().UTC()
	return nil
}

// infoLocked builds a state snapshot. Callers must hold at least a read lock.
func (r *Repository) infoLocked() *simpleregistry.RegistryInfo {
	return &simpleregistry.RegistryInfo{
		Admin:           r.admin,
		OracleReference: r.oracleRef,
		NextID:          r.nextID,
		ContentCount:    int64(len(r.contents)),
		CreatedAt:       r.createdAt,
		UpdatedAt:       r.updatedAt,
	}
}

// Content operations

func (r *Repository) CreateContent(ctx context.Context, hash string, owner simpleregistry.Identity) (*simpleregistry.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return nil, simpleregistry.ErrNotInitialized
	}
	if _, exists := r.byHash[hash]; exists {
		return nil, simpleregistry.ErrDuplicateContent
	}
	if r.nextID == math.MaxUint64 {
		return nil, simpleregistry.ErrIDExhausted
	}

	now := time.Now().UTC()
	content := &simpleregistry.Content{
		ID:        r.nextID,
		Hash:      hash,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.contents[content.ID] = content
	r.byHash[hash] = content.ID
	r.nextID++
	r.updatedAt = now

	// Return a copy to prevent external modifications
	contentCopy := *content
	return &contentCopy, nil
}

func (r *Repository) GetContent(ctx context.Context, id simpleregistry.ContentID) (*simpleregistry.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	content, exists := r.contents[id]
	if !exists {
		return nil, simpleregistry.ErrContentNotFound
	}

	contentCopy := *content
	return &contentCopy, nil
}

func (r *Repository) GetContentByHash(ctx context.Context, hash string) (*simpleregistry.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byHash[hash]
	if !exists {
		return nil, simpleregistry.ErrContentNotFound
	}

	contentCopy := *r.contents[id]
	return &contentCopy, nil
}

func (r *Repository) UpdateContentOwner(ctx context.Context, id simpleregistry.ContentID, newOwner simpleregistry.Identity) (*simpleregistry.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, exists := r.contents[id]
	if !exists {
		return nil, simpleregistry.ErrContentNotFound
	}

	content.Owner = newOwner
	content.UpdatedAt = time.Now().UTC()

	contentCopy := *content
	return &contentCopy, nil
}

func (r *Repository) ListContentByOwner(ctx context.Context, owner simpleregistry.Identity) ([]*simpleregistry.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simpleregistry.Content, 0)
	for _, content := range r.contents {
		if content.Owner == owner {
			contentCopy := *content
			result = append(result, &contentCopy)
		}
	}

	// Sort by ID ascending (registration order)
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}
