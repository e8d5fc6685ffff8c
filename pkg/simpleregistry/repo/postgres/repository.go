package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-registry/pkg/simpleregistry"
)

// Schema holds the registry DDL. The integration test helper and the admin
// CLI's migrate command both execute it; it is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS registry (
    id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    admin TEXT NOT NULL,
    oracle_reference TEXT NOT NULL DEFAULT '',
    next_id BIGINT NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contents (
    id BIGINT PRIMARY KEY,
    hash TEXT NOT NULL,
    owner TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
    CONSTRAINT contents_hash_key UNIQUE (hash)
);

CREATE INDEX IF NOT EXISTS contents_owner_idx ON contents (owner);
`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simpleregistry.Repository using PostgreSQL
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL repository on an existing handle. When db is
// not a transaction, CreateContent cannot roll back a partial registration;
// prefer NewWithPool for production use.
func New(db DBTX) simpleregistry.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool.
// CreateContent runs its duplicate check, ID allocation, and insert in a
// single transaction.
func NewWithPool(pool *pgxpool.Pool) simpleregistry.Repository {
	return &Repository{db: pool, pool: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "hash") {
				return simpleregistry.ErrDuplicateContent
			}
			if strings.Contains(pgErr.ConstraintName, "registry") {
				return simpleregistry.ErrAlreadyInitialized
			}
			return fmt.Errorf("duplicate entry")
		case "22003": // numeric_value_out_of_range
			return simpleregistry.ErrIDExhausted
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Registry state operations

func (r *Repository) InitializeRegistry(ctx context.Context, admin simpleregistry.Identity, oracleReference string) (*simpleregistry.RegistryInfo, error) {
	query := `
		INSERT INTO registry (id, admin, oracle_reference, next_id, created_at, updated_at)
		VALUES (1, $1, $2, 1, $3, $3)
		ON CONFLICT (id) DO NOTHING
		RETURNING admin, oracle_reference, next_id, created_at, updated_at`

	now := time.Now().UTC()
	var info simpleregistry.RegistryInfo
	err := r.db.QueryRow(ctx, query, admin, oracleReference, now).Scan(
		&info.Admin, &info.OracleReference, &info.NextID, &info.CreatedAt, &info.UpdatedAt)

	if err != nil {
		// DO NOTHING suppressed the insert: a registry row already exists
		// and stays exactly as it was.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleregistry.ErrAlreadyInitialized
		}
		return nil, r.handlePostgresError("initialize registry", err)
	}

	return &info, nil
}

func (r *Repository) GetRegistryInfo(ctx context.Context) (*simpleregistry.RegistryInfo, error) {
	query := `
		SELECT admin, oracle_reference, next_id, created_at, updated_at,
		       (SELECT count(*) FROM contents) AS content_count
		FROM registry WHERE id = 1`

	var info simpleregistry.RegistryInfo
	err := r.db.QueryRow(ctx, query).Scan(
		&info.Admin, &info.OracleReference, &info.NextID,
		&info.CreatedAt, &info.UpdatedAt, &info.ContentCount)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleregistry.ErrNotInitialized
		}
		return nil, r.handlePostgresError("get registry info", err)
	}

	return &info, nil
}

func (r *Repository) UpdateOracleReference(ctx context.Context, reference string) error {
	query := `UPDATE registry SET oracle_reference = $1, updated_at = $2 WHERE id = 1`

	tag, err := r.db.Exec(ctx, query, reference, time.Now().UTC())
	if err != nil {
		return r.handlePostgresError("update oracle reference", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleregistry.ErrNotInitialized
	}

	return nil
}

// Content operations

func (r *Repository) CreateContent(ctx context.Context, hash string, owner simpleregistry.Identity) (*simpleregistry.Content, error) {
	if r.pool != nil {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return nil, r.handlePostgresError("create content", err)
		}
		defer tx.Rollback(ctx)

		content, err := r.createContent(ctx, tx, hash, owner)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, r.handlePostgresError("create content", err)
		}
		return content, nil
	}

	// Bare handle: the caller is expected to have supplied a transaction.
	return r.createContent(ctx, r.db, hash, owner)
}

func (r *Repository) createContent(ctx context.Context, db DBTX, hash string, owner simpleregistry.Identity) (*simpleregistry.Content, error) {
	// Duplicate check first so a reused hash never touches the counter.
	var existing int64
	err := db.QueryRow(ctx, `SELECT id FROM contents WHERE hash = $1`, hash).Scan(&existing)
	if err == nil {
		return nil, simpleregistry.ErrDuplicateContent
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, r.handlePostgresError("create content", err)
	}

	now := time.Now().UTC()

	var id simpleregistry.ContentID
	err = db.QueryRow(ctx,
		`UPDATE registry SET next_id = next_id + 1, updated_at = $1 WHERE id = 1 RETURNING next_id - 1`,
		now).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleregistry.ErrNotInitialized
		}
		return nil, r.handlePostgresError("create content", err)
	}

	query := `
		INSERT INTO contents (id, hash, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := db.Exec(ctx, query, id, hash, owner, now, now); err != nil {
		// The unique constraint backstops concurrent writers from other
		// processes; the surrounding transaction rolls the counter back.
		return nil, r.handlePostgresError("create content", err)
	}

	return &simpleregistry.Content{
		ID:        id,
		Hash:      hash,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *Repository) GetContent(ctx context.Context, id simpleregistry.ContentID) (*simpleregistry.Content, error) {
	query := `
		SELECT id, hash, owner, created_at, updated_at
		FROM contents WHERE id = $1`

	var content simpleregistry.Content
	err := r.db.QueryRow(ctx, query, id).Scan(
		&content.ID, &content.Hash, &content.Owner, &content.CreatedAt, &content.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleregistry.ErrContentNotFound
		}
		return nil, r.handlePostgresError("get content", err)
	}

	return &content, nil
}

func (r *Repository) GetContentByHash(ctx context.Context, hash string) (*simpleregistry.Content, error) {
	query := `
		SELECT id, hash, owner, created_at, updated_at
		FROM contents WHERE hash = $1`

	var content simpleregistry.Content
	err := r.db.QueryRow(ctx, query, hash).Scan(
		&content.ID, &content.Hash, &content.Owner, &content.CreatedAt, &content.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleregistry.ErrContentNotFound
		}
		return nil, r.handlePostgresError("get content by hash", err)
	}

	return &content, nil
}

func (r *Repository) UpdateContentOwner(ctx context.Context, id simpleregistry.ContentID, newOwner simpleregistry.Identity) (*simpleregistry.Content, error) {
	query := `
		UPDATE contents SET owner = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, hash, owner, created_at, updated_at`

	var content simpleregistry.Content
	err := r.db.QueryRow(ctx, query, id, newOwner, time.Now().UTC()).Scan(
		&content.ID, &content.Hash, &content.Owner, &content.CreatedAt, &content.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleregistry.ErrContentNotFound
		}
		return nil, r.handlePostgresError("update content owner", err)
	}

	return &content, nil
}

func (r *Repository) ListContentByOwner(ctx context.Context, owner simpleregistry.Identity) ([]*simpleregistry.Content, error) {
	query := `
		SELECT id, hash, owner, created_at, updated_at
		FROM contents WHERE owner = $1
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, owner)
	if err != nil {
		return nil, r.handlePostgresError("list content by owner", err)
	}
	defer rows.Close()

	contents := make([]*simpleregistry.Content, 0)
	for rows.Next() {
		var content simpleregistry.Content
		if err := rows.Scan(
			&content.ID, &content.Hash, &content.Owner, &content.CreatedAt, &content.UpdatedAt); err != nil {
			return nil, err
		}
		contents = append(contents, &content)
	}

	return contents, rows.Err()
}
