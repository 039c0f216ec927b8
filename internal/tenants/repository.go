package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a tenant lookup finds no matching record.
var ErrNotFound = errors.New("tenant not found")

// Repository reads tenant records from PostgreSQL. Tenant lifecycle (signup,
// billing, deletion) is owned by the main platform backend; this subsystem
// only needs lookups.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a tenant Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a tenant by its UUID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	t := &Tenant{}
	err := r.db.QueryRow(ctx,
		`SELECT id, slug, name, contact_email, created_at FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Slug, &t.Name, &t.ContactEmail, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

// GetBySlug retrieves a tenant by its slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	t := &Tenant{}
	err := r.db.QueryRow(ctx,
		`SELECT id, slug, name, contact_email, created_at FROM tenants WHERE slug = $1`, slug,
	).Scan(&t.ID, &t.Slug, &t.Name, &t.ContactEmail, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant by slug: %w", err)
	}
	return t, nil
}
