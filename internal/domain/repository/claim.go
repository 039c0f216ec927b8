package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearthhq/hearth/internal/domain/model"
)

// Sentinel errors surfaced by the claim repository.
var (
	ErrClaimNotFound  = errors.New("domain claim not found")
	ErrHostnameTaken  = errors.New("hostname already claimed")
	ErrTenantHasClaim = errors.New("tenant already has a domain claim")
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// ClaimRepository provides persistence for custom-domain claims.
type ClaimRepository struct {
	db *pgxpool.Pool
}

// NewClaimRepository creates a ClaimRepository.
func NewClaimRepository(db *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimColumns = `id, tenant_id, hostname, is_subdomain, apex_domain,
	txt_name, txt_fqdn, txt_expected, txt_verified,
	cname_name, cname_fqdn, cname_expected, cname_verified,
	a_name, a_fqdn, a_expected, a_verified,
	verified, secure, dispatched_at, created_at, updated_at`

// Create inserts a new claim. Unique-constraint races on hostname or tenant
// are mapped to ErrHostnameTaken / ErrTenantHasClaim; the service checks
// both before inserting, so hitting these here means a concurrent claim won.
func (r *ClaimRepository) Create(ctx context.Context, c *model.Claim) error {
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	var cnameName, cnameFQDN, cnameExpected *string
	var cnameVerified bool
	if c.CNAME != nil {
		cnameName, cnameFQDN, cnameExpected = &c.CNAME.Name, &c.CNAME.FQDN, &c.CNAME.ExpectedValue
		cnameVerified = c.CNAME.Verified
	}
	var aName, aFQDN, aExpected *string
	var aVerified bool
	if c.A != nil {
		aName, aFQDN, aExpected = &c.A.Name, &c.A.FQDN, &c.A.ExpectedValue
		aVerified = c.A.Verified
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO domain_claims (
			id, tenant_id, hostname, is_subdomain, apex_domain,
			txt_name, txt_fqdn, txt_expected, txt_verified,
			cname_name, cname_fqdn, cname_expected, cname_verified,
			a_name, a_fqdn, a_expected, a_verified,
			verified, secure, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,false,false,$18,$19)`,
		c.ID, c.TenantID, c.Hostname, c.IsSubdomain, c.ApexDomain,
		c.TXT.Name, c.TXT.FQDN, c.TXT.ExpectedValue, c.TXT.Verified,
		cnameName, cnameFQDN, cnameExpected, cnameVerified,
		aName, aFQDN, aExpected, aVerified,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "domain_claims_hostname_key":
				return ErrHostnameTaken
			case "domain_claims_tenant_id_key":
				return ErrTenantHasClaim
			}
		}
		return fmt.Errorf("insert domain claim: %w", err)
	}
	return nil
}

// GetByID returns a claim by its UUID.
func (r *ClaimRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM domain_claims WHERE id = $1`, id)
	return scanClaim(row)
}

// GetByHostname returns the claim holding the given hostname, if any.
func (r *ClaimRepository) GetByHostname(ctx context.Context, host string) (*model.Claim, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM domain_claims WHERE hostname = $1`, host)
	return scanClaim(row)
}

// GetByTenant returns the tenant's claim, if any.
func (r *ClaimRepository) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*model.Claim, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM domain_claims WHERE tenant_id = $1`, tenantID)
	return scanClaim(row)
}

// requirementColumns whitelists the flag column per requirement kind; kinds
// never reach SQL as raw input.
var requirementColumns = map[model.RequirementKind]string{
	model.RequirementTXT:   "txt_verified",
	model.RequirementCNAME: "cname_verified",
	model.RequirementA:     "a_verified",
}

// SetRequirementVerified flips one requirement flag from false to true.
// The returned bool answers "did this call flip it"; a flag that is already
// true is left untouched and reported as false.
func (r *ClaimRepository) SetRequirementVerified(ctx context.Context, id uuid.UUID, kind model.RequirementKind) (bool, error) {
	col, ok := requirementColumns[kind]
	if !ok {
		return false, fmt.Errorf("unknown requirement kind %q", kind)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE domain_claims SET `+col+` = true, updated_at = now()
		 WHERE id = $1 AND `+col+` = false`, id)
	if err != nil {
		return false, fmt.Errorf("set %s verified: %w", kind, err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkVerified derives the claim-level verified flag in a single
// compare-and-set update. The WHERE clause encodes the topology
// completeness predicate, so concurrent rechecks race safely: exactly one
// call observes the false→true transition and gets true back.
func (r *ClaimRepository) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE domain_claims SET verified = true, updated_at = now()
		 WHERE id = $1
		   AND verified = false
		   AND txt_verified
		   AND (NOT is_subdomain OR cname_verified)
		   AND (is_subdomain OR a_verified)`, id)
	if err != nil {
		return false, fmt.Errorf("mark claim verified: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSecure flips the secure flag from false to true, reporting whether
// this call made the transition.
func (r *ClaimRepository) MarkSecure(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE domain_claims SET secure = true, updated_at = now()
		 WHERE id = $1 AND secure = false`, id)
	if err != nil {
		return false, fmt.Errorf("mark claim secure: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkDispatched records the provisioning hand-off time.
func (r *ClaimRepository) MarkDispatched(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE domain_claims SET dispatched_at = now(), updated_at = now()
		 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark claim dispatched: %w", err)
	}
	return nil
}

// Delete hard-deletes a claim.
func (r *ClaimRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM domain_claims WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete domain claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClaimNotFound
	}
	return nil
}

// ListUnverified returns claims still awaiting DNS verification, oldest
// update first, for the background sweep.
func (r *ClaimRepository) ListUnverified(ctx context.Context, limit int) ([]*model.Claim, error) {
	return r.list(ctx,
		`SELECT `+claimColumns+` FROM domain_claims
		 WHERE verified = false ORDER BY updated_at ASC LIMIT $1`, limit)
}

// ListVerifiedInsecure returns verified claims not yet serving TLS.
func (r *ClaimRepository) ListVerifiedInsecure(ctx context.Context, limit int) ([]*model.Claim, error) {
	return r.list(ctx,
		`SELECT `+claimColumns+` FROM domain_claims
		 WHERE verified = true AND secure = false ORDER BY updated_at ASC LIMIT $1`, limit)
}

func (r *ClaimRepository) list(ctx context.Context, query string, limit int) ([]*model.Claim, error) {
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list domain claims: %w", err)
	}
	defer rows.Close()

	var out []*model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// scanClaim reads one claim row, reconstructing the nullable CNAME and A
// requirements.
func scanClaim(row pgx.Row) (*model.Claim, error) {
	c := &model.Claim{TXT: &model.Requirement{}}
	var cnameName, cnameFQDN, cnameExpected *string
	var cnameVerified bool
	var aName, aFQDN, aExpected *string
	var aVerified bool

	err := row.Scan(
		&c.ID, &c.TenantID, &c.Hostname, &c.IsSubdomain, &c.ApexDomain,
		&c.TXT.Name, &c.TXT.FQDN, &c.TXT.ExpectedValue, &c.TXT.Verified,
		&cnameName, &cnameFQDN, &cnameExpected, &cnameVerified,
		&aName, &aFQDN, &aExpected, &aVerified,
		&c.Verified, &c.Secure, &c.DispatchedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("scan domain claim: %w", err)
	}

	if cnameName != nil {
		c.CNAME = &model.Requirement{
			Name:          *cnameName,
			FQDN:          *cnameFQDN,
			ExpectedValue: *cnameExpected,
			Verified:      cnameVerified,
		}
	}
	if aName != nil {
		c.A = &model.Requirement{
			Name:          *aName,
			FQDN:          *aFQDN,
			ExpectedValue: *aExpected,
			Verified:      aVerified,
		}
	}
	return c, nil
}
