package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthhq/hearth/internal/dnscheck"
	"github.com/hearthhq/hearth/internal/domain/model"
	"github.com/hearthhq/hearth/internal/domain/repository"
	"github.com/hearthhq/hearth/internal/notify"
	"github.com/hearthhq/hearth/internal/provisioning"
	"github.com/hearthhq/hearth/internal/tenants"
	"github.com/hearthhq/hearth/internal/tlsprobe"
	"github.com/hearthhq/hearth/pkg/hostname"
)

// Sentinel errors for the verification engine. All are caller-input errors;
// transient resolver, probe, and queue failures are absorbed, logged, and
// reported through claim state instead.
var (
	ErrInvalidHostname = errors.New("invalid hostname")
	ErrHostnameTaken   = errors.New("hostname already claimed by another tenant")
	ErrTenantHasClaim  = errors.New("tenant already has a custom domain claim")
	ErrClaimNotFound   = errors.New("domain claim not found")
	ErrNotVerified     = errors.New("domain claim is not verified")
)

// claimStore is the storage interface required by the Engine.
// *repository.ClaimRepository satisfies this interface.
type claimStore interface {
	Create(ctx context.Context, c *model.Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Claim, error)
	GetByHostname(ctx context.Context, host string) (*model.Claim, error)
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*model.Claim, error)
	SetRequirementVerified(ctx context.Context, id uuid.UUID, kind model.RequirementKind) (bool, error)
	MarkVerified(ctx context.Context, id uuid.UUID) (bool, error)
	MarkSecure(ctx context.Context, id uuid.UUID) (bool, error)
	MarkDispatched(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// tenantDirectory resolves tenant contact details for notifications.
// *tenants.Repository satisfies this interface.
type tenantDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenants.Tenant, error)
}

// auditRecorder appends best-effort audit entries.
// *audit.Recorder satisfies this interface.
type auditRecorder interface {
	Record(ctx context.Context, tenantID uuid.UUID, action, subject string, meta map[string]string)
}

// CheckRecorder is an optional metrics callback for DNS check outcomes.
type CheckRecorder func(kind string, verified bool)

// DispatchRecorder is an optional metrics callback for provisioning hand-offs.
type DispatchRecorder func(success bool)

// ProbeRecorder is an optional metrics callback for TLS probe outcomes.
type ProbeRecorder func(secure bool)

// Config carries the platform-side record values tenants must point at.
type Config struct {
	// AliasTarget is the canonical CNAME target for subdomain claims.
	AliasTarget string
	// InboundIPv4 is the published A-record address for apex claims.
	InboundIPv4 string
	// PlatformZone is the zone tenant slugs live under ("hearth.network").
	PlatformZone string
}

// Engine drives custom-domain verification: it computes the records a
// tenant must publish, re-checks them on demand, derives the claim-level
// verified state, hands verified domains to provisioning exactly once, and
// independently probes TLS status.
type Engine struct {
	store      claimStore
	resolver   dnscheck.Resolver
	prober     tlsprobe.Prober
	dispatcher provisioning.Dispatcher
	notifier   notify.Notifier
	tenants    tenantDirectory
	audit      auditRecorder
	cfg        Config
	logger     *zap.Logger

	onCheck    CheckRecorder
	onDispatch DispatchRecorder
	onProbe    ProbeRecorder
}

// NewEngine creates an Engine. All collaborators are required except audit,
// which may be nil.
func NewEngine(
	store claimStore,
	resolver dnscheck.Resolver,
	prober tlsprobe.Prober,
	dispatcher provisioning.Dispatcher,
	notifier notify.Notifier,
	directory tenantDirectory,
	recorder auditRecorder,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:      store,
		resolver:   resolver,
		prober:     prober,
		dispatcher: dispatcher,
		notifier:   notifier,
		tenants:    directory,
		audit:      recorder,
		cfg:        cfg,
		logger:     logger,
	}
}

// SetCheckRecorder configures the DNS check metrics callback.
func (e *Engine) SetCheckRecorder(fn CheckRecorder) { e.onCheck = fn }

// SetDispatchRecorder configures the dispatch metrics callback.
func (e *Engine) SetDispatchRecorder(fn DispatchRecorder) { e.onDispatch = fn }

// SetProbeRecorder configures the TLS probe metrics callback.
func (e *Engine) SetProbeRecorder(fn ProbeRecorder) { e.onProbe = fn }

// Claim registers a custom domain for a tenant and computes the DNS records
// the tenant must publish. No verification is attempted here: the tenant
// has not configured anything yet and DNS propagation takes time.
func (e *Engine) Claim(ctx context.Context, tenantID uuid.UUID, raw string) (*model.Claim, error) {
	h, err := hostname.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHostname, err.Error())
	}

	if _, err := e.store.GetByHostname(ctx, h.String()); err == nil {
		return nil, ErrHostnameTaken
	} else if !errors.Is(err, repository.ErrClaimNotFound) {
		return nil, fmt.Errorf("check hostname uniqueness: %w", err)
	}
	if _, err := e.store.GetByTenant(ctx, tenantID); err == nil {
		return nil, ErrTenantHasClaim
	} else if !errors.Is(err, repository.ErrClaimNotFound) {
		return nil, fmt.Errorf("check tenant claim: %w", err)
	}

	token, err := dnscheck.NewToken()
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}

	claim := &model.Claim{
		TenantID:    tenantID,
		Hostname:    h.String(),
		IsSubdomain: h.IsSubdomain(),
		ApexDomain:  h.Apex(),
		TXT:         requirementOf(dnscheck.TXTRequirement(h, token)),
	}
	if h.IsSubdomain() {
		claim.CNAME = requirementOf(dnscheck.CNAMERequirement(h, e.cfg.AliasTarget))
	} else {
		claim.A = requirementOf(dnscheck.ARequirement(h, e.cfg.InboundIPv4))
	}

	if err := e.store.Create(ctx, claim); err != nil {
		switch {
		case errors.Is(err, repository.ErrHostnameTaken):
			return nil, ErrHostnameTaken
		case errors.Is(err, repository.ErrTenantHasClaim):
			return nil, ErrTenantHasClaim
		}
		return nil, fmt.Errorf("persist claim: %w", err)
	}

	if e.audit != nil {
		e.audit.Record(ctx, tenantID, "domain.claimed", claim.Hostname, map[string]string{
			"claim_id": claim.ID.String(),
			"topology": claim.ProvisionKind(),
		})
	}
	e.logger.Info("custom domain claimed",
		zap.String("hostname", claim.Hostname),
		zap.String("tenant_id", tenantID.String()),
		zap.Bool("is_subdomain", claim.IsSubdomain),
	)
	return claim, nil
}

// checkResult is one concurrent lookup outcome.
type checkResult struct {
	kind     model.RequirementKind
	verified bool
}

// Recheck re-resolves every outstanding requirement for the claim and
// derives the claim-level verified state. Safe to call repeatedly: verified
// flags never regress, lookup failures are absorbed, and the provisioning
// hand-off fires only on the false→true transition of the claim itself.
func (e *Engine) Recheck(ctx context.Context, claimID uuid.UUID) (*model.Claim, error) {
	claim, err := e.store.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("get claim: %w", err)
	}

	if claim.Verified {
		return claim, nil // nothing left to check on the DNS dimension
	}

	results := e.runChecks(ctx, claim)
	for _, res := range results {
		if e.onCheck != nil {
			e.onCheck(string(res.kind), res.verified)
		}
		if !res.verified {
			continue
		}
		if _, err := e.store.SetRequirementVerified(ctx, claimID, res.kind); err != nil {
			// A failed flag write must not block the other requirements.
			e.logger.Warn("recheck: persist requirement flag",
				zap.String("hostname", claim.Hostname),
				zap.String("kind", string(res.kind)),
				zap.Error(err),
			)
		}
	}

	flipped, err := e.store.MarkVerified(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("derive verified state: %w", err)
	}
	if flipped {
		e.logger.Info("custom domain verified", zap.String("hostname", claim.Hostname))
		e.handOff(ctx, claimID)
	}

	updated, err := e.store.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("reload claim: %w", err)
	}
	return updated, nil
}

// runChecks resolves the outstanding requirements concurrently. The three
// lookups are independent; a failure in one never blocks the others.
func (e *Engine) runChecks(ctx context.Context, claim *model.Claim) []checkResult {
	type check struct {
		kind model.RequirementKind
		run  func(ctx context.Context) bool
	}

	var checks []check
	if !claim.TXT.Verified {
		req := claim.TXT
		checks = append(checks, check{model.RequirementTXT, func(ctx context.Context) bool {
			records, err := e.resolver.ResolveTXT(ctx, req.FQDN)
			if err != nil {
				e.logCheckMiss(claim.Hostname, model.RequirementTXT, req.FQDN, err)
				return false
			}
			return dnscheck.MatchTXT(records, req.ExpectedValue)
		}})
	}
	if claim.CNAME != nil && !claim.CNAME.Verified {
		req := claim.CNAME
		checks = append(checks, check{model.RequirementCNAME, func(ctx context.Context) bool {
			records, err := e.resolver.ResolveCNAME(ctx, req.FQDN)
			if err != nil {
				e.logCheckMiss(claim.Hostname, model.RequirementCNAME, req.FQDN, err)
				return false
			}
			return dnscheck.MatchCNAME(records, req.ExpectedValue)
		}})
	}
	if claim.A != nil && !claim.A.Verified {
		req := claim.A
		checks = append(checks, check{model.RequirementA, func(ctx context.Context) bool {
			records, err := e.resolver.ResolveA(ctx, req.FQDN)
			if err != nil {
				e.logCheckMiss(claim.Hostname, model.RequirementA, req.FQDN, err)
				return false
			}
			return dnscheck.MatchA(records, req.ExpectedValue)
		}})
	}

	results := make([]checkResult, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c check) {
			defer wg.Done()
			results[i] = checkResult{kind: c.kind, verified: c.run(ctx)}
		}(i, c)
	}
	wg.Wait()
	return results
}

func (e *Engine) logCheckMiss(host string, kind model.RequirementKind, fqdn string, err error) {
	// Lookup errors are expected while the tenant is still configuring DNS;
	// they downgrade to "not yet verified", never to a claim-level failure.
	e.logger.Info("recheck: lookup did not verify",
		zap.String("hostname", host),
		zap.String("kind", string(kind)),
		zap.String("fqdn", fqdn),
		zap.Error(err),
	)
}

// handOff dispatches a freshly verified claim to provisioning. Failures are
// logged and swallowed: the verified flag is never rolled back, and an
// operator can recover via Redispatch.
func (e *Engine) handOff(ctx context.Context, claimID uuid.UUID) {
	claim, err := e.store.GetByID(ctx, claimID)
	if err != nil {
		e.logger.Error("hand-off: reload claim", zap.Error(err))
		return
	}

	err = e.dispatcher.Dispatch(ctx, claim, claim.ProvisionKind())
	if e.onDispatch != nil {
		e.onDispatch(err == nil)
	}
	if err != nil {
		e.logger.Error("hand-off: provisioning dispatch failed",
			zap.String("hostname", claim.Hostname),
			zap.Error(err),
		)
		return
	}

	if err := e.store.MarkDispatched(ctx, claimID); err != nil {
		e.logger.Warn("hand-off: record dispatch time", zap.Error(err))
	}
	if e.audit != nil {
		e.audit.Record(ctx, claim.TenantID, "domain.verified", claim.Hostname, map[string]string{
			"claim_id": claim.ID.String(),
			"kind":     claim.ProvisionKind(),
		})
	}
}

// ProbeSecurity checks whether the claimed hostname is already serving a
// valid certificate. Once secure, the flag never resets and subsequent
// calls return without probing.
func (e *Engine) ProbeSecurity(ctx context.Context, claimID uuid.UUID) (*model.Claim, error) {
	claim, err := e.store.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("get claim: %w", err)
	}

	if claim.Secure {
		return claim, nil // idempotent, no re-probe
	}

	ok := e.prober.Probe(ctx, claim.Hostname)
	if e.onProbe != nil {
		e.onProbe(ok)
	}
	if !ok {
		e.logger.Info("tls probe: not yet secure", zap.String("hostname", claim.Hostname))
		return claim, nil
	}

	flipped, err := e.store.MarkSecure(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("mark claim secure: %w", err)
	}
	if flipped {
		e.logger.Info("custom domain secured", zap.String("hostname", claim.Hostname))
		e.notifySecured(ctx, claim)
		if e.audit != nil {
			e.audit.Record(ctx, claim.TenantID, "domain.secured", claim.Hostname, nil)
		}
	}

	updated, err := e.store.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("reload claim: %w", err)
	}
	return updated, nil
}

// notifySecured delivers the secured-domain notice in the background.
func (e *Engine) notifySecured(ctx context.Context, claim *model.Claim) {
	tenant, err := e.tenants.GetByID(ctx, claim.TenantID)
	if err != nil {
		e.logger.Warn("notify: resolve tenant",
			zap.String("tenant_id", claim.TenantID.String()),
			zap.Error(err),
		)
		return
	}

	previous := tenant.PlatformHostname(e.cfg.PlatformZone)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.notifier.DomainSecured(ctx, tenant.ContactEmail, claim.Hostname, previous); err != nil {
			e.logger.Warn("notify: secured notice delivery failed",
				zap.String("hostname", claim.Hostname),
				zap.Error(err),
			)
		}
	}()
}

// Redispatch re-enqueues provisioning for an already-verified claim. The
// normal hand-off is best-effort and fires once; this is the deliberate
// recovery path when that enqueue was lost.
func (e *Engine) Redispatch(ctx context.Context, claimID uuid.UUID) (*model.Claim, error) {
	claim, err := e.store.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if !claim.Verified {
		return nil, ErrNotVerified
	}

	err = e.dispatcher.Dispatch(ctx, claim, claim.ProvisionKind())
	if e.onDispatch != nil {
		e.onDispatch(err == nil)
	}
	if err != nil {
		return nil, fmt.Errorf("redispatch provisioning: %w", err)
	}
	if err := e.store.MarkDispatched(ctx, claimID); err != nil {
		e.logger.Warn("redispatch: record dispatch time", zap.Error(err))
	}
	if e.audit != nil {
		e.audit.Record(ctx, claim.TenantID, "domain.redispatched", claim.Hostname, nil)
	}

	updated, err := e.store.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("reload claim: %w", err)
	}
	return updated, nil
}

// Delete hard-deletes a claim. Routing de-registration is owned downstream.
func (e *Engine) Delete(ctx context.Context, claimID uuid.UUID) error {
	claim, err := e.store.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return ErrClaimNotFound
		}
		return fmt.Errorf("get claim: %w", err)
	}

	if err := e.store.Delete(ctx, claimID); err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return ErrClaimNotFound
		}
		return fmt.Errorf("delete claim: %w", err)
	}

	if e.audit != nil {
		e.audit.Record(ctx, claim.TenantID, "domain.deleted", claim.Hostname, nil)
	}
	e.logger.Info("custom domain claim deleted", zap.String("hostname", claim.Hostname))
	return nil
}

// GetByID returns the current state of a claim.
func (e *Engine) GetByID(ctx context.Context, claimID uuid.UUID) (*model.Claim, error) {
	claim, err := e.store.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return claim, nil
}

// GetByTenant returns the tenant's claim, if any.
func (e *Engine) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*model.Claim, error) {
	claim, err := e.store.GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("get tenant claim: %w", err)
	}
	return claim, nil
}

func requirementOf(r dnscheck.Requirement) *model.Requirement {
	return &model.Requirement{
		Name:          r.Name,
		FQDN:          r.FQDN,
		ExpectedValue: r.ExpectedValue,
	}
}
