// Package sweep drives periodic domain rechecks without coupling the
// verification engine to a scheduler.
//
// The engine itself is pull-based: nothing happens unless someone calls
// Recheck or ProbeSecurity. Tenants trigger those from the dashboard; the
// sweeper is the ops-side caller that keeps claims progressing when nobody
// is watching.
package sweep

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthhq/hearth/internal/domain/model"
)

// Config holds sweep configuration.
type Config struct {
	Interval    time.Duration
	BatchSize   int
	Concurrency int
}

// claimLister pages through claims that still need attention.
// *repository.ClaimRepository satisfies this interface.
type claimLister interface {
	ListUnverified(ctx context.Context, limit int) ([]*model.Claim, error)
	ListVerifiedInsecure(ctx context.Context, limit int) ([]*model.Claim, error)
}

// checker is the engine surface the sweeper drives.
// *service.Engine satisfies this interface.
type checker interface {
	Recheck(ctx context.Context, claimID uuid.UUID) (*model.Claim, error)
	ProbeSecurity(ctx context.Context, claimID uuid.UUID) (*model.Claim, error)
}

// GaugeFunc is an optional callback for reporting claim counts by state.
type GaugeFunc func(state string, count float64)

// Sweeper periodically rechecks unverified claims and probes TLS on
// verified ones.
type Sweeper struct {
	lister  claimLister
	checker checker
	cfg     Config
	onGauge GaugeFunc
	logger  *zap.Logger
}

// New creates a Sweeper.
func New(lister claimLister, chk checker, cfg Config, logger *zap.Logger) *Sweeper {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 5
	}
	return &Sweeper{lister: lister, checker: chk, cfg: cfg, logger: logger}
}

// SetGauge configures the claim-count gauge callback.
func (s *Sweeper) SetGauge(fn GaugeFunc) { s.onGauge = fn }

// Start runs the sweep loop until quit is signalled.
func (s *Sweeper) Start(quit <-chan os.Signal) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// Leave a second of slack before the next tick; intervals too short for
	// that get the whole interval as their budget.
	budget := s.cfg.Interval - time.Second
	if budget <= 0 {
		budget = s.cfg.Interval
	}

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), budget)
			s.RunOnce(ctx)
			cancel()
		case <-quit:
			return
		}
	}
}

// RunOnce performs a single sweep pass with bounded concurrency.
func (s *Sweeper) RunOnce(ctx context.Context) {
	unverified, err := s.lister.ListUnverified(ctx, s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("sweep: list unverified claims", zap.Error(err))
		return
	}
	s.forEach(ctx, unverified, func(ctx context.Context, id uuid.UUID) {
		if _, err := s.checker.Recheck(ctx, id); err != nil {
			s.logger.Warn("sweep: recheck", zap.String("claim_id", id.String()), zap.Error(err))
		}
	})

	insecure, err := s.lister.ListVerifiedInsecure(ctx, s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("sweep: list insecure claims", zap.Error(err))
		return
	}
	s.forEach(ctx, insecure, func(ctx context.Context, id uuid.UUID) {
		if _, err := s.checker.ProbeSecurity(ctx, id); err != nil {
			s.logger.Warn("sweep: tls probe", zap.String("claim_id", id.String()), zap.Error(err))
		}
	})

	if s.onGauge != nil {
		s.onGauge("unverified", float64(len(unverified)))
		s.onGauge("verified_insecure", float64(len(insecure)))
	}
}

func (s *Sweeper) forEach(ctx context.Context, claims []*model.Claim, fn func(context.Context, uuid.UUID)) {
	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, claim := range claims {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			fn(ctx, id)
		}(claim.ID)
	}
	wg.Wait()
}
