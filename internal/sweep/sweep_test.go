package sweep_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthhq/hearth/internal/domain/model"
	"github.com/hearthhq/hearth/internal/sweep"
)

type stubLister struct {
	unverified []*model.Claim
	insecure   []*model.Claim
	err        error
}

func (s *stubLister) ListUnverified(ctx context.Context, _ int) ([]*model.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.unverified, s.err
}

func (s *stubLister) ListVerifiedInsecure(ctx context.Context, _ int) ([]*model.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.insecure, s.err
}

type stubChecker struct {
	mu       sync.Mutex
	rechecks map[uuid.UUID]int
	probes   map[uuid.UUID]int
}

func newStubChecker() *stubChecker {
	return &stubChecker{rechecks: make(map[uuid.UUID]int), probes: make(map[uuid.UUID]int)}
}

func (s *stubChecker) Recheck(_ context.Context, id uuid.UUID) (*model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rechecks[id]++
	return nil, nil
}

func (s *stubChecker) ProbeSecurity(_ context.Context, id uuid.UUID) (*model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes[id]++
	return nil, nil
}

func (s *stubChecker) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.rechecks {
		n += c
	}
	for _, c := range s.probes {
		n += c
	}
	return n
}

func claimWithID() *model.Claim {
	return &model.Claim{ID: uuid.New()}
}

func TestRunOnce_visitsEveryClaimOnce(t *testing.T) {
	unverified := []*model.Claim{claimWithID(), claimWithID(), claimWithID()}
	insecure := []*model.Claim{claimWithID()}
	lister := &stubLister{unverified: unverified, insecure: insecure}
	chk := newStubChecker()

	s := sweep.New(lister, chk, sweep.Config{Concurrency: 2}, zap.NewNop())
	s.RunOnce(context.Background())

	for _, c := range unverified {
		if chk.rechecks[c.ID] != 1 {
			t.Errorf("claim %s rechecked %d times, want 1", c.ID, chk.rechecks[c.ID])
		}
	}
	for _, c := range insecure {
		if chk.probes[c.ID] != 1 {
			t.Errorf("claim %s probed %d times, want 1", c.ID, chk.probes[c.ID])
		}
	}
}

func TestRunOnce_reportsGauges(t *testing.T) {
	lister := &stubLister{
		unverified: []*model.Claim{claimWithID(), claimWithID()},
		insecure:   []*model.Claim{claimWithID()},
	}
	s := sweep.New(lister, newStubChecker(), sweep.Config{}, zap.NewNop())

	gauges := make(map[string]float64)
	s.SetGauge(func(state string, count float64) { gauges[state] = count })
	s.RunOnce(context.Background())

	if gauges["unverified"] != 2 {
		t.Errorf("unverified gauge: got %v", gauges["unverified"])
	}
	if gauges["verified_insecure"] != 1 {
		t.Errorf("verified_insecure gauge: got %v", gauges["verified_insecure"])
	}
}

func TestRunOnce_listErrorIsAbsorbed(t *testing.T) {
	lister := &stubLister{err: errors.New("db down")}
	s := sweep.New(lister, newStubChecker(), sweep.Config{}, zap.NewNop())
	// Must not panic or hang.
	s.RunOnce(context.Background())
}

func TestStart_subSecondIntervalStillSweeps(t *testing.T) {
	lister := &stubLister{unverified: []*model.Claim{claimWithID()}}
	chk := newStubChecker()
	s := sweep.New(lister, chk, sweep.Config{Interval: 20 * time.Millisecond}, zap.NewNop())

	quit := make(chan os.Signal, 1)
	done := make(chan struct{})
	go func() {
		s.Start(quit)
		close(done)
	}()
	defer func() {
		quit <- os.Interrupt
		<-done
	}()

	// Each pass must get a live context even when the interval leaves no room
	// for the usual one-second slack.
	deadline := time.After(2 * time.Second)
	for chk.total() == 0 {
		select {
		case <-deadline:
			t.Fatal("no recheck completed within 2s at a 20ms interval")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
