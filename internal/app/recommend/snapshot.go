package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamesage/internal/app/ports"
	"gamesage/internal/domain/inference"
	"gamesage/internal/logging"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the immutable input of one run.
type Snapshot struct {
	Rules      []inference.Rule
	Candidates []inference.Candidate
}

type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// SnapshotLoader fetches rules and catalog in parallel behind a circuit breaker.
// A failed or partial load is reported as ports.ErrUnavailable.
type SnapshotLoader struct {
	rules   ports.RuleRepository
	catalog ports.CatalogRepository
	cb      *gobreaker.CircuitBreaker[Snapshot]
	logger  zerolog.Logger
}

func NewSnapshotLoader(rules ports.RuleRepository, catalog ports.CatalogRepository, s BreakerSettings) *SnapshotLoader {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	l := &SnapshotLoader{
		rules:   rules,
		catalog: catalog,
		logger:  logging.WithComponent("snapshot_loader"),
	}
	l.cb = gobreaker.NewCircuitBreaker[Snapshot](gobreaker.Settings{
		Name:        "rule-snapshot",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		// a caller giving up is not a storage failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return l
}

func (l *SnapshotLoader) Load(ctx context.Context) (Snapshot, error) {
	snap, err := l.cb.Execute(func() (Snapshot, error) {
		return l.fetch(ctx)
	})
	if err == nil {
		return snap, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", ctxErr)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Snapshot{}, fmt.Errorf("%w: rule storage circuit open", ports.ErrUnavailable)
	}
	return Snapshot{}, fmt.Errorf("%w: load snapshot: %w", ports.ErrUnavailable, err)
}

func (l *SnapshotLoader) fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rules, err := l.rules.ListActive(gctx)
		if err != nil {
			return fmt.Errorf("list active rules: %w", err)
		}
		snap.Rules = rules
		return nil
	})
	g.Go(func() error {
		candidates, err := l.catalog.ListCandidates(gctx)
		if err != nil {
			return fmt.Errorf("list candidates: %w", err)
		}
		snap.Candidates = candidates
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
