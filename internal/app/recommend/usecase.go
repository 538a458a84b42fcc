package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamesage/internal/app/ports"
	"gamesage/internal/domain/inference"
	"gamesage/internal/logging"
	"gamesage/internal/validation"

	"github.com/google/uuid"
)

var ErrInvalidRequest = errors.New("invalid inference request")

type Settings struct {
	MaxIterations   int
	DefaultStrategy inference.Strategy
	ResultLimit     int
	MaxResultLimit  int
	Timeout         time.Duration
}

type UseCase struct {
	Loader   *SnapshotLoader
	Rules    ports.RuleRepository
	Engine   *inference.Engine
	Metrics  ports.InferenceMetrics
	Settings Settings
	Now      func() time.Time
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if err := validation.Struct(req); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := validateFacts(req.InitialFacts); err != nil {
		return Response{}, err
	}
	fallback := u.Settings.DefaultStrategy
	if fallback == "" {
		fallback = inference.StrategyCombined
	}
	strategy, err := inference.ParseStrategy(req.ConflictStrategy, fallback)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	maxIter := u.Settings.MaxIterations
	if maxIter <= 0 {
		maxIter = inference.DefaultMaxIterations
	}
	if req.MaxIterations != nil {
		maxIter = *req.MaxIterations
	}

	now := u.now()
	start := now()
	if u.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.Settings.Timeout)
		defer cancel()
	}
	runID := uuid.NewString()
	ctx = logging.ContextWithCorrelationID(ctx, runID)
	log := logging.Ctx(ctx).With().Str("component", "recommend").Logger()

	snap, err := u.Loader.Load(ctx)
	if err != nil {
		u.recordFailure("snapshot")
		log.Error().Err(err).Msg("snapshot load failed")
		return Response{}, err
	}

	res, err := u.Engine.Run(ctx, inference.Request{
		Rules:         snap.Rules,
		Candidates:    snap.Candidates,
		InitialFacts:  req.InitialFacts,
		Goal:          req.Goal,
		MaxIterations: maxIter,
		Strategy:      strategy,
	})
	if err != nil {
		u.recordFailure("cancelled")
		ev := log.Error().Err(err)
		if res != nil {
			ev = ev.Int("iterations", res.Iterations)
		}
		ev.Msg("inference aborted")
		return Response{}, err
	}

	if len(res.FiredRuleIDs) > 0 && u.Rules != nil {
		if err := u.Rules.IncrementTimesFired(ctx, res.FiredRuleIDs); err != nil {
			log.Warn().Err(err).Ints64("rule_ids", res.FiredRuleIDs).Msg("times_fired not persisted")
		}
	}

	recs := inference.Rank(res.Outcomes, u.limit(req.Limit))
	elapsed := now().Sub(start)
	if u.Metrics != nil {
		u.Metrics.RecordRun(res.Termination, len(res.Traces), elapsed)
	}
	log.Debug().
		Str("strategy", string(strategy)).
		Int("iterations", res.Iterations).
		Int("rules_fired", len(res.Traces)).
		Str("termination", string(res.Termination)).
		Int("recommendations", len(recs)).
		Msg("inference run finished")

	return Response{
		RunID:           runID,
		Recommendations: toDTO(recs),
		Iterations:      res.Iterations,
		ExecutionTime:   elapsed.Seconds(),
		RulesFiredCount: len(res.Traces),
		GoalReached:     res.GoalReached,
		Termination:     string(res.Termination),
		Explanation:     inference.Explain(res, recs),
	}, nil
}

func (u UseCase) now() func() time.Time {
	if u.Now != nil {
		return u.Now
	}
	return time.Now
}

func (u UseCase) limit(requested int) int {
	limit := u.Settings.ResultLimit
	if limit <= 0 {
		limit = 10
	}
	if requested > 0 {
		limit = requested
	}
	if u.Settings.MaxResultLimit > 0 && limit > u.Settings.MaxResultLimit {
		limit = u.Settings.MaxResultLimit
	}
	return limit
}

func (u UseCase) recordFailure(reason string) {
	if u.Metrics != nil {
		u.Metrics.RecordFailure(reason)
	}
}

func validateFacts(facts []inference.Fact) error {
	for i, f := range facts {
		if strings.TrimSpace(f.Entity) == "" || strings.TrimSpace(f.Attribute) == "" {
			return fmt.Errorf("%w: initial_facts[%d] needs entity and attribute", ErrInvalidRequest, i)
		}
		if !f.Value.Valid() {
			return fmt.Errorf("%w: initial_facts[%d] has no value", ErrInvalidRequest, i)
		}
	}
	return nil
}

func toDTO(recs []inference.Recommendation) []Recommendation {
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		out = append(out, Recommendation{
			ID:            r.Candidate.ID,
			GameTitle:     r.Candidate.Title,
			Rank:          r.Rank,
			Confidence:    r.Confidence,
			Score:         r.Score,
			Justification: r.Justification,
			Reasons:       r.Candidate.Reasons(),
		})
	}
	return out
}
