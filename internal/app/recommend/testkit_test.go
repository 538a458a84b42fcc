package recommend

import (
	"context"
	"errors"
	"sync"
	"time"

	"gamesage/internal/app/ports"
	"gamesage/internal/domain/inference"
)

type fakeRules struct {
	mu     sync.Mutex
	rules  []inference.Rule
	err    error
	calls  int
	counts map[int64]int64
}

func (f *fakeRules) ListActive(ctx context.Context) ([]inference.Rule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]inference.Rule, 0, len(f.rules))
	for _, r := range f.rules {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (f *fakeRules) List(context.Context, ports.RuleFilter) (ports.RulePage, error) {
	return ports.RulePage{}, errors.New("not implemented")
}

func (f *fakeRules) Get(context.Context, int64) (inference.Rule, error) {
	return inference.Rule{}, ports.ErrNotFound
}

func (f *fakeRules) Create(context.Context, inference.Rule) (inference.Rule, error) {
	return inference.Rule{}, errors.New("not implemented")
}

func (f *fakeRules) Update(context.Context, inference.Rule) (inference.Rule, error) {
	return inference.Rule{}, errors.New("not implemented")
}

func (f *fakeRules) Delete(context.Context, int64) error { return errors.New("not implemented") }

func (f *fakeRules) SetActive(context.Context, int64, bool) (inference.Rule, error) {
	return inference.Rule{}, errors.New("not implemented")
}

func (f *fakeRules) BulkDelete(context.Context, []int64) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeRules) IncrementTimesFired(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[int64]int64{}
	}
	for _, id := range ids {
		f.counts[id]++
	}
	return nil
}

func (f *fakeRules) fired(id int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[id]
}

type fakeCatalog struct {
	candidates []inference.Candidate
	err        error
}

func (f fakeCatalog) ListCandidates(context.Context) ([]inference.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]inference.Candidate(nil), f.candidates...), nil
}

func (f fakeCatalog) UpsertCandidates(context.Context, []inference.Candidate) error { return nil }

type recordingMetrics struct {
	mu           sync.Mutex
	terminations []inference.Termination
	failures     []string
}

func (m *recordingMetrics) RecordRun(t inference.Termination, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminations = append(m.terminations, t)
}

func (m *recordingMetrics) RecordFailure(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, reason)
}

func catalog() []inference.Candidate {
	return []inference.Candidate{
		{ID: 1, Title: "Elden Ring", Genres: []string{"RPG", "Action"}, Platforms: []string{"PC"}, Rating: 4.8, AgeRating: 16},
		{ID: 2, Title: "The Witcher 3", Genres: []string{"RPG"}, Platforms: []string{"PC", "PS5"}, Rating: 4.7, AgeRating: 18},
		{ID: 3, Title: "FIFA 24", Genres: []string{"Sports"}, Platforms: []string{"PS5"}, Rating: 3.9, AgeRating: 3},
	}
}

func rpgRules() []inference.Rule {
	return []inference.Rule{
		{
			ID: 1, Name: "rpg fans", Priority: 60, Active: true,
			Conditions: []inference.Condition{{Entity: inference.EntityUser, Attribute: "prefers_genre", Operator: inference.OpEq, Value: inference.StringValue("RPG")}},
			Actions:    []inference.Action{{Kind: inference.ActionRecommend, Reason: "genre match"}},
		},
		{
			ID: 2, Name: "young players", Priority: 90, Active: true,
			Conditions: []inference.Condition{{Entity: inference.EntityUser, Attribute: "age", Operator: inference.OpLt, Value: inference.IntValue(18)}},
			Actions: []inference.Action{{
				Kind: inference.ActionFilter, Attribute: "age_rating", Operator: inference.OpGe,
				Value: inference.IntValue(18), ExcludeMatching: true, Reason: "age restricted",
			}},
		},
	}
}

func newUseCase(rules *fakeRules, cat fakeCatalog, m *recordingMetrics) UseCase {
	return UseCase{
		Loader:  NewSnapshotLoader(rules, cat, BreakerSettings{FailureThreshold: 2, OpenTimeout: time.Minute}),
		Rules:   rules,
		Engine:  inference.NewEngine(inference.Options{}),
		Metrics: m,
		Settings: Settings{
			MaxIterations:   50,
			DefaultStrategy: inference.StrategyCombined,
			ResultLimit:     10,
			MaxResultLimit:  20,
			Timeout:         5 * time.Second,
		},
	}
}

func facts(f ...inference.Fact) []inference.Fact { return f }
