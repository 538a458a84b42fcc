package ports

import (
	"context"

	"gamesage/internal/domain/inference"
)

type RuleFilter struct {
	Category string
	Active   *bool
	Offset   int
	Limit    int
}

type RulePage struct {
	Rules []inference.Rule
	Total int64
}

// RuleRepository stores authored rules. Reads return copies the caller may keep.
type RuleRepository interface {
	// ListActive returns active rules ordered by priority desc, specificity desc, id asc.
	ListActive(ctx context.Context) ([]inference.Rule, error)
	List(ctx context.Context, filter RuleFilter) (RulePage, error)
	Get(ctx context.Context, id int64) (inference.Rule, error)
	Create(ctx context.Context, rule inference.Rule) (inference.Rule, error)
	Update(ctx context.Context, rule inference.Rule) (inference.Rule, error)
	Delete(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) (inference.Rule, error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
	// IncrementTimesFired adds one to every listed rule in a single atomic step.
	IncrementTimesFired(ctx context.Context, ids []int64) error
}

type CatalogRepository interface {
	ListCandidates(ctx context.Context) ([]inference.Candidate, error)
	UpsertCandidates(ctx context.Context, candidates []inference.Candidate) error
}
