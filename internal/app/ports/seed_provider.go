package ports

import (
	"context"

	"gamesage/internal/domain/inference"
)

// SeedProvider supplies the bundled rule pack and sample catalog.
type SeedProvider interface {
	Rules(ctx context.Context) ([]inference.Rule, error)
	Candidates(ctx context.Context) ([]inference.Candidate, error)
}
