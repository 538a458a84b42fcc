package memory

import (
	"cmp"
	"context"
	"slices"

	"gamesage/internal/domain/inference"
)

type CatalogRepo struct {
	store *Store
}

func NewCatalogRepo(store *Store) CatalogRepo {
	return CatalogRepo{store: store}
}

// ListCandidates returns the catalog ordered by id.
func (r CatalogRepo) ListCandidates(ctx context.Context) ([]inference.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []inference.Candidate
	r.store.read(ctx, func() {
		out = make([]inference.Candidate, 0, len(r.store.candidates))
		for _, c := range r.store.candidates {
			out = append(out, cloneCandidate(c))
		}
	})
	slices.SortFunc(out, func(a, b inference.Candidate) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r CatalogRepo) UpsertCandidates(ctx context.Context, candidates []inference.Candidate) error {
	r.store.write(ctx, func() {
		for _, c := range candidates {
			r.store.candidates[c.ID] = cloneCandidate(c)
		}
	})
	return nil
}

func cloneCandidate(c inference.Candidate) inference.Candidate {
	c.Genres = slices.Clone(c.Genres)
	c.Platforms = slices.Clone(c.Platforms)
	c.Tags = slices.Clone(c.Tags)
	if c.Metacritic != nil {
		mc := *c.Metacritic
		c.Metacritic = &mc
	}
	if c.Released != nil {
		released := *c.Released
		c.Released = &released
	}
	return c
}
