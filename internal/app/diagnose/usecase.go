package diagnose

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gamesage/internal/app/ports"
	"gamesage/internal/domain/inference"
	"gamesage/internal/validation"
)

var ErrInvalidRequest = errors.New("invalid diagnose request")

const (
	tagMultiplayer  = "multiplayer"
	tagSingleplayer = "singleplayer"
)

type Settings struct {
	DefaultPageSize int
	MaxPageSize     int
}

// UseCase filters the catalog by hard constraints, without running rules.
type UseCase struct {
	Catalog  ports.CatalogRepository
	Settings Settings
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if err := validation.Struct(req); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	candidates, err := u.Catalog.ListCandidates(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, ctxErr
		}
		return Response{}, fmt.Errorf("%w: list candidates: %w", ports.ErrUnavailable, err)
	}

	matched := inference.FilterCandidates(candidates, Conditions(req))
	slices.SortStableFunc(matched, func(a, b inference.Candidate) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	page, size := u.paging(req)
	total := len(matched)
	start := total
	// compare in pages so the offset math cannot overflow
	if page-1 < (total+size-1)/size {
		start = (page - 1) * size
	}
	end := min(start+size, total)
	items := make([]inference.Candidate, 0, end-start)
	items = append(items, matched[start:end]...)

	return Response{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}, nil
}

// Conditions translates the constraints into candidate conditions.
func Conditions(req Request) []inference.Condition {
	var conds []inference.Condition
	add := func(attr string, op inference.Operator, v inference.Value) {
		conds = append(conds, inference.Condition{Entity: inference.EntityCandidate, Attribute: attr, Operator: op, Value: v})
	}
	if p := strings.TrimSpace(req.Platform); p != "" {
		add("platforms", inference.OpContains, inference.StringValue(p))
	}
	if req.AgeMax != nil {
		add("age_rating", inference.OpLe, inference.IntValue(*req.AgeMax))
	}
	if req.MultiplayerRequired {
		add("tags", inference.OpContains, inference.StringValue(tagMultiplayer))
	}
	if req.OfflineRequired {
		add("tags", inference.OpContains, inference.StringValue(tagSingleplayer))
	}
	if len(req.IncludeGenres) > 0 {
		add("genres", inference.OpIn, inference.StringsValue(req.IncludeGenres...))
	}
	for _, g := range req.ExcludeGenres {
		add("genres", inference.OpNe, inference.StringValue(g))
	}
	if req.MaxPlaytime != nil {
		add("playtime", inference.OpLe, inference.IntValue(*req.MaxPlaytime))
	}
	return conds
}

func (u UseCase) paging(req Request) (int, int) {
	page := max(req.Page, 1)
	size := req.PageSize
	if size <= 0 {
		size = u.Settings.DefaultPageSize
	}
	if size <= 0 {
		size = 20
	}
	if u.Settings.MaxPageSize > 0 && size > u.Settings.MaxPageSize {
		size = u.Settings.MaxPageSize
	}
	return page, size
}
