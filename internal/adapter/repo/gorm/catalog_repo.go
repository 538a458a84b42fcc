package gormrepo

import (
	"context"

	"gamesage/internal/adapter/repo/gorm/model"
	"gamesage/internal/domain/inference"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 200

type CatalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) CatalogRepo {
	return CatalogRepo{db: db}
}

func (r CatalogRepo) ListCandidates(ctx context.Context) ([]inference.Candidate, error) {
	var rows []model.Game
	if err := getDBFromCtx(ctx, r.db).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]inference.Candidate, 0, len(rows))
	for _, g := range rows {
		out = append(out, candidateFromRow(g))
	}
	return out, nil
}

func (r CatalogRepo) UpsertCandidates(ctx context.Context, candidates []inference.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	rows := make([]model.Game, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, candidateToRow(c))
	}
	return getDBFromCtx(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		CreateInBatches(&rows, upsertBatchSize).Error
}

func candidateToRow(c inference.Candidate) model.Game {
	g := model.Game{
		ID:        c.ID,
		Title:     c.Title,
		Genres:    datatypes.JSONSlice[string](nonNil(c.Genres)),
		Platforms: datatypes.JSONSlice[string](nonNil(c.Platforms)),
		Tags:      datatypes.JSONSlice[string](nonNil(c.Tags)),
		Rating:    c.Rating,
		AgeRating: int32(c.AgeRating),
		Playtime:  int32(c.Playtime),
		Released:  c.Released,
	}
	if c.Metacritic != nil {
		mc := int32(*c.Metacritic)
		g.Metacritic = &mc
	}
	return g
}

func candidateFromRow(g model.Game) inference.Candidate {
	c := inference.Candidate{
		ID:        g.ID,
		Title:     g.Title,
		Genres:    []string(g.Genres),
		Platforms: []string(g.Platforms),
		Tags:      []string(g.Tags),
		Rating:    g.Rating,
		AgeRating: int(g.AgeRating),
		Playtime:  int(g.Playtime),
		Released:  g.Released,
	}
	if g.Metacritic != nil {
		mc := int(*g.Metacritic)
		c.Metacritic = &mc
	}
	return c
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
