package seed

import (
	"context"
	"fmt"

	"gamesage/internal/app/ports"
	"gamesage/internal/logging"
)

type Request struct {
	// Force seeds rules even when the repository already holds some.
	Force bool
}

type Response struct {
	RulesCreated       int  `json:"rules_created"`
	RulesSkipped       bool `json:"rules_skipped"`
	CandidatesUpserted int  `json:"candidates_upserted"`
}

// UseCase loads the bundled rule pack and catalog into storage.
type UseCase struct {
	Provider  ports.SeedProvider
	Rules     ports.RuleRepository
	Catalog   ports.CatalogRepository
	TxManager ports.TxManager
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	rules, err := u.Provider.Rules(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("load seed rules: %w", err)
	}
	games, err := u.Provider.Candidates(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("load seed catalog: %w", err)
	}

	var resp Response
	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := u.Catalog.UpsertCandidates(txCtx, games); err != nil {
			return fmt.Errorf("upsert catalog: %w", err)
		}
		resp.CandidatesUpserted = len(games)

		existing, err := u.Rules.List(txCtx, ports.RuleFilter{Limit: 1})
		if err != nil {
			return fmt.Errorf("count rules: %w", err)
		}
		if existing.Total > 0 && !req.Force {
			resp.RulesSkipped = true
			return nil
		}
		for _, r := range rules {
			r.ID = 0
			if _, err := u.Rules.Create(txCtx, r); err != nil {
				return fmt.Errorf("create rule %q: %w", r.Name, err)
			}
			resp.RulesCreated++
		}
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	logging.Ctx(ctx).Info().
		Int("rules_created", resp.RulesCreated).
		Bool("rules_skipped", resp.RulesSkipped).
		Int("candidates", resp.CandidatesUpserted).
		Msg("seed applied")
	return resp, nil
}
