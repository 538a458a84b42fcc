package bootstrap

import (
	"strings"

	"gamesage/internal/app/diagnose"
	"gamesage/internal/app/ports"
	"gamesage/internal/app/recommend"
	"gamesage/internal/app/rules"
	"gamesage/internal/config"
	"gamesage/internal/domain/inference"
)

func EngineOptions(cfg config.InferenceConfig) inference.Options {
	return inference.Options{Weights: inference.CombinedWeights{
		Priority:    cfg.Combined.PriorityWeight,
		Specificity: cfg.Combined.SpecificityWeight,
	}}
}

func Recommend(cfg config.Config, s Storage, m ports.InferenceMetrics) recommend.UseCase {
	return recommend.UseCase{
		Loader: recommend.NewSnapshotLoader(s.Rules, s.Catalog, recommend.BreakerSettings{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			OpenTimeout:      cfg.Breaker.OpenTimeout,
		}),
		Rules:   s.Rules,
		Engine:  inference.NewEngine(EngineOptions(cfg.Inference)),
		Metrics: m,
		Settings: recommend.Settings{
			MaxIterations:   cfg.Inference.MaxIterations,
			DefaultStrategy: inference.Strategy(strings.ToLower(cfg.Inference.DefaultStrategy)),
			ResultLimit:     cfg.Inference.ResultLimit,
			MaxResultLimit:  cfg.Inference.MaxResultLimit,
			Timeout:         cfg.Inference.Timeout,
		},
	}
}

func Diagnose(cfg config.DiagnoseConfig, s Storage) diagnose.UseCase {
	return diagnose.UseCase{
		Catalog:  s.Catalog,
		Settings: diagnose.Settings{DefaultPageSize: cfg.DefaultPageSize, MaxPageSize: cfg.MaxPageSize},
	}
}

func Rules(s Storage) rules.UseCase {
	return rules.UseCase{Repo: s.Rules, TxManager: s.TxManager}
}
