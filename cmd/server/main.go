package main

import (
	"context"
	"flag"
	"os"

	httpadapter "gamesage/internal/adapter/http"
	"gamesage/internal/adapter/metrics"
	metricsinmem "gamesage/internal/adapter/metrics/inmemory"
	metricsprom "gamesage/internal/adapter/metrics/prom"
	"gamesage/internal/app/seed"
	"gamesage/internal/bootstrap"
	"gamesage/internal/config"
	"gamesage/internal/logging"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stderr})

	h, err := buildHandler(context.Background(), cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("build handler")
	}

	s := server.Default(server.WithHostPorts(cfg.Server.Addr))
	h.RegisterRoutes(s)

	logging.Info().
		Str("addr", cfg.Server.Addr).
		Str("driver", cfg.Database.Driver).
		Msg("gamesage server listening")
	s.Spin()
}

func buildHandler(ctx context.Context, cfg config.Config) (httpadapter.Handler, error) {
	storage, err := bootstrap.OpenStorage(cfg.Database)
	if err != nil {
		return httpadapter.Handler{}, err
	}
	if err := storage.Migrate(ctx, cfg.Database); err != nil {
		return httpadapter.Handler{}, err
	}
	// memory storage starts empty on every boot
	if cfg.Database.Driver == config.DriverMemory {
		if _, err := storage.Seeder(cfg.Database).Execute(ctx, seed.Request{}); err != nil {
			return httpadapter.Handler{}, err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	kpiRecorder := metricsinmem.NewRecorder()
	recorder := metrics.Fanout{kpiRecorder, metricsprom.NewRecorder(reg)}

	return httpadapter.Handler{
		InferenceUC: bootstrap.Recommend(cfg, storage, recorder),
		DiagnoseUC:  bootstrap.Diagnose(cfg.Diagnose, storage),
		RulesUC:     bootstrap.Rules(storage),
		KPI:         kpiRecorder,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Limiter:     httpadapter.NewLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}, nil
}
