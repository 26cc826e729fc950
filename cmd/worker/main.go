package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/adapters/analyzer/v1"
	"github.com/negbuzz/negbuzz/adapters/llm/v1"
	"github.com/negbuzz/negbuzz/adapters/queue/v1"
	"github.com/negbuzz/negbuzz/adapters/sentiment/v1"
	"github.com/negbuzz/negbuzz/config"
	"github.com/negbuzz/negbuzz/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// load config
	cfg, err := config.LoadConfig("/etc/config")
	if err != nil {
		logger.L().Fatal("unable to load configuration", helpers.Error(err))
	}
	if err := logger.L().SetLevel(cfg.LogLevel); err != nil {
		logger.L().Warning("invalid log level", helpers.String("logLevel", cfg.LogLevel), helpers.Error(err))
	}
	if err := cfg.ValidateConfig(); err != nil {
		logger.L().Fatal("invalid configuration", helpers.Error(err))
	}

	// enable prometheus metrics
	if cfg.Server.Prometheus != nil && cfg.Server.Prometheus.Enabled {
		go func() {
			logger.L().Info("prometheus metrics enabled", helpers.Int("port", cfg.Server.Prometheus.Port))
			http.Handle("/metrics", promhttp.Handler())
			_ = http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Prometheus.Port), nil)
		}()
	}

	checker, err := llm.NewCheckerFromConfig(ctx, cfg.LLM)
	if err != nil {
		logger.L().Fatal("unable to create topic checker", helpers.Error(err),
			helpers.String("provider", cfg.LLM.Provider))
	}
	predictor := analyzer.NewLocalPredictor(sentiment.NewClient(cfg.Sentiment), analyzer.NewFilter(checker))

	client, err := queue.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.L().Fatal("failed to connect to redis", helpers.Error(err),
			helpers.String("address", cfg.Redis.Address))
	}
	defer client.Close()

	worker, err := queue.NewWorker(client, predictor, cfg.Redis, cfg.Predict.Concurrency)
	if err != nil {
		logger.L().Fatal("failed to create worker", helpers.Error(err))
	}

	// start pprof server
	utils.ServePprof()

	// start liveness probe
	utils.StartLivenessProbe()

	if err := worker.Start(ctx); err != nil {
		logger.L().Ctx(ctx).Fatal("worker stopped", helpers.Error(err))
	}
	logger.L().Info("worker stopped")
}
