package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/adapters"
	"github.com/negbuzz/negbuzz/adapters/analyzer/v1"
	"github.com/negbuzz/negbuzz/adapters/httpendpoint/v1"
	"github.com/negbuzz/negbuzz/adapters/llm/v1"
	"github.com/negbuzz/negbuzz/adapters/queue/v1"
	"github.com/negbuzz/negbuzz/adapters/sentiment/v1"
	"github.com/negbuzz/negbuzz/config"
	"github.com/negbuzz/negbuzz/core"
	"github.com/negbuzz/negbuzz/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

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

	// topic checker and filter
	checker, err := llm.NewCheckerFromConfig(ctx, cfg.LLM)
	if err != nil {
		logger.L().Fatal("unable to create topic checker", helpers.Error(err),
			helpers.String("provider", cfg.LLM.Provider))
	}
	filter := analyzer.NewFilter(checker)

	// sentiment pipeline, in process or through the redis queue
	var predictor adapters.Predictor
	var redisClient *redis.Client
	switch cfg.Predict.Mode {
	case config.PredictModeQueue:
		logger.L().Info("initializing redis job queue", helpers.String("address", cfg.Redis.Address))
		redisClient, err = queue.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.L().Fatal("failed to connect to redis", helpers.Error(err))
		}
		predictor = queue.NewProducer(redisClient, cfg.Redis)
	default:
		logger.L().Info("initializing local predictor", helpers.String("sentiment", cfg.Sentiment.Url))
		predictor = analyzer.NewLocalPredictor(sentiment.NewClient(cfg.Sentiment), filter)
	}

	adapter, err := analyzer.NewAnalyzerAdapter(cfg, filter, predictor)
	if err != nil {
		logger.L().Fatal("failed to create analyzer", helpers.Error(err))
	}
	if err := adapter.Start(ctx); err != nil {
		logger.L().Fatal("failed to start analyzer", helpers.Error(err))
	}

	// REST mirror
	var rest *httpendpoint.Adapter
	if cfg.Server.RestPort > 0 {
		rest = httpendpoint.NewHTTPEndpointAdapter(adapter, cfg.Server.RestPort)
		if err := rest.Start(ctx); err != nil {
			logger.L().Fatal("failed to start REST endpoint", helpers.Error(err))
		}
	}

	// start pprof server
	utils.ServePprof()

	// start liveness probe
	utils.StartLivenessProbe()

	go logCacheStats(ctx, adapter, cfg.Server.StatsSchedule)

	hostname, _ := os.Hostname()
	server := core.NewServer(adapter, cfg.Server.OutPoolSize)
	var listeners []*http.Server
	for _, port := range websocketPorts(cfg.Server) {
		addr := fmt.Sprintf(":%d", port)
		httpServer := &http.Server{
			Addr:    addr,
			Handler: server,
			BaseContext: func(_ net.Listener) context.Context {
				return ctx
			},
		}
		listeners = append(listeners, httpServer)
		logger.L().Info("starting negbuzz server", helpers.String("port", addr), helpers.String("hostname", hostname))
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.L().Fatal("websocket server error", helpers.Error(err), helpers.String("port", addr))
			}
		}()
	}

	<-ctx.Done()
	logger.L().Info("shutting down", helpers.Int("sessions", server.Sessions()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var shutdownErr error
	for _, httpServer := range listeners {
		shutdownErr = multierr.Append(shutdownErr, httpServer.Shutdown(shutdownCtx))
	}
	shutdownErr = multierr.Append(shutdownErr, server.Shutdown(shutdownCtx))
	if rest != nil {
		shutdownErr = multierr.Append(shutdownErr, rest.Stop(shutdownCtx))
	}
	shutdownErr = multierr.Append(shutdownErr, adapter.Stop(shutdownCtx))
	if redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	}
	if shutdownErr != nil {
		logger.L().Error("errors during shutdown", helpers.Error(shutdownErr))
	}
}

// websocketPorts lists the ports the websocket server listens on, the
// predict port is skipped when it is unset or equal to the main one.
func websocketPorts(cfg config.Server) []int {
	ports := []int{cfg.Port}
	if cfg.PredictPort > 0 && cfg.PredictPort != cfg.Port {
		ports = append(ports, cfg.PredictPort)
	}
	return ports
}

func logCacheStats(ctx context.Context, adapter adapters.Adapter, schedule string) {
	ticker, err := utils.NewTicker(schedule, time.Minute)
	if err != nil {
		logger.L().Ctx(ctx).Error("invalid stats schedule, cache stats are not logged", helpers.Error(err),
			helpers.String("schedule", schedule))
		return
	}
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			stats := adapter.CacheStats(ctx)
			logger.L().Ctx(ctx).Info("cache stats",
				helpers.Int("size", stats.CacheSize),
				helpers.Int("maxSize", stats.MaxSize),
				helpers.Interface("hitRate", stats.HitRate),
				helpers.Interface("evictions", stats.Evictions))
		}
	}
}
