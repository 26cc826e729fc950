package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/adapters"
	"github.com/negbuzz/negbuzz/cache"
	"github.com/negbuzz/negbuzz/config"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/negbuzz/negbuzz/utils"
	"github.com/panjf2000/ants/v2"
)

// Adapter grades content with a result cache in front of the filter, and
// delegates predictions to a Predictor (in process or through the queue).
type Adapter struct {
	cache     *cache.AnalysisCache
	filter    *Filter
	predictor adapters.Predictor
	pool      *ants.Pool
}

// ensure that the Adapter struct satisfies the adapters.Adapter interface at compile-time
var _ adapters.Adapter = (*Adapter)(nil)

func NewAnalyzerAdapter(cfg config.Config, filter *Filter, predictor adapters.Predictor) (*Adapter, error) {
	size := cfg.Server.WorkerPoolSize
	if size <= 0 {
		size = 50
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Adapter{
		cache:     cache.NewAnalysisCache(cfg.Cache.MaxSize, cfg.Cache.TTL, cfg.Cache.EvictionInterval),
		filter:    filter,
		predictor: predictor,
		pool:      pool,
	}, nil
}

func (a *Adapter) Start(ctx context.Context) error {
	logger.L().Ctx(ctx).Info("analyzer started", helpers.Int("workers", a.pool.Cap()))
	return nil
}

func (a *Adapter) Stop(_ context.Context) error {
	a.pool.Release()
	return nil
}

// analyze returns the graded item and whether it came from the cache. Failed
// items get the default result with the error as reason and are not cached.
func (a *Adapter) analyze(ctx context.Context, item domain.ContentItem) (domain.FilterResult, bool) {
	item = item.Normalize()
	if result, ok := a.cache.Get(item); ok {
		cacheHitsCounter.Inc()
		logger.L().Ctx(ctx).Debug("cache hit", helpers.String("id", item.Id))
		return result, true
	}
	cacheMissesCounter.Inc()

	start := time.Now()
	result, err := a.filter.FilterNegativeContent(ctx, item)
	analysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.L().Ctx(ctx).Warning("cannot process item", helpers.Error(err), helpers.String("id", item.Id))
		return processingError(item, err), false
	}
	a.cache.Set(item, result)
	return result, false
}

func processingError(item domain.ContentItem, err error) domain.FilterResult {
	result := domain.NewFilterResult(item)
	result.Reason = fmt.Sprintf("Error processing item: %s", err.Error())
	return result
}

func (a *Adapter) AnalyzeNegative(ctx context.Context, item domain.ContentItem) (domain.AnalyzeResult, error) {
	start := time.Now()
	result, cached := a.analyze(ctx, item)
	return domain.AnalyzeResult{
		FilterResult:   result,
		Cached:         cached,
		ProcessingTime: utils.Seconds(time.Since(start)),
		CacheStats:     a.cache.Stats(),
	}, nil
}

func (a *Adapter) BatchAnalyzeNegative(ctx context.Context, items []domain.ContentItem) (domain.BatchAnalyzeResult, error) {
	start := time.Now()
	results := make([]domain.FilterResult, len(items))
	a.forEach(ctx, len(items), func(i int) {
		results[i], _ = a.analyze(ctx, items[i])
	}, func(i int, err error) {
		results[i] = processingError(items[i].Normalize(), err)
	})
	return domain.BatchAnalyzeResult{
		Count:          len(results),
		Results:        results,
		ProcessingTime: utils.Seconds(time.Since(start)),
		CacheStats:     a.cache.Stats(),
	}, nil
}

func (a *Adapter) CacheStats(_ context.Context) domain.CacheStats {
	return a.cache.Stats()
}

func (a *Adapter) ClearCache(ctx context.Context) error {
	a.cache.Clear()
	logger.L().Ctx(ctx).Info("cache cleared")
	return nil
}

func (a *Adapter) Predict(ctx context.Context, items []domain.ContentItem) (domain.PredictResponse, error) {
	results := make([]domain.Prediction, len(items))
	a.forEach(ctx, len(items), func(i int) {
		results[i] = a.predictor.PredictItem(ctx, items[i])
	}, func(i int, err error) {
		results[i] = domain.PredictionError(items[i].Id, err.Error())
	})
	return domain.PredictResponse{Results: results}, nil
}

// forEach runs work for every index on the pool and waits for all of them.
// Indexes that cannot be scheduled are reported to fail.
func (a *Adapter) forEach(ctx context.Context, n int, work func(i int), fail func(i int, err error)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			fail(i, err)
			continue
		}
		wg.Add(1)
		err := a.pool.Submit(func() {
			defer wg.Done()
			work(i)
		})
		if err != nil {
			wg.Done()
			fail(i, fmt.Errorf("submit to pool: %w", err))
		}
	}
	wg.Wait()
}
