package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/adapters"
	"github.com/negbuzz/negbuzz/config"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/negbuzz/negbuzz/messaging"
	"github.com/negbuzz/negbuzz/utils"
	"github.com/panjf2000/ants/v2"
	"github.com/redis/go-redis/v9"
)

const (
	pollTimeout  = 5 * time.Second
	drainTimeout = 10 * time.Second
)

// Worker pops predict jobs, runs them through a Predictor and pushes the
// results back.
type Worker struct {
	client       *redis.Client
	predictor    adapters.Predictor
	requestQueue string
	resultQueue  string
	resultTTL    time.Duration
	pollTimeout  time.Duration
	pool         *ants.Pool
}

var _ messaging.JobConsumer = (*Worker)(nil)

func NewWorker(client *redis.Client, predictor adapters.Predictor, cfg config.Redis, concurrency int) (*Worker, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	ttl := cfg.ResultTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Worker{
		client:       client,
		predictor:    predictor,
		requestQueue: cfg.RequestQueue,
		resultQueue:  cfg.ResultQueue,
		resultTTL:    ttl,
		pollTimeout:  pollTimeout,
		pool:         pool,
	}, nil
}

// Start consumes jobs until ctx is done, then waits for running jobs.
func (w *Worker) Start(ctx context.Context) error {
	logger.L().Ctx(ctx).Info("worker started",
		helpers.String("queue", w.requestQueue),
		helpers.Int("concurrency", w.pool.Cap()))
	defer func() {
		if err := w.pool.ReleaseTimeout(drainTimeout); err != nil {
			logger.L().Warning("jobs still running at shutdown", helpers.Error(err))
		}
	}()

	b := utils.NewBackOff()
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := w.client.BLPop(ctx, w.pollTimeout, w.requestQueue).Result()
		switch {
		case errors.Is(err, redis.Nil):
			b.Reset()
			continue
		case ctx.Err() != nil:
			return nil
		case err != nil:
			d := b.NextBackOff()
			logger.L().Ctx(ctx).Warning("cannot pop job", helpers.Error(err), helpers.String("retry in", d.String()))
			select {
			case <-ctx.Done():
			case <-time.After(d):
			}
			continue
		}
		b.Reset()
		if len(res) != 2 {
			continue
		}
		payload := res[1]
		if err := w.pool.Submit(func() {
			w.handle(ctx, payload)
		}); err != nil {
			logger.L().Ctx(ctx).Error("cannot schedule job", helpers.Error(err))
		}
	}
}

func (w *Worker) handle(ctx context.Context, payload string) {
	var job messaging.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		jobsFailedCounter.Inc()
		logger.L().Ctx(ctx).Error("dropping malformed job", helpers.Error(err), helpers.String("payload", payload))
		return
	}
	if job.JobId == "" {
		jobsFailedCounter.Inc()
		logger.L().Ctx(ctx).Error("dropping job without id", helpers.String("payload", payload))
		return
	}
	ctx = utils.ContextFromGeneric(ctx, domain.Generic{MsgId: job.Meta[messaging.MsgPropMsgId]})

	prediction := w.process(ctx, job)
	data, err := json.Marshal(prediction)
	if err != nil {
		data, _ = json.Marshal(domain.WorkerError(job.Meta[messaging.MsgPropId], err.Error()))
	}
	result, err := json.Marshal(messaging.JobResult{JobId: job.JobId, Result: data})
	if err != nil {
		logger.L().Ctx(ctx).Error("cannot marshal job result", helpers.Error(err), helpers.String("jobId", job.JobId))
		return
	}
	// the result is pushed even when shutting down
	pushCtx := context.WithoutCancel(ctx)
	err = backoff.Retry(func() error {
		key := messaging.ResultQueueName(w.resultQueue, job.JobId)
		_, err := w.client.TxPipelined(pushCtx, func(pipe redis.Pipeliner) error {
			pipe.RPush(pushCtx, key, result)
			pipe.Expire(pushCtx, key, w.resultTTL)
			return nil
		})
		return err
	}, utils.NewFixedBackOff(100*time.Millisecond, 3))
	if err != nil {
		logger.L().Ctx(ctx).Error("cannot push job result", helpers.Error(err), helpers.String("jobId", job.JobId))
		return
	}
	jobsProcessedCounter.Inc()
	logger.L().Ctx(ctx).Debug("job done", helpers.String("jobId", job.JobId), helpers.String("id", prediction.Id))
}

// process never fails: decoding errors and panics become a worker error.
func (w *Worker) process(ctx context.Context, job messaging.Job) (prediction domain.Prediction) {
	id := job.Meta[messaging.MsgPropId]
	defer func() {
		if r := recover(); r != nil {
			jobsFailedCounter.Inc()
			logger.L().Ctx(ctx).Error("job panicked", helpers.Interface("panic", r), helpers.String("jobId", job.JobId))
			prediction = domain.WorkerError(id, fmt.Sprint(r))
		}
	}()
	var item domain.ContentItem
	if err := json.Unmarshal(job.DataInput, &item); err != nil {
		jobsFailedCounter.Inc()
		return domain.WorkerError(id, fmt.Sprintf("invalid input data: %s", err.Error()))
	}
	return w.predictor.PredictItem(ctx, item)
}
