package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/adapters"
	"github.com/negbuzz/negbuzz/config"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/negbuzz/negbuzz/messaging"
	"github.com/negbuzz/negbuzz/utils"
	"github.com/redis/go-redis/v9"
)

// ErrTimeout is returned when no worker answered in time.
var ErrTimeout = errors.New("timeout waiting for job result")

// Producer pushes predict jobs on the request list and waits for the worker's
// answer on the job's own result list.
type Producer struct {
	client        *redis.Client
	requestQueue  string
	resultQueue   string
	resultTimeout time.Duration
}

var (
	_ messaging.JobProducer = (*Producer)(nil)
	_ adapters.Predictor    = (*Producer)(nil)
)

func NewProducer(client *redis.Client, cfg config.Redis) *Producer {
	timeout := cfg.ResultTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Producer{
		client:        client,
		requestQueue:  cfg.RequestQueue,
		resultQueue:   cfg.ResultQueue,
		resultTimeout: timeout,
	}
}

func (p *Producer) ProduceJob(ctx context.Context, item domain.ContentItem, meta map[string]string) (domain.Prediction, error) {
	dataInput, err := json.Marshal(item)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("marshal item: %w", err)
	}
	job := messaging.Job{
		JobId:     uuid.NewString(),
		DataInput: dataInput,
		Meta:      meta,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("marshal job: %w", err)
	}
	if err := p.client.RPush(ctx, p.requestQueue, payload).Err(); err != nil {
		return domain.Prediction{}, fmt.Errorf("push job: %w", err)
	}
	jobsProducedCounter.Inc()
	logger.L().Ctx(ctx).Debug("job queued", helpers.String("jobId", job.JobId), helpers.String("id", item.Id))

	res, err := p.client.BLPop(ctx, p.resultTimeout, messaging.ResultQueueName(p.resultQueue, job.JobId)).Result()
	if errors.Is(err, redis.Nil) {
		jobsTimedOutCounter.Inc()
		return domain.Prediction{}, ErrTimeout
	}
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("wait for result: %w", err)
	}
	// BLPOP answers [key, value]
	if len(res) != 2 {
		return domain.Prediction{}, fmt.Errorf("unexpected BLPOP reply of length %d", len(res))
	}
	var result messaging.JobResult
	if err := json.Unmarshal([]byte(res[1]), &result); err != nil {
		return domain.Prediction{}, fmt.Errorf("unmarshal job result: %w", err)
	}
	var prediction domain.Prediction
	if err := json.Unmarshal(result.Result, &prediction); err != nil {
		return domain.Prediction{}, fmt.Errorf("unmarshal prediction: %w", err)
	}
	return prediction, nil
}

// PredictItem implements adapters.Predictor over the queue. The id and topic
// of the request always win over the worker's answer.
func (p *Producer) PredictItem(ctx context.Context, item domain.ContentItem) domain.Prediction {
	item = item.Normalize()
	if item.IsEmptyText() {
		return domain.PredictionError(item.Id, domain.PredictErrorEmptyText)
	}
	meta := messaging.NewMeta(item.Id, utils.SessionIdentifierFromContext(ctx).SessionId, utils.MsgIdFromContext(ctx), time.Now())
	prediction, err := p.ProduceJob(ctx, item, meta)
	switch {
	case errors.Is(err, ErrTimeout):
		prediction = domain.PredictionError(item.Id, domain.PredictErrorTimeout)
	case err != nil:
		logger.L().Ctx(ctx).Warning("queued prediction failed", helpers.Error(err), helpers.String("id", item.Id))
		prediction = domain.PredictionError(item.Id, err.Error())
	}
	prediction.Id = item.Id
	prediction.TopicName = item.TopicName
	return prediction
}
