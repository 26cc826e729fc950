package messaging

import (
	"context"

	"github.com/negbuzz/negbuzz/domain"
)

type JobProducer interface {
	// ProduceJob queues an item and waits for the worker's prediction.
	ProduceJob(ctx context.Context, item domain.ContentItem, meta map[string]string) (domain.Prediction, error)
}

type JobConsumer interface {
	// Start consumes jobs and blocks until the context is done
	Start(mainContext context.Context) error
}
