package adapters

import (
	"context"

	"github.com/negbuzz/negbuzz/domain"
)

// Adapter is the analysis backend the websocket and REST front ends call.
type Adapter interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	AnalyzeNegative(ctx context.Context, item domain.ContentItem) (domain.AnalyzeResult, error)
	BatchAnalyzeNegative(ctx context.Context, items []domain.ContentItem) (domain.BatchAnalyzeResult, error)
	CacheStats(ctx context.Context) domain.CacheStats
	ClearCache(ctx context.Context) error
	Predict(ctx context.Context, items []domain.ContentItem) (domain.PredictResponse, error)
}

// Predictor runs the sentiment pipeline on a single item.
type Predictor interface {
	PredictItem(ctx context.Context, item domain.ContentItem) domain.Prediction
}
