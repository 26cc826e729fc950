package analyzer

import (
	"context"
	"strings"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/adapters"
	"github.com/negbuzz/negbuzz/domain"
)

// SentimentClassifier labels a text. Implementations never fail: any error
// maps to neutral.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) string
}

// LocalPredictor runs the sentiment pipeline in process.
type LocalPredictor struct {
	classifier SentimentClassifier
	filter     *Filter
}

var _ adapters.Predictor = (*LocalPredictor)(nil)

func NewLocalPredictor(classifier SentimentClassifier, filter *Filter) *LocalPredictor {
	return &LocalPredictor{
		classifier: classifier,
		filter:     filter,
	}
}

func (p *LocalPredictor) PredictItem(ctx context.Context, item domain.ContentItem) domain.Prediction {
	item = item.Normalize()
	if item.IsEmptyText() {
		return domain.PredictionError(item.Id, domain.PredictErrorEmptyText)
	}

	sentiment := p.classifier.Classify(ctx, sentimentText(item))
	predictionsCounter.WithLabelValues(sentiment).Inc()
	prediction := domain.NewPrediction(item, sentiment)
	if sentiment == domain.SentimentNegative {
		result, err := p.filter.FilterNegativeContent(ctx, item)
		if err != nil {
			logger.L().Ctx(ctx).Warning("filter interrupted", helpers.Error(err), helpers.String("id", item.Id))
		}
		prediction.ApplyFilter(result)
	}
	prediction.WordCloud = WordCloud(joinNonEmpty(item.Title, item.Content, item.Description))
	return prediction
}

// sentimentText is title, description and content separated by single
// spaces, empty fields included.
func sentimentText(item domain.ContentItem) string {
	return item.Title + " " + item.Description + " " + item.Content
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
