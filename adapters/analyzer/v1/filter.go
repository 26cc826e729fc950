package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/adapters/llm/v1"
	"github.com/negbuzz/negbuzz/domain"
)

// crisis impact threshold for posts outside news sources and KOL pages
const minCrisisInteractions = 100

// Filter grades negative content items.
type Filter struct {
	checker llm.TopicChecker
}

func NewFilter(checker llm.TopicChecker) *Filter {
	return &Filter{checker: checker}
}

// FilterNegativeContent grades an item that is already known to be negative.
//
// Comments are level 1 without further analysis. Posts are sent to the topic
// checker; a post is level 3 only when it targets the topic with crisis
// keywords and has impact (news source, KOL or enough interactions). Unknown
// types keep the defaults.
//
// An error is returned only when ctx is done; the partial result is still
// valid but must not be cached.
func (f *Filter) FilterNegativeContent(ctx context.Context, item domain.ContentItem) (domain.FilterResult, error) {
	result := domain.NewFilterResult(item)

	if domain.IsCommentType(item.Type) {
		result.LogLevel = domain.LogLevelComment
		result.Reason = domain.ReasonNegativeComment
		return result, nil
	}
	if !domain.IsPostType(item.Type) {
		return result, nil
	}

	result.ShouldCallLLM = true
	analysis, err := f.checker.CheckTargetingTopic(ctx, item)
	if err != nil {
		result.Reason = fmt.Sprintf("Lỗi khi gọi LLM: %s", err.Error())
		result.LogLevel = domain.LogLevelPost
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		logger.L().Ctx(ctx).Warning("topic check failed", helpers.Error(err), helpers.String("id", item.Id))
		return result, nil
	}

	result.ContainsTopic = analysis.ContainsTopic
	result.TargetingTopic = analysis.TargetingTopic
	result.CrisisKeywords = analysis.CrisisKeywords
	if result.CrisisKeywords == nil {
		result.CrisisKeywords = []string{}
	}
	result.Reason = analysis.Reason
	if result.Reason == "" {
		result.Reason = domain.ReasonUnknown
	}

	if result.TargetingTopic && len(result.CrisisKeywords) > 0 && hasImpact(item) {
		result.LogLevel = domain.LogLevelCrisis
	} else {
		result.LogLevel = domain.LogLevelPost
	}
	return result, nil
}

func hasImpact(item domain.ContentItem) bool {
	return domain.IsNewsType(item.Type) || item.IsKol || item.TotalInteractions >= minCrisisInteractions
}
