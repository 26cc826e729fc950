package analyzer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/negbuzz/negbuzz/adapters/llm/v1"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/stretchr/testify/assert"
)

type fakeChecker struct {
	analysis llm.TopicAnalysis
	err      error
	calls    atomic.Int32
}

func (f *fakeChecker) CheckTargetingTopic(_ context.Context, _ domain.ContentItem) (llm.TopicAnalysis, error) {
	f.calls.Add(1)
	return f.analysis, f.err
}

var targeting = llm.TopicAnalysis{
	ContainsTopic:  true,
	TargetingTopic: true,
	Reason:         "Bài viết quy trách nhiệm cho Vinamilk.",
	CrisisKeywords: []string{"sữa hỏng", "ngộ độc"},
}

func TestFilter_FilterNegativeContent(t *testing.T) {
	tests := []struct {
		name         string
		item         domain.ContentItem
		checker      *fakeChecker
		wantLevel    domain.LogLevel
		wantReason   string
		wantLLM      bool
		wantCalls    int32
		wantKeywords []string
	}{
		{
			name:         "comment",
			item:         domain.ContentItem{Id: "1", Type: "fbPageComment"},
			checker:      &fakeChecker{analysis: targeting},
			wantLevel:    domain.LogLevelComment,
			wantReason:   domain.ReasonNegativeComment,
			wantKeywords: []string{},
		},
		{
			name:         "upper snake comment",
			item:         domain.ContentItem{Id: "1", Type: "YOUTUBE_COMMENT"},
			checker:      &fakeChecker{analysis: targeting},
			wantLevel:    domain.LogLevelComment,
			wantReason:   domain.ReasonNegativeComment,
			wantKeywords: []string{},
		},
		{
			name:         "unknown type keeps defaults",
			item:         domain.ContentItem{Id: "1", Type: "podcast"},
			checker:      &fakeChecker{analysis: targeting},
			wantLevel:    domain.LogLevelPost,
			wantReason:   "",
			wantKeywords: []string{},
		},
		{
			name:         "news post targeting is crisis",
			item:         domain.ContentItem{Id: "1", Type: "newsTopic"},
			checker:      &fakeChecker{analysis: targeting},
			wantLevel:    domain.LogLevelCrisis,
			wantReason:   targeting.Reason,
			wantLLM:      true,
			wantCalls:    1,
			wantKeywords: targeting.CrisisKeywords,
		},
		{
			name:         "kol post targeting is crisis",
			item:         domain.ContentItem{Id: "1", Type: "fbPageTopic", IsKol: true},
			checker:      &fakeChecker{analysis: targeting},
			wantLevel:    domain.LogLevelCrisis,
			wantReason:   targeting.Reason,
			wantLLM:      true,
			wantCalls:    1,
			wantKeywords: targeting.CrisisKeywords,
		},
		{
			name:         "popular post targeting is crisis",
			item:         domain.ContentItem{Id: "1", Type: "FBGROUP_TOPIC", TotalInteractions: 100},
			checker:      &fakeChecker{analysis: targeting},
			wantLevel:    domain.LogLevelCrisis,
			wantReason:   targeting.Reason,
			wantLLM:      true,
			wantCalls:    1,
			wantKeywords: targeting.CrisisKeywords,
		},
		{
			name:         "low impact post stays at post level",
			item:         domain.ContentItem{Id: "1", Type: "fbPageTopic", TotalInteractions: 99},
			checker:      &fakeChecker{analysis: targeting},
			wantLevel:    domain.LogLevelPost,
			wantReason:   targeting.Reason,
			wantLLM:      true,
			wantCalls:    1,
			wantKeywords: targeting.CrisisKeywords,
		},
		{
			name: "targeting without keywords",
			item: domain.ContentItem{Id: "1", Type: "newsTopic"},
			checker: &fakeChecker{analysis: llm.TopicAnalysis{
				ContainsTopic:  true,
				TargetingTopic: true,
			}},
			wantLevel:    domain.LogLevelPost,
			wantReason:   domain.ReasonUnknown,
			wantLLM:      true,
			wantCalls:    1,
			wantKeywords: []string{},
		},
		{
			name:         "checker error",
			item:         domain.ContentItem{Id: "1", Type: "newsTopic"},
			checker:      &fakeChecker{err: errors.New("boom")},
			wantLevel:    domain.LogLevelPost,
			wantReason:   "Lỗi khi gọi LLM: boom",
			wantLLM:      true,
			wantCalls:    1,
			wantKeywords: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.checker)
			got, err := f.FilterNegativeContent(context.TODO(), tt.item)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantLevel, got.LogLevel)
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.Equal(t, tt.wantLLM, got.ShouldCallLLM)
			assert.Equal(t, tt.wantKeywords, got.CrisisKeywords)
			assert.Equal(t, tt.wantCalls, tt.checker.calls.Load())
			assert.Equal(t, tt.item.Id, got.Id)
		})
	}
}

func TestFilter_Cancelled(t *testing.T) {
	f := NewFilter(&fakeChecker{err: context.Canceled})
	got, err := f.FilterNegativeContent(context.TODO(), domain.ContentItem{Type: "newsTopic"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.LogLevelPost, got.LogLevel)
}
