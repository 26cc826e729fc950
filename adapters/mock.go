package adapters

import (
	"context"
	"fmt"
	"sync"

	"github.com/negbuzz/negbuzz/domain"
	"github.com/negbuzz/negbuzz/utils"
)

// MockAdapter answers every call from memory. Items whose type is a comment
// get level 1, everything else the default result; a repeated item is
// reported as cached.
type MockAdapter struct {
	mu      sync.Mutex
	seen    map[string]domain.FilterResult
	hits    uint64
	misses  uint64
	Calls   []string
	Fail    error
	started bool
}

func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		seen: map[string]domain.FilterResult{},
	}
}

var _ Adapter = (*MockAdapter)(nil)

func (m *MockAdapter) record(call string) {
	m.Calls = append(m.Calls, call)
}

// CallsSnapshot returns a copy of the recorded calls.
func (m *MockAdapter) CallsSnapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.Calls))
	copy(calls, m.Calls)
	return calls
}

func (m *MockAdapter) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

func (m *MockAdapter) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	return nil
}

func (m *MockAdapter) filter(item domain.ContentItem) (domain.FilterResult, bool, error) {
	key, err := utils.CanonicalHashOf(item.CacheFields())
	if err != nil {
		return domain.FilterResult{}, false, fmt.Errorf("cache key: %w", err)
	}
	if result, ok := m.seen[key]; ok {
		m.hits++
		return result.Clone(), true, nil
	}
	m.misses++
	result := domain.NewFilterResult(item)
	if domain.IsCommentType(item.Type) {
		result.LogLevel = domain.LogLevelComment
		result.Reason = domain.ReasonNegativeComment
	}
	m.seen[key] = result
	return result.Clone(), false, nil
}

func (m *MockAdapter) AnalyzeNegative(_ context.Context, item domain.ContentItem) (domain.AnalyzeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AnalyzeNegative")
	if m.Fail != nil {
		return domain.AnalyzeResult{}, m.Fail
	}
	result, cached, err := m.filter(item.Normalize())
	if err != nil {
		return domain.AnalyzeResult{}, err
	}
	return domain.AnalyzeResult{
		FilterResult: result,
		Cached:       cached,
		CacheStats:   m.stats(),
	}, nil
}

func (m *MockAdapter) BatchAnalyzeNegative(_ context.Context, items []domain.ContentItem) (domain.BatchAnalyzeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("BatchAnalyzeNegative")
	if m.Fail != nil {
		return domain.BatchAnalyzeResult{}, m.Fail
	}
	results := make([]domain.FilterResult, 0, len(items))
	for _, item := range items {
		result, _, err := m.filter(item.Normalize())
		if err != nil {
			return domain.BatchAnalyzeResult{}, err
		}
		results = append(results, result)
	}
	return domain.BatchAnalyzeResult{
		Count:      len(results),
		Results:    results,
		CacheStats: m.stats(),
	}, nil
}

func (m *MockAdapter) CacheStats(_ context.Context) domain.CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CacheStats")
	return m.stats()
}

func (m *MockAdapter) stats() domain.CacheStats {
	stats := domain.CacheStats{
		CacheSize: len(m.seen),
		MaxSize:   1000,
		TTL:       3600,
		Hits:      m.hits,
		Misses:    m.misses,
	}
	stats.UsagePercent = utils.Round(float64(stats.CacheSize)/float64(stats.MaxSize)*100, 2)
	if total := m.hits + m.misses; total > 0 {
		stats.HitRate = utils.Round(float64(m.hits)/float64(total)*100, 2)
	}
	return stats
}

func (m *MockAdapter) ClearCache(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ClearCache")
	if m.Fail != nil {
		return m.Fail
	}
	m.seen = map[string]domain.FilterResult{}
	return nil
}

func (m *MockAdapter) Predict(_ context.Context, items []domain.ContentItem) (domain.PredictResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Predict")
	if m.Fail != nil {
		return domain.PredictResponse{}, m.Fail
	}
	results := make([]domain.Prediction, 0, len(items))
	for _, item := range items {
		item = item.Normalize()
		if item.IsEmptyText() {
			results = append(results, domain.PredictionError(item.Id, domain.PredictErrorEmptyText))
			continue
		}
		results = append(results, domain.NewPrediction(item, domain.SentimentNeutral))
	}
	return domain.PredictResponse{Results: results}, nil
}
