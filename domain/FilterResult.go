package domain

// LogLevel grades how much attention a negative item needs.
type LogLevel int

const (
	LogLevelNone    LogLevel = 0 // not negative
	LogLevelComment LogLevel = 1 // negative comment
	LogLevelPost    LogLevel = 2 // negative post, unclear targeting or low impact
	LogLevelCrisis  LogLevel = 3 // targeted, crisis keywords, high impact
)

const (
	ReasonNegativeComment = "Bình luận tiêu cực trên mạng xã hội."
	ReasonUnknown         = "Không rõ lý do."
	ReasonNotNegative     = "Không phải nội dung tiêu cực."
)

// FilterResult represents the outcome of the negative-content filter for a
// single item.
type FilterResult struct {
	Id             string   `json:"id"`
	TopicName      string   `json:"topic_name"`
	Type           string   `json:"type"`
	TopicId        string   `json:"topic_id"`
	SiteId         string   `json:"site_id"`
	SiteName       string   `json:"site_name"`
	ContainsTopic  bool     `json:"contains_topic"`
	TargetingTopic bool     `json:"targeting_topic"`
	CrisisKeywords []string `json:"crisis_keywords"`
	LogLevel       LogLevel `json:"log_level"`
	Reason         string   `json:"reason"`
	ShouldCallLLM  bool     `json:"should_call_llm"`
}

// NewFilterResult returns the default result for an item.
func NewFilterResult(item ContentItem) FilterResult {
	return FilterResult{
		Id:             item.Id,
		TopicName:      item.TopicName,
		Type:           item.Type,
		TopicId:        item.TopicId,
		SiteId:         item.SiteId,
		SiteName:       item.SiteName,
		CrisisKeywords: []string{},
		LogLevel:       LogLevelPost,
	}
}

// Clone returns a deep copy, so cached results are never shared.
func (r FilterResult) Clone() FilterResult {
	keywords := make([]string, len(r.CrisisKeywords))
	copy(keywords, r.CrisisKeywords)
	r.CrisisKeywords = keywords
	return r
}

// AnalyzeResult is the payload of the analyze_result event.
type AnalyzeResult struct {
	FilterResult
	Cached         bool       `json:"cached"`
	ProcessingTime float64    `json:"processing_time"`
	CacheStats     CacheStats `json:"cache_stats"`
}

// BatchAnalyzeResult is the payload of the batch_analyze_result event.
type BatchAnalyzeResult struct {
	Count          int            `json:"count"`
	Results        []FilterResult `json:"results"`
	ProcessingTime float64        `json:"processing_time"`
	CacheStats     CacheStats     `json:"cache_stats"`
}
