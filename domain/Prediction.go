package domain

import "encoding/json"

const (
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"

	PredictErrorEmptyText = "Empty text"
	PredictErrorTimeout   = "Timeout"
)

// WordCloudItem represents a WordCloudItem model.
type WordCloudItem struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
}

// Prediction represents the sentiment + filter outcome for one predict item.
// A prediction with a non-empty Error only carries the identifiers.
type Prediction struct {
	Id                string          `json:"id"`
	TopicName         string          `json:"topic_name"`
	TopicId           string          `json:"topic_id"`
	Title             string          `json:"title"`
	Content           string          `json:"content"`
	Description       string          `json:"description"`
	SiteName          string          `json:"site_name"`
	SiteId            string          `json:"site_id"`
	Type              string          `json:"type"`
	InputType         string          `json:"input_type"`
	Sentiment         string          `json:"sentiment"`
	LogLevel          LogLevel        `json:"log_level"`
	Reason            string          `json:"reason"`
	ContainsTopic     bool            `json:"contains_topic"`
	TargetingTopic    bool            `json:"targeting_topic"`
	CrisisKeywords    []string        `json:"crisis_keywords"`
	ShouldCallLLM     bool            `json:"should_call_llm"`
	IsKol             bool            `json:"is_kol"`
	TotalInteractions int             `json:"total_interactions"`
	WordCloud         []WordCloudItem `json:"word_cloud"`
	Error             string          `json:"error,omitempty"`
}

type predictionError struct {
	Id        string           `json:"id"`
	TopicName string           `json:"topic_name,omitempty"`
	Error     string           `json:"error"`
	WordCloud *[]WordCloudItem `json:"word_cloud,omitempty"`
}

func (p Prediction) MarshalJSON() ([]byte, error) {
	if p.Error != "" {
		e := predictionError{
			Id:        p.Id,
			TopicName: p.TopicName,
			Error:     p.Error,
		}
		// a non-nil word cloud is kept, even when empty
		if p.WordCloud != nil {
			e.WordCloud = &p.WordCloud
		}
		return json.Marshal(e)
	}
	type plain Prediction
	return json.Marshal(plain(p))
}

// NewPrediction returns the non-negative baseline prediction for an item.
func NewPrediction(item ContentItem, sentiment string) Prediction {
	return Prediction{
		Id:                item.Id,
		TopicName:         item.TopicName,
		TopicId:           item.TopicId,
		Title:             item.Title,
		Content:           item.Content,
		Description:       item.Description,
		SiteName:          item.SiteName,
		SiteId:            item.SiteId,
		Type:              item.Type,
		InputType:         item.Type,
		Sentiment:         sentiment,
		LogLevel:          LogLevelNone,
		Reason:            ReasonNotNegative,
		CrisisKeywords:    []string{},
		IsKol:             item.IsKol,
		TotalInteractions: item.TotalInteractions,
		WordCloud:         []WordCloudItem{},
	}
}

// ApplyFilter copies the filter outcome onto the prediction.
func (p *Prediction) ApplyFilter(r FilterResult) {
	p.LogLevel = r.LogLevel
	p.Reason = r.Reason
	p.ContainsTopic = r.ContainsTopic
	p.TargetingTopic = r.TargetingTopic
	p.CrisisKeywords = r.CrisisKeywords
	p.ShouldCallLLM = r.ShouldCallLLM
}

// PredictionError builds an error-only prediction.
func PredictionError(id, message string) Prediction {
	return Prediction{Id: id, Error: message}
}

// WorkerError builds the error prediction of a job the worker could not
// process. It carries an empty word cloud.
func WorkerError(id, message string) Prediction {
	return Prediction{Id: id, Error: message, WordCloud: []WordCloudItem{}}
}

// PredictResponse is the payload of the result event.
type PredictResponse struct {
	Results []Prediction `json:"results"`
}
