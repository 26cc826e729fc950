package domain

import "strings"

// ContentItem represents a ContentItem model.
//
// Items posted to predict use the camel-case siteId/siteName spelling, every
// other entry point uses site_id/site_name. Normalize folds both into SiteId
// and SiteName.
type ContentItem struct {
	Id                string `json:"id"`
	TopicName         string `json:"topic_name"`
	Type              string `json:"type"`
	TopicId           string `json:"topic_id"`
	SiteId            string `json:"site_id,omitempty"`
	SiteName          string `json:"site_name,omitempty"`
	SiteIdAlias       string `json:"siteId,omitempty"`
	SiteNameAlias     string `json:"siteName,omitempty"`
	Title             string `json:"title"`
	Content           string `json:"content"`
	Description       string `json:"description"`
	IsKol             bool   `json:"is_kol"`
	TotalInteractions int    `json:"total_interactions"`
}

// Normalize trims every string field and resolves the site aliases.
func (c ContentItem) Normalize() ContentItem {
	c.Id = strings.TrimSpace(c.Id)
	c.TopicName = strings.TrimSpace(c.TopicName)
	c.Type = strings.TrimSpace(c.Type)
	c.TopicId = strings.TrimSpace(c.TopicId)
	c.SiteId = strings.TrimSpace(c.SiteId)
	c.SiteName = strings.TrimSpace(c.SiteName)
	c.Title = strings.TrimSpace(c.Title)
	c.Content = strings.TrimSpace(c.Content)
	c.Description = strings.TrimSpace(c.Description)
	if c.SiteId == "" {
		c.SiteId = strings.TrimSpace(c.SiteIdAlias)
	}
	if c.SiteName == "" {
		c.SiteName = strings.TrimSpace(c.SiteNameAlias)
	}
	c.SiteIdAlias = ""
	c.SiteNameAlias = ""
	return c
}

// IsEmptyText reports whether the item has nothing to analyze.
func (c ContentItem) IsEmptyText() bool {
	return c.Title == "" && c.Content == "" && c.Description == ""
}

// CacheFields returns the fields that identify an analysis result.
func (c ContentItem) CacheFields() map[string]string {
	return map[string]string{
		"title":       c.Title,
		"content":     c.Content,
		"description": c.Description,
		"topic_name":  c.TopicName,
		"site_name":   c.SiteName,
		"type":        c.Type,
	}
}

// PredictRequest is the payload of the predict event.
type PredictRequest struct {
	Data []ContentItem `json:"data"`
}

// BatchFilterRequest is the body of the REST batch endpoint.
type BatchFilterRequest struct {
	Data []ContentItem `json:"data"`
}
