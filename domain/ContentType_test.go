package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypes(t *testing.T) {
	tests := []struct {
		name    string
		comment bool
		post    bool
		news    bool
	}{
		{name: "fbPageComment", comment: true},
		{name: "NEWS_COMMENT", comment: true, news: true},
		{name: "newsTopic", post: true, news: true},
		{name: "NEWS_TOPIC", post: true, news: true},
		{name: "tiktokTopic", post: true},
		{name: "BLOG_TOPIC", post: true},
		{name: "unknown"},
		{name: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.comment, IsCommentType(tt.name))
			assert.Equal(t, tt.post, IsPostType(tt.name))
			assert.Equal(t, tt.news, IsNewsType(tt.name))
		})
	}
}
