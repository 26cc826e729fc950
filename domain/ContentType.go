package domain

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Content types come in two spellings depending on the producer: camel case
// from the social listening API (fbPageComment) and upper snake case from the
// sentiment pipeline (FBPAGE_COMMENT). Both are recognised.
var (
	commentTypes = mapset.NewThreadUnsafeSet[string](
		"fbPageComment", "fbGroupComment", "fbUserComment", "forumComment",
		"newsComment", "youtubeComment", "tiktokComment", "snsComment",
		"linkedinComment", "ecommerceComment", "threadsComment",
		"FBPAGE_COMMENT", "FBGROUP_COMMENT", "FBUSER_COMMENT", "FORUM_COMMENT",
		"NEWS_COMMENT", "YOUTUBE_COMMENT", "BLOG_COMMENT", "QA_COMMENT",
		"SNS_COMMENT", "TIKTOK_COMMENT", "LINKEDIN_COMMENT", "ECOMMERCE_COMMENT",
	)
	postTypes = mapset.NewThreadUnsafeSet[string](
		"fbPageTopic", "fbGroupTopic", "fbUserTopic", "forumTopic",
		"newsTopic", "youtubeTopic", "tiktokTopic", "snsTopic",
		"linkedinTopic", "ecommerceTopic", "threadsTopic",
		"FBPAGE_TOPIC", "FBGROUP_TOPIC", "FBUSER_TOPIC", "FORUM_TOPIC", "NEWS_TOPIC",
		"YOUTUBE_TOPIC", "BLOG_TOPIC", "QA_TOPIC", "SNS_TOPIC", "TIKTOK_TOPIC",
		"LINKEDIN_TOPIC", "ECOMMERCE_TOPIC",
	)
)

// IsCommentType reports whether t names a comment.
func IsCommentType(t string) bool {
	return commentTypes.Contains(t)
}

// IsPostType reports whether t names a post (topic).
func IsPostType(t string) bool {
	return postTypes.Contains(t)
}

// IsNewsType reports whether t is a news source, in either spelling.
func IsNewsType(t string) bool {
	return strings.Contains(strings.ToLower(t), "news")
}
