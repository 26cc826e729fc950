package harness

import (
	"encoding/json"
	"fmt"
	"os"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/negbuzz/negbuzz/domain"
)

// DefaultFixture is the news item every scenario sends unless a fixture file
// is given.
func DefaultFixture() domain.ContentItem {
	return domain.ContentItem{
		Id:                "7521631307152084231_3",
		TopicName:         "Vinamilk",
		Type:              "newsTopic",
		TopicId:           "5cd2a99d2e81050a12e5339a",
		SiteId:            "7427331267015197703",
		SiteName:          "baothegioisua",
		Title:             "Vinamilk dính nghi vấn lừa đảo cộng tác viên qua app nhập liệu",
		Content:           "Nhiều người phản ánh bị treo tiền, không hoàn tiền khi làm cộng tác viên qua nền tảng app được cho là của Vinamilk. Một số nghi ngờ đây là hình thức lừa đảo tinh vi.",
		IsKol:             false,
		TotalInteractions: 57,
	}
}

// LoadFixture reads a content item from a JSON file, the default fixture is
// returned for an empty path.
func LoadFixture(path string) (domain.ContentItem, error) {
	if path == "" {
		return DefaultFixture(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("read fixture: %w", err)
	}
	var item domain.ContentItem
	if err := json.Unmarshal(data, &item); err != nil {
		return domain.ContentItem{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return item, nil
}

// PredictItem returns fixture in the camel-case site spelling used by
// predict payloads.
func PredictItem(fixture domain.ContentItem) domain.ContentItem {
	fixture.SiteIdAlias, fixture.SiteNameAlias = fixture.SiteId, fixture.SiteName
	fixture.SiteId, fixture.SiteName = "", ""
	return fixture
}

// Batch derives n items from fixture, item i gets id "item_i" and title
// "Title i".
func Batch(fixture domain.ContentItem, n int) ([]domain.ContentItem, error) {
	base, err := json.Marshal(fixture)
	if err != nil {
		return nil, fmt.Errorf("marshal fixture: %w", err)
	}
	items := make([]domain.ContentItem, 0, n)
	for i := 1; i <= n; i++ {
		patch, err := json.Marshal(map[string]string{
			"id":    fmt.Sprintf("item_%d", i),
			"title": fmt.Sprintf("Title %d", i),
		})
		if err != nil {
			return nil, err
		}
		patched, err := jsonpatch.MergePatch(base, patch)
		if err != nil {
			return nil, fmt.Errorf("patch item %d: %w", i, err)
		}
		var item domain.ContentItem
		if err := json.Unmarshal(patched, &item); err != nil {
			return nil, fmt.Errorf("unmarshal item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}
