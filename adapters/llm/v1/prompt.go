package llm

import (
	"fmt"
	"strings"

	"github.com/negbuzz/negbuzz/domain"
)

const promptTemplate = `Bạn là một chuyên gia phân tích nội dung mạng xã hội trong lĩnh vực truyền thông khủng hoảng.

Dưới đây là một nội dung có sắc thái tiêu cực, bao gồm tiêu đề, mô tả và nội dung:

%s

Chủ đề cần kiểm tra là: "%s"

Nhiệm vụ:
1. Kiểm tra xem nội dung có **nhắc đến** chủ đề không?
2. Nếu có, nội dung có đang **nhắm vào**, **công kích**, hoặc **quy trách nhiệm tiêu cực** cho chủ đề không?
3. Nếu targeting_topic = true, hãy **trích xuất danh sách các từ/cụm từ tiêu cực có thể gây khủng hoảng**. Mỗi phần tử trong danh sách phải là:
  - Từ đơn (ví dụ: "lừa đảo")
  - Từ đôi (ví dụ: "mất tiền")
  - Tối đa 3 từ (ví dụ: "không hoàn tiền")
  - Tuyệt đối không phải là câu dài hay mô tả.

Trả về JSON hợp lệ với cấu trúc sau:
{
  "contains_topic": true/false,
  "targeting_topic": true/false,
  "reason": "giải thích ngắn gọn (1 câu)",
  "crisis_keywords": ["từ khóa 1", "từ khóa 2", ...]
}

⚠️ Ghi nhớ:
- Nếu chỉ nhắc chủ đề trong hashtag hoặc không liên quan trực tiếp tới hành vi tiêu cực → targeting_topic = false.
- Nếu targeting_topic = false thì crisis_keywords là mảng rỗng []
- Luôn đảm bảo crisis_keywords là list, các phần tử không dài quá 3 từ.

Chỉ trả về JSON hợp lệ. Không ghi thêm bất kỳ văn bản nào khác.`

// BuildPrompt renders the crisis analysis prompt for an item.
func BuildPrompt(item domain.ContentItem) string {
	combined := strings.Join([]string{
		"Title: " + item.Title,
		"Description: " + item.Description,
		"Content: " + item.Content,
	}, " ")
	return fmt.Sprintf(promptTemplate, combined, item.TopicName)
}
