package moderation

import "sort"

type RejectReasonItem struct {
	ReasonCode string
	Label      string
	ReasonText string
}

type rejectReasonTemplate struct {
	Label      string
	ReasonText string
}

var rejectReasonTemplates = map[string]rejectReasonTemplate{
	"FACE_DETECTED": {
		Label:      "인물 식별 가능",
		ReasonText: "사진에서 식별 가능한 얼굴이 감지되었습니다. 초상권 동의 없이 판매할 수 없습니다.",
	},
	"LOW_SAFETY_SCORE": {
		Label:      "안전 점수 미달",
		ReasonText: "자동 심사 안전 점수가 기준에 미치지 못했습니다.",
	},
	"COPYRIGHT": {
		Label:      "저작권 침해 의심",
		ReasonText: "타인의 저작물로 의심되는 이미지입니다. 본인이 촬영한 사진만 등록할 수 있습니다.",
	},
	"PROHIBITED_CONTENT": {
		Label:      "금지 콘텐츠",
		ReasonText: "판매가 금지된 콘텐츠가 포함되어 있습니다.",
	},
	"WATERMARK": {
		Label:      "워터마크/텍스트",
		ReasonText: "워터마크나 홍보 문구가 포함된 사진은 등록할 수 없습니다.",
	},
	"LOW_QUALITY": {
		Label:      "품질 미달",
		ReasonText: "해상도나 품질이 판매 기준에 미치지 못합니다.",
	},
	"OTHER": {
		Label:      "기타",
		ReasonText: "운영 정책에 따라 반려되었습니다.",
	},
}

// ListRejectReasons returns the reason templates the admin console shows
// when rejecting, sorted by code for a stable order.
func (s *Service) ListRejectReasons() []RejectReasonItem {
	codes := make([]string, 0, len(rejectReasonTemplates))
	for code := range rejectReasonTemplates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	items := make([]RejectReasonItem, 0, len(codes))
	for _, code := range codes {
		template := rejectReasonTemplates[code]
		items = append(items, RejectReasonItem{
			ReasonCode: code,
			Label:      template.Label,
			ReasonText: template.ReasonText,
		})
	}

	return items
}
