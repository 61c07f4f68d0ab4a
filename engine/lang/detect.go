// Package lang normalizes document language before embedding. Vietnamese
// text is detected heuristically and translated to English so that every
// vector lives in the same language space.
package lang

import (
	"regexp"
	"strings"
)

// vietnameseKeywords are common CV/job-posting phrases. Any hit marks the
// text as Vietnamese without consulting the diacritics check.
var vietnameseKeywords = []string{
	"công ty",
	"kinh nghiệm",
	"kỹ năng",
	"trách nhiệm",
	"yêu cầu",
	"lương",
	"ứng viên",
	"vị trí",
	"mô tả",
	"bằng cấp",
	"đào tạo",
	"mô tả công việc",
}

var vietnameseDiacritics = regexp.MustCompile(`[àáạảãâầấậẩẫăằắặẳẵèéẻẽẹêềếệểễìíỉĩịòóỏõọôồốộổỗơờớợởỡùúủũụưừứựửữỳýỷỹỵđ]`)

// IsVietnamese reports whether the text looks Vietnamese, by keyword match
// or by the presence of Vietnamese diacritics.
func IsVietnamese(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, k := range vietnameseKeywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return vietnameseDiacritics.MatchString(lowered)
}
