package content

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// RE2 的 \s 只含 ASCII 空白，这里补上 \v、Unicode 空格类以及 U+0085、U+FEFF。
	slugWhitespace = regexp.MustCompile(`[\s\v\p{Z}\x{85}\x{FEFF}]+`)
	slugInvalid    = regexp.MustCompile(`[^a-z0-9-]`)
	slugHyphens    = regexp.MustCompile(`-+`)
)

// GenerateSlug 将任意字符串转换为 URL 安全的 slug，结果只包含小写字母、数字和单个连字符。
// 输入全部为标点或空白时返回空字符串。
func GenerateSlug(input string) string {
	slug := cases.Lower(language.Und).String(input)
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
