package view

import (
	"embed"
	"hash/fnv"
	"html/template"
	"io/fs"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// 标签徽章颜色，按 slug 哈希取色保证同一标签颜色稳定
var badgePalette = []string{"#fcb700", "#00d3bb", "#ff5861", "#00b5ff", "#a991f7"}

// Templates parses the embedded page templates. Names are the file base names, e.g. "home.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates is Templates for program start-up.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

// Static returns the embedded static assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// FuncMap exposes the helpers used by the templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate":  FormatDate,
		"isoDate":     ISODate,
		"badgeColor":  BadgeColor,
		"socialIcon":  SocialIconSVG,
		"socialLinks": SocialLinks,
		"deref":       deref,
		"rawHTML":     rawHTML,
	}
}

// FormatDate renders a long British date such as "6 January 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 January 2006")
}

// ISODate renders t for the datetime attribute.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// BadgeColor picks a stable palette colour for a tag slug.
func BadgeColor(slug string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(slug))
	return badgePalette[h.Sum32()%uint32(len(badgePalette))]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// rawHTML 只用于写入时已经过 bluemonday 清洗的正文。
func rawHTML(s *string) template.HTML {
	if s == nil {
		return ""
	}
	return template.HTML(*s)
}
