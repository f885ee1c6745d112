package content

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusHidden    = "hidden"
)

// Statuses lists the accepted post statuses in display order.
var Statuses = []string{StatusDraft, StatusPublished, StatusHidden}

// Field error reasons.
const (
	ReasonRequired    = "required"
	ReasonInvalidEnum = "invalid_enum"
	ReasonInvalidSlug = "invalid_slug"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	sanitizer = bluemonday.UGCPolicy()
	validate  = newValidator()
)

// PostInput 是创建或更新文章时的原始输入，指针字段为 nil 表示未提供。
type PostInput struct {
	Title        string  `json:"title" form:"title" validate:"required"`
	Description  *string `json:"description" form:"description"`
	MarkdownBody *string `json:"markdown_body" form:"markdown_body"`
	Status       string  `json:"status" form:"status" validate:"omitempty,oneof=draft published hidden"`
	Slug         *string `json:"slug" form:"slug"`
}

// NormalizedPost 是校验通过并补全派生字段后的文章数据。
type NormalizedPost struct {
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	MarkdownBody *string `json:"markdown_body,omitempty"`
	HTMLBody     *string `json:"html_body,omitempty"`
	Status       string  `json:"status"`
	Slug         *string `json:"slug,omitempty"`
}

// TagInput 是创建标签时的原始输入，slug 总是由 tag 重新计算。
type TagInput struct {
	Tag  string  `json:"tag" form:"tag" validate:"required"`
	Slug *string `json:"slug" form:"slug"`
}

// NormalizedTag 是校验通过后的标签数据。
type NormalizedTag struct {
	Tag  string `json:"tag"`
	Slug string `json:"slug"`
}

// FieldError 描述单个字段的校验失败原因。
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Message returns a human readable description of the failure.
func (f FieldError) Message() string {
	switch f.Reason {
	case ReasonRequired:
		return f.Field + " is required"
	case ReasonInvalidEnum:
		return f.Field + " must be one of " + strings.Join(Statuses, ", ")
	case ReasonInvalidSlug:
		return f.Field + " must contain at least one letter or digit"
	default:
		return f.Field + " is invalid"
	}
}

// ValidationError 汇总一次校验中的全部字段错误。
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Messages maps each failed field to its message, first failure wins.
func (e *ValidationError) Messages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := out[f.Field]; ok {
			continue
		}
		out[f.Field] = f.Message()
	}
	return out
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ValidatePost 校验文章输入，并计算默认状态、HTML 正文和 slug。
func ValidatePost(input PostInput) (NormalizedPost, error) {
	input.Title = strings.TrimSpace(input.Title)
	// status 按原值校验，只有空字符串视为未提供

	if err := checkStruct(input); err != nil {
		return NormalizedPost{}, err
	}

	post := NormalizedPost{
		Title:        input.Title,
		Description:  input.Description,
		MarkdownBody: input.MarkdownBody,
		Status:       input.Status,
	}
	if post.Status == "" {
		post.Status = StatusDraft
	}

	if input.MarkdownBody != nil && strings.TrimSpace(*input.MarkdownBody) != "" {
		rendered, err := RenderMarkdown(*input.MarkdownBody)
		if err != nil {
			return NormalizedPost{}, fmt.Errorf("render markdown: %w", err)
		}
		post.HTMLBody = &rendered
	}

	source := post.Title
	if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
		source = *input.Slug
	}
	if slug := GenerateSlug(source); slug != "" {
		post.Slug = &slug
	}

	return post, nil
}

// ValidateTag 校验标签输入，slug 始终由 tag 派生。
func ValidateTag(input TagInput) (NormalizedTag, error) {
	input.Tag = strings.TrimSpace(input.Tag)

	if err := checkStruct(input); err != nil {
		return NormalizedTag{}, err
	}

	slug := GenerateSlug(input.Tag)
	if slug == "" {
		return NormalizedTag{}, &ValidationError{Fields: []FieldError{{Field: "tag", Reason: ReasonInvalidSlug}}}
	}
	return NormalizedTag{Tag: input.Tag, Slug: slug}, nil
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 字段错误使用 json 名称，与请求体保持一致
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func checkStruct(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	verr := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{Field: fe.Field(), Reason: reasonFor(fe.Tag())})
	}
	return verr
}

func reasonFor(tag string) string {
	switch tag {
	case "required":
		return ReasonRequired
	case "oneof":
		return ReasonInvalidEnum
	default:
		return tag
	}
}
