package db

import "time"

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusHidden    = "hidden"
)

// Post 定义了文章模型。slug 在存储层不唯一，查询按最小 id 取一条。
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Description  *string   `json:"description"`
	MarkdownBody *string   `json:"markdown_body"`
	HTMLBody     *string   `gorm:"column:html_body" json:"html_body"`
	Slug         *string   `json:"slug"`
	Status       string    `gorm:"not null;default:draft" json:"status"`
	InsertedAt   time.Time `gorm:"autoCreateTime" json:"inserted_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Tags         []Tag     `gorm:"-" json:"tags"`
}

// TableName 指定表名。
func (Post) TableName() string {
	return "posts"
}

// SlugValue returns the slug or an empty string when the post has none.
func (p Post) SlugValue() string {
	if p.Slug == nil {
		return ""
	}
	return *p.Slug
}

// DescriptionValue returns the description or an empty string.
func (p Post) DescriptionValue() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

// IsPublished 判断文章是否对外可见。
func (p Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}
