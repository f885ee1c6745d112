package db

// Tag 定义了标签模型
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Tag  string `gorm:"not null" json:"tag"`
	Slug string `gorm:"not null;uniqueIndex" json:"slug"`
}

// TableName 指定表名。
func (Tag) TableName() string {
	return "tags"
}

// PostTag 是文章与标签的关联行，(post_id, tag_id) 唯一，任一方删除时级联删除。
type PostTag struct {
	ID     uint `gorm:"primaryKey"`
	PostID uint `gorm:"not null;uniqueIndex:posts_tags_post_id_tag_id_index"`
	TagID  uint `gorm:"not null;uniqueIndex:posts_tags_post_id_tag_id_index"`
}

// TableName 重写确保与迁移文件中的表名一致
func (PostTag) TableName() string {
	return "posts_tags"
}
