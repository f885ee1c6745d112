package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jamiec/internal/content"
	"github.com/jamiec/internal/db"
	"gorm.io/gorm"
)

var (
	ErrTagNotFound = errors.New("tag not found")
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// List returns tags ordered by name.
func (s *TagService) List(ctx context.Context) ([]db.Tag, error) {
	var tags []db.Tag
	if err := s.db.WithContext(ctx).
		Order("tag asc").
		Order("id asc").
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// Create 保存已校验的标签。slug 重复时返回的错误满足 db.IsDuplicateKey。
func (s *TagService) Create(ctx context.Context, input content.NormalizedTag) (*db.Tag, error) {
	tag := db.Tag{Tag: input.Tag, Slug: input.Slug}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("create tag %q: %w", input.Slug, err)
	}
	return &tag, nil
}

// Attach links a tag to a post. A repeated pair is rejected by the store.
func (s *TagService) Attach(ctx context.Context, postID, tagID uint) error {
	link := db.PostTag{PostID: postID, TagID: tagID}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return fmt.Errorf("attach tag %d to post %d: %w", tagID, postID, err)
	}
	return nil
}

// Delete removes a tag; its post links go with it.
func (s *TagService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&db.Tag{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete tag %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}
