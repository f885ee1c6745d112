package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jamiec/internal/content"
	"github.com/jamiec/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound = errors.New("post not found")
)

// PostService wraps post related database operations.
type PostService struct {
	db *gorm.DB
}

// postTagRow 是文章与标签 LEFT JOIN 的单行结果，没有标签的文章标签列为 NULL。
type postTagRow struct {
	ID           uint
	Title        string
	Description  *string
	MarkdownBody *string
	HTMLBody     *string `gorm:"column:html_body"`
	Slug         *string
	Status       string
	InsertedAt   time.Time
	UpdatedAt    time.Time
	TagID        *uint
	TagName      *string
	TagSlug      *string
}

// tagLinkRow 是按文章批量加载标签时的行。
type tagLinkRow struct {
	PostID uint
	ID     uint
	Tag    string
	Slug   string
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb}
}

// GetPublishedBySlug 返回指定 slug 的已发布文章。多篇文章共用一个 slug 时取 id 最小的一篇。
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*db.Post, error) {
	if slug == "" {
		return nil, ErrPostNotFound
	}

	var post db.Post
	err := s.db.WithContext(ctx).
		Where("slug = ? AND status = ?", slug, db.PostStatusPublished).
		Order("id asc").
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if err := s.attachTags(ctx, []*db.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPublished returns published posts newest first, each with its tags.
func (s *PostService) ListPublished(ctx context.Context) ([]db.Post, error) {
	return s.listWithTags(ctx, func(query *gorm.DB) *gorm.DB {
		return query.Where("posts.status = ?", db.PostStatusPublished)
	})
}

// ListAll returns every post regardless of status, newest first.
func (s *PostService) ListAll(ctx context.Context) ([]db.Post, error) {
	return s.listWithTags(ctx, nil)
}

// Get fetches a post by id with its tags.
func (s *PostService) Get(ctx context.Context, id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if err := s.attachTags(ctx, []*db.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

// Create persists a validated post and links tags in one transaction.
func (s *PostService) Create(ctx context.Context, input content.NormalizedPost, tagIDs []uint) (*db.Post, error) {
	post := db.Post{}
	applyNormalized(&post, input)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return replaceTags(tx, post.ID, tagIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, post.ID)
}

// Update overwrites an existing post and its tag set.
func (s *PostService) Update(ctx context.Context, id uint, input content.NormalizedPost, tagIDs []uint) (*db.Post, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		applyNormalized(&post, input)
		if err := tx.Save(&post).Error; err != nil {
			return fmt.Errorf("update post %d: %w", id, err)
		}
		return replaceTags(tx, post.ID, tagIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Delete removes a post; its tag links go with it.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&db.Post{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete post %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// listWithTags 用一次 LEFT JOIN 查询取出文章及其标签，再按文章 id 在内存中归并。
func (s *PostService) listWithTags(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]db.Post, error) {
	query := s.db.WithContext(ctx).
		Table("posts").
		Select("posts.id, posts.title, posts.description, posts.markdown_body, posts.html_body, posts.slug, " +
			"posts.status, posts.inserted_at, posts.updated_at, " +
			"tags.id AS tag_id, tags.tag AS tag_name, tags.slug AS tag_slug").
		Joins("LEFT JOIN posts_tags ON posts_tags.post_id = posts.id").
		Joins("LEFT JOIN tags ON tags.id = posts_tags.tag_id")
	if scope != nil {
		query = scope(query)
	}

	var rows []postTagRow
	if err := query.
		Order("posts.inserted_at desc").
		Order("posts.id desc").
		Order("tags.id asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	return groupPostRows(rows), nil
}

func groupPostRows(rows []postTagRow) []db.Post {
	posts := make([]db.Post, 0, len(rows))
	index := make(map[uint]int, len(rows))

	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			posts = append(posts, db.Post{
				ID:           row.ID,
				Title:        row.Title,
				Description:  row.Description,
				MarkdownBody: row.MarkdownBody,
				HTMLBody:     row.HTMLBody,
				Slug:         row.Slug,
				Status:       row.Status,
				InsertedAt:   row.InsertedAt,
				UpdatedAt:    row.UpdatedAt,
				Tags:         []db.Tag{},
			})
			i = len(posts) - 1
			index[row.ID] = i
		}

		if row.TagID == nil {
			continue
		}
		tag := db.Tag{ID: *row.TagID}
		if row.TagName != nil {
			tag.Tag = *row.TagName
		}
		if row.TagSlug != nil {
			tag.Slug = *row.TagSlug
		}
		posts[i].Tags = append(posts[i].Tags, tag)
	}

	return posts
}

func (s *PostService) attachTags(ctx context.Context, posts []*db.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(posts))
	byID := make(map[uint]*db.Post, len(posts))
	for _, post := range posts {
		post.Tags = []db.Tag{}
		ids = append(ids, post.ID)
		byID[post.ID] = post
	}

	var links []tagLinkRow
	if err := s.db.WithContext(ctx).
		Table("tags").
		Select("posts_tags.post_id, tags.id, tags.tag, tags.slug").
		Joins("JOIN posts_tags ON posts_tags.tag_id = tags.id").
		Where("posts_tags.post_id IN ?", ids).
		Order("tags.id asc").
		Scan(&links).Error; err != nil {
		return err
	}

	for _, link := range links {
		if post, ok := byID[link.PostID]; ok {
			post.Tags = append(post.Tags, db.Tag{ID: link.ID, Tag: link.Tag, Slug: link.Slug})
		}
	}
	return nil
}

// replaceTags 把文章的标签集合替换为 tagIDs，任一标签不存在时返回 ErrTagNotFound。
func replaceTags(tx *gorm.DB, postID uint, tagIDs []uint) error {
	ids := uniqueIDs(tagIDs)

	if len(ids) > 0 {
		var found int64
		if err := tx.Model(&db.Tag{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return err
		}
		if int(found) != len(ids) {
			return ErrTagNotFound
		}
	}

	if err := tx.Where("post_id = ?", postID).Delete(&db.PostTag{}).Error; err != nil {
		return fmt.Errorf("clear tags of post %d: %w", postID, err)
	}
	if len(ids) == 0 {
		return nil
	}

	links := make([]db.PostTag, 0, len(ids))
	for _, id := range ids {
		links = append(links, db.PostTag{PostID: postID, TagID: id})
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("link tags to post %d: %w", postID, err)
	}
	return nil
}

func applyNormalized(post *db.Post, input content.NormalizedPost) {
	post.Title = input.Title
	post.Description = input.Description
	post.MarkdownBody = input.MarkdownBody
	post.HTMLBody = input.HTMLBody
	post.Slug = input.Slug
	post.Status = input.Status
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
