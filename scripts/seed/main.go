package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jamiec/internal/config"
	"github.com/jamiec/internal/content"
	"github.com/jamiec/internal/db"
	"github.com/jamiec/internal/service"
	"gorm.io/gorm"
)

// 示例数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("配置加载失败:", err)
	}
	gdb, err := db.Open(db.Options{Dialect: cfg.DatabaseDialect, DSN: cfg.DatabaseURL})
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	defer db.Close(gdb)

	fmt.Println("开始生成示例数据...")

	result, err := seed(context.Background(), gdb)
	if err != nil {
		log.Fatal("示例数据生成失败:", err)
	}

	fmt.Printf("示例数据生成完成！标签: %d, 文章: %d\n", result.tags, result.posts)
}

type seedResult struct {
	tags  int
	posts int
}

var seedTags = []string{"engineering", "privacy", "Go", "Elixir", "leadership"}

var seedPosts = []struct {
	title       string
	description string
	body        string
	status      string
	tags        []string
	age         time.Duration
}{
	{
		title:       "Europe LTD",
		description: "How legislation is crafted, and what it means for the products we build.",
		body:        "## Why it matters\n\nRegulation shapes *architecture* more than we admit.\n\n- data residency\n- consent\n- retention",
		status:      content.StatusPublished,
		tags:        []string{"privacy", "leadership"},
		age:         72 * time.Hour,
	},
	{
		title:       "AI Development",
		description: "Notes from a year of pairing with language models.",
		body:        "# AI Development\n\nThe tooling is good at the boring parts. ~~Less so~~ at design.",
		status:      content.StatusPublished,
		tags:        []string{"engineering"},
		age:         48 * time.Hour,
	},
	{
		title:       "Porting a blog to Go",
		description: "Moving a small Phoenix site onto Gin and GORM.",
		body:        "```go\nr := gin.New()\n```\n\nSmall services stay small.",
		status:      content.StatusPublished,
		tags:        []string{"Go", "Elixir", "engineering"},
		age:         24 * time.Hour,
	},
	{
		title:  "Unfinished thoughts on hiring",
		body:   "Draft.",
		status: content.StatusDraft,
		tags:   []string{"leadership"},
	},
}

// seed 写入示例标签与文章；已有文章时跳过，重复运行不会产生重复数据。
func seed(ctx context.Context, gdb *gorm.DB) (seedResult, error) {
	var result seedResult

	var count int64
	if err := gdb.WithContext(ctx).Model(&db.Post{}).Count(&count).Error; err != nil {
		return result, err
	}
	if count > 0 {
		fmt.Println("文章已存在，跳过创建")
		return result, nil
	}

	tagService := service.NewTagService(gdb)
	tagIDs := make(map[string]uint, len(seedTags))
	existing, err := tagService.List(ctx)
	if err != nil {
		return result, err
	}
	for _, tag := range existing {
		tagIDs[tag.Slug] = tag.ID
	}
	for _, name := range seedTags {
		normalized, err := content.ValidateTag(content.TagInput{Tag: name})
		if err != nil {
			return result, err
		}
		if _, ok := tagIDs[normalized.Slug]; ok {
			continue
		}
		tag, err := tagService.Create(ctx, normalized)
		if err != nil {
			return result, fmt.Errorf("create tag %q: %w", name, err)
		}
		tagIDs[tag.Slug] = tag.ID
		result.tags++
	}

	postService := service.NewPostService(gdb)
	now := time.Now().UTC()
	for _, item := range seedPosts {
		description, body := item.description, item.body
		normalized, err := content.ValidatePost(content.PostInput{
			Title:        item.title,
			Description:  &description,
			MarkdownBody: &body,
			Status:       item.status,
		})
		if err != nil {
			return result, err
		}

		ids := make([]uint, 0, len(item.tags))
		for _, name := range item.tags {
			ids = append(ids, tagIDs[content.GenerateSlug(name)])
		}

		post, err := postService.Create(ctx, normalized, ids)
		if err != nil {
			return result, fmt.Errorf("create post %q: %w", item.title, err)
		}
		if item.age > 0 {
			insertedAt := now.Add(-item.age)
			if err := gdb.WithContext(ctx).Model(&db.Post{}).Where("id = ?", post.ID).
				Updates(map[string]any{"inserted_at": insertedAt, "updated_at": insertedAt}).Error; err != nil {
				return result, err
			}
		}
		result.posts++
	}

	return result, nil
}
