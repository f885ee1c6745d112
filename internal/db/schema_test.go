package db

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"gorm.io/gorm"
)

func setupSchemaDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb := openMigratorTestDB(t)
	fsys, err := Migrations(DialectSQLite)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if _, err := NewMigrator(gdb, fsys).WithLogger(slog.New(slog.DiscardHandler)).Up(context.Background()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return gdb
}

func insertPost(t *testing.T, gdb *gorm.DB, title string) uint {
	t.Helper()
	post := Post{Title: title}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post.ID
}

func insertTag(t *testing.T, gdb *gorm.DB, name, slug string) uint {
	t.Helper()
	tag := Tag{Tag: name, Slug: slug}
	if err := gdb.Create(&tag).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}
	return tag.ID
}

func countRows(t *testing.T, gdb *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	if err := gdb.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestPostsTitleIsRequired(t *testing.T) {
	gdb := setupSchemaDB(t)

	err := gdb.Exec("INSERT INTO posts (status) VALUES ('draft')").Error
	if err == nil {
		t.Fatalf("expected NOT NULL violation for missing title")
	}
	if !IsConstraintViolation(err) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
}

func TestPostsStatusDefaultsToDraft(t *testing.T) {
	gdb := setupSchemaDB(t)

	if err := gdb.Exec("INSERT INTO posts (title) VALUES ('Defaults')").Error; err != nil {
		t.Fatalf("insert post: %v", err)
	}

	var post Post
	if err := gdb.Where("title = ?", "Defaults").First(&post).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if post.Status != PostStatusDraft {
		t.Fatalf("expected default status draft, got %q", post.Status)
	}
	if post.InsertedAt.IsZero() || post.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set, got inserted=%v updated=%v", post.InsertedAt, post.UpdatedAt)
	}
	if post.Slug != nil || post.HTMLBody != nil {
		t.Fatalf("expected nullable columns to stay null")
	}
}

func TestPostsStatusRejectsUnknownValue(t *testing.T) {
	gdb := setupSchemaDB(t)

	err := gdb.Exec("INSERT INTO posts (title, status) VALUES ('Bad', 'archived')").Error
	if !IsConstraintViolation(err) {
		t.Fatalf("expected CHECK violation, got %v", err)
	}
}

func TestPostsCreateSetsTimestamps(t *testing.T) {
	gdb := setupSchemaDB(t)

	before := time.Now().Add(-time.Minute)
	post := Post{Title: "Stamped", Status: PostStatusPublished}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.InsertedAt.Before(before) || post.UpdatedAt.Before(before) {
		t.Fatalf("expected recent timestamps, got inserted=%v updated=%v", post.InsertedAt, post.UpdatedAt)
	}
}

func TestTagsSlugIsUnique(t *testing.T) {
	gdb := setupSchemaDB(t)

	insertTag(t, gdb, "Go", "go")
	err := gdb.Create(&Tag{Tag: "Golang", Slug: "go"}).Error
	if err == nil {
		t.Fatalf("expected duplicate slug to be rejected")
	}
	if !IsDuplicateKey(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestTagsRequireNameAndSlug(t *testing.T) {
	gdb := setupSchemaDB(t)

	cases := []string{
		"INSERT INTO tags (slug) VALUES ('no-name')",
		"INSERT INTO tags (tag) VALUES ('No slug')",
	}
	for _, stmt := range cases {
		if err := gdb.Exec(stmt).Error; !IsConstraintViolation(err) {
			t.Fatalf("%s: expected constraint violation, got %v", stmt, err)
		}
	}
}

func TestPostsTagsRejectsDuplicatePair(t *testing.T) {
	gdb := setupSchemaDB(t)

	postID := insertPost(t, gdb, "Paired")
	tagID := insertTag(t, gdb, "Go", "go")

	if err := gdb.Create(&PostTag{PostID: postID, TagID: tagID}).Error; err != nil {
		t.Fatalf("first link: %v", err)
	}
	err := gdb.Create(&PostTag{PostID: postID, TagID: tagID}).Error
	if !IsDuplicateKey(err) {
		t.Fatalf("expected duplicate pair to be rejected, got %v", err)
	}
}

func TestPostsTagsRejectsUnknownReferences(t *testing.T) {
	gdb := setupSchemaDB(t)

	postID := insertPost(t, gdb, "Lonely")
	tagID := insertTag(t, gdb, "Go", "go")

	if err := gdb.Create(&PostTag{PostID: postID + 100, TagID: tagID}).Error; !IsConstraintViolation(err) {
		t.Fatalf("expected FK violation for unknown post, got %v", err)
	}
	if err := gdb.Create(&PostTag{PostID: postID, TagID: tagID + 100}).Error; !IsConstraintViolation(err) {
		t.Fatalf("expected FK violation for unknown tag, got %v", err)
	}
}

func TestDeletingPostCascadesToLinks(t *testing.T) {
	gdb := setupSchemaDB(t)

	postID := insertPost(t, gdb, "Doomed")
	tagID := insertTag(t, gdb, "Go", "go")
	if err := gdb.Create(&PostTag{PostID: postID, TagID: tagID}).Error; err != nil {
		t.Fatalf("link: %v", err)
	}

	if err := gdb.Delete(&Post{}, postID).Error; err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if n := countRows(t, gdb, "posts_tags"); n != 0 {
		t.Fatalf("expected links removed with post, got %d", n)
	}
	if n := countRows(t, gdb, "tags"); n != 1 {
		t.Fatalf("expected tag to survive, got %d tags", n)
	}
}

func TestDeletingTagCascadesToLinks(t *testing.T) {
	gdb := setupSchemaDB(t)

	postID := insertPost(t, gdb, "Survivor")
	tagID := insertTag(t, gdb, "Go", "go")
	if err := gdb.Create(&PostTag{PostID: postID, TagID: tagID}).Error; err != nil {
		t.Fatalf("link: %v", err)
	}

	if err := gdb.Delete(&Tag{}, tagID).Error; err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	if n := countRows(t, gdb, "posts_tags"); n != 0 {
		t.Fatalf("expected links removed with tag, got %d", n)
	}
	if n := countRows(t, gdb, "posts"); n != 1 {
		t.Fatalf("expected post to survive, got %d posts", n)
	}
}

func TestUsersUsernameIsUnique(t *testing.T) {
	gdb := setupSchemaDB(t)

	if err := gdb.Create(&User{Username: "jamie", PasswordHash: "x"}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := gdb.Create(&User{Username: "jamie", PasswordHash: "y"}).Error; !IsDuplicateKey(err) {
		t.Fatalf("expected duplicate username to be rejected, got %v", err)
	}
}
