package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jamiec/internal/content"
	"github.com/jamiec/internal/db"
	"gorm.io/gorm/logger"
)

func setupTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:tag-handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(db.Options{Dialect: db.DialectSQLite, DSN: dsn, LogLevel: logger.Silent})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(gdb)
	})

	fsys, err := db.Migrations(db.DialectSQLite)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if _, err := db.NewMigrator(gdb, fsys).WithLogger(slog.New(slog.DiscardHandler)).Up(context.Background()); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return NewAPI(gdb, Options{})
}

func TestCreateTagDuplicateSlug(t *testing.T) {
	api := setupTestAPI(t)

	for i, expected := range []int{http.StatusCreated, http.StatusConflict} {
		body, _ := json.Marshal(map[string]any{"tag": "Go"})
		req := httptest.NewRequest(http.MethodPost, "/office/tags", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = req

		api.CreateTag(c)

		if w.Code != expected {
			t.Fatalf("request %d: expected status %d, got %d", i, expected, w.Code)
		}
	}
}

func TestCreateTagInvalidPayload(t *testing.T) {
	api := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/office/tags", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.CreateTag(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestCreateTagMissingName(t *testing.T) {
	api := setupTestAPI(t)

	body, _ := json.Marshal(map[string]any{})
	req := httptest.NewRequest(http.MethodPost, "/office/tags", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.CreateTag(c)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", w.Code)
	}

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Fields["tag"] != "tag is required" {
		t.Fatalf("unexpected fields: %v", resp.Fields)
	}
}

func TestDeleteTag(t *testing.T) {
	api := setupTestAPI(t)

	tag, err := api.tags.Create(context.Background(), content.NormalizedTag{Tag: "Go", Slug: "go"})
	if err != nil {
		t.Fatalf("seed tag: %v", err)
	}

	for i, expected := range []int{http.StatusNoContent, http.StatusNotFound} {
		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/office/tags/%d", tag.ID), nil)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = req
		c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(tag.ID)}}

		api.DeleteTag(c)

		if c.Writer.Status() != expected {
			t.Fatalf("request %d: expected status %d, got %d", i, expected, c.Writer.Status())
		}
	}
}
