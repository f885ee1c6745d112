package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/jamiec/internal/content"
	"github.com/jamiec/internal/db"
	"github.com/jamiec/internal/service"
)

// postRequest 同时支持 JSON 与表单提交。
type postRequest struct {
	content.PostInput
	TagIDs []uint `json:"tag_ids"`
}

// postFormView 是编辑表单的模板数据。
type postFormView struct {
	ID           uint
	Action       string
	Title        string
	Description  string
	MarkdownBody string
	Status       string
	Slug         string
	Statuses     []string
	Tags         []db.Tag
	Selected     map[uint]bool
	Errors       map[string]string
}

// ListPosts renders every post for the office.
func (a *API) ListPosts(c *gin.Context) {
	posts, err := a.posts.ListAll(c.Request.Context())
	if err != nil {
		logError(c, "list posts failed", err)
		a.renderHTML(c, http.StatusInternalServerError, "office_posts.html", gin.H{
			"title": "Posts",
			"error": "Could not load posts",
			"posts": []db.Post{},
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "office_posts.html", gin.H{
		"title": "Posts",
		"posts": posts,
	})
}

// ShowCreatePost renders an empty post form.
func (a *API) ShowCreatePost(c *gin.Context) {
	a.renderPostForm(c, http.StatusOK, a.newPostForm(c, nil))
}

// ShowEditPost renders the form for ?id=, or an empty form when no id is given.
func (a *API) ShowEditPost(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("id"))
	if raw == "" {
		a.renderPostForm(c, http.StatusOK, a.newPostForm(c, nil))
		return
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		a.renderMessage(c, http.StatusBadRequest, "Bad request", "Invalid post id")
		return
	}

	post, err := a.posts.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			a.renderMessage(c, http.StatusNotFound, "Not found", "Post not found")
			return
		}
		logError(c, "load post failed", err)
		a.renderMessage(c, http.StatusInternalServerError, "Error", "Could not load post")
		return
	}

	a.renderPostForm(c, http.StatusOK, a.newPostForm(c, post))
}

// CreatePost validates and stores a new post.
func (a *API) CreatePost(c *gin.Context) {
	req, ok := a.bindPostRequest(c, 0)
	if !ok {
		return
	}

	normalized, ok := a.validatePost(c, req, 0)
	if !ok {
		return
	}

	post, err := a.posts.Create(c.Request.Context(), normalized, req.TagIDs)
	if err != nil {
		a.handlePostWriteError(c, req, 0, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, post)
		return
	}
	c.Redirect(http.StatusSeeOther, "/office/posts")
}

// UpdatePost validates and overwrites an existing post.
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	req, ok := a.bindPostRequest(c, id)
	if !ok {
		return
	}

	normalized, ok := a.validatePost(c, req, id)
	if !ok {
		return
	}

	post, err := a.posts.Update(c.Request.Context(), id, normalized, req.TagIDs)
	if err != nil {
		a.handlePostWriteError(c, req, id, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, post)
		return
	}
	c.Redirect(http.StatusSeeOther, "/office/posts")
}

// DeletePost removes a post and returns to the list.
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.posts.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		logError(c, "delete post failed", err)
		respondError(c, http.StatusInternalServerError, "failed to delete post")
		return
	}

	if wantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, "/office/posts")
}

func (a *API) bindPostRequest(c *gin.Context, id uint) (postRequest, bool) {
	var req postRequest
	if wantsJSON(c) {
		return req, bindJSON(c, &req, "invalid post payload")
	}

	if err := c.ShouldBindWith(&req.PostInput, binding.Form); err != nil {
		form := a.formFromRequest(c, req, id)
		form.Errors = map[string]string{"title": "Invalid form submission"}
		a.renderPostForm(c, http.StatusBadRequest, form)
		return req, false
	}
	req.TagIDs = parseUintQuerySlice(c.PostFormArray("tag_ids"))
	return req, true
}

func (a *API) validatePost(c *gin.Context, req postRequest, id uint) (content.NormalizedPost, bool) {
	normalized, err := content.ValidatePost(req.PostInput)
	if err == nil {
		return normalized, true
	}

	var verr *content.ValidationError
	if !errors.As(err, &verr) {
		logError(c, "validate post failed", err)
		respondError(c, http.StatusInternalServerError, "failed to process post")
		return normalized, false
	}

	if wantsJSON(c) {
		respondValidationError(c, verr)
		return normalized, false
	}
	form := a.formFromRequest(c, req, id)
	form.Errors = verr.Messages()
	a.renderPostForm(c, http.StatusUnprocessableEntity, form)
	return normalized, false
}

func (a *API) handlePostWriteError(c *gin.Context, req postRequest, id uint, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "post not found")
	case errors.Is(err, service.ErrTagNotFound):
		if wantsJSON(c) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "validation failed",
				"fields": gin.H{"tag_ids": "unknown tag"},
			})
			return
		}
		form := a.formFromRequest(c, req, id)
		form.Errors = map[string]string{"tag_ids": "unknown tag"}
		a.renderPostForm(c, http.StatusUnprocessableEntity, form)
	case db.IsDuplicateKey(err):
		respondError(c, http.StatusConflict, "post conflicts with an existing record")
	default:
		logError(c, "save post failed", err)
		respondError(c, http.StatusInternalServerError, "failed to save post")
	}
}

func (a *API) renderPostForm(c *gin.Context, status int, form postFormView) {
	title := "New post"
	if form.ID != 0 {
		title = "Edit " + form.Title
	}
	a.renderHTML(c, status, "post_form.html", gin.H{
		"title": title,
		"form":  form,
	})
}

func (a *API) newPostForm(c *gin.Context, post *db.Post) postFormView {
	form := postFormView{
		Action:   "/office/posts",
		Status:   content.StatusDraft,
		Statuses: content.Statuses,
		Selected: map[uint]bool{},
		Errors:   map[string]string{},
	}
	form.Tags = a.loadTagOptions(c)

	if post == nil {
		return form
	}

	form.ID = post.ID
	form.Action = fmt.Sprintf("/office/posts/%d", post.ID)
	form.Title = post.Title
	form.Description = post.DescriptionValue()
	form.Slug = post.SlugValue()
	form.Status = post.Status
	if post.MarkdownBody != nil {
		form.MarkdownBody = *post.MarkdownBody
	}
	for _, tag := range post.Tags {
		form.Selected[tag.ID] = true
	}
	return form
}

func (a *API) formFromRequest(c *gin.Context, req postRequest, id uint) postFormView {
	form := a.newPostForm(c, nil)
	if id != 0 {
		form.ID = id
		form.Action = fmt.Sprintf("/office/posts/%d", id)
	}

	form.Title = req.Title
	form.Status = req.Status
	if req.Description != nil {
		form.Description = *req.Description
	}
	if req.MarkdownBody != nil {
		form.MarkdownBody = *req.MarkdownBody
	}
	if req.Slug != nil {
		form.Slug = *req.Slug
	}
	for _, tagID := range req.TagIDs {
		form.Selected[tagID] = true
	}
	return form
}

func (a *API) loadTagOptions(c *gin.Context) []db.Tag {
	// 标签列表只用于表单选项，读取失败时表单仍可提交
	tags, err := a.tags.List(c.Request.Context())
	if err != nil {
		logError(c, "list tags failed", err)
		return []db.Tag{}
	}
	return tags
}
