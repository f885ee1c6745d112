package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jamiec/internal/content"
	"github.com/jamiec/internal/db"
	"github.com/jamiec/internal/service"
)

// ListTags returns all tags as JSON.
func (a *API) ListTags(c *gin.Context) {
	tags, err := a.tags.List(c.Request.Context())
	if err != nil {
		logError(c, "list tags failed", err)
		respondError(c, http.StatusInternalServerError, "failed to list tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// CreateTag validates and stores a tag. The slug always comes from the tag name.
func (a *API) CreateTag(c *gin.Context) {
	var input content.TagInput
	if !bindJSON(c, &input, "invalid tag payload") {
		return
	}

	normalized, err := content.ValidateTag(input)
	if err != nil {
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			respondValidationError(c, verr)
			return
		}
		logError(c, "validate tag failed", err)
		respondError(c, http.StatusInternalServerError, "failed to process tag")
		return
	}

	tag, err := a.tags.Create(c.Request.Context(), normalized)
	if err != nil {
		if db.IsDuplicateKey(err) {
			respondError(c, http.StatusConflict, "tag already exists")
			return
		}
		logError(c, "create tag failed", err)
		respondError(c, http.StatusInternalServerError, "failed to create tag")
		return
	}

	c.JSON(http.StatusCreated, tag)
}

// DeleteTag removes a tag and its post links.
func (a *API) DeleteTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.tags.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			respondError(c, http.StatusNotFound, "tag not found")
			return
		}
		logError(c, "delete tag failed", err)
		respondError(c, http.StatusInternalServerError, "failed to delete tag")
		return
	}

	c.Status(http.StatusNoContent)
}
