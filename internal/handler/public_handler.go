package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jamiec/internal/db"
	"github.com/jamiec/internal/service"
)

// ShowHome renders the homepage with every published post.
func (a *API) ShowHome(c *gin.Context) {
	posts, err := a.posts.ListPublished(c.Request.Context())
	if err != nil {
		logError(c, "list published posts failed", err)
		a.renderHTML(c, http.StatusInternalServerError, "home.html", gin.H{
			"posts": []db.Post{},
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"posts": posts,
	})
}

// Health reports liveness for load balancers.
func (a *API) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// ShowPost renders a published post by slug. Drafts and hidden posts are 404.
func (a *API) ShowPost(c *gin.Context) {
	post, err := a.posts.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			a.renderMessage(c, http.StatusNotFound, "Not found", "That post does not exist.")
			return
		}
		logError(c, "load post by slug failed", err)
		a.renderMessage(c, http.StatusInternalServerError, "Error", "Something went wrong.")
		return
	}

	a.renderHTML(c, http.StatusOK, "post.html", gin.H{
		"title":       post.Title + " | " + a.site.Title,
		"description": post.DescriptionValue(),
		"post":        post,
	})
}

// NotFound renders the shared 404 page for unknown routes.
func (a *API) NotFound(c *gin.Context) {
	a.renderMessage(c, http.StatusNotFound, "Not found", "That page does not exist.")
}
