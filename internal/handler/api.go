package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jamiec/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	posts      *service.PostService
	tags       *service.TagService
	users      *service.UserService
	site       siteViewModel
	officeAuth bool
}

// Options configures the handler set.
type Options struct {
	SiteTitle       string
	SiteDescription string
	// OfficeAuth 为 true 时 /office 路由需要登录。
	OfficeAuth bool
}

type siteViewModel struct {
	Title       string
	Description string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	site := siteViewModel{Title: opts.SiteTitle, Description: opts.SiteDescription}
	if site.Title == "" {
		site.Title = "Jamie Curle"
	}
	if site.Description == "" {
		site.Description = "Lead Software Engineer"
	}

	return &API{
		posts:      service.NewPostService(gdb),
		tags:       service.NewTagService(gdb),
		users:      service.NewUserService(gdb),
		site:       site,
		officeAuth: opts.OfficeAuth,
	}
}

// OfficeAuthEnabled reports whether office routes require a session.
func (a *API) OfficeAuthEnabled() bool {
	return a.officeAuth
}

// renderHTML 在渲染模板前补全站点标题、描述与年份等公共数据。
func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["site"]; !exists {
		payload["site"] = gin.H{
			"title":       a.site.Title,
			"description": a.site.Description,
		}
	}
	if title, _ := payload["title"].(string); title == "" {
		payload["title"] = a.site.Title
	}
	if description, _ := payload["description"].(string); description == "" {
		payload["description"] = a.site.Description
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = time.Now().Year()
	}
	payload["officeAuth"] = a.officeAuth

	c.HTML(status, template, payload)
}

func (a *API) renderMessage(c *gin.Context, status int, heading, message string) {
	a.renderHTML(c, status, "message.html", gin.H{
		"title":   heading + " | " + a.site.Title,
		"heading": heading,
		"message": message,
	})
}
