package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jamiec/internal/config"
	"github.com/jamiec/internal/handler"
	"github.com/jamiec/internal/view"
)

// Options configures the engine.
type Options struct {
	SessionSecret string
	// SecureCookies 仅在 HTTPS 部署时开启
	SecureCookies bool
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLog(), securityHeaders())

	secret := opts.SessionSecret
	if secret == "" {
		secret = config.DevSessionSecret
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("jamiec_session", store))

	r.SetHTMLTemplate(view.MustTemplates())
	r.StaticFS("/static", http.FS(view.Static()))

	r.GET("/", api.ShowHome)
	r.GET("/health", api.Health)
	r.GET("/post/:slug", api.ShowPost)

	office := r.Group("/office")
	{
		office.GET("/login", api.ShowLogin)
		office.POST("/login", api.Login)
		office.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := office.Group("")
		auth.Use(api.AuthRequired())
		{
			auth.GET("/posts", api.ListPosts)
			auth.GET("/posts/create", api.ShowCreatePost)
			auth.GET("/posts/edit", api.ShowEditPost)
			auth.POST("/posts", api.CreatePost)
			auth.POST("/posts/:id", api.UpdatePost)
			auth.POST("/posts/:id/delete", api.DeletePost)

			auth.GET("/tags", api.ListTags)
			auth.POST("/tags", api.CreateTag)
			auth.DELETE("/tags/:id", api.DeleteTag)
		}
	}

	r.NoRoute(api.NotFound)

	return r
}
