package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jamiec/internal/service"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
)

// ShowLogin 渲染登录页面，未配置后台账号时直接进入后台。
func (a *API) ShowLogin(c *gin.Context) {
	if !a.officeAuth {
		c.Redirect(http.StatusFound, "/office/posts")
		return
	}
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "Office login",
	})
}

// Login 校验账号密码并写入会话
func (a *API) Login(c *gin.Context) {
	if !a.officeAuth {
		c.Redirect(http.StatusSeeOther, "/office/posts")
		return
	}

	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := a.users.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		status := http.StatusUnauthorized
		message := "Invalid username or password"
		if !errors.Is(err, service.ErrInvalidCredentials) {
			logError(c, "authenticate failed", err)
			status = http.StatusInternalServerError
			message = "Login is unavailable"
		}
		a.renderHTML(c, status, "login.html", gin.H{
			"title":    "Office login",
			"error":    message,
			"username": username,
		})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		logError(c, "save session failed", err)
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{
			"title": "Office login",
			"error": "Could not start session",
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/office/posts")
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logError(c, "clear session failed", err)
	}
	c.Redirect(http.StatusFound, "/office/login")
}

// AuthRequired guards office routes. It is a no-op when office auth is off.
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.officeAuth {
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserIDKey).(uint)
		if !ok || userID == 0 {
			a.rejectUnauthenticated(c)
			return
		}

		// 会话中的账号可能已被删除
		if _, err := a.users.Get(c.Request.Context(), userID); err != nil {
			if !errors.Is(err, service.ErrUserNotFound) {
				logError(c, "load session user failed", err)
				respondError(c, http.StatusInternalServerError, "failed to verify session")
				c.Abort()
				return
			}
			session.Clear()
			if err := session.Save(); err != nil {
				logError(c, "clear session failed", err)
			}
			a.rejectUnauthenticated(c)
			return
		}
		c.Next()
	}
}

func (a *API) rejectUnauthenticated(c *gin.Context) {
	if wantsJSON(c) {
		respondError(c, http.StatusUnauthorized, "login required")
		c.Abort()
		return
	}
	c.Redirect(http.StatusFound, "/office/login")
	c.Abort()
}
