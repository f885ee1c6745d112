package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jamiec/internal/config"
	"github.com/jamiec/internal/db"
	"github.com/jamiec/internal/handler"
	"github.com/jamiec/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	return gdb
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginForm(username, password string) *http.Request {
	values := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/office/login", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestOfficeRoutesRequireLoginWhenConfigured(t *testing.T) {
	gdb := setupRouterTestDB(t)
	if _, err := service.NewUserService(gdb).EnsureUser(context.Background(), "jamie", "s3cret"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	r := SetupRouter(handler.NewAPI(gdb, handler.Options{OfficeAuth: true}), Options{SessionSecret: "test-secret"})

	for _, path := range []string{"/office/posts", "/office/posts/create", "/office/posts/edit"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusFound {
			t.Fatalf("%s: expected status 302, got %d", path, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/office/login" {
			t.Fatalf("%s: unexpected redirect %q", path, loc)
		}
	}

	jsonReq := httptest.NewRequest(http.MethodPost, "/office/tags", strings.NewReader(`{"tag":"go"}`))
	jsonReq.Header.Set("Content-Type", "application/json")
	if w := serve(r, jsonReq); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for JSON request without session, got %d", w.Code)
	}

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/office/login", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected login page, got %d", w.Code)
	}

	if w := serve(r, loginForm("jamie", "wrong")); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", w.Code)
	}

	login := serve(r, loginForm("jamie", "s3cret"))
	if login.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after login, got %d", login.Code)
	}
	cookies := login.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/office/posts", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", w.Code)
	}

	logout := httptest.NewRequest(http.MethodGet, "/office/logout", nil)
	for _, cookie := range cookies {
		logout.AddCookie(cookie)
	}
	if w := serve(r, logout); w.Code != http.StatusFound {
		t.Fatalf("expected redirect after logout, got %d", w.Code)
	}
}

func TestOfficeRoutesOpenWhenAuthDisabled(t *testing.T) {
	gdb := setupRouterTestDB(t)
	r := SetupRouter(handler.NewAPI(gdb, handler.Options{}), Options{})

	for _, path := range []string{"/office/posts", "/office/posts/create", "/office/posts/edit"} {
		if w := serve(r, httptest.NewRequest(http.MethodGet, path, nil)); w.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", path, w.Code)
		}
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	gdb := setupRouterTestDB(t)
	r := SetupRouter(handler.NewAPI(gdb, handler.Options{}), Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := serve(r, req)
	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected incoming request id to be echoed, got %q", got)
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	if len(w.Header().Get("X-Request-Id")) != 36 {
		t.Fatalf("expected generated uuid request id, got %q", w.Header().Get("X-Request-Id"))
	}
}

func TestSecurityHeadersHSTSOnlyOverHTTPS(t *testing.T) {
	gdb := setupRouterTestDB(t)
	r := SetupRouter(handler.NewAPI(gdb, handler.Options{}), Options{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("did not expect HSTS over plain http")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = serve(r, req)
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("expected HSTS behind https proxy")
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Fatalf("expected CSP header")
	}
}

const testSessionSecret = "router-test-secret-0123456789abcdef"

// forgeSessionCookie signs a session claiming userID with the given secret.
func forgeSessionCookie(t *testing.T, secret string, userID uint) []*http.Cookie {
	t.Helper()
	forger := gin.New()
	forger.Use(sessions.Sessions("jamiec_session", cookie.NewStore([]byte(secret))))
	forger.GET("/", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set("user_id", userID)
		session.Set("username", "jamie")
		if err := session.Save(); err != nil {
			t.Errorf("save forged session: %v", err)
		}
		c.Status(http.StatusOK)
	})
	cookies := serve(forger, httptest.NewRequest(http.MethodGet, "/", nil)).Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected forged cookie")
	}
	return cookies
}

func TestOfficeRejectsSessionSignedWithDevSecret(t *testing.T) {
	gdb := setupRouterTestDB(t)
	user, err := service.NewUserService(gdb).EnsureUser(context.Background(), "jamie", "s3cret")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	r := SetupRouter(handler.NewAPI(gdb, handler.Options{OfficeAuth: true}), Options{SessionSecret: testSessionSecret})

	req := httptest.NewRequest(http.MethodGet, "/office/posts", nil)
	for _, c := range forgeSessionCookie(t, config.DevSessionSecret, user.ID) {
		req.AddCookie(c)
	}
	w := serve(r, req)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/office/login" {
		t.Fatalf("expected forged session to be rejected, got %d %q", w.Code, w.Header().Get("Location"))
	}

	// 同一密钥签发的会话可以通过，确认上面的拒绝来自签名校验
	req = httptest.NewRequest(http.MethodGet, "/office/posts", nil)
	for _, c := range forgeSessionCookie(t, testSessionSecret, user.ID) {
		req.AddCookie(c)
	}
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("expected valid session to pass, got %d", w.Code)
	}
}

func TestOfficeRejectsSessionOfDeletedUser(t *testing.T) {
	gdb := setupRouterTestDB(t)
	user, err := service.NewUserService(gdb).EnsureUser(context.Background(), "jamie", "s3cret")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	r := SetupRouter(handler.NewAPI(gdb, handler.Options{OfficeAuth: true}), Options{SessionSecret: testSessionSecret})
	cookies := forgeSessionCookie(t, testSessionSecret, user.ID)

	if err := gdb.Delete(&db.User{}, user.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/office/posts", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if w := serve(r, req); w.Code != http.StatusFound {
		t.Fatalf("expected redirect for deleted user, got %d", w.Code)
	}

	jsonReq := httptest.NewRequest(http.MethodGet, "/office/tags", nil)
	jsonReq.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		jsonReq.AddCookie(c)
	}
	if w := serve(r, jsonReq); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", w.Code)
	}
}
