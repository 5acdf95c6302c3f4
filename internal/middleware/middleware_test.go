package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fjord-bootcamp/backend/internal/auth"
	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/policy"
)

type fakeViewers struct {
	users   map[int64]*models.User
	touched []int64
}

func (f *fakeViewers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeViewers) TouchActivity(_ context.Context, id int64, _ time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

func newSessionRouter(t *testing.T, store *fakeViewers) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtSvc := auth.NewJWTService("secret", 1)

	r := gin.New()
	r.Use(Session(jwtSvc, store, "session", zap.NewNop()))
	r.GET("/whoami", func(c *gin.Context) {
		if v := Viewer(c); v != nil {
			c.String(http.StatusOK, v.LoginName)
			return
		}
		c.String(http.StatusOK, "guest")
	})
	page := r.Group("", RequireLogin(Page))
	page.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })
	api := r.Group("/api", Authorize(policy.KindProductQueue, API))
	api.GET("/products/unchecked", func(c *gin.Context) { c.Status(http.StatusOK) })
	talks := r.Group("", Authorize(policy.KindTalkList, Page))
	talks.GET("/talks", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, jwtSvc
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	r.ServeHTTP(w, req)
	return w
}

func TestSession_LoadsViewerFromCookieAndBearer(t *testing.T) {
	store := &fakeViewers{users: map[int64]*models.User{7: {ID: 7, LoginName: "kimura"}}}
	r, jwtSvc := newSessionRouter(t, store)
	token, err := jwtSvc.Generate(7, "kimura")
	require.NoError(t, err)

	w := get(r, "/whoami", token)
	assert.Equal(t, "kimura", w.Body.String())
	assert.Equal(t, []int64{7}, store.touched)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, "kimura", w.Body.String())
}

func TestSession_RecentActivityIsNotRewritten(t *testing.T) {
	recent := time.Now().Add(-time.Minute)
	store := &fakeViewers{users: map[int64]*models.User{7: {ID: 7, LoginName: "kimura", LastActivityAt: &recent}}}
	r, jwtSvc := newSessionRouter(t, store)
	token, _ := jwtSvc.Generate(7, "kimura")

	get(r, "/whoami", token)
	assert.Empty(t, store.touched)
}

func TestSession_InvalidTokenIsGuest(t *testing.T) {
	retired := time.Now()
	store := &fakeViewers{users: map[int64]*models.User{8: {ID: 8, LoginName: "yameo", RetiredOn: &retired}}}
	r, jwtSvc := newSessionRouter(t, store)

	assert.Equal(t, "guest", get(r, "/whoami", "garbage").Body.String())

	missing, _ := jwtSvc.Generate(99, "ghost")
	assert.Equal(t, "guest", get(r, "/whoami", missing).Body.String())

	retiredToken, _ := jwtSvc.Generate(8, "yameo")
	assert.Equal(t, "guest", get(r, "/whoami", retiredToken).Body.String())
}

func TestAuthorize_Surfaces(t *testing.T) {
	store := &fakeViewers{users: map[int64]*models.User{
		1: {ID: 1, LoginName: "komagata", Admin: true},
		2: {ID: 2, LoginName: "mentormentaro", Mentor: true},
		5: {ID: 5, LoginName: "hatsuno"},
	}}
	r, jwtSvc := newSessionRouter(t, store)
	admin, _ := jwtSvc.Generate(1, "komagata")
	mentor, _ := jwtSvc.Generate(2, "mentormentaro")
	student, _ := jwtSvc.Generate(5, "hatsuno")

	w := get(r, "/users", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, http.StatusOK, get(r, "/users", student).Code)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/products/unchecked", "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/api/products/unchecked", student).Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/products/unchecked", mentor).Code)

	w = get(r, "/talks", mentor)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, "admin_required", w.Header().Get("X-Flash-Alert"))
	assert.Equal(t, http.StatusOK, get(r, "/talks", admin).Code)
}

func TestLogger_RecordsViewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(ContextViewer, &models.User{ID: 3}) })
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	get(r, "/ok", "")
	get(r, "/boom", "")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(3), entries[0].ContextMap()["user_id"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://bootcamp.example"}))
	r.GET("/api/users", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "https://bootcamp.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://bootcamp.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
