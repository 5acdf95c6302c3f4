package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjord-bootcamp/backend/internal/middleware"
	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/policy"
	"github.com/fjord-bootcamp/backend/internal/target"
	"github.com/fjord-bootcamp/backend/pkg/response"
)

type call struct {
	noReplied  bool
	reviewerID int64
	page       int
	perPage    int
}

type fakeQueue struct {
	rows  []Row
	calls []call
}

func (f *fakeQueue) ListUnchecked(_ context.Context, page, perPage int) ([]Row, int64, error) {
	f.calls = append(f.calls, call{page: page, perPage: perPage})
	return f.rows, int64(len(f.rows)), nil
}

func (f *fakeQueue) ListUncheckedNoReplied(_ context.Context, reviewerID int64, page, perPage int) ([]Row, int64, error) {
	f.calls = append(f.calls, call{noReplied: true, reviewerID: reviewerID, page: page, perPage: perPage})
	return f.rows[:1], 1, nil
}

type noAvatars struct{}

func (noAvatars) URL(context.Context, string) string { return "/default.png" }

func newRouter(q Queue, viewer *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(q, noAvatars{}, 50, nil)
	h.now = func() time.Time { return now }

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if viewer != nil {
			c.Set(middleware.ContextViewer, viewer)
		}
	})
	r.GET("/api/products/unchecked", middleware.Authorize(policy.KindProductQueue, middleware.API), h.Unchecked)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func sampleRows() []Row {
	return []Row{
		{Product: submitted(1, 10*day), Submitter: models.User{ID: 5, LoginName: "kimura"}},
		{Product: submitted(2, 3*day), Submitter: models.User{ID: 6, LoginName: "hatsuno", Trainee: true}},
	}
}

func TestUnchecked_RejectsBeforeQuerying(t *testing.T) {
	q := &fakeQueue{rows: sampleRows()}

	assert.Equal(t, http.StatusUnauthorized, get(newRouter(q, nil), "/api/products/unchecked").Code)
	for _, u := range []*models.User{{ID: 3, Adviser: true}, {ID: 4, Trainee: true}, {ID: 5}} {
		assert.Equal(t, http.StatusForbidden, get(newRouter(q, u), "/api/products/unchecked").Code)
	}
	assert.Empty(t, q.calls)
}

func TestUnchecked_TargetsAndPaging(t *testing.T) {
	q := &fakeQueue{rows: sampleRows()}
	mentor := &models.User{ID: 2, Mentor: true}
	r := newRouter(q, mentor)

	w := get(r, "/api/products/unchecked?target=bogus&page=3")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, call{page: 3, perPage: 50}, q.calls[0])

	var body struct {
		response.Body
		Data UncheckedResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, target.ProductUncheckedAll, body.Data.Target)
	require.Len(t, body.Data.Products, 2)
	assert.Equal(t, "kimura", body.Data.Products[0].User.LoginName)
	assert.Equal(t, "/default.png", body.Data.Products[0].User.AvatarURL)
	assert.Equal(t, "trainee", body.Data.Products[1].User.Role)
	require.Len(t, body.Data.Summary, 2)
	assert.Equal(t, 3, body.Data.Summary[0].ElapsedDays)
	assert.Equal(t, "7+", body.Data.Summary[1].Label)
	assert.Equal(t, 1, body.Meta.TotalPages)

	w = get(r, "/api/products/unchecked?target=unchecked_no_replied")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, call{noReplied: true, reviewerID: 2, page: 1, perPage: 50}, q.calls[1])
}
