package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/target"
	"github.com/fjord-bootcamp/backend/internal/users"
)

type fakeSearcher struct {
	viewers chan int64
}

func (f *fakeSearcher) Search(_ context.Context, viewer *models.User, rawTarget, rawWord string, page int) (users.SearchResult, error) {
	f.viewers <- viewer.ID
	if rawWord == "boom" {
		return users.SearchResult{}, errors.New("db down")
	}
	w := users.ParseWord(rawWord)
	res := users.SearchResult{Target: target.User(rawTarget), Word: w.Text, Active: w.Active, Page: page, Users: []users.SearchHit{}}
	if w.Active {
		res.Users = append(res.Users, users.SearchHit{UserSummary: models.UserSummary{ID: 5, LoginName: "kimura"}, MatchedOn: "login_name"})
	}
	return res, nil
}

func authenticate(_ context.Context, token string) (*models.User, error) {
	if token == "good" {
		return &models.User{ID: 9, LoginName: "hatsuno"}, nil
	}
	return nil, errors.New("invalid token")
}

func newServer(t *testing.T, s Searcher) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/users/search", NewSearchSocket(s, authenticate, nil, nil).Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/users/search?token=" + token
}

func send(t *testing.T, conn *websocket.Conn, req SearchRequest) WSMessage {
	t.Helper()
	data, _ := json.Marshal(req)
	require.NoError(t, conn.WriteJSON(WSMessage{Event: EventSearch, Data: data}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestSearchSocket_RequiresViewer(t *testing.T) {
	srv := newServer(t, &fakeSearcher{viewers: make(chan int64, 1)})

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "bad"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSearchSocket_SearchRoundTrip(t *testing.T) {
	fs := &fakeSearcher{viewers: make(chan int64, 4)}
	srv := newServer(t, fs)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := send(t, conn, SearchRequest{Seq: 1, Target: "all", Word: "kim", Page: 2})
	assert.Equal(t, EventSearchResult, msg.Event)
	var reply SearchReply
	require.NoError(t, json.Unmarshal(msg.Data, &reply))
	assert.Equal(t, 1, reply.Seq)
	assert.Equal(t, 2, reply.Page)
	assert.True(t, reply.Active)
	require.Len(t, reply.Users, 1)
	assert.Equal(t, "kimura", reply.Users[0].LoginName)
	assert.Equal(t, int64(9), <-fs.viewers)

	msg = send(t, conn, SearchRequest{Seq: 2, Target: "all", Word: "ki"})
	require.NoError(t, json.Unmarshal(msg.Data, &reply))
	assert.Equal(t, 2, reply.Seq)
	assert.False(t, reply.Active)
	assert.Empty(t, reply.Users)

	msg = send(t, conn, SearchRequest{Seq: 3, Word: "boom"})
	assert.Equal(t, EventError, msg.Event)
	assert.Contains(t, string(msg.Data), `"seq":3`)
}
