package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fjord-bootcamp/backend/internal/middleware"
	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/users"
	"github.com/fjord-bootcamp/backend/pkg/response"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30 * time.Second
	PongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	searchWait   = 5 * time.Second
)

// Events exchanged on the search socket.
const (
	EventSearch       = "search"
	EventSearchResult = "search_result"
	EventError        = "error"
)

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SearchRequest is the data of a search event. Seq is echoed back so the
// client can drop results of superseded keystrokes.
type SearchRequest struct {
	Seq    int    `json:"seq"`
	Target string `json:"target"`
	Word   string `json:"word"`
	Page   int    `json:"page"`
}

// SearchReply is the data of a search_result event.
type SearchReply struct {
	Seq int `json:"seq"`
	users.SearchResult
}

// Searcher runs incremental user searches.
type Searcher interface {
	Search(ctx context.Context, viewer *models.User, rawTarget, rawWord string, page int) (users.SearchResult, error)
}

// Authenticator resolves a session token to a user.
type Authenticator func(ctx context.Context, token string) (*models.User, error)

// client is one search socket.
type client struct {
	viewer *models.User
	search Searcher
	conn   *websocket.Conn
	send   chan WSMessage
	logger *zap.Logger
}

// SearchSocket serves incremental user search over WebSocket.
type SearchSocket struct {
	search       Searcher
	authenticate Authenticator
	upgrader     websocket.Upgrader
	logger       *zap.Logger
}

// NewSearchSocket creates the search socket handler. Upgrades are accepted
// from the listed origins; with none, only same-host origins are accepted.
func NewSearchSocket(search Searcher, authenticate Authenticator, origins []string, logger *zap.Logger) *SearchSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SearchSocket{
		search:       search,
		authenticate: authenticate,
		upgrader:     websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		logger:       logger,
	}
	if len(origins) > 0 {
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		}
	}
	return s
}

// Serve handles GET /ws/users/search. The viewer comes from the session, or
// from the token query parameter for clients that cannot send cookies.
func (s *SearchSocket) Serve(c *gin.Context) {
	viewer := middleware.Viewer(c)
	if viewer == nil {
		if token := c.Query("token"); token != "" {
			viewer, _ = s.authenticate(c.Request.Context(), token)
		}
	}
	if viewer == nil {
		response.Unauthorized(c, "please sign in")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{
		viewer: viewer,
		search: s.search,
		conn:   conn,
		send:   make(chan WSMessage, 16),
		logger: s.logger.With(zap.Int64("user_id", viewer.ID)),
	}
	go cl.writePump()
	cl.readPump()
}

func (c *client) readPump() {
	defer close(c.send)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))

		switch msg.Event {
		case EventSearch:
			var req SearchRequest
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.reply(EventError, gin.H{"error": "invalid search payload"})
				continue
			}
			c.handleSearch(req)
		default:
			// ignore
		}
	}
}

func (c *client) handleSearch(req SearchRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), searchWait)
	defer cancel()
	res, err := c.search.Search(ctx, c.viewer, req.Target, req.Word, req.Page)
	if err != nil {
		c.logger.Error("websocket search failed", zap.Error(err))
		c.reply(EventError, gin.H{"seq": req.Seq, "error": "search failed"})
		return
	}
	c.reply(EventSearchResult, SearchReply{Seq: req.Seq, SearchResult: res})
}

// reply queues a message, dropping it when the writer is backed up.
func (c *client) reply(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("marshal websocket reply failed", zap.Error(err))
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
		c.logger.Warn("websocket send buffer full, dropping reply", zap.String("event", event))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
