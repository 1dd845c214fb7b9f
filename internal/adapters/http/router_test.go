package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/relay/internal/app"
	"github.com/dkeye/relay/internal/app/orch"
	"github.com/dkeye/relay/internal/config"
	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func newRouter(t *testing.T) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{Mode: "test", Secret: "test-secret", ReadLimit: 4096, SendBuffer: 16, WriteTimeout: time.Second}
	o := orch.New(app.NewRegistry(), app.DropPolicy{}, "User")
	return SetupRouter(ctx, cfg, o), o
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthz(t *testing.T) {
	req := require.New(t)
	r, _ := newRouter(t)

	w := get(r, "/healthz")

	req.Equal(http.StatusOK, w.Code)
	req.Equal("ok", w.Body.String())
	req.NotEmpty(w.Result().Cookies(), "client token cookie expected")
}

func TestChannelsEndpoints(t *testing.T) {
	req := require.New(t)
	r, o := newRouter(t)

	// Given two sessions sharing #b and one alone in #a
	a := o.OnConnect(nopConn{}, "a")
	b := o.OnConnect(nopConn{}, "b")
	o.OnLine(a, "join #b")
	o.OnLine(a, "join #a")
	o.OnLine(b, "join #b")
	o.OnLine(b, "nick bob")

	// When listing channels
	w := get(r, "/api/channels")
	req.Equal(http.StatusOK, w.Code)
	var chans []channelView
	req.NoError(json.Unmarshal(w.Body.Bytes(), &chans))
	req.Equal([]channelView{{Name: "#b", Members: 2}, {Name: "#a", Members: 1}}, chans)

	// When listing members of #b
	w = get(r, "/api/channels/b/members")
	req.Equal(http.StatusOK, w.Code)
	var members []domain.Member
	req.NoError(json.Unmarshal(w.Body.Bytes(), &members))
	req.Len(members, 2)
	req.Equal("User", members[0].Nickname)
	req.Equal("bob", members[1].Nickname)

	// Then a missing channel is a 404
	w = get(r, "/api/channels/nope/members")
	req.Equal(http.StatusNotFound, w.Code)

	w = get(r, "/api/sessions/count")
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"count":2}`, w.Body.String())
}

func TestWebSocketSession(t *testing.T) {
	req := require.New(t)
	r, o := newRouter(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	defer ws.Close()

	read := func() string {
		req.NoError(ws.SetReadDeadline(time.Now().Add(2 * time.Second)))
		_, data, err := ws.ReadMessage()
		req.NoError(err)
		return string(data)
	}

	req.Equal("Welcome to chat server!", read())

	// One frame may carry several lines
	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte("nick web\njoin #ws")))
	req.Equal("Nickname set to web.", read())
	req.Equal("You have created #ws.", read())

	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte("quit")))
	req.Eventually(func() bool { return o.Registry.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
