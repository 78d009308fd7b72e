package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/directory"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/manager"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/storage"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

type message struct {
	Type         string              `json:"type"`
	ConnectionID string              `json:"connection_id"`
	Message      string              `json:"message"`
	Intent       string              `json:"intent"`
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	Events       []manager.Event     `json:"events"`
	Processes    []types.ProcessView `json:"processes"`
	Foreground   string              `json:"foreground"`
	Viewport     types.Viewport      `json:"viewport"`
	Ready        bool                `json:"ready"`
}

// newStream connects a client and consumes the greeting, so later
// snapshots are all caused by the test
func newStream(t *testing.T) (*websocket.Conn, *manager.Manager) {
	conn, mgr, _ := connect(t)
	return conn, mgr
}

func connect(t *testing.T) (*websocket.Conn, *manager.Manager, [2]message) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	opts := session.DefaultOptions()
	opts.Debounce = time.Hour
	store := session.NewStore(storage.NewMemory(), opts, zap.NewNop())
	mgr := manager.New(directory.Default(zap.NewNop()), store,
		types.Viewport{Width: 1280, Height: 800, TaskbarHeight: 30}, zap.NewNop())
	mgr.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, mgr.Wait(ctx))

	router := gin.New()
	router.GET("/stream", NewHandler(mgr, zap.NewNop()).WithMetrics(monitoring.NewMetrics()).HandleConnection)
	server := httptest.NewServer(router)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		server.Close()
		store.Close(context.Background())
	})

	var greeting [2]message
	greeting[0] = readUntil(t, conn, func(message) bool { return true })
	greeting[1] = readUntil(t, conn, func(message) bool { return true })
	return conn, mgr, greeting
}

// readUntil reads messages until match accepts one
func readUntil(t *testing.T, conn *websocket.Conn, match func(message) bool) message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg message
		require.NoError(t, json.Unmarshal(data, &msg))
		if match(msg) {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, intent Intent) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(intent))
}

func TestConnectSendsWelcomeAndSnapshot(t *testing.T) {
	_, _, greeting := connect(t)

	welcome := greeting[0]
	assert.Equal(t, "system", welcome.Type)
	assert.True(t, strings.HasPrefix(welcome.ConnectionID, "conn_"))

	snap := greeting[1]
	assert.Equal(t, "snapshot", snap.Type)
	assert.True(t, snap.Ready)
	assert.Empty(t, snap.Processes)
}

func TestOpenIntentPushesSnapshot(t *testing.T) {
	conn, mgr := newStream(t)

	send(t, conn, Intent{Type: "open", AppType: "Browser"})
	snap := readUntil(t, conn, func(m message) bool {
		return m.Type == "snapshot" && len(m.Processes) == 1
	})
	assert.Equal(t, "Browser", snap.Processes[0].ID)
	assert.Equal(t, "Browser", snap.Foreground)
	assert.Contains(t, snap.Events, manager.Event{Type: manager.EventOpened, ProcessID: "Browser"})

	_, ok := mgr.Get("Browser")
	assert.True(t, ok)
}

func TestLifecycleIntents(t *testing.T) {
	conn, mgr := newStream(t)
	mgr.Open("Browser", nil, "")
	mgr.Open("Docs", nil, "")

	find := func(views []types.ProcessView, id string) (types.ProcessView, bool) {
		for _, v := range views {
			if v.ID == id {
				return v, true
			}
		}
		return types.ProcessView{}, false
	}

	send(t, conn, Intent{Type: "minimize", ID: "Docs"})
	readUntil(t, conn, func(m message) bool {
		docs, ok := find(m.Processes, "Docs")
		return m.Type == "snapshot" && ok && docs.Minimized && docs.ZIndex == 1 && m.Foreground == "Browser"
	})

	send(t, conn, Intent{Type: "geometry", ID: "Browser", Position: &types.Position{X: 5, Y: 7}})
	readUntil(t, conn, func(m message) bool {
		browser, ok := find(m.Processes, "Browser")
		pos := browser.Geometry.Position
		return m.Type == "snapshot" && ok && pos != nil && *pos == types.Position{X: 5, Y: 7}
	})

	send(t, conn, Intent{Type: "close", ID: "Browser"})
	readUntil(t, conn, func(m message) bool {
		_, ok := find(m.Processes, "Browser")
		return m.Type == "snapshot" && !ok && len(m.Processes) == 1
	})
	_, ok := mgr.Get("Browser")
	assert.False(t, ok)
}

func TestViewportIntent(t *testing.T) {
	conn, mgr := newStream(t)

	send(t, conn, Intent{Type: "viewport", Viewport: &types.Viewport{Width: 1920, Height: 1080, TaskbarHeight: 30}})
	snap := readUntil(t, conn, func(m message) bool { return m.Type == "snapshot" && m.Viewport.Width == 1920 })
	assert.Equal(t, 1080, snap.Viewport.Height)
	assert.Equal(t, 1920, mgr.Viewport().Width)
}

func TestIntentErrors(t *testing.T) {
	conn, _ := newStream(t)

	tests := []struct {
		name   string
		intent Intent
	}{
		{"unknown type", Intent{Type: "explode"}},
		{"unknown application", Intent{Type: "open", AppType: "Nope"}},
		{"unknown process", Intent{Type: "focus", ID: "Missing"}},
		{"invalid id", Intent{Type: "focus", ID: "a b"}},
		{"empty viewport", Intent{Type: "viewport"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.intent)
			msg := readUntil(t, conn, func(m message) bool { return m.Type == "error" })
			assert.NotEmpty(t, msg.Message)
		})
	}
}

func TestPing(t *testing.T) {
	conn, _ := newStream(t)

	send(t, conn, Intent{Type: "ping"})
	readUntil(t, conn, func(m message) bool { return m.Type == "pong" })
}

func TestMalformedMessage(t *testing.T) {
	conn, _ := newStream(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := readUntil(t, conn, func(m message) bool { return m.Type == "error" })
	assert.Equal(t, "malformed message", msg.Message)
}
