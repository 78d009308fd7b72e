package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/manager"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// replyBuffer bounds replies waiting for the writer
	replyBuffer = 16
)

// Handler manages WebSocket connections
type Handler struct {
	manager  *manager.Manager
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(mgr *manager.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		manager: mgr,
		logger:  logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The shell is served from its own origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// WithMetrics adds connection and message metrics
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// client is one live connection. Only the write loop writes to conn.
type client struct {
	handler *Handler
	conn    *websocket.Conn
	id      id.ConnectionID
	logger  *zap.Logger
	replies chan interface{}
}

// HandleConnection upgrades the request and streams view snapshots until
// the peer goes away
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	connID := id.NewConnectionID()
	cl := &client{
		handler: h,
		conn:    conn,
		id:      connID,
		logger:  h.logger.With(zap.String("conn_id", connID.String())),
		replies: make(chan interface{}, replyBuffer),
	}

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()
	cl.logger.Info("Stream connected", zap.String("remote", c.ClientIP()))

	events, unsubscribe := h.manager.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(c.Request.Context())
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		cl.writeLoop(ctx, events)
		// Unblocks the reader when the writer gives up first
		cancel()
		conn.Close()
	}()

	cl.readLoop(ctx)
	cancel()
	<-writerDone
	cl.logger.Info("Stream disconnected")
}

func (cl *client) readLoop(ctx context.Context) {
	cl.conn.SetReadLimit(utils.MaxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var intent Intent
		if err := sonic.Unmarshal(data, &intent); err != nil {
			cl.reply(ctx, errorMessage("malformed message"))
			continue
		}
		cl.handler.metrics.RecordWSMessage("in", intent.Type)

		if reply := cl.handler.dispatch(intent); reply != nil {
			if !cl.reply(ctx, reply) {
				return
			}
		}
	}
}

// reply hands msg to the writer, giving up when the connection ends
func (cl *client) reply(ctx context.Context, msg interface{}) bool {
	select {
	case cl.replies <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func (cl *client) writeLoop(ctx context.Context, events <-chan manager.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	welcome := map[string]interface{}{
		"type":          "system",
		"connection_id": cl.id,
		"message":       "Connected to AgentOS desktop stream",
	}
	if cl.send(welcome) != nil || cl.send(cl.handler.snapshot(nil)) != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			// Coalesce a burst of events into one snapshot
			batch := []manager.Event{ev}
		drain:
			for {
				select {
				case more, ok := <-events:
					if !ok {
						break drain
					}
					batch = append(batch, more)
				default:
					break drain
				}
			}
			if err := cl.send(cl.handler.snapshot(batch)); err != nil {
				return
			}

		case msg := <-cl.replies:
			if err := cl.send(msg); err != nil {
				return
			}

		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (cl *client) send(msg interface{}) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		cl.logger.Error("Failed to encode stream message", zap.Error(err))
		return err
	}
	cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		cl.logger.Debug("WebSocket write failed", zap.Error(err))
		return err
	}
	cl.handler.metrics.RecordWSMessage("out", messageType(msg))
	return nil
}

// Snapshot is pushed on connect and after every batch of changes
type Snapshot struct {
	Type       string              `json:"type"`
	Events     []manager.Event     `json:"events,omitempty"`
	Processes  []types.ProcessView `json:"processes"`
	StackOrder []string            `json:"stack_order"`
	Foreground string              `json:"foreground"`
	Viewport   types.Viewport      `json:"viewport"`
	Ready      bool                `json:"ready"`
}

func (h *Handler) snapshot(events []manager.Event) Snapshot {
	return Snapshot{
		Type:       "snapshot",
		Events:     events,
		Processes:  h.manager.Views(types.Viewport{}),
		StackOrder: h.manager.StackOrder(),
		Foreground: h.manager.ForegroundID(),
		Viewport:   h.manager.Viewport(),
		Ready:      h.manager.Ready(),
	}
}

func messageType(msg interface{}) string {
	switch m := msg.(type) {
	case Snapshot:
		return m.Type
	case map[string]interface{}:
		if t, ok := m["type"].(string); ok {
			return t
		}
	}
	return "unknown"
}
