package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	applogger "github.com/BurhanCantCode/BaqiAI/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 5 * time.Second
	pingInterval   = 30 * time.Second
	sendBufferSize = 64
)

// ProgressHub fans batch progress events out to WebSocket subscribers.
// Slow clients are dropped rather than allowed to stall the batch: the
// orchestrator invokes Broadcast synchronously from its goroutine.
type ProgressHub struct {
	logger   *applogger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan models.ProgressEvent
}

// NewProgressHub creates a progress event hub.
func NewProgressHub(logger *applogger.Logger) *ProgressHub {
	return &ProgressHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// RegisterRoutes registers the progress WebSocket endpoint.
func (h *ProgressHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/psx/progress", h.Serve)
}

// Broadcast delivers an event to every connected client. Clients whose
// send buffer is full are disconnected.
func (h *ProgressHub) Broadcast(ev models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			delete(h.clients, c)
			close(c.send)
			if h.logger != nil {
				h.logger.Warn("dropping slow progress subscriber")
			}
		}
	}
}

// Serve upgrades the connection and streams progress events until the
// client goes away.
func (h *ProgressHub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{
		conn: conn,
		send: make(chan models.ProgressEvent, sendBufferSize),
	}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Info("progress subscriber connected", applogger.Int("subscribers", count))
	}

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// writeLoop pushes events and pings; it owns all writes on the connection.
func (h *ProgressHub) writeLoop(cl *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := cl.conn.WriteJSON(ev); err != nil {
				h.remove(cl)
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(cl)
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close messages are processed.
func (h *ProgressHub) readLoop(cl *client) {
	defer h.remove(cl)
	cl.conn.SetReadLimit(512)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ProgressHub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
	_ = cl.conn.Close()
}
