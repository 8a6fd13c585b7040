package stream

import (
	"net/http"
	"sync"

	"BDRScan/internal/domain/models"
	applogger "BDRScan/pkg/logger"

	"github.com/gorilla/websocket"
)

// Hub fans scan progress events out to connected WebSocket clients.
// Slow clients are dropped rather than allowed to block a scan.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan models.ScanProgress
	log     *applogger.Logger

	upgrader websocket.Upgrader
}

// NewHub creates an empty progress hub.
func NewHub(log *applogger.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan models.ScanProgress),
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and streams progress events until the
// client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	ch := make(chan models.ScanProgress, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	go h.writeLoop(conn, ch)
	go h.readLoop(conn)
	return nil
}

// Notify implements repository.ProgressNotifier. Full client buffers
// cause the event to be skipped for that client.
func (h *Hub) Notify(p models.ScanProgress) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, ch := range h.clients {
		select {
		case ch <- p:
		default:
			h.log.Warn("progress client too slow, dropping event",
				applogger.String("remote", conn.RemoteAddr().String()))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, ch := range h.clients {
		close(ch)
		conn.Close()
		delete(h.clients, conn)
	}
	return nil
}

func (h *Hub) writeLoop(conn *websocket.Conn, ch chan models.ScanProgress) {
	for p := range ch {
		if err := conn.WriteJSON(p); err != nil {
			h.drop(conn)
			return
		}
	}
}

// readLoop drains client frames so pings are answered and close frames
// are noticed.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	conn.Close()
}
