package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"BDRScan/internal/domain/models"
	applogger "BDRScan/pkg/logger"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewHub(log)
}

func dialHub(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r)
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHubBroadcast(t *testing.T) {
	h := newTestHub(t)
	conn, cleanup := dialHub(t, h)
	defer cleanup()

	// Registration happens in Serve before the handler returns, but the
	// dial response can race it.
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.ClientCount() != 1 {
		t.Fatalf("clients = %d, want 1", h.ClientCount())
	}

	h.Notify(models.ScanProgress{Stage: "fundamentals", Done: 3, Total: 10, Percent: 30, Symbol: "AAPL"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.ScanProgress
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Stage != "fundamentals" || got.Symbol != "AAPL" || got.Percent != 30 {
		t.Fatalf("event = %+v", got)
	}
}

func TestHubClose(t *testing.T) {
	h := newTestHub(t)
	_, cleanup := dialHub(t, h)
	defer cleanup()

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.ClientCount() != 0 {
		t.Fatalf("clients = %d after close", h.ClientCount())
	}

	// Notify after close must not panic.
	h.Notify(models.ScanProgress{Stage: "done"})
}
