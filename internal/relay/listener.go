package relay

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fraudlens/fraudlens/internal/metrics"
)

// Surface names for logs and metrics.
const (
	SurfaceListener = "listener"
	SurfaceBridge   = "bridge"
)

// MaxClients is the maximum number of concurrent listener connections.
const MaxClients = 1000

// writeTimeout bounds a single reply write on a listener connection.
const writeTimeout = 10 * time.Second

// normalCloseCodes are WebSocket close codes that indicate an expected disconnect.
var normalCloseCodes = []int{
	websocket.CloseNormalClosure,
	websocket.CloseGoingAway,
	websocket.CloseNoStatusReceived,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Allow non-browser clients
		}
		// Allow same-host connections
		host := r.Host
		return origin == "http://"+host || origin == "https://"+host
	},
}

// Listener serves the freestanding relay socket: clients send transaction
// envelopes and receive an analysis (or error) envelope in reply on the
// same connection. Connections are independent; one client's malformed
// traffic never affects another.
type Listener struct {
	handler *Handler
	logger  *slog.Logger

	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	closed bool
}

// NewListener creates a relay listener around a message handler.
func NewListener(handler *Handler, logger *slog.Logger) *Listener {
	return &Listener{
		handler: handler,
		logger:  logger,
		conns:   make(map[*websocket.Conn]bool),
	}
}

// HandleWebSocket upgrades the HTTP request and serves the envelope
// request/reply loop until the client disconnects.
func (l *Listener) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	n := len(l.conns)
	l.mu.Unlock()

	if n >= MaxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	l.register(conn)
	defer l.unregister(conn)

	l.logger.Info("relay client connected", "remote", conn.RemoteAddr().String())
	l.serve(r, conn)
}

func (l *Listener) serve(r *http.Request, conn *websocket.Conn) {
	conn.SetReadLimit(512 * 1024)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, normalCloseCodes...) {
				l.logger.Warn("relay read error", "error", err)
			}
			return
		}

		reply := l.handler.HandleMessage(r.Context(), SurfaceListener, message)
		if reply == nil {
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			// The assessment is discarded; delivery is at-most-once.
			l.logger.Warn("relay reply write failed", "error", err)
			metrics.RelayEventsTotal.WithLabelValues(SurfaceListener, "out", "error").Inc()
			return
		}
		metrics.RelayEventsTotal.WithLabelValues(SurfaceListener, "out", "sent").Inc()
	}
}

func (l *Listener) register(conn *websocket.Conn) {
	l.mu.Lock()
	l.conns[conn] = true
	n := len(l.conns)
	l.mu.Unlock()
	metrics.ActiveRelayClients.Set(float64(n))
}

func (l *Listener) unregister(conn *websocket.Conn) {
	l.mu.Lock()
	delete(l.conns, conn)
	n := len(l.conns)
	l.mu.Unlock()
	metrics.ActiveRelayClients.Set(float64(n))
	_ = conn.Close()
	l.logger.Info("relay client disconnected", "total", n)
}

// Close rejects new connections and closes every open one.
func (l *Listener) Close() {
	l.mu.Lock()
	l.closed = true
	conns := make([]*websocket.Conn, 0, len(l.conns))
	for conn := range l.conns {
		conns = append(conns, conn)
	}
	l.mu.Unlock()

	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	metrics.ActiveRelayClients.Set(0)
}
