package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fraudlens/fraudlens/internal/circuitbreaker"
	"github.com/fraudlens/fraudlens/internal/metrics"
	"github.com/fraudlens/fraudlens/internal/retry"
	"github.com/fraudlens/fraudlens/internal/traces"
)

const (
	dialTimeout       = 10 * time.Second
	reconnectBaseWait = time.Second
	reconnectMaxWait  = 30 * time.Second
)

// BridgeConfig holds the peer endpoints and delivery policy.
type BridgeConfig struct {
	// PeerURL is the WebSocket endpoint to consume transaction events from.
	PeerURL string
	// PublishPeerURL is where analysis events are published. Defaults to
	// PeerURL, meaning replies go back over the consuming connection.
	PublishPeerURL string
	// WriteTimeout bounds a single publish write.
	WriteTimeout time.Duration
	// MaxRetries is the total number of publish attempts per event.
	MaxRetries int
}

// Bridge connects to a peer event service, consumes transaction events,
// and publishes analysis events. It reconnects with backoff when the
// peer connection drops.
type Bridge struct {
	cfg     BridgeConfig
	handler *Handler
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger

	mu      sync.Mutex
	consume *websocket.Conn
	publish *websocket.Conn

	stop chan struct{}
	done chan struct{}
}

// NewBridge creates a peer bridge. Start must be called to begin consuming.
func NewBridge(cfg BridgeConfig, handler *Handler, logger *slog.Logger) *Bridge {
	if cfg.PublishPeerURL == "" {
		cfg.PublishPeerURL = cfg.PeerURL
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Bridge{
		cfg:     cfg,
		handler: handler,
		breaker: circuitbreaker.New(5, 30*time.Second),
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins the consume loop in a goroutine.
func (b *Bridge) Start(ctx context.Context) {
	go b.run(ctx)
}

// Stop closes the peer connections and waits for the consume loop.
func (b *Bridge) Stop() {
	close(b.stop)
	b.closeConns()
	<-b.done
}

func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)

	wait := reconnectBaseWait
	for {
		select {
		case <-b.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		conn, err := b.dial(ctx, b.cfg.PeerURL)
		if err != nil {
			b.logger.Warn("peer dial failed", "peer", b.cfg.PeerURL, "error", err, "retryIn", wait)
			if !b.sleep(ctx, wait) {
				return
			}
			wait = min(wait*2, reconnectMaxWait)
			continue
		}
		wait = reconnectBaseWait

		b.mu.Lock()
		b.consume = conn
		b.mu.Unlock()
		metrics.BridgeConnected.Set(1)
		b.logger.Info("peer bridge connected", "peer", b.cfg.PeerURL)

		b.consumeLoop(ctx, conn)

		metrics.BridgeConnected.Set(0)
		b.mu.Lock()
		b.consume = nil
		b.mu.Unlock()
	}
}

func (b *Bridge) consumeLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(512 * 1024)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-b.stop:
			default:
				b.logger.Warn("peer connection lost", "peer", b.cfg.PeerURL, "error", err)
			}
			return
		}

		reply := b.handler.HandleMessage(ctx, SurfaceBridge, message)
		if reply == nil {
			continue
		}
		if err := b.Publish(ctx, reply); err != nil {
			b.logger.Error("analysis publish failed", "peer", b.cfg.PublishPeerURL, "error", err)
			metrics.RelayEventsTotal.WithLabelValues(SurfaceBridge, "out", "error").Inc()
			continue
		}
		metrics.RelayEventsTotal.WithLabelValues(SurfaceBridge, "out", "sent").Inc()
	}
}

// Publish sends an envelope to the publish peer, retrying transient
// failures with backoff. The circuit breaker rejects sends while the
// peer is failing fast.
func (b *Bridge) Publish(ctx context.Context, payload []byte) error {
	peer := b.cfg.PublishPeerURL
	ctx, span := traces.StartSpan(ctx, "relay.Publish", traces.Peer(peer))
	defer span.End()

	if !b.breaker.Allow(peer) {
		return fmt.Errorf("peer %s: circuit open", peer)
	}

	err := retry.Do(ctx, b.cfg.MaxRetries, 200*time.Millisecond, func() error {
		conn, err := b.publishConn(ctx)
		if err != nil {
			return err
		}
		_ = conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			b.dropPublishConn(conn)
			return err
		}
		return nil
	}, func(attempt int, err error) {
		metrics.RelayPublishRetries.Inc()
		b.logger.Warn("publish retry", "peer", peer, "attempt", attempt, "error", err)
	})
	if err != nil {
		b.breaker.Failure(peer)
		return err
	}
	b.breaker.Success(peer)
	return nil
}

// publishConn returns the connection analyses are written to. When the
// publish peer is the consume peer, replies reuse the consuming
// connection; otherwise a dedicated connection is dialed on demand.
func (b *Bridge) publishConn(ctx context.Context) (*websocket.Conn, error) {
	b.mu.Lock()
	if b.cfg.PublishPeerURL == b.cfg.PeerURL {
		conn := b.consume
		b.mu.Unlock()
		if conn == nil {
			return nil, fmt.Errorf("peer %s: not connected", b.cfg.PeerURL)
		}
		return conn, nil
	}
	if b.publish != nil {
		conn := b.publish
		b.mu.Unlock()
		return conn, nil
	}
	b.mu.Unlock()

	conn, err := b.dial(ctx, b.cfg.PublishPeerURL)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	if b.publish == nil {
		b.publish = conn
	} else {
		// Lost the race to another publisher; use theirs.
		_ = conn.Close()
		conn = b.publish
	}
	b.mu.Unlock()
	return conn, nil
}

func (b *Bridge) dropPublishConn(conn *websocket.Conn) {
	b.mu.Lock()
	if b.publish == conn {
		b.publish = nil
		_ = conn.Close()
	}
	b.mu.Unlock()
}

func (b *Bridge) dial(ctx context.Context, url string) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

func (b *Bridge) closeConns() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consume != nil {
		_ = b.consume.Close()
	}
	if b.publish != nil {
		_ = b.publish.Close()
		b.publish = nil
	}
}

func (b *Bridge) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-b.stop:
		return false
	case <-ctx.Done():
		return false
	}
}
