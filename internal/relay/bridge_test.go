package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fraudlens/fraudlens/internal/store"
)

// fakePeer is a WebSocket server standing in for the upstream event
// service: it pushes one transaction event and collects whatever the
// bridge publishes back.
type fakePeer struct {
	srv      *httptest.Server
	received chan []byte
}

func newFakePeer(t *testing.T, outbound []byte) *fakePeer {
	t.Helper()

	p := &fakePeer{received: make(chan []byte, 8)}
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if outbound != nil {
			if err := conn.WriteMessage(websocket.TextMessage, outbound); err != nil {
				return
			}
		}

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			p.received <- msg
		}
	}))

	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePeer) wsURL() string {
	return "ws" + strings.TrimPrefix(p.srv.URL, "http")
}

func TestBridge_ConsumesAndPublishes(t *testing.T) {
	peer := newFakePeer(t, validTransactionEnvelope())

	st := store.NewMemoryStore()
	b := NewBridge(BridgeConfig{PeerURL: peer.wsURL()},
		NewHandler(okScorer(), st, testLogger()), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)
	defer b.Stop()

	select {
	case raw := <-peer.received:
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("published message is not an envelope: %v", err)
		}
		if env.Type != TypeAnalysis {
			t.Errorf("Type = %q, want analysis", env.Type)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("bridge never published an analysis")
	}

	// The consumed transaction is attributed to the bridge in the audit trail.
	recs, err := st.ListRecent(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recs) != 1 || recs[0].Source != store.SourceBridge {
		t.Errorf("audit records = %+v", recs)
	}
}

func TestBridge_PublishesErrorForInvalidTransaction(t *testing.T) {
	peer := newFakePeer(t, []byte(`{"type":"transaction","data":{"amount": 3}}`))

	b := NewBridge(BridgeConfig{PeerURL: peer.wsURL()},
		NewHandler(okScorer(), nil, testLogger()), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)
	defer b.Stop()

	select {
	case raw := <-peer.received:
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if env.Type != TypeError {
			t.Errorf("Type = %q, want error", env.Type)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("bridge never published an error event")
	}
}

func TestBridge_PublishWithoutConnection(t *testing.T) {
	b := NewBridge(BridgeConfig{PeerURL: "ws://127.0.0.1:1/ws", MaxRetries: 1},
		NewHandler(okScorer(), nil, testLogger()), testLogger())

	if err := b.Publish(context.Background(), []byte(`{}`)); err == nil {
		t.Fatal("expected publish to fail with no peer connection")
	}
}
