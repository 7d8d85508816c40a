package wsfeed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 50 * time.Millisecond
	cfg.ReadTimeout = 2 * time.Second
	return &cfg
}

func TestClient_ReceivesUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Wait for scope, then push one batch.
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != TypeScope {
			t.Errorf("expected scope, got %s", msg.Type)
		}
		_ = conn.WriteJSON(Message{Type: TypeUpdates, Updates: []domain.MarketUpdate{
			{TokenID: "sol-1", Price: 0.5, PriceChange24h: 3},
		}})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client := NewClient(wsURL(server), testConfig(), nil)
	defer client.Disconnect()

	got := make(chan []domain.MarketUpdate, 1)
	client.Subscribe(func(u []domain.MarketUpdate) { got <- u })
	client.SetActiveEntities([]domain.Token{{ID: "sol-1", Price: 0.4}})

	require.NoError(t, client.Connect(context.Background()))

	select {
	case u := <-got:
		require.Len(t, u, 1)
		assert.Equal(t, domain.MarketUpdate{TokenID: "sol-1", Price: 0.5, PriceChange24h: 3}, u[0])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for updates")
	}
}

func TestClient_ResendsScopeAfterReconnect(t *testing.T) {
	var (
		mu     sync.Mutex
		scopes [][]ScopeEntry
		conns  int
	)
	scopeSeen := make(chan struct{}, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		mu.Lock()
		conns++
		first := conns == 1
		mu.Unlock()

		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		mu.Lock()
		scopes = append(scopes, msg.Tokens)
		mu.Unlock()
		scopeSeen <- struct{}{}

		if first {
			return // drop the first connection
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client := NewClient(wsURL(server), testConfig(), nil)
	defer client.Disconnect()

	client.SetActiveEntities([]domain.Token{{ID: "bnb-3", Price: 1}})
	require.NoError(t, client.Connect(context.Background()))

	for i := 0; i < 2; i++ {
		select {
		case <-scopeSeen:
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for scope %d", i+1)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, scopes, 2)
	assert.Equal(t, scopes[0], scopes[1])
	assert.Equal(t, "bnb-3", scopes[1][0].ID)
}

func TestClient_ConnectErrors(t *testing.T) {
	client := NewClient("ws://127.0.0.1:1/feed", testConfig(), nil)
	err := client.Connect(context.Background())
	assert.Error(t, err)

	require.NoError(t, client.Disconnect())
	require.NoError(t, client.Disconnect())
	assert.True(t, errors.Is(client.Connect(context.Background()), ErrClosed))
}

// silentListener accepts TCP connections and never answers, so a
// WebSocket handshake against it hangs until the dial timeout.
func silentListener(t *testing.T) (addr string, accepted <-chan struct{}) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ch := make(chan struct{}, 8)
	var mu sync.Mutex
	var held []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			held = append(held, conn)
			mu.Unlock()
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		for _, c := range held {
			c.Close()
		}
		mu.Unlock()
	})
	return ln.Addr().String(), ch
}

func TestClient_SetActiveEntitiesDuringStalledDial(t *testing.T) {
	addr, accepted := silentListener(t)

	cfg := testConfig()
	cfg.DialTimeout = 2 * time.Second
	client := NewClient("ws://"+addr+"/feed", cfg, nil)
	defer client.Disconnect()

	dialed := make(chan error, 1)
	go func() { dialed <- client.Connect(context.Background()) }()

	select {
	case <-accepted:
	case <-time.After(time.Second):
		t.Fatal("dial never reached the listener")
	}

	start := time.Now()
	for i := 0; i < 10; i++ {
		client.SetActiveEntities([]domain.Token{{ID: "sol-1", Price: float64(i + 1)}})
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	select {
	case err := <-dialed:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Connect did not time out")
	}
}

func TestServer_StreamsScopedUpdates(t *testing.T) {
	server := httptest.NewServer(NewServer(ServerOptions{Interval: 5 * time.Millisecond}))
	defer server.Close()

	client := NewClient(wsURL(server), testConfig(), nil)
	defer client.Disconnect()

	got := make(chan []domain.MarketUpdate, 64)
	client.Subscribe(func(u []domain.MarketUpdate) {
		select {
		case got <- u:
		default:
		}
	})

	require.NoError(t, client.Connect(context.Background()))
	client.SetActiveEntities([]domain.Token{
		{ID: "sol-1", Price: 1},
		{ID: "sol-2", Price: 2},
	})

	deadline := time.After(2 * time.Second)
	for received := 0; received < 3; {
		select {
		case batch := <-got:
			for _, u := range batch {
				assert.Contains(t, []string{"sol-1", "sol-2"}, u.TokenID)
				assert.Greater(t, u.Price, 0.0)
			}
			received++
		case <-deadline:
			t.Fatal("timed out waiting for simulated updates")
		}
	}

	// Narrow the scope; eventually only bnb-9 is emitted.
	client.SetActiveEntities([]domain.Token{{ID: "bnb-9", Price: 5}})
	require.Eventually(t, func() bool {
		var last []domain.MarketUpdate
		for {
			select {
			case batch := <-got:
				last = batch
				continue
			default:
			}
			break
		}
		return len(last) == 1 && last[0].TokenID == "bnb-9"
	}, 2*time.Second, 20*time.Millisecond)
}
