package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/feed"
	"github.com/SurajNatekar28/token-trading-table/internal/observability"
)

// ErrClosed is returned by a client after Disconnect.
var ErrClosed = errors.New("client closed")

// Config holds the client's timing knobs.
type Config struct {
	// ReconnectDelay is the first backoff step; it doubles per failure.
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	// PingInterval must stay below the server's read timeout.
	PingInterval time.Duration
	// ReadTimeout bounds the wait for the next frame. The feed sends a
	// batch every few hundred milliseconds, so silence means a dead peer.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// DefaultConfig returns the settings used when NewClient gets nil.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    500 * time.Millisecond,
		MaxReconnectDelay: 15 * time.Second,
		PingInterval:      20 * time.Second,
		ReadTimeout:       45 * time.Second,
		WriteTimeout:      5 * time.Second,
		DialTimeout:       5 * time.Second,
	}
}

// Client implements feed.Transport over a WebSocket connection.
type Client struct {
	endpoint string
	config   Config
	logger   *zap.Logger
	hub      *feed.Hub

	conn   *websocket.Conn
	connMu sync.Mutex

	// scope is resent after reconnect
	scope   []ScopeEntry
	scopeMu sync.RWMutex
	// scopeCh wakes scopeLoop; one pending signal covers any number of edits.
	scopeCh chan struct{}

	started      atomic.Bool
	closed       atomic.Bool
	reconnecting atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewClient creates a client for endpoint. It does not dial until Connect.
func NewClient(endpoint string, config *Config, logger *zap.Logger) *Client {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger.Named("wsfeed"),
		hub:      feed.NewHub(),
		scopeCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Connect dials the endpoint and starts the read and ping loops.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.started.Swap(true) {
		return nil
	}

	if err := c.connect(ctx); err != nil {
		c.started.Store(false)
		return err
	}
	select {
	case <-c.scopeCh:
	default:
	}
	c.sendScope()

	c.wg.Add(3)
	go c.readLoop()
	go c.pingLoop()
	go c.scopeLoop()

	c.logger.Info("connected", zap.String("endpoint", c.endpoint))
	return nil
}

// connect dials without holding connMu so writers never wait on a dial.
func (c *Client) connect(ctx context.Context) error {
	d := websocket.Dialer{HandshakeTimeout: c.config.DialTimeout}
	conn, resp, err := d.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", c.endpoint, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", c.endpoint, err)
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.closed.Load() {
		conn.Close()
		return ErrClosed
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	return nil
}

// Disconnect closes the connection. The client cannot be reused.
func (c *Client) Disconnect() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if conn := c.conn; conn != nil {
		bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "unsubscribe")
		_ = conn.WriteControl(websocket.CloseMessage, bye, time.Now().Add(c.config.WriteTimeout))
		conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

// Subscribe registers cb for update batches.
func (c *Client) Subscribe(cb feed.Callback) func() {
	return c.hub.Subscribe(cb)
}

// SetActiveEntities records the scope and returns at once; scopeLoop
// sends the latest scope once connected.
func (c *Client) SetActiveEntities(tokens []domain.Token) {
	c.scopeMu.Lock()
	c.scope = scopeOf(tokens)
	c.scopeMu.Unlock()

	select {
	case c.scopeCh <- struct{}{}:
	default:
	}
}

func (c *Client) scopeLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case <-c.scopeCh:
			c.sendScope()
		}
	}
}

func (c *Client) sendScope() {
	c.scopeMu.RLock()
	msg := Message{Type: TypeScope, Tokens: c.scope}
	c.scopeMu.RUnlock()

	if err := c.write(msg); err != nil && !errors.Is(err, feed.ErrNotConnected) {
		c.logger.Debug("send scope failed", zap.Error(err))
	}
}

func (c *Client) write(msg Message) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return feed.ErrNotConnected
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type, err)
	}
	return nil
}

// readLoop pulls frames off the current connection. A failed read hands
// the connection to reconnect and polls until a fresh one is installed.
func (c *Client) readLoop() {
	defer c.wg.Done()

	backoff := c.config.ReconnectDelay
	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		var err error
		if conn == nil {
			err = feed.ErrNotConnected
		} else {
			var frame []byte
			conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
			if _, frame, err = conn.ReadMessage(); err == nil {
				backoff = c.config.ReconnectDelay
				c.handleMessage(frame)
				continue
			}
		}
		if c.closed.Load() {
			return
		}

		if !c.reconnecting.Swap(true) {
			if conn != nil {
				c.logger.Warn("feed connection lost",
					zap.Error(err), zap.Duration("retry_in", backoff))
			}
			go c.reconnect(conn, backoff)
			backoff = min(backoff*2, c.config.MaxReconnectDelay)
		}

		select {
		case <-c.done:
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// reconnect replaces the failed connection and resends the scope.
func (c *Client) reconnect(failed *websocket.Conn, delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	observability.RecordFeedReconnect("ws")

	c.connMu.Lock()
	if c.conn == failed && c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.DialTimeout)
	defer cancel()
	if err := c.connect(ctx); err != nil {
		// readLoop sees a nil conn and schedules the next attempt.
		c.logger.Debug("reconnect failed", zap.Error(err))
		return
	}

	c.sendScope()
	c.logger.Info("reconnected", zap.String("endpoint", c.endpoint))
}

// handleMessage decodes one frame.
func (c *Client) handleMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Debug("malformed message", zap.Error(err))
		return
	}

	if msg.Type == TypeUpdates {
		c.hub.Publish(msg.Updates)
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	t := time.NewTicker(c.config.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
		}
		c.connMu.Lock()
		if c.conn != nil {
			// A failed ping surfaces as a read error in readLoop.
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout))
		}
		c.connMu.Unlock()
	}
}

var _ feed.Transport = (*Client)(nil)
