package wsfeed

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/feed/sim"
)

// ServerOptions configures the feed server.
type ServerOptions struct {
	Interval     time.Duration // simulated update interval per connection
	MaxBatch     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

// Server streams simulated updates to each connected client, scoped by the
// client's scope messages.
type Server struct {
	opts     ServerOptions
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer creates a feed server.
func NewServer(opts ServerOptions) *Server {
	def := DefaultConfig()
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = def.ReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Server{
		opts: opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: opts.Logger.Named("wsfeed-server"),
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.serve(ctx, conn)
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn) {
	remote := conn.RemoteAddr().String()
	s.logger.Info("client connected", zap.String("remote", remote))
	defer s.logger.Info("client disconnected", zap.String("remote", remote))

	var writeMu sync.Mutex
	write := func(msg Message) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
		return conn.WriteJSON(msg)
	}

	tr := sim.New(sim.Options{
		Interval: s.opts.Interval,
		MaxBatch: s.opts.MaxBatch,
		Logger:   s.logger,
	})
	unsubscribe := tr.Subscribe(func(updates []domain.MarketUpdate) {
		if err := write(Message{Type: TypeUpdates, Updates: updates}); err != nil {
			s.logger.Debug("write updates failed", zap.Error(err))
		}
	})
	defer unsubscribe()

	if err := tr.Connect(ctx); err != nil {
		return
	}
	defer tr.Disconnect()

	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(s.opts.WriteTimeout))
	})

	for {
		conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))

		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		if msg.Type == TypeScope {
			tr.SetActiveEntities(tokensOf(msg.Tokens))
			s.logger.Debug("scope updated", zap.String("remote", remote), zap.Int("tokens", len(msg.Tokens)))
		}
	}
}
