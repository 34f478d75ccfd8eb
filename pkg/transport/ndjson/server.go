package ndjson

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// HandlerFunc processes a request and returns a response payload or error.
// ConnID(ctx) identifies the calling connection.
type HandlerFunc func(ctx context.Context, req Message) (any, error)

type connIDKey struct{}

// ConnID returns the ID of the connection a handler is serving.
func ConnID(ctx context.Context) string {
	id, _ := ctx.Value(connIDKey{}).(string)
	return id
}

type client struct {
	id   string
	conn net.Conn
	wmu  sync.Mutex
}

func (c *client) write(line []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err := c.conn.Write(line)
	return err
}

// Server accepts connections and dispatches NDJSON requests.
type Server struct {
	network  string
	address  string
	listener net.Listener
	handlers map[string]HandlerFunc
	clients  map[string]*client
	mu       sync.RWMutex
	logger   *slog.Logger
	closing  atomic.Bool

	onDisconnect func(id string)
}

// NewServer creates a server for network ("unix" or "tcp") and address.
func NewServer(network, address string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		network:  network,
		address:  address,
		handlers: make(map[string]HandlerFunc),
		clients:  make(map[string]*client),
		logger:   logger,
	}
}

// Handle registers a handler for a method. Register before Serve.
func (s *Server) Handle(method string, h HandlerFunc) {
	s.handlers[method] = h
}

// OnDisconnect registers a callback run after a connection closes.
func (s *Server) OnDisconnect(fn func(id string)) {
	s.onDisconnect = fn
}

// Listen opens the listener. A stale unix socket file is removed first.
func (s *Server) Listen() error {
	if s.network == "unix" {
		if err := os.Remove(s.address); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	}
	ln, err := net.Listen(s.network, s.address)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", s.network, s.address, err)
	}
	s.listener = ln
	s.logger.Info("server listening", "network", s.network, "addr", ln.Addr().String())
	return nil
}

// Addr returns the listening address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Shutdown, returning nil, or until the
// listener fails, returning the error.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("serve: not listening")
	}
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			s.logger.Error("accept error", "err", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		c := &client{id: uuid.New().String()[:8], conn: conn}
		s.mu.Lock()
		s.clients[c.id] = c
		s.mu.Unlock()
		go s.handleConn(ctx, c)
	}
}

// Start listens and serves. It blocks until the server stops.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Broadcast sends an event to all connected clients.
func (s *Server) Broadcast(msg Message) {
	line, err := encodeLine(msg)
	if err != nil {
		s.logger.Error("broadcast marshal error", "err", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if err := c.write(line); err != nil {
			s.logger.Warn("broadcast write error", "conn", c.id, "err", err)
		}
	}
}

// SendTo sends msg to one connection.
func (s *Server) SendTo(id string, msg Message) error {
	s.mu.RLock()
	c, ok := s.clients[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown connection %q", id)
	}
	line, err := encodeLine(msg)
	if err != nil {
		return err
	}
	return c.write(line)
}

// Disconnect closes one connection.
func (s *Server) Disconnect(id string) error {
	s.mu.RLock()
	c, ok := s.clients[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown connection %q", id)
	}
	return c.conn.Close()
}

// Clients returns the number of open connections.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Shutdown cleanly stops the server.
func (s *Server) Shutdown() {
	s.closing.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for _, c := range s.clients {
		c.conn.Close()
	}
	s.mu.Unlock()
	if s.network == "unix" {
		os.Remove(s.address)
	}
}

func (s *Server) handleConn(ctx context.Context, c *client) {
	defer func() {
		c.conn.Close()
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		if s.onDisconnect != nil {
			s.onDisconnect(c.id)
		}
	}()

	ctx = context.WithValue(ctx, connIDKey{}, c.id)
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line

	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			s.logger.Warn("invalid message", "conn", c.id, "err", err)
			continue
		}
		if msg.Type != MsgTypeReq {
			continue
		}

		handler, ok := s.handlers[msg.Method]
		if !ok {
			s.reply(c, NewErrorResponse(msg.ID, msg.Method, fmt.Sprintf("unknown method: %s", msg.Method)))
			continue
		}

		result, err := handler(ctx, msg)
		var resp Message
		if err != nil {
			resp = NewErrorResponse(msg.ID, msg.Method, err.Error())
		} else if resp, err = NewResponse(msg.ID, msg.Method, result); err != nil {
			resp = NewErrorResponse(msg.ID, msg.Method, err.Error())
		}
		s.reply(c, resp)
	}
}

func (s *Server) reply(c *client, msg Message) {
	line, err := encodeLine(msg)
	if err != nil {
		s.logger.Error("marshal response error", "err", err)
		return
	}
	if err := c.write(line); err != nil {
		s.logger.Warn("write response error", "conn", c.id, "err", err)
	}
}

func encodeLine(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
