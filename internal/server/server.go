// Package server reports a running pack over HTTP and a websocket.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gsdataset-go/internal/config"
	"gsdataset-go/internal/types"
)

const (
	writeWait = 10 * time.Second
	// clientQueue is how many messages a slow client may fall behind before
	// it is dropped.
	clientQueue = 64
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type Server struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*client]struct{}
	cfg      config.PackConfig
	statusFn func() types.PackStatus
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

func New(cfg config.PackConfig, statusFn func() types.PackStatus, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		cfg:      cfg,
		statusFn: statusFn,
		gatherer: gatherer,
		logger:   logger.With(zap.String("component", "server")),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/config", s.handleConfig)
	mux.HandleFunc("/status", s.handleStatus)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Run serves on the configured status port and forwards events to websocket
// clients until ctx ends.
func (s *Server) Run(ctx context.Context, events <-chan types.PackEvent) error {
	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(s.cfg.StatusPort)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	go s.Broadcast(ctx, events)

	s.logger.Info("status server listening", zap.String("addr", httpServer.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(1 << 16)

	c := &client{conn: conn, send: make(chan []byte, clientQueue)}
	if hello, err := json.Marshal(s.statusMessage()); err == nil {
		c.send <- hello
	}
	s.register(c)
	go c.writeLoop()
	defer s.unregister(c)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var request struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(payload, &request) != nil || request.Type != "status_request" {
			continue
		}
		if reply, err := json.Marshal(s.statusMessage()); err == nil {
			s.enqueue(c, reply)
		}
	}
}

// writeLoop owns all writes to the connection and closes it once the send
// queue is closed.
func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{
		"image_dir":              s.cfg.ImageDir,
		"metadata_dir":           s.cfg.MetadataDir,
		"output_dir":             s.cfg.OutputDir,
		"stages":                 s.cfg.Stages,
		"target_bytes_per_chunk": s.cfg.TargetBytesPerChunk,
		"size_method":            s.cfg.SizeMethod,
		"port":                   s.cfg.StatusPort,
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.statusMessage())
}

type statusMessage struct {
	Type string `json:"type"`
	types.PackStatus
	WSClients int `json:"ws_clients"`
}

func (s *Server) statusMessage() statusMessage {
	msg := statusMessage{Type: "status", WSClients: s.clientCount()}
	if s.statusFn != nil {
		msg.PackStatus = s.statusFn()
	}
	return msg
}

// Broadcast queues every event for all connected clients until ctx ends or
// events is closed. Clients whose queue is full are dropped.
func (s *Server) Broadcast(ctx context.Context, events <-chan types.PackEvent) {
	defer s.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			s.mu.Lock()
			for c := range s.clients {
				select {
				case c.send <- payload:
				default:
					s.logger.Warn("dropping slow status client")
					s.dropLocked(c)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	s.dropLocked(c)
	s.mu.Unlock()
}

func (s *Server) dropLocked(c *client) {
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) enqueue(c *client, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
		s.dropLocked(c)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	for c := range s.clients {
		s.dropLocked(c)
	}
	s.mu.Unlock()
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
