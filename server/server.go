package server

import (
	"context"
	"net"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/polymodo/polymodo/desk"
	"github.com/polymodo/polymodo/registry"
)

// Server listens on a unix-domain socket and serves spawn/wait requests
// from short-lived clients. Connections are independent of each other; each
// one is driven by its own goroutine and serialises its own requests.
type Server struct {
	log      *zap.Logger
	addr     string
	d        *desk.Desk
	reg      *registry.Registry
	listener net.Listener
	quit     chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New builds a server for the given socket address. A leading '@' denotes
// an abstract address, which needs no filesystem cleanup.
func New(log *zap.Logger, addr string, d *desk.Desk, reg *registry.Registry) *Server {
	return &Server{
		log:  log,
		addr: addr,
		d:    d,
		reg:  reg,
		quit: make(chan struct{}),
	}
}

// Start binds the socket and begins accepting connections.
func (s *Server) Start() error {
	if !strings.HasPrefix(s.addr, "@") {
		if err := os.RemoveAll(s.addr); err != nil {
			return err
		}
	}
	l, err := net.Listen("unix", s.addr)
	if err != nil {
		return err
	}
	s.listener = l

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.acceptLoop(ctx)
	s.log.Info("listening", zap.String("addr", s.addr))
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer c.Close()
			conn := newConnection(s.log, c, s.d, s.reg)
			if err := conn.serve(ctx); err != nil {
				// Fatal to this connection only; the daemon and every
				// other connection keep running.
				s.log.Warn("connection terminated", zap.Error(err))
			}
		}(conn)
	}
}

// Stop closes the listener and waits for in-flight connections, bounded by
// ctx.
func (s *Server) Stop(ctx context.Context) error {
	close(s.quit)
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
