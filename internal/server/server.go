package server

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Server accepts TCP connections and relays room traffic between them. One
// goroutine runs the accept loop, one runs the eviction sweep, and every
// accepted connection gets a goroutine of its own.
type Server struct {
	config   *Config
	logger   *slog.Logger
	events   *Events
	registry *Registry

	listener net.Listener
	wg       sync.WaitGroup
	done     chan struct{}

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

func NewServer(config *Config, logger *slog.Logger, events *Events) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   config,
		logger:   logger,
		events:   events,
		registry: NewRegistry(events),
		done:     make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}
}

// Registry exposes the room registry to collaborators (tests, stats).
func (s *Server) Registry() *Registry {
	return s.registry
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Address(), err)
	}
	s.listener = listener

	s.logger.Info("server listening", "addr", listener.Addr())

	s.wg.Add(2)
	go s.acceptLoop()
	go s.evictLoop()

	return nil
}

// Stop closes the listener, evicts every room (force-closing member
// sockets), drops remaining connections, and waits for all goroutines.
func (s *Server) Stop() error {
	close(s.done)

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	s.registry.Clear()

	s.connMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				// Intentional shutdown, not a fault.
				return
			default:
				s.events.error(fmt.Errorf("accept: %w", err))
				continue
			}
		}

		s.logger.Debug("connection accepted", "remote", conn.RemoteAddr())
		s.trackConn(conn, true)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.trackConn(conn, false)
			s.serveConn(conn)
		}()
	}
}

func (s *Server) evictLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.registry.EvictIdle(time.Now(), s.config.IdleThreshold)
		case <-s.done:
			return
		}
	}
}

func (s *Server) trackConn(conn net.Conn, add bool) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}
