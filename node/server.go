package node

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/plethora-kv/plethora/config"
	"github.com/plethora-kv/plethora/storage"
	"github.com/plethora-kv/plethora/wire"
)

// Server is a data node: it registers with the coordinator, sends periodic
// heartbeats, and accepts inbound connections from the coordinator to serve
// get/put/update/delete against its two local tables.
type Server struct {
	ip       string
	port     int
	identity string

	store   *storage.Storage
	logger  *zap.Logger
	beat    time.Duration
	udpPort int

	listener net.Listener
	wg       sync.WaitGroup
}

// New builds a node server bound to ip:port.
func New(ip string, port int, beat time.Duration, udpPort int, logger *zap.Logger) *Server {
	return &Server{
		ip:       ip,
		port:     port,
		identity: fmt.Sprintf("%s:%d", ip, port),
		store:    storage.New(),
		logger:   logger,
		beat:     beat,
		udpPort:  udpPort,
	}
}

// Start registers with the coordinator (per cs_config.txt), opens the
// listening socket, launches the heartbeat sender, and serves inbound
// connections until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.register(); err != nil {
		return fmt.Errorf("node: register with coordinator: %w", err)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.ip, s.port))
	if err != nil {
		return fmt.Errorf("node: listen: %w", err)
	}
	s.listener = lis

	s.logger.Info("node started", zap.String("identity", s.identity))

	coordIP, _, err := config.ReadEndpoint()
	if err != nil {
		return fmt.Errorf("node: read coordinator endpoint: %w", err)
	}
	coordUDP := fmt.Sprintf("%s:%d", coordIP, s.udpPort)

	sender := NewHeartbeatSender(s.identity, coordUDP, s.beat, s.logger)
	go sender.Run(ctx)

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				s.logger.Warn("accept failed", zap.Error(err))
				continue
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			handleConnection(conn, s.store, s.logger)
		}()
	}
}

// register performs the ACCEPTED -> id=slave_server -> registered handshake
// against the coordinator's stream endpoint published in cs_config.txt.
func (s *Server) register() error {
	ip, port, err := config.ReadEndpoint()
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", ip, port)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial coordinator %s: %w", addr, err)
	}
	defer conn.Close()

	reader := wire.NewReader(conn)

	if _, err := reader.ReadMessage(); err != nil {
		return fmt.Errorf("read connect ack: %w", err)
	}

	idMsg := &wire.Message{ID: wire.IDSlaveServer, Message: s.identity}
	if err := wire.WriteMessage(conn, idMsg); err != nil {
		return fmt.Errorf("send identification: %w", err)
	}

	resp, err := reader.ReadMessage()
	if err != nil {
		return fmt.Errorf("read registration reply: %w", err)
	}
	if resp.Message != wire.MsgRegistrationSuccess {
		return fmt.Errorf("registration failed: %s", resp.Message)
	}

	s.logger.Info("registered with coordinator", zap.String("coordinator", addr))
	return nil
}

// Shutdown stops accepting new connections and closes the listener.
func (s *Server) Shutdown() {
	if s.listener != nil {
		s.listener.Close()
	}
}
