// Package coordinator implements the coordinator: the accept loop, the
// per-connection session state machine, the heartbeat monitor and sweep,
// and the metrics/config wiring around them.
package coordinator

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/plethora-kv/plethora/cache"
	"github.com/plethora-kv/plethora/config"
	"github.com/plethora-kv/plethora/hashring"
	"github.com/plethora-kv/plethora/metrics"
	"github.com/plethora-kv/plethora/workerpool"
)

// Server is the coordinator process: it publishes cs_config.txt, runs the
// heartbeat monitor and sweep timer, and serves client and node-registration
// connections through a bounded worker pool.
type Server struct {
	ip   string
	port int
	cfg  config.Coordinator

	ring    *hashring.Ring
	cache   *cache.Cache
	monitor *Monitor
	metrics *metrics.Metrics
	pool    *workerpool.Pool
	logger  *zap.Logger

	listener   net.Listener
	metricsSrv *http.Server
}

// New builds a coordinator bound to ip:port with the given tunables.
func New(ip string, port int, cfg config.Coordinator, logger *zap.Logger) *Server {
	m := metrics.New()
	ring := hashring.New()

	return &Server{
		ip:      ip,
		port:    port,
		cfg:     cfg,
		ring:    ring,
		cache:   cache.NewWithCapacity(cfg.CacheCapacity),
		monitor: NewMonitor(ring, m, logger),
		metrics: m,
		pool:    workerpool.New("coordinator", cfg.PoolSize, cfg.PoolSize*4, logger),
		logger:  logger,
	}
}

// Start publishes cs_config.txt, launches the monitor, sweep timer, and
// metrics endpoint, then serves the accept loop until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if err := config.WriteEndpoint(s.ip, s.port); err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}

	go func() {
		if err := s.monitor.ListenAndServe(ctx, s.cfg.HeartbeatPort); err != nil {
			s.logger.Error("heartbeat monitor stopped", zap.Error(err))
		}
	}()
	go s.monitor.RunSweeps(ctx, s.cfg.SweepInterval)

	s.startMetricsServer()

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.ip, s.port))
	if err != nil {
		return fmt.Errorf("coordinator: listen: %w", err)
	}
	s.listener = lis

	s.logger.Info("coordinator started",
		zap.String("addr", fmt.Sprintf("%s:%d", s.ip, s.port)),
		zap.Int("cache_capacity", s.cfg.CacheCapacity),
		zap.Int("pool_size", s.cfg.PoolSize))

	go func() {
		<-ctx.Done()
		s.listener.Close()
		if s.metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.metricsSrv.Shutdown(shutdownCtx)
		}
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.pool.Stop()
				return nil
			default:
				s.logger.Warn("accept failed", zap.Error(err))
				continue
			}
		}

		sess := newSession(conn, s.ring, s.cache, s.metrics, s.logger)
		if !s.pool.TrySubmit(workerpool.Task{Fn: sess.run}) {
			s.logger.Warn("worker pool saturated, serving inline")
			sess.run()
		}
	}
}

func (s *Server) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s.metricsSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.MetricsPort),
		Handler: mux,
	}
	go func() {
		if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	if s.listener != nil {
		s.listener.Close()
	}
}
