package coordinator

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/plethora-kv/plethora/hashring"
	"github.com/plethora-kv/plethora/metrics"
	"github.com/plethora-kv/plethora/wire"
)

// Monitor receives heartbeat beacons on a fixed UDP port, tallies them per
// identity, and periodically sweeps away identities that went silent for a
// full interval.
type Monitor struct {
	ring   *hashring.Ring
	logger *zap.Logger
	stats  *metrics.Metrics

	mu      sync.Mutex
	counter map[string]int

	conn net.PacketConn
}

// NewMonitor builds a monitor over ring, reporting through stats if non-nil.
func NewMonitor(ring *hashring.Ring, stats *metrics.Metrics, logger *zap.Logger) *Monitor {
	return &Monitor{
		ring:    ring,
		logger:  logger,
		stats:   stats,
		counter: make(map[string]int),
	}
}

// ListenAndServe binds the UDP port and receives beacons until ctx is
// canceled.
func (m *Monitor) ListenAndServe(ctx context.Context, udpPort int) error {
	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", udpPort))
	if err != nil {
		return err
	}
	m.conn = conn

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	m.logger.Info("heartbeat monitor listening", zap.Int("port", udpPort))

	buf := make([]byte, 1024)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				m.logger.Warn("heartbeat monitor read failed", zap.Error(err))
				continue
			}
		}
		m.processBeacon(buf[:n])
	}
}

func (m *Monitor) processBeacon(data []byte) {
	reader := wire.NewReader(bytes.NewReader(append([]byte(nil), data...)))
	msg, err := reader.ReadMessage()
	if err != nil || msg.ReqType != wire.ReqHeartbeat {
		return
	}

	identity := msg.Message
	if identity == "" {
		return
	}

	m.mu.Lock()
	m.counter[identity]++
	m.mu.Unlock()
}

// RunSweeps runs the sweep timer on interval until ctx is canceled: any
// identity with a zero count is declared failed and removed from the ring;
// all surviving counters reset to zero.
func (m *Monitor) RunSweeps(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Monitor) sweep() {
	m.mu.Lock()
	dead := make([]string, 0)
	for identity, count := range m.counter {
		if count == 0 {
			dead = append(dead, identity)
			continue
		}
		m.counter[identity] = 0
	}
	for _, identity := range dead {
		delete(m.counter, identity)
	}
	m.mu.Unlock()

	for _, identity := range dead {
		m.ring.RemoveIdentity(identity)
		m.logger.Info("node removed by sweep", zap.String("identity", identity))
		if m.stats != nil {
			m.stats.NodeFailuresTotal.Inc()
		}
	}
	if m.stats != nil {
		m.stats.RingSize.Set(float64(m.ring.Size()))
	}
}
