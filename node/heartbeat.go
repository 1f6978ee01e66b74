package node

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/plethora-kv/plethora/wire"
)

// HeartbeatSender emits a fixed-cadence UDP beacon identifying this node to
// the coordinator. Loss is tolerated; there are no retries.
type HeartbeatSender struct {
	identity  string
	coordAddr string
	interval  time.Duration
	logger    *zap.Logger
}

// NewHeartbeatSender builds a sender that beacons to coordAddr (host:port)
// as identity, every interval.
func NewHeartbeatSender(identity, coordAddr string, interval time.Duration, logger *zap.Logger) *HeartbeatSender {
	return &HeartbeatSender{identity: identity, coordAddr: coordAddr, interval: interval, logger: logger}
}

// Run sends beacons until ctx is canceled. It stops the loop before the next
// send rather than mid-send.
func (h *HeartbeatSender) Run(ctx context.Context) {
	conn, err := net.Dial("udp", h.coordAddr)
	if err != nil {
		h.logger.Error("heartbeat: failed to dial coordinator", zap.String("addr", h.coordAddr), zap.Error(err))
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info("heartbeat sender started", zap.Duration("interval", h.interval), zap.String("identity", h.identity))

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("heartbeat sender stopped")
			return
		case <-ticker.C:
			h.beat(conn)
		}
	}
}

func (h *HeartbeatSender) beat(conn net.Conn) {
	b, err := json.Marshal(wire.Heartbeat(h.identity))
	if err != nil {
		h.logger.Warn("heartbeat: encode failed", zap.Error(err))
		return
	}
	if _, err := conn.Write(b); err != nil {
		h.logger.Warn("heartbeat: send failed", zap.Error(err))
	}
}
