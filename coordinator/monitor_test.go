package coordinator

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plethora-kv/plethora/hashring"
	"github.com/plethora-kv/plethora/wire"
)

func sendBeacon(t *testing.T, port int, identity string) {
	t.Helper()
	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()
	b, err := json.Marshal(wire.Heartbeat(identity))
	require.NoError(t, err)
	_, err = conn.Write(b)
	require.NoError(t, err)
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()
	_, portStr, err := net.SplitHostPort(conn.LocalAddr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}

func TestMonitorCountsBeaconsAndSweepRemovesSilentNode(t *testing.T) {
	ring := hashring.New()
	ring.InsertIdentity("127.0.0.1:9001")

	port := freeUDPPort(t)
	m := NewMonitor(ring, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.ListenAndServe(ctx, port)
	time.Sleep(50 * time.Millisecond)

	sendBeacon(t, port, "127.0.0.1:9001")
	time.Sleep(50 * time.Millisecond)

	m.mu.Lock()
	count := m.counter["127.0.0.1:9001"]
	m.mu.Unlock()
	assert.Equal(t, 1, count)

	m.sweep() // first sweep: beacon present, resets counter to 0, node survives.
	assert.Equal(t, 1, ring.Size())

	m.sweep() // second sweep: no new beacon since reset, node is silent -> removed.
	assert.Equal(t, 0, ring.Size())
}

func TestMonitorTracksIdentityOnFirstBeaconEvenIfUnregistered(t *testing.T) {
	ring := hashring.New()
	port := freeUDPPort(t)
	m := NewMonitor(ring, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.ListenAndServe(ctx, port)
	time.Sleep(50 * time.Millisecond)

	sendBeacon(t, port, "127.0.0.1:9002")
	time.Sleep(50 * time.Millisecond)

	m.mu.Lock()
	_, tracked := m.counter["127.0.0.1:9002"]
	m.mu.Unlock()
	assert.True(t, tracked)
}
