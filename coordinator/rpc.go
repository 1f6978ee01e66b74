package coordinator

import (
	"net"
	"time"

	"github.com/plethora-kv/plethora/wire"
)

// rpcTimeout bounds each per-node request. The base design (spec §5) leaves
// node I/O timeout-free; a bounded timeout here turns a hung node into a
// failed per-node operation instead of stalling the client session forever.
const rpcTimeout = 3 * time.Second

// nodeClient issues short-lived, one-shot requests against a data node.
// Each call opens a fresh connection, per spec §5's "Node RPC connections
// are scoped per call."
type nodeClient struct{}

func (nodeClient) dial(addr string) (net.Conn, error) {
	return net.DialTimeout("tcp", addr, rpcTimeout)
}

// get issues a node get and returns the value, or !ok if the node reported a
// miss or the RPC itself failed.
func (c nodeClient) get(addr, table, key string) (value string, ok bool) {
	conn, err := c.dial(addr)
	if err != nil {
		return "", false
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(rpcTimeout))

	if err := wire.WriteMessage(conn, wire.Request(wire.ReqGet, key, "", table)); err != nil {
		return "", false
	}

	reply, err := wire.NewReader(conn).ReadMessage()
	if err != nil || reply.ReqType != wire.ReqData {
		return "", false
	}
	return reply.Message, true
}

// mutate issues a put/update/delete against a node and reports whether the
// node replied with the given success message.
func (c nodeClient) mutate(addr, reqType, table, key, value, wantSuccess string) bool {
	conn, err := c.dial(addr)
	if err != nil {
		return false
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(rpcTimeout))

	if err := wire.WriteMessage(conn, wire.Request(reqType, key, value, table)); err != nil {
		return false
	}

	reply, err := wire.NewReader(conn).ReadMessage()
	if err != nil {
		return false
	}
	return reply.Message == wantSuccess
}

func (c nodeClient) put(addr, table, key, value string) bool {
	return c.mutate(addr, wire.ReqPut, table, key, value, wire.MsgPutSuccess)
}

func (c nodeClient) update(addr, table, key, value string) bool {
	return c.mutate(addr, wire.ReqUpdate, table, key, value, wire.MsgUpdateSuccess)
}

func (c nodeClient) delete(addr, table, key string) bool {
	return c.mutate(addr, wire.ReqDelete, table, key, "", wire.MsgDeleteSuccess)
}
