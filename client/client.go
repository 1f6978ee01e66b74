// Package client implements the public client library for the distributed
// key-value store: connect to the coordinator, identify as a client, then
// issue get/put/update/delete requests over the session.
package client

import (
	"fmt"
	"net"

	"github.com/plethora-kv/plethora/config"
	"github.com/plethora-kv/plethora/wire"
)

// Client is a stream connection to the coordinator, past the identification
// handshake and ready to serve requests.
type Client struct {
	conn   net.Conn
	reader *wire.Reader
}

// Connect reads the coordinator's address from cs_config.txt, dials it, and
// performs the ACCEPTED -> id=client -> ready_to_serve handshake.
func Connect() (*Client, error) {
	ip, port, err := config.ReadEndpoint()
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	return ConnectTo(fmt.Sprintf("%s:%d", ip, port))
}

// ConnectTo dials addr directly, bypassing cs_config.txt discovery.
func ConnectTo(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}

	reader := wire.NewReader(conn)
	if _, err := reader.ReadMessage(); err != nil { // connected ack
		conn.Close()
		return nil, fmt.Errorf("client: read connect ack: %w", err)
	}

	if err := wire.WriteMessage(conn, &wire.Message{ID: wire.IDClient}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: send identification: %w", err)
	}

	if _, err := reader.ReadMessage(); err != nil { // ready_to_serve ack
		conn.Close()
		return nil, fmt.Errorf("client: read ready ack: %w", err)
	}

	return &Client{conn: conn, reader: reader}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(req *wire.Message) (*wire.Message, error) {
	if err := wire.WriteMessage(c.conn, req); err != nil {
		return nil, fmt.Errorf("client: send request: %w", err)
	}
	reply, err := c.reader.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("client: read reply: %w", err)
	}
	return reply, nil
}

// Get retrieves key. ok is false and err is nil on key_error; err is non-nil
// only on a transport failure.
func (c *Client) Get(key string) (value string, ok bool, err error) {
	reply, err := c.roundTrip(wire.Request(wire.ReqGet, key, "", ""))
	if err != nil {
		return "", false, err
	}
	if reply.ReqType == wire.ReqData {
		return reply.Message, true, nil
	}
	return "", false, nil
}

// Put inserts key/value, returning the ack message the coordinator sent
// (put_success or put_failed/insufficient_servers).
func (c *Client) Put(key, value string) (string, error) {
	reply, err := c.roundTrip(wire.Request(wire.ReqPut, key, value, ""))
	if err != nil {
		return "", err
	}
	return reply.Message, nil
}

// Update modifies an existing key/value.
func (c *Client) Update(key, value string) (string, error) {
	reply, err := c.roundTrip(wire.Request(wire.ReqUpdate, key, value, ""))
	if err != nil {
		return "", err
	}
	return reply.Message, nil
}

// Delete removes key.
func (c *Client) Delete(key string) (string, error) {
	reply, err := c.roundTrip(wire.Request(wire.ReqDelete, key, "", ""))
	if err != nil {
		return "", err
	}
	return reply.Message, nil
}
