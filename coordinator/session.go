package coordinator

import (
	"errors"
	"net"

	"go.uber.org/zap"

	"github.com/plethora-kv/plethora/cache"
	"github.com/plethora-kv/plethora/hashring"
	"github.com/plethora-kv/plethora/metrics"
	"github.com/plethora-kv/plethora/wire"
)

// session runs the per-connection state machine described in spec §4.8:
// ACCEPTED -> AWAITING_ID -> (SERVING_CLIENT | REGISTER) -> CLOSE.
type session struct {
	conn    net.Conn
	ring    *hashring.Ring
	cache   *cache.Cache
	rpc     nodeClient
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func newSession(conn net.Conn, ring *hashring.Ring, c *cache.Cache, m *metrics.Metrics, logger *zap.Logger) *session {
	return &session{conn: conn, ring: ring, cache: c, rpc: nodeClient{}, logger: logger, metrics: m}
}

func (s *session) run() {
	defer s.conn.Close()

	if err := wire.WriteMessage(s.conn, wire.Ack(wire.MsgConnected)); err != nil {
		return
	}

	reader := wire.NewReader(s.conn)
	idMsg, err := reader.ReadMessage()
	if err != nil {
		s.logger.Warn("session: failed to read identification", zap.Error(err))
		return
	}
	if idMsg.ReqType == "" && idMsg.ID == "" {
		return
	}

	switch idMsg.ID {
	case wire.IDClient:
		s.serveClient(reader)
	case wire.IDSlaveServer:
		s.registerNode(idMsg)
	}
}

// registerNode implements REGISTER: identity from the message, falling back
// to the peer's socket address if absent (spec §4.8, §9's supplemented
// peer-address fallback).
func (s *session) registerNode(idMsg *wire.Message) {
	identity := idMsg.Message
	if identity == "" {
		identity = s.conn.RemoteAddr().String()
	}

	s.ring.InsertIdentity(identity)
	s.logger.Info("node registered", zap.String("identity", identity), zap.Int("ring_size", s.ring.Size()))
	if s.metrics != nil {
		s.metrics.RingSize.Set(float64(s.ring.Size()))
	}

	wire.WriteMessage(s.conn, wire.Ack(wire.MsgRegistrationSuccess))
}

// serveClient implements SERVING_CLIENT: read request / execute / write
// reply, looping until EOF.
func (s *session) serveClient(reader *wire.Reader) {
	if err := wire.WriteMessage(s.conn, wire.Ack(wire.MsgReadyToServe)); err != nil {
		return
	}

	for {
		req, err := reader.ReadMessage()
		if err != nil {
			if errors.Is(err, wire.ErrMalformed) {
				if werr := wire.WriteMessage(s.conn, wire.Ack(wire.MsgParseError)); werr != nil {
					return
				}
				continue
			}
			return // EOF or transport error ends the session.
		}

		reply := s.dispatch(req)
		if err := wire.WriteMessage(s.conn, reply); err != nil {
			return
		}
	}
}

func (s *session) dispatch(req *wire.Message) *wire.Message {
	if s.metrics != nil && req.ReqType != "" {
		s.metrics.RecordRequest(req.ReqType)
	}

	switch req.ReqType {
	case wire.ReqGet:
		return s.handleGet(req.Key)
	case wire.ReqPut:
		return s.handlePut(req.Key, req.Value)
	case wire.ReqUpdate:
		return s.handleUpdate(req.Key, req.Value)
	case wire.ReqDelete:
		return s.handleDelete(req.Key)
	default:
		return wire.Ack(wire.MsgUnknownRequest)
	}
}

func (s *session) handleGet(key string) *wire.Message {
	if v, ok := s.cache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		return wire.Data(v)
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}

	h := hashring.Hash(key)
	primary, ok := s.ring.Successor(h)
	if !ok {
		return wire.Ack(wire.MsgNoServersAvailable)
	}

	value, ok := s.rpc.get(primary.Identity, wire.TableOwn, key)
	if !ok {
		return wire.Ack(wire.MsgKeyError)
	}

	s.cache.Put(key, value)
	return wire.Data(value)
}

func (s *session) handlePut(key, value string) *wire.Message {
	primary, replica, ok := s.placement(key)
	if !ok {
		return wire.Ack(wire.MsgInsufficientServers)
	}

	primaryOK := s.rpc.put(primary.Identity, wire.TableOwn, key, value)
	replicaOK := s.rpc.put(replica.Identity, wire.TablePrev, key, value)

	if primaryOK && replicaOK {
		return wire.Ack(wire.MsgPutSuccess)
	}
	return wire.Ack(wire.MsgPutFailed)
}

func (s *session) handleUpdate(key, value string) *wire.Message {
	primary, replica, ok := s.placement(key)
	if !ok {
		return wire.Ack(wire.MsgInsufficientServers)
	}

	primaryOK := s.rpc.update(primary.Identity, wire.TableOwn, key, value)
	replicaOK := s.rpc.update(replica.Identity, wire.TablePrev, key, value)

	if primaryOK && replicaOK {
		s.cache.Remove(key)
		return wire.Ack(wire.MsgUpdateSuccess)
	}
	return wire.Ack(wire.MsgUpdateFailed)
}

func (s *session) handleDelete(key string) *wire.Message {
	primary, replica, ok := s.placement(key)
	if !ok {
		return wire.Ack(wire.MsgInsufficientServers)
	}

	primaryOK := s.rpc.delete(primary.Identity, wire.TableOwn, key)
	replicaOK := s.rpc.delete(replica.Identity, wire.TablePrev, key)

	if primaryOK && replicaOK {
		s.cache.Remove(key)
		return wire.Ack(wire.MsgDeleteSuccess)
	}
	return wire.Ack(wire.MsgDeleteFailed)
}

// placement resolves primary/replica for key from a single ring snapshot,
// satisfying the replication-pairing invariant of spec §8.
func (s *session) placement(key string) (primary, replica hashring.Node, ok bool) {
	h := hashring.Hash(key)
	primary, primOK := s.ring.Successor(h)
	replica, repOK := s.ring.Predecessor(h)
	return primary, replica, primOK && repOK
}
