// Package node implements a data node: the per-connection request handler,
// the heartbeat beacon, and the node's listener lifecycle.
package node

import (
	"net"

	"go.uber.org/zap"

	"github.com/plethora-kv/plethora/storage"
	"github.com/plethora-kv/plethora/wire"
)

// handleConnection serves exactly one request over conn, then closes it.
func handleConnection(conn net.Conn, store *storage.Storage, logger *zap.Logger) {
	defer conn.Close()

	reader := wire.NewReader(conn)
	req, err := reader.ReadMessage()
	if err != nil {
		logger.Warn("failed to read request", zap.Error(err))
		return
	}
	table := storage.Table(wire.NormalizeTable(req.Table))

	var reply *wire.Message
	switch req.ReqType {
	case wire.ReqGet:
		reply = handleGet(store, table, req.Key, logger)
	case wire.ReqPut:
		reply = handlePut(store, table, req.Key, req.Value, logger)
	case wire.ReqUpdate:
		reply = handleUpdate(store, table, req.Key, req.Value, logger)
	case wire.ReqDelete:
		reply = handleDelete(store, table, req.Key, logger)
	default:
		reply = wire.Ack(wire.MsgUnknownRequest)
	}

	if err := wire.WriteMessage(conn, reply); err != nil {
		logger.Warn("failed to write reply", zap.Error(err))
	}
}

func handleGet(store *storage.Storage, table storage.Table, key string, logger *zap.Logger) *wire.Message {
	value, ok := store.Get(table, key)
	if !ok {
		logger.Debug("get miss", zap.String("key", key), zap.String("table", string(table)))
		return wire.Ack(wire.MsgKeyError)
	}
	logger.Debug("get hit", zap.String("key", key), zap.String("table", string(table)))
	return wire.Data(value)
}

func handlePut(store *storage.Storage, table storage.Table, key, value string, logger *zap.Logger) *wire.Message {
	store.Put(table, key, value)
	logger.Debug("put", zap.String("key", key), zap.String("table", string(table)))
	return wire.Ack(wire.MsgPutSuccess)
}

func handleUpdate(store *storage.Storage, table storage.Table, key, value string, logger *zap.Logger) *wire.Message {
	if !store.Update(table, key, value) {
		logger.Debug("update miss", zap.String("key", key), zap.String("table", string(table)))
		return wire.Ack(wire.MsgKeyError)
	}
	logger.Debug("update", zap.String("key", key), zap.String("table", string(table)))
	return wire.Ack(wire.MsgUpdateSuccess)
}

func handleDelete(store *storage.Storage, table storage.Table, key string, logger *zap.Logger) *wire.Message {
	if !store.Delete(table, key) {
		logger.Debug("delete miss", zap.String("key", key), zap.String("table", string(table)))
		return wire.Ack(wire.MsgKeyError)
	}
	logger.Debug("delete", zap.String("key", key), zap.String("table", string(table)))
	return wire.Ack(wire.MsgDeleteSuccess)
}
