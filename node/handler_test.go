package node

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plethora-kv/plethora/storage"
	"github.com/plethora-kv/plethora/wire"
)

func roundTrip(t *testing.T, store *storage.Storage, req *wire.Message) *wire.Message {
	t.Helper()
	client, server := net.Pipe()
	defer client.Close()

	go handleConnection(server, store, zap.NewNop())

	require.NoError(t, wire.WriteMessage(client, req))
	reply, err := wire.NewReader(client).ReadMessage()
	require.NoError(t, err)
	return reply
}

func TestHandleGetMiss(t *testing.T) {
	store := storage.New()
	reply := roundTrip(t, store, wire.Request(wire.ReqGet, "k", "", wire.TableOwn))
	assert.Equal(t, wire.MsgKeyError, reply.Message)
}

func TestHandlePutThenGetHit(t *testing.T) {
	store := storage.New()
	store.Put(storage.Own, "k", "v")

	reply := roundTrip(t, store, wire.Request(wire.ReqGet, "k", "", wire.TableOwn))
	assert.Equal(t, wire.ReqData, reply.ReqType)
	assert.Equal(t, "v", reply.Message)
}

func TestHandlePutSuccess(t *testing.T) {
	store := storage.New()
	reply := roundTrip(t, store, wire.Request(wire.ReqPut, "k", "v", wire.TablePrev))
	assert.Equal(t, wire.MsgPutSuccess, reply.Message)

	v, ok := store.Get(storage.Prev, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestHandleUpdateMissing(t *testing.T) {
	store := storage.New()
	reply := roundTrip(t, store, wire.Request(wire.ReqUpdate, "k", "v", wire.TableOwn))
	assert.Equal(t, wire.MsgKeyError, reply.Message)
}

func TestHandleUpdateSuccess(t *testing.T) {
	store := storage.New()
	store.Put(storage.Own, "k", "v1")
	reply := roundTrip(t, store, wire.Request(wire.ReqUpdate, "k", "v2", wire.TableOwn))
	assert.Equal(t, wire.MsgUpdateSuccess, reply.Message)
}

func TestHandleDeleteMissing(t *testing.T) {
	store := storage.New()
	reply := roundTrip(t, store, wire.Request(wire.ReqDelete, "k", "", wire.TableOwn))
	assert.Equal(t, wire.MsgKeyError, reply.Message)
}

func TestHandleDeleteSuccess(t *testing.T) {
	store := storage.New()
	store.Put(storage.Own, "k", "v")
	reply := roundTrip(t, store, wire.Request(wire.ReqDelete, "k", "", wire.TableOwn))
	assert.Equal(t, wire.MsgDeleteSuccess, reply.Message)
}

func TestHandleUnknownRequestType(t *testing.T) {
	store := storage.New()
	reply := roundTrip(t, store, wire.Request("frobnicate", "k", "", wire.TableOwn))
	assert.Equal(t, wire.MsgUnknownRequest, reply.Message)
}

func TestHandleUnrecognizedTableDefaultsToPrev(t *testing.T) {
	store := storage.New()
	store.Put(storage.Prev, "k", "replica-value")

	reply := roundTrip(t, store, wire.Request(wire.ReqGet, "k", "", "garbage"))
	assert.Equal(t, "replica-value", reply.Message)
}
