package netconn

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blockdoth/chatger-tui/internal/events"
	"github.com/blockdoth/chatger-tui/internal/wire"
)

func TestResolveLiteralIP(t *testing.T) {
	r, err := Resolve("127.0.0.1:9999")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9999", r.Addr)
	require.Empty(t, r.Domain)
}

func TestResolveDefaultsPort(t *testing.T) {
	r, err := Resolve("127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:4348", r.Addr)
}

func TestResolveEmpty(t *testing.T) {
	_, err := Resolve("  ")
	require.Error(t, err)
}

// TestConnectAndReceiveLoginAck exercises the connection manager + receiver
// task against a local listener, matching the login handshake at the
// transport level.
func TestConnectAndReceiveLoginAck(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, wire.HeaderSize)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		ack := []byte{'C', 'H', 'T', 'G', wire.Version, wire.TypeLogin, 0, 0, 0, 1, 0}
		conn.Write(ack)
	}()

	bus := events.NewBus()
	c := New(bus)
	addr := ResolvedAddr{Addr: ln.Addr().String()}
	require.NoError(t, c.Connect(context.Background(), addr, false))
	defer c.Disconnect()

	require.NoError(t, c.SendLogin("alice", "pw"))

	select {
	case e := <-bus.Recv():
		require.Equal(t, events.LoginSuccess, e.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for LoginSuccess event")
	}

	<-serverDone
}

func TestDisconnectIsIdempotent(t *testing.T) {
	bus := events.NewBus()
	c := New(bus)
	require.NoError(t, c.Disconnect())
	require.NoError(t, c.Disconnect())
	require.Equal(t, Disconnected, c.Status())
}

func TestSendWithoutConnectFails(t *testing.T) {
	bus := events.NewBus()
	c := New(bus)
	require.ErrorIs(t, c.SendChannelsList(), ErrNotConnected)
}
