package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpov/roomcast/internal/protocol"
)

// readRecords reads from conn until n valid records arrived.
func readRecords(t *testing.T, conn net.Conn, n int) []protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var msgs []protocol.Message
	var buf []byte
	chunk := make([]byte, 4096)
	for len(msgs) < n {
		read, err := conn.Read(chunk)
		if read > 0 {
			buf = append(buf, chunk[:read]...)
		}
		require.NoError(t, err, "waiting for %d records, have %d", n, len(msgs))

		decoded, consumed := protocol.Decode(buf)
		msgs = append(msgs, decoded...)
		buf = buf[consumed:]
	}
	return msgs
}

func TestClientRequiresIdentity(t *testing.T) {
	err := New("localhost:0", "", "c1").Run(context.Background())
	assert.ErrorContains(t, err, "room id")

	err = New("localhost:0", "lobby", "").Run(context.Background())
	assert.ErrorContains(t, err, "client id")
}

func TestClientJoinsThenSendsPeriodicText(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	c := New(listener.Addr().String(), "lobby", "c1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	conn, err := listener.Accept()
	require.NoError(t, err)
	defer conn.Close()

	msgs := readRecords(t, conn, 3)
	assert.Equal(t, protocol.Message{Op: protocol.OpJoin, Room: "lobby", Client: "c1", Text: "Connect c1"}, msgs[0])
	for _, msg := range msgs[1:] {
		assert.Equal(t, protocol.OpText, msg.Op)
		assert.Equal(t, "lobby", msg.Room)
		assert.Equal(t, "c1", msg.Client)
		assert.Equal(t, "Text c1", msg.Text)
	}
}

func TestClientReconnectsAndResendsJoin(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	c := New(listener.Addr().String(), "lobby", "c1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	first, err := listener.Accept()
	require.NoError(t, err)
	msgs := readRecords(t, first, 1)
	assert.Equal(t, protocol.OpJoin, msgs[0].Op)

	// Drop the connection; the client must come back with a fresh socket
	// and re-send the join before resuming text traffic.
	first.Close()

	second, err := listener.Accept()
	require.NoError(t, err)
	defer second.Close()

	msgs = readRecords(t, second, 2)
	assert.Equal(t, protocol.Message{Op: protocol.OpJoin, Room: "lobby", Client: "c1", Text: "Connect c1"}, msgs[0])
	assert.Equal(t, protocol.OpText, msgs[1].Op)
}

func TestClientDeliversBroadcasts(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	received := make(chan protocol.Message, 16)
	c := New(listener.Addr().String(), "lobby", "c1")
	c.OnMessage = func(msg protocol.Message) { received <- msg }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	conn, err := listener.Accept()
	require.NoError(t, err)
	defer conn.Close()

	want := protocol.Message{Op: protocol.OpText, Room: "lobby", Client: "c2", Text: "hello"}
	require.NoError(t, protocol.Write(conn, want))

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for broadcast delivery")
	}
}
