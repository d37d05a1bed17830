package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/mkarpov/roomcast/internal/protocol"
)

// connState holds one accepted socket plus its private receive state. Only
// the connection's own goroutine touches the buffer; the socket itself is
// additionally written to by broadcasts.
type connState struct {
	conn net.Conn
	buf  []byte

	// clientID is bound from the first successfully decoded message and
	// identifies the peer for disconnect cleanup.
	clientID string
}

// serveConn drives the receive loop for one socket until it closes.
//
// Reads are issued in fixed-size chunks. A read that fills the whole chunk
// signals that more data is likely queued, so the loop keeps accumulating
// before decoding; large frames grow the buffer by one chunk per pass,
// without bound. A short read means the stream is quiescent: the buffer is
// decoded, complete records are dispatched, and the trailing partial record
// is carried into the next pass.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	c := &connState{conn: conn}
	chunk := make([]byte, s.config.ReadChunk)

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
		}
		if err != nil {
			s.finishConn(c, err)
			return
		}
		if n == len(chunk) {
			continue
		}

		msgs, consumed := protocol.Decode(c.buf)
		for _, msg := range msgs {
			s.dispatch(c, msg)
		}
		c.buf = c.buf[:copy(c.buf, c.buf[consumed:])]
	}
}

// finishConn is the terminal pass: any bytes already buffered are still
// decoded and dispatched before the connection is given up on, then the
// peer is removed from every room it joined.
func (s *Server) finishConn(c *connState, err error) {
	for _, msg := range protocol.DecodeAll(c.buf) {
		s.dispatch(c, msg)
	}
	c.buf = nil

	if c.clientID != "" {
		s.registry.RemoveClient(c.clientID)
	}

	// Orderly close, local close, and peer reset are connection faults:
	// disconnect cleanup is the whole response. Only unexpected failures
	// reach the error channel.
	if err != io.EOF && !errors.Is(err, net.ErrClosed) && !errors.Is(err, syscall.ECONNRESET) {
		s.events.error(fmt.Errorf("read from %s: %w", c.conn.RemoteAddr(), err))
	}
}

// dispatch routes one decoded message. The codec rejects unknown operations,
// so only Join and Text can reach this point.
func (s *Server) dispatch(c *connState, msg protocol.Message) {
	if c.clientID == "" {
		c.clientID = msg.Client
	}

	switch msg.Op {
	case protocol.OpJoin:
		s.registry.Join(msg.Room, msg.Client, c.conn)
		s.events.clientConnected(msg.Room, msg.Client)
	case protocol.OpText:
		s.events.messageReceived(msg.Room, msg.Client, msg.Text)
		s.registry.Broadcast(msg)
	}
}
