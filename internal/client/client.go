package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mkarpov/roomcast/internal/protocol"
)

const (
	// DefaultSendInterval is the fixed period between text records.
	DefaultSendInterval = 100 * time.Millisecond

	redialDelay = 500 * time.Millisecond
	readChunk   = 4096
)

// Client maintains one server connection for one room: it joins on connect,
// sends a text record on a fixed period, and on any send failure performs a
// full reconnect (new socket, re-sent join) before resuming.
type Client struct {
	addr     string
	roomID   string
	clientID string
	interval time.Duration

	// OnMessage, when set, receives every frame broadcast to this client.
	// Set it before Run.
	OnMessage func(msg protocol.Message)

	mu           sync.Mutex
	conn         net.Conn
	reconnecting bool
}

func New(addr, roomID, clientID string) *Client {
	return &Client{
		addr:     addr,
		roomID:   roomID,
		clientID: clientID,
		interval: DefaultSendInterval,
	}
}

// Run connects, joins the room, and sends periodic text records until ctx is
// done. The initial dial failing is fatal; once connected, every later
// failure is retried through the reconnect loop.
func (c *Client) Run(ctx context.Context) error {
	if c.roomID == "" {
		return fmt.Errorf("room id can't be empty")
	}
	if c.clientID == "" {
		return fmt.Errorf("client id can't be empty")
	}

	if err := c.connect(); err != nil {
		return err
	}
	defer c.Close()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			msg := protocol.Message{
				Op:     protocol.OpText,
				Room:   c.roomID,
				Client: c.clientID,
				Text:   "Text " + c.clientID,
			}
			if err := c.send(msg); err != nil {
				c.reconnect(ctx)
			}
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// connect dials a fresh socket, starts its read loop, and sends the join
// record.
func (c *Client) connect() error {
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.addr, err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)

	return c.send(protocol.Message{
		Op:     protocol.OpJoin,
		Room:   c.roomID,
		Client: c.clientID,
		Text:   "Connect " + c.clientID,
	})
}

// reconnect re-establishes the connection and re-sends the join record,
// retrying until it succeeds or ctx is done. An in-flight reconnect is
// never entered twice: late callers return immediately and the next send
// failure comes back here.
func (c *Client) reconnect(ctx context.Context) {
	c.mu.Lock()
	if c.reconnecting {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	for {
		if err := c.connect(); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(redialDelay):
		}
	}
}

// send writes one encoded record. Writes are serialized so the join record
// and ticker records never interleave on the wire.
func (c *Client) send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return protocol.Write(c.conn, msg)
}

// readLoop decodes broadcast frames from one socket until it closes,
// carrying partial records across reads. It is bound to the socket it was
// started with, so a loop left over from a replaced connection drains and
// exits on its own.
func (c *Client) readLoop(conn net.Conn) {
	var buf []byte
	chunk := make([]byte, readChunk)

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			for _, msg := range protocol.DecodeAll(buf) {
				c.deliver(msg)
			}
			return
		}

		msgs, consumed := protocol.Decode(buf)
		for _, msg := range msgs {
			c.deliver(msg)
		}
		buf = buf[:copy(buf, buf[consumed:])]
	}
}

func (c *Client) deliver(msg protocol.Message) {
	if c.OnMessage != nil {
		c.OnMessage(msg)
	}
}
