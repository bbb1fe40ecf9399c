// Package sigclient is the client side of the signaling connection: a
// websocket link to the relay plus a handler that fans inbound events into
// typed channels.
package sigclient

import (
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MichalTraczyk/rc-car/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client manages the WebSocket connection to the signaling server.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	incoming  chan *protocol.Envelope
	outgoing  chan *protocol.Envelope
	done      chan struct{}
	closed    bool
	nextAck   atomic.Uint64
}

// NewClient creates a new signaling client
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		incoming:  make(chan *protocol.Envelope, 32),
		outgoing:  make(chan *protocol.Envelope, 32),
		done:      make(chan struct{}, 1),
	}
}

// Connect establishes WebSocket connection to the server.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn

	c.conn.SetReadLimit(maxMessageSize)

	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var env protocol.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}

		c.incoming <- &env
	}
}

// writePump writes messages to the WebSocket connection and sends periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Send queues an envelope for the server.
func (c *Client) Send(env *protocol.Envelope) {
	c.outgoing <- env
}

// SendEvent marshals data and queues it under the given event name.
func (c *Client) SendEvent(event string, data any) error {
	env, err := protocol.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	c.Send(env)
	return nil
}

// RequestCarList sends a get-car-list request; the reply arrives on the
// handler's CarList channel.
func (c *Client) RequestCarList() {
	c.Send(&protocol.Envelope{
		Event: protocol.EventGetCarList,
		Ack:   c.nextAck.Add(1),
	})
}

// Incoming returns the channel for receiving messages.
func (c *Client) Incoming() <-chan *protocol.Envelope {
	return c.incoming
}

// Close closes the WebSocket connection and cleans up resources.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true

	close(c.done)
}
