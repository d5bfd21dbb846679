// Package client implements the IPC client side of the daemon protocol.
package client

import (
	"fmt"
	"net"
	"time"

	"github.com/polymodo/polymodo/protocol"
)

// Client is one connection to the daemon. Its methods follow the
// per-connection protocol: requests are serialised, so a Client must not be
// shared across goroutines.
type Client struct {
	conn net.Conn
}

// Dial connects to the daemon socket. A leading '@' denotes an abstract
// address.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("unix", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Ping round-trips a liveness check.
func (c *Client) Ping() error {
	if err := protocol.WriteMessage(c.conn, protocol.Ping{}); err != nil {
		return err
	}
	msg, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return err
	}
	if _, ok := msg.(protocol.Pong); !ok {
		return fmt.Errorf("client: unexpected reply %T", msg)
	}
	return nil
}

// SpawnAndWait asks the daemon to start the named app and blocks until its
// result arrives. When single is set and an instance is already running the
// daemon sends no reply; the deadline turns that silence into an error so
// callers do not hang forever. A zero deadline waits indefinitely.
func (c *Client) SpawnAndWait(name string, single bool, deadline time.Duration) (string, error) {
	if err := protocol.WriteMessage(c.conn, protocol.Spawn{AppName: name, Single: single}); err != nil {
		return "", err
	}
	if deadline > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(deadline)); err != nil {
			return "", err
		}
		defer c.conn.SetReadDeadline(time.Time{})
	}
	msg, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return "", err
	}
	result, ok := msg.(protocol.AppResult)
	if !ok {
		return "", fmt.Errorf("client: unexpected reply %T", msg)
	}
	return result.Result, nil
}

// Close sends Goodbye and closes the connection.
func (c *Client) Close() error {
	_ = protocol.WriteMessage(c.conn, protocol.Goodbye{})
	return c.conn.Close()
}
