package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/polymodo/polymodo/desk"
	"github.com/polymodo/polymodo/protocol"
	"github.com/polymodo/polymodo/registry"
)

// errGoodbye signals a clean, client-initiated end of the connection.
var errGoodbye = errors.New("server: goodbye")

type connection struct {
	log  *zap.Logger
	conn net.Conn
	d    *desk.Desk
	reg  *registry.Registry
	buf  protocol.Buffer
}

func newConnection(log *zap.Logger, conn net.Conn, d *desk.Desk, reg *registry.Registry) *connection {
	return &connection{log: log, conn: conn, d: d, reg: reg}
}

// serve processes requests strictly in order: a Spawn blocks this
// connection until the app's result is delivered. Decode and IO errors are
// fatal to this connection only.
func (c *connection) serve(ctx context.Context) error {
	readBuf := make([]byte, 4096)
	for {
		for {
			msg, err := c.buf.Next()
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			if msg == nil {
				break
			}
			if err := c.handle(ctx, msg); err != nil {
				if errors.Is(err, errGoodbye) {
					if uc, ok := c.conn.(*net.UnixConn); ok {
						_ = uc.CloseWrite()
					}
					return nil
				}
				return err
			}
		}

		n, err := c.conn.Read(readBuf)
		if n > 0 {
			_, _ = c.buf.Write(readBuf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (c *connection) handle(ctx context.Context, msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.Ping:
		return c.reply(protocol.Pong{})

	case protocol.Spawn:
		return c.handleSpawn(ctx, m)

	case protocol.Goodbye:
		return errGoodbye

	default:
		// Client-bound message arriving on the server side; ignore it but
		// keep the connection alive.
		c.log.Warn("ignoring unexpected message", zap.Any("message", msg))
		return nil
	}
}

func (c *connection) handleSpawn(ctx context.Context, m protocol.Spawn) error {
	if m.Single && c.d.IsAppRunning(m.AppName) {
		// Request dropped without a reply; the connection stays usable.
		c.log.Debug("single-instance app already running, dropping spawn",
			zap.String("app", m.AppName))
		return nil
	}
	spawn, ok := c.reg.Lookup(m.AppName)
	if !ok {
		c.log.Warn("spawn request for unknown app, dropping",
			zap.String("app", m.AppName))
		return nil
	}
	key, err := spawn(c.d)
	if err != nil {
		c.log.Error("spawn failed", zap.String("app", m.AppName), zap.Error(err))
		return nil
	}

	out, err := c.d.WaitForAppStop(ctx, key)
	switch {
	case errors.Is(err, desk.ErrNoResult):
		// Our waiter was replaced by a newer one; deliver an empty result
		// rather than leaving the client hanging.
		return c.reply(protocol.AppResult{})
	case err != nil:
		return err
	}
	return c.reply(protocol.AppResult{Result: resultString(out)})
}

func (c *connection) reply(msg protocol.Message) error {
	return protocol.WriteMessage(c.conn, msg)
}

func resultString(out any) string {
	switch v := out.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
