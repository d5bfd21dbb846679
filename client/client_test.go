package client

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/polymodo/polymodo/desk"
	"github.com/polymodo/polymodo/registry"
	"github.com/polymodo/polymodo/server"
)

type stubSurface struct {
	id desk.SurfaceID
}

func (s *stubSurface) SurfaceID() desk.SurfaceID { return s.id }
func (s *stubSurface) Render(rc *desk.RenderContext, draw func(*desk.RenderContext) error) error {
	return draw(rc)
}
func (s *stubSurface) UpdateSize(w, h uint32)                  {}
func (s *stubSurface) DefaultSize() (uint32, uint32)           { return 80, 24 }
func (s *stubSurface) PushEvent(ev desk.InputEvent)            {}
func (s *stubSurface) OnKey(key desk.Key, pressed bool)        {}
func (s *stubSurface) OnFocus(focused bool)                    {}
func (s *stubSurface) SetModifiers(mods tcell.ModMask)         {}
func (s *stubSurface) HandlePointerEvent(ev desk.PointerEvent) {}
func (s *stubSurface) HasEvents() bool                         { return false }
func (s *stubSurface) Close()                                  {}

type stubCreator struct {
	next desk.SurfaceID
}

func (c *stubCreator) CreateSurface(viewport desk.ViewportID) (desk.Surface, error) {
	c.next++
	return &stubSurface{id: c.next}, nil
}

type resultApp struct {
	name string
	out  any
}

func (a *resultApp) Name() string         { return a.name }
func (a *resultApp) OnMessage(msg string) {}
func (a *resultApp) Stop() any            { return a.out }

// startDaemon runs a desk plus server on a real unix socket and returns the
// socket address. "quick" finishes with "done" shortly after spawning,
// "sticky" never finishes.
func startDaemon(t *testing.T) (string, *desk.Desk) {
	t.Helper()
	events := make(chan desk.SurfaceEvent)
	d := desk.New(zaptest.NewLogger(t), &stubCreator{}, events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	reg := registry.New()
	reg.Register("quick", func(d *desk.Desk) (desk.AppKey, error) {
		return desk.Spawn(d, func(send desk.Sender[string]) (desk.App[string], []desk.Task, error) {
			task := func(ctx context.Context) {
				// Leave the connection a moment to install its waiter.
				select {
				case <-time.After(100 * time.Millisecond):
					send.Finish()
				case <-ctx.Done():
				}
			}
			return &resultApp{name: "quick", out: "done"}, []desk.Task{task}, nil
		})
	})
	reg.Register("sticky", func(d *desk.Desk) (desk.AppKey, error) {
		return desk.Spawn(d, func(send desk.Sender[string]) (desk.App[string], []desk.Task, error) {
			return &resultApp{name: "sticky"}, nil, nil
		})
	})

	addr := filepath.Join(t.TempDir(), "polymodo.sock")
	srv := server.New(zaptest.NewLogger(t), addr, d, reg)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		_ = srv.Stop(stopCtx)
		cancel()
		<-done
	})
	return addr, d
}

func dialDaemon(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := Dial(addr)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPing(t *testing.T) {
	addr, _ := startDaemon(t)
	c := dialDaemon(t, addr)
	require.NoError(t, c.Ping())
}

func TestSpawnAndWait(t *testing.T) {
	addr, _ := startDaemon(t)
	c := dialDaemon(t, addr)

	result, err := c.SpawnAndWait("quick", false, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, "done", result)

	// The connection is still usable afterwards.
	require.NoError(t, c.Ping())
}

func TestSingleInstanceSilenceTimesOut(t *testing.T) {
	addr, d := startDaemon(t)

	first := dialDaemon(t, addr)
	go func() { _, _ = first.SpawnAndWait("sticky", true, 0) }()

	require.Eventually(t, func() bool { return d.IsAppRunning("sticky") },
		time.Second, time.Millisecond)

	second := dialDaemon(t, addr)
	_, err := second.SpawnAndWait("sticky", true, 200*time.Millisecond)
	require.Error(t, err)
	netErr, ok := err.(net.Error)
	require.True(t, ok)
	require.True(t, netErr.Timeout())
}

func TestConcurrentClients(t *testing.T) {
	addr, _ := startDaemon(t)

	const n = 4
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			c, err := Dial(addr)
			if err != nil {
				errs <- err
				return
			}
			defer c.Close()
			errs <- c.Ping()
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
}
