package desk

import (
	"context"
	"sync"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeSurface records every Surface call. State is guarded because the
// runtime goroutine and the test goroutine both touch it.
type fakeSurface struct {
	id         SurfaceID
	defW, defH uint32

	mu      sync.Mutex
	w, h    uint32
	queue   []InputEvent
	focused bool
	mods    tcell.ModMask
	closed  bool
	renders int
}

func (s *fakeSurface) SurfaceID() SurfaceID { return s.id }

func (s *fakeSurface) DefaultSize() (uint32, uint32) { return s.defW, s.defH }

func (s *fakeSurface) Render(rc *RenderContext, draw func(*RenderContext) error) error {
	s.mu.Lock()
	s.renders++
	rc.Events = s.queue
	s.queue = nil
	rc.Focused = s.focused
	rc.Modifiers = s.mods
	w, h := int(s.w), int(s.h)
	s.mu.Unlock()
	rc.Frame.Resize(w, h)
	return draw(rc)
}

func (s *fakeSurface) UpdateSize(w, h uint32) {
	s.mu.Lock()
	s.w, s.h = w, h
	s.mu.Unlock()
}

func (s *fakeSurface) PushEvent(ev InputEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
}

func (s *fakeSurface) OnKey(key Key, pressed bool) {
	kind := InputKeyDown
	if !pressed {
		kind = InputKeyUp
	}
	s.mu.Lock()
	s.queue = append(s.queue, InputEvent{Kind: kind, Key: key, Modifiers: s.mods})
	s.mu.Unlock()
}

func (s *fakeSurface) OnFocus(focused bool) {
	s.mu.Lock()
	s.focused = focused
	s.mu.Unlock()
}

func (s *fakeSurface) SetModifiers(mods tcell.ModMask) {
	s.mu.Lock()
	s.mods = mods
	s.mu.Unlock()
}

func (s *fakeSurface) HandlePointerEvent(ev PointerEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, InputEvent{Kind: InputPointer, Pointer: ev, Modifiers: s.mods})
	s.mu.Unlock()
}

func (s *fakeSurface) HasEvents() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) > 0
}

func (s *fakeSurface) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

type surfaceSnapshot struct {
	w, h    uint32
	queue   []InputEvent
	focused bool
	mods    tcell.ModMask
	closed  bool
	renders int
}

func (s *fakeSurface) snapshot() surfaceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return surfaceSnapshot{
		w: s.w, h: s.h, focused: s.focused, mods: s.mods,
		closed: s.closed, renders: s.renders,
		queue: append([]InputEvent(nil), s.queue...),
	}
}

type fakeCreator struct {
	mu       sync.Mutex
	nextID   SurfaceID
	fail     error
	surfaces []*fakeSurface
}

func (c *fakeCreator) CreateSurface(viewport ViewportID) (Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return nil, c.fail
	}
	c.nextID++
	s := &fakeSurface{id: c.nextID, defW: 80, defH: 24, w: 80, h: 24}
	c.surfaces = append(c.surfaces, s)
	return s, nil
}

func (c *fakeCreator) surface(i int) *fakeSurface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surfaces[i]
}

// testApp is an App[string] recording deliveries.
type testApp struct {
	name string
	out  any

	mu       sync.Mutex
	msgs     []string
	rendered int
	events   []SurfaceEventKind
}

func (a *testApp) Name() string { return a.name }

func (a *testApp) OnMessage(msg string) {
	a.mu.Lock()
	a.msgs = append(a.msgs, msg)
	a.mu.Unlock()
}

func (a *testApp) Stop() any { return a.out }

func (a *testApp) Render(rc *RenderContext) {
	a.mu.Lock()
	a.rendered++
	a.mu.Unlock()
}

func (a *testApp) messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.msgs...)
}

// eventApp additionally opts into the raw surface event stream.
type eventApp struct {
	testApp
}

func (a *eventApp) OnSurfaceEvent(ev SurfaceEvent) {
	a.mu.Lock()
	a.events = append(a.events, ev.Kind)
	a.mu.Unlock()
}

func (a *eventApp) eventKinds() []SurfaceEventKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]SurfaceEventKind(nil), a.events...)
}

type testHarness struct {
	desk    *Desk
	events  chan SurfaceEvent
	creator *fakeCreator
	runErr  chan error
}

func newTestDesk(t *testing.T) *testHarness {
	t.Helper()
	events := make(chan SurfaceEvent)
	creator := &fakeCreator{}
	d := New(zaptest.NewLogger(t), creator, events)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-runErr
	})
	return &testHarness{desk: d, events: events, creator: creator, runErr: runErr}
}

// spawnTestApp spawns app and returns its key plus the sender captured at
// construction time.
func spawnTestApp(t *testing.T, d *Desk, app App[string]) (AppKey, Sender[string]) {
	t.Helper()
	var sender Sender[string]
	key, err := Spawn(d, func(s Sender[string]) (App[string], []Task, error) {
		sender = s
		return app, nil, nil
	})
	require.NoError(t, err)
	return key, sender
}

func waiterRegistered(s *Supervisor, key AppKey) bool {
	s.waiterMu.Lock()
	defer s.waiterMu.Unlock()
	_, ok := s.waiters[key]
	return ok
}
