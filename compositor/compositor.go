// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: compositor/compositor.go
// Summary: tcell-backed surface creation and event dispatch for the desk
// runtime.

// Package compositor is the display leaf of the daemon: it owns the tcell
// screen, creates surfaces on it, and translates terminal events into the
// desk's SurfaceEvent stream.
package compositor

import (
	"errors"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/polymodo/polymodo/desk"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("compositor: closed")

// Options configures the compositor.
type Options struct {
	// DefaultWidth/DefaultHeight are the initial surface dimensions in
	// cells. Zero values fall back to 80×24.
	DefaultWidth  uint32
	DefaultHeight uint32
	// FrameInterval is the period of the repaint tick. Zero falls back to
	// 33ms.
	FrameInterval time.Duration
}

// Compositor implements desk.SurfaceCreator and the dispatcher contract on
// one tcell screen. Surfaces are stacked: the most recently created surface
// holds keyboard focus and is presented on top.
type Compositor struct {
	log    *zap.Logger
	screen tcell.Screen
	opts   Options

	events chan desk.SurfaceEvent
	quit   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	nextID   desk.SurfaceID
	surfaces []*surface // creation order; last is focused
}

// New wraps an initialised tcell screen. The caller retains ownership of
// the screen's lifetime.
func New(log *zap.Logger, screen tcell.Screen, opts Options) *Compositor {
	if opts.DefaultWidth == 0 {
		opts.DefaultWidth = 80
	}
	if opts.DefaultHeight == 0 {
		opts.DefaultHeight = 24
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 33 * time.Millisecond
	}
	return &Compositor{
		log:    log,
		screen: screen,
		opts:   opts,
		events: make(chan desk.SurfaceEvent, 64),
		quit:   make(chan struct{}),
		nextID: 1,
	}
}

// Events is the stream consumed by the desk runtime.
func (c *Compositor) Events() <-chan desk.SurfaceEvent { return c.events }

// CreateSurface allocates a new surface bound to the given viewport.
func (c *Compositor) CreateSurface(viewport desk.ViewportID) (desk.Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &surface{
		comp:     c,
		id:       c.nextID,
		viewport: viewport,
		defW:     c.opts.DefaultWidth,
		defH:     c.opts.DefaultHeight,
		w:        c.opts.DefaultWidth,
		h:        c.opts.DefaultHeight,
	}
	c.nextID++

	if prev := c.topLocked(); prev != nil {
		c.pushLocked(desk.SurfaceEvent{
			Kind:    desk.EventKeyboardFocus,
			Surface: prev.id,
			Focused: false,
		})
	}
	c.surfaces = append(c.surfaces, s)
	c.pushLocked(desk.SurfaceEvent{
		Kind:    desk.EventKeyboardFocus,
		Surface: s.id,
		Focused: true,
	})
	return s, nil
}

func (c *Compositor) topLocked() *surface {
	if len(c.surfaces) == 0 {
		return nil
	}
	return c.surfaces[len(c.surfaces)-1]
}

func (c *Compositor) pushLocked(ev desk.SurfaceEvent) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn("event stream full, dropping event", zap.Uint8("kind", uint8(ev.Kind)))
	}
}

func (c *Compositor) push(ev desk.SurfaceEvent) {
	c.mu.Lock()
	c.pushLocked(ev)
	c.mu.Unlock()
}

func (c *Compositor) drop(s *surface) {
	c.mu.Lock()
	for i, cur := range c.surfaces {
		if cur == s {
			c.surfaces = append(c.surfaces[:i], c.surfaces[i+1:]...)
			break
		}
	}
	top := c.topLocked()
	if top != nil {
		c.pushLocked(desk.SurfaceEvent{
			Kind:    desk.EventKeyboardFocus,
			Surface: top.id,
			Focused: true,
		})
	}
	c.mu.Unlock()
	c.screen.Clear()
	c.screen.Show()
}

// Dispatch pumps the tcell event loop until Close, translating terminal
// events into SurfaceEvents and emitting the periodic repaint tick. It
// never closes the event stream while healthy; the stream closing is how
// the desk runtime learns the dispatcher died.
func (c *Compositor) Dispatch() error {
	defer close(c.events)

	raw := make(chan tcell.Event, 16)
	go c.screen.ChannelEvents(raw, c.quit)

	tick := time.NewTicker(c.opts.FrameInterval)
	defer tick.Stop()

	for {
		select {
		case <-c.quit:
			return ErrClosed
		case <-tick.C:
			c.push(desk.SurfaceEvent{Kind: desk.EventRepaintAllWithEvents})
		case ev, ok := <-raw:
			if !ok {
				return ErrClosed
			}
			c.translate(ev)
		}
	}
}

// Close stops Dispatch.
func (c *Compositor) Close() {
	c.once.Do(func() { close(c.quit) })
}

// translate maps one tcell event onto the focused surface.
func (c *Compositor) translate(ev tcell.Event) {
	c.mu.Lock()
	top := c.topLocked()
	c.mu.Unlock()

	switch tev := ev.(type) {
	case *tcell.EventResize:
		w, h := tev.Size()
		c.mu.Lock()
		for _, s := range c.surfaces {
			c.pushLocked(desk.SurfaceEvent{
				Kind:    desk.EventConfigure,
				Surface: s.id,
				Width:   uint32(w),
				Height:  uint32(h),
			})
		}
		c.mu.Unlock()

	case *tcell.EventKey:
		if top == nil {
			return
		}
		c.push(desk.SurfaceEvent{
			Kind:      desk.EventUpdateModifiers,
			Surface:   top.id,
			Modifiers: tev.Modifiers(),
		})
		press := desk.SurfaceEvent{Kind: desk.EventPressKey, Surface: top.id}
		key := desk.Key{Code: tev.Key(), Rune: tev.Rune()}
		press.Key = &key
		if tev.Key() == tcell.KeyRune {
			text := string(tev.Rune())
			press.Text = &text
		}
		c.push(press)

	case *tcell.EventMouse:
		if top == nil {
			return
		}
		x, y := tev.Position()
		kind := desk.PointerMotion
		if tev.Buttons()&tcell.WheelUp != 0 || tev.Buttons()&tcell.WheelDown != 0 {
			kind = desk.PointerScroll
		} else if tev.Buttons() != tcell.ButtonNone {
			kind = desk.PointerPress
		}
		scrollY := 0
		if tev.Buttons()&tcell.WheelUp != 0 {
			scrollY = -1
		} else if tev.Buttons()&tcell.WheelDown != 0 {
			scrollY = 1
		}
		c.push(desk.SurfaceEvent{
			Kind:    desk.EventPointer,
			Surface: top.id,
			Pointer: desk.PointerEvent{
				Kind:    kind,
				X:       x,
				Y:       y,
				Button:  tev.Buttons(),
				ScrollY: scrollY,
			},
		})
	}
}
