// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: compositor/surface.go
// Summary: One tcell-backed render target with its buffered input queue.

package compositor

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/polymodo/polymodo/desk"
)

// surface implements desk.Surface on a region of the shared screen. The
// input queue is guarded because the dispatcher and the desk runtime feed
// it from different goroutines.
type surface struct {
	comp     *Compositor
	id       desk.SurfaceID
	viewport desk.ViewportID

	defW, defH uint32

	mu      sync.Mutex
	w, h    uint32
	queue   []desk.InputEvent
	focused bool
	mods    tcell.ModMask
	closed  bool
}

func (s *surface) SurfaceID() desk.SurfaceID { return s.id }

func (s *surface) DefaultSize() (uint32, uint32) { return s.defW, s.defH }

func (s *surface) UpdateSize(w, h uint32) {
	s.mu.Lock()
	s.w, s.h = w, h
	s.mu.Unlock()
}

func (s *surface) PushEvent(ev desk.InputEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
}

func (s *surface) OnKey(key desk.Key, pressed bool) {
	kind := desk.InputKeyDown
	if !pressed {
		kind = desk.InputKeyUp
	}
	s.mu.Lock()
	s.queue = append(s.queue, desk.InputEvent{Kind: kind, Key: key, Modifiers: s.mods})
	s.mu.Unlock()
}

func (s *surface) OnFocus(focused bool) {
	s.mu.Lock()
	s.focused = focused
	s.mu.Unlock()
}

func (s *surface) SetModifiers(mods tcell.ModMask) {
	s.mu.Lock()
	s.mods = mods
	s.mu.Unlock()
}

func (s *surface) HandlePointerEvent(ev desk.PointerEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, desk.InputEvent{Kind: desk.InputPointer, Pointer: ev, Modifiers: s.mods})
	s.mu.Unlock()
}

func (s *surface) HasEvents() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) > 0
}

// Render drains the queue into the context, sizes the frame, runs the draw
// callback, and presents the frame when this surface is on top.
func (s *surface) Render(rc *desk.RenderContext, draw func(*desk.RenderContext) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	rc.Events = s.queue
	s.queue = nil
	rc.Focused = s.focused
	rc.Modifiers = s.mods
	w, h := int(s.w), int(s.h)
	s.mu.Unlock()

	rc.Frame.Resize(w, h)
	if err := draw(rc); err != nil {
		return err
	}
	s.present(rc)
	rc.Events = nil
	return nil
}

func (s *surface) present(rc *desk.RenderContext) {
	s.comp.mu.Lock()
	onTop := s.comp.topLocked() == s
	s.comp.mu.Unlock()
	if !onTop {
		return
	}

	screen := s.comp.screen
	for y, row := range rc.Frame.Cells() {
		x := 0
		for _, cell := range row {
			ch := cell.Ch
			if ch == 0 {
				ch = ' '
			}
			screen.SetContent(x, y, ch, nil, cell.Style)
			cw := runewidth.RuneWidth(ch)
			if cw < 1 {
				cw = 1
			}
			x += cw
		}
	}
	screen.Show()
}

func (s *surface) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.comp.drop(s)
}
