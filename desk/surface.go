// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/surface.go
// Summary: Surface and dispatcher contracts consumed by the surface driver.

package desk

import "github.com/gdamore/tcell/v2"

// SurfaceID identifies one on-screen surface.
type SurfaceID uint64

// ViewportID distinguishes logical viewports of a single app. Today the
// lifecycle only ever creates one surface per app, on the root viewport.
type ViewportID uint32

// RootViewport is the viewport every initial surface is bound to.
const RootViewport ViewportID = 0

// FullSurfaceID pairs a surface with its logical viewport.
type FullSurfaceID struct {
	Surface  SurfaceID
	Viewport ViewportID
}

// Key is a single keyboard key, possibly carrying a rune for KeyRune.
type Key struct {
	Code tcell.Key
	Rune rune
}

// PointerEventKind enumerates raw pointer event categories.
type PointerEventKind uint8

const (
	PointerEnter PointerEventKind = iota
	PointerLeave
	PointerMotion
	PointerPress
	PointerRelease
	PointerScroll
)

// PointerEvent is a raw pointer event as produced by the dispatcher. The
// surface translates it into its generic input queue using its current
// modifier state.
type PointerEvent struct {
	Kind    PointerEventKind
	X, Y    int
	Button  tcell.ButtonMask
	ScrollX int
	ScrollY int
}

// InputEventKind enumerates the generic input events a surface queues for
// its app.
type InputEventKind uint8

const (
	InputFocus InputEventKind = iota
	InputText
	InputKeyDown
	InputKeyUp
	InputPointer
)

// InputEvent is one entry in a surface's input queue, drained into the
// app's render context on the next repaint.
type InputEvent struct {
	Kind      InputEventKind
	Focused   bool
	Text      string
	Key       Key
	Modifiers tcell.ModMask
	Pointer   PointerEvent
}

// Surface is a render target bound one-to-one to an on-screen surface. It
// buffers pending input events between repaints.
type Surface interface {
	SurfaceID() SurfaceID

	// Render sizes the context's frame, drains the queued input into it,
	// invokes draw, and presents the result.
	Render(rc *RenderContext, draw func(*RenderContext) error) error

	// UpdateSize resizes the render target.
	UpdateSize(w, h uint32)

	// DefaultSize reports the surface's original requested size.
	DefaultSize() (uint32, uint32)

	// PushEvent appends an event to the surface's input queue.
	PushEvent(ev InputEvent)

	// OnKey enqueues a key-down or key-up input event.
	OnKey(key Key, pressed bool)

	// OnFocus updates the surface's focus flag.
	OnFocus(focused bool)

	// SetModifiers replaces the modifier state used by subsequent key and
	// pointer translation.
	SetModifiers(mods tcell.ModMask)

	// HandlePointerEvent translates a raw pointer event into the input
	// queue using the current modifier state.
	HandlePointerEvent(ev PointerEvent)

	// HasEvents reports whether input is queued.
	HasEvents() bool

	// Close releases the surface.
	Close()
}

// SurfaceCreator is the external collaborator that makes new surfaces.
type SurfaceCreator interface {
	CreateSurface(viewport ViewportID) (Surface, error)
}

// Dispatcher owns the display connection and translates its events into the
// SurfaceEvent stream. Dispatch is pumped by an outer loop; Events is the
// stream consumed by the desk runtime. The runtime treats closure of the
// stream as proof that the dispatcher died.
type Dispatcher interface {
	Events() <-chan SurfaceEvent
	Dispatch() error
}
