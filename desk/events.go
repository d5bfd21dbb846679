// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/events.go
// Summary: The SurfaceEvent stream consumed by the surface driver.

package desk

import "github.com/gdamore/tcell/v2"

// SurfaceEventKind tags a SurfaceEvent.
type SurfaceEventKind uint8

const (
	// EventRepaintAllWithEvents repaints every surface with queued input.
	EventRepaintAllWithEvents SurfaceEventKind = iota
	// EventNeedsRepaint repaints one surface unconditionally.
	EventNeedsRepaint
	// EventClosed marks a surface for exit.
	EventClosed
	// EventConfigure resizes a surface and forces a repaint.
	EventConfigure
	// EventKeyboardFocus updates a surface's focus flag.
	EventKeyboardFocus
	// EventPressKey delivers text and/or a key press.
	EventPressKey
	// EventReleaseKey delivers a key release.
	EventReleaseKey
	// EventUpdateModifiers replaces a surface's modifier state.
	EventUpdateModifiers
	// EventPointer delivers a raw pointer event.
	EventPointer
)

// SurfaceEvent is one event from the dispatcher. Surface is meaningless for
// EventRepaintAllWithEvents and identifies the target surface for every
// other kind. Text and Key are both optional on EventPressKey; an event with
// neither is ignored entirely.
type SurfaceEvent struct {
	Kind    SurfaceEventKind
	Surface SurfaceID

	Width, Height uint32        // EventConfigure
	Focused       bool          // EventKeyboardFocus
	Text          *string       // EventPressKey
	Key           *Key          // EventPressKey, EventReleaseKey
	Modifiers     tcell.ModMask // EventUpdateModifiers
	Pointer       PointerEvent  // EventPointer
}
