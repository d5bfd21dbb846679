// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/render.go
// Summary: Per-app render context and the cell frame apps draw into.

package desk

import "github.com/gdamore/tcell/v2"

// Cell is one drawable character cell.
type Cell struct {
	Ch    rune
	Style tcell.Style
}

// Frame is the cell grid an app draws into during one repaint.
type Frame struct {
	width, height int
	cells         [][]Cell
}

// Resize adjusts the frame to w×h and clears it to the default style.
func (f *Frame) Resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	f.width, f.height = w, h
	f.cells = make([][]Cell, h)
	for y := range f.cells {
		row := make([]Cell, w)
		for x := range row {
			row[x] = Cell{Ch: ' ', Style: tcell.StyleDefault}
		}
		f.cells[y] = row
	}
}

// Size returns the frame dimensions.
func (f *Frame) Size() (int, int) { return f.width, f.height }

// SetCell writes one cell; out-of-bounds writes are dropped.
func (f *Frame) SetCell(x, y int, ch rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return
	}
	f.cells[y][x] = Cell{Ch: ch, Style: style}
}

// Cells exposes the raw grid for presentation.
func (f *Frame) Cells() [][]Cell { return f.cells }

// RenderContext carries one app's immediate-mode UI state across repaints.
// The surface fills Events, Focused, and Modifiers before each draw; the
// app reads them and draws into Frame.
type RenderContext struct {
	Events    []InputEvent
	Focused   bool
	Modifiers tcell.ModMask
	Frame     Frame
}

// NewRenderContext returns a context with an empty frame.
func NewRenderContext() *RenderContext {
	return &RenderContext{}
}
