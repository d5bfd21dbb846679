// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/surfacedriver.go
// Summary: Tracks live surfaces, maps them to their owning apps, and
// repaints on demand.

package desk

import (
	"go.uber.org/zap"
)

type appEntry struct {
	app any // concrete instance, for optional-capability checks
	rc  *RenderContext
}

type surfaceState struct {
	surface  Surface
	viewport ViewportID
	exiting  bool
}

// SurfaceDriver owns the set of live surfaces and the mapping from surfaces
// to apps. Its state is touched only by the desk's runtime goroutine; all
// mutation from elsewhere arrives through the runtime's input channels.
//
// The driver's app set and the supervisor's app table are updated
// independently; a lookup miss across that boundary is an ordinary, logged,
// non-fatal outcome.
type SurfaceDriver struct {
	log     *zap.Logger
	creator SurfaceCreator

	apps        map[AppKey]*appEntry
	surfaceApps map[FullSurfaceID]AppKey
	surfaces    map[SurfaceID]*surfaceState
}

func newSurfaceDriver(log *zap.Logger, creator SurfaceCreator) *SurfaceDriver {
	return &SurfaceDriver{
		log:         log,
		creator:     creator,
		apps:        make(map[AppKey]*appEntry),
		surfaceApps: make(map[FullSurfaceID]AppKey),
		surfaces:    make(map[SurfaceID]*surfaceState),
	}
}

// addApp creates the app's initial surface on the root viewport and records
// the surface→app mapping. A surface-creation failure leaves the app
// registered nowhere in the driver: it is unreachable for rendering, but
// the driver keeps running.
func (d *SurfaceDriver) addApp(key AppKey, app any) {
	surf, err := d.creator.CreateSurface(RootViewport)
	if err != nil {
		d.log.Error("surface creation failed, app unreachable for rendering",
			zap.Stringer("app", key), zap.Error(err))
		return
	}
	id := surf.SurfaceID()
	d.surfaces[id] = &surfaceState{surface: surf, viewport: RootViewport}
	d.surfaceApps[FullSurfaceID{Surface: id, Viewport: RootViewport}] = key
	d.apps[key] = &appEntry{app: app, rc: NewRenderContext()}
}

// removeApp closes and forgets every surface owned by key and drops the
// app's render state.
func (d *SurfaceDriver) removeApp(key AppKey) {
	for full, owner := range d.surfaceApps {
		if owner != key {
			continue
		}
		delete(d.surfaceApps, full)
		if st, ok := d.surfaces[full.Surface]; ok {
			st.surface.Close()
			delete(d.surfaces, full.Surface)
		}
	}
	delete(d.apps, key)
}

// handleEvent applies one dispatcher event.
func (d *SurfaceDriver) handleEvent(ev SurfaceEvent) {
	switch ev.Kind {
	case EventRepaintAllWithEvents:
		// Queued input is the repaint trigger; idle surfaces are skipped.
		for id, st := range d.surfaces {
			if st.surface.HasEvents() {
				d.paint(id)
			}
		}
		return

	case EventNeedsRepaint:
		d.paint(ev.Surface)

	case EventClosed:
		st, ok := d.lookupSurface(ev)
		if !ok {
			return
		}
		st.exiting = true

	case EventConfigure:
		st, ok := d.lookupSurface(ev)
		if !ok {
			return
		}
		w, h := ev.Width, ev.Height
		if w == 0 || h == 0 {
			w, h = st.surface.DefaultSize()
		}
		st.surface.UpdateSize(w, h)
		d.paint(ev.Surface)

	case EventKeyboardFocus:
		st, ok := d.lookupSurface(ev)
		if !ok {
			return
		}
		st.surface.OnFocus(ev.Focused)
		st.surface.PushEvent(InputEvent{Kind: InputFocus, Focused: ev.Focused})

	case EventPressKey:
		if ev.Text == nil && ev.Key == nil {
			return
		}
		st, ok := d.lookupSurface(ev)
		if !ok {
			return
		}
		if ev.Text != nil {
			st.surface.PushEvent(InputEvent{Kind: InputText, Text: *ev.Text})
		}
		if ev.Key != nil {
			st.surface.OnKey(*ev.Key, true)
		}

	case EventReleaseKey:
		if ev.Key == nil {
			return
		}
		st, ok := d.lookupSurface(ev)
		if !ok {
			return
		}
		st.surface.OnKey(*ev.Key, false)

	case EventUpdateModifiers:
		st, ok := d.lookupSurface(ev)
		if !ok {
			return
		}
		st.surface.SetModifiers(ev.Modifiers)

	case EventPointer:
		st, ok := d.lookupSurface(ev)
		if !ok {
			return
		}
		st.surface.HandlePointerEvent(ev.Pointer)
	}

	d.forwardToApp(ev)
}

// lookupSurface resolves the event's target surface; a miss is logged and
// the event dropped.
func (d *SurfaceDriver) lookupSurface(ev SurfaceEvent) (*surfaceState, bool) {
	st, ok := d.surfaces[ev.Surface]
	if !ok {
		d.log.Warn("dropping event for unknown surface",
			zap.Uint64("surface", uint64(ev.Surface)),
			zap.Uint8("kind", uint8(ev.Kind)))
		return nil, false
	}
	return st, true
}

// forwardToApp hands the raw event to the owning app when it opted in.
func (d *SurfaceDriver) forwardToApp(ev SurfaceEvent) {
	st, ok := d.surfaces[ev.Surface]
	if !ok {
		return
	}
	key, ok := d.surfaceApps[FullSurfaceID{Surface: ev.Surface, Viewport: st.viewport}]
	if !ok {
		return
	}
	entry, ok := d.apps[key]
	if !ok {
		return
	}
	if h, ok := entry.app.(SurfaceEventHandler); ok {
		h.OnSurfaceEvent(ev)
	}
}

// paint resolves surface → owning app → render state and repaints. Every
// resolution failure is non-fatal: logged, operation dropped.
func (d *SurfaceDriver) paint(id SurfaceID) {
	st, ok := d.surfaces[id]
	if !ok {
		d.log.Warn("paint for unknown surface", zap.Uint64("surface", uint64(id)))
		return
	}
	key, ok := d.surfaceApps[FullSurfaceID{Surface: id, Viewport: st.viewport}]
	if !ok {
		d.log.Warn("paint for unmapped surface", zap.Uint64("surface", uint64(id)))
		return
	}
	entry, ok := d.apps[key]
	if !ok {
		d.log.Warn("paint for surface with no registered app",
			zap.Uint64("surface", uint64(id)), zap.Stringer("app", key))
		return
	}
	renderer, ok := entry.app.(Renderer)
	if !ok {
		return
	}
	if err := st.surface.Render(entry.rc, func(rc *RenderContext) error {
		renderer.Render(rc)
		return nil
	}); err != nil {
		d.log.Error("render failed", zap.Uint64("surface", uint64(id)), zap.Error(err))
	}
}
