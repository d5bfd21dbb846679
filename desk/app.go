// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/app.go
// Summary: App contract, message-sending handles, and the type-erased driver
// that lets heterogeneous app types live in one table.

package desk

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AppKey identifies one spawned app for its lifetime. Keys are random;
// collisions are treated as negligible and not defended against.
type AppKey uuid.UUID

// NewAppKey allocates a fresh random key.
func NewAppKey() AppKey { return AppKey(uuid.New()) }

func (k AppKey) String() string { return uuid.UUID(k).String() }

// App is implemented by every hosted application. M is the app's private
// message type; only the app itself and its background tasks ever construct
// values of M.
//
// Stop consumes the app and returns its output value. After Stop the
// instance is discarded and receives no further calls.
type App[M any] interface {
	Name() string
	OnMessage(msg M)
	Stop() any
}

// Renderer is an optional capability: apps that draw implement it. Discovered
// by interface assertion at the single render call site.
type Renderer interface {
	Render(rc *RenderContext)
}

// SurfaceEventHandler is an optional capability for apps that want the raw
// surface event stream in addition to the queued per-surface input.
type SurfaceEventHandler interface {
	OnSurfaceEvent(ev SurfaceEvent)
}

// Task is a background goroutine started alongside an app. The context is
// canceled when the app is removed, so a task that selects on ctx.Done()
// gets abort-on-removal semantics.
type Task func(ctx context.Context)

// CreateFunc constructs an app instance. It runs on the desk's runtime
// goroutine, never on the caller's. The sender is the app's only way to
// reach the supervisor.
type CreateFunc[M any] func(send Sender[M]) (App[M], []Task, error)

// Sender lets an app enqueue messages to itself and announce completion. It
// is a plain value carrying only the shared event channel and the app's key;
// copies are all equivalent and it holds no supervisor state.
type Sender[M any] struct {
	key    AppKey
	events chan<- appEvent
}

// Key returns the key of the app this sender belongs to.
func (s Sender[M]) Key() AppKey { return s.key }

// Send enqueues a message for the app. Messages from one sender are
// delivered in order; delivery after the app finished is dropped by the
// supervisor.
func (s Sender[M]) Send(msg M) {
	s.events <- appEvent{kind: eventMessage, key: s.key, payload: msg}
}

// Finish announces that the app is done and should be stopped for its
// output.
func (s Sender[M]) Finish() {
	s.events <- appEvent{kind: eventFinished, key: s.key}
}

type appEventKind uint8

const (
	eventMessage appEventKind = iota
	eventFinished
)

// appEvent travels on the single shared channel from all apps to the
// supervisor.
type appEvent struct {
	kind    appEventKind
	key     AppKey
	payload any
}

// appDriver erases the message type so heterogeneous apps can be stored
// uniformly in the supervisor's table.
type appDriver interface {
	Name() string
	// OnMessage downcasts to the app's own message type. A mismatch is a
	// programmer error, not a recoverable condition.
	OnMessage(msg any)
	Stop() any
	// Instance exposes the concrete app for optional-capability checks.
	Instance() any
}

type typedDriver[M any] struct {
	app App[M]
}

func (d typedDriver[M]) Name() string { return d.app.Name() }

func (d typedDriver[M]) OnMessage(msg any) {
	m, ok := msg.(M)
	if !ok {
		panic(fmt.Sprintf("desk: app %q received message of type %T, want %T", d.app.Name(), msg, *new(M)))
	}
	d.app.OnMessage(m)
}

func (d typedDriver[M]) Stop() any { return d.app.Stop() }

func (d typedDriver[M]) Instance() any { return d.app }
