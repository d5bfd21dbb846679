// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/desk.go
// Summary: The runtime loop tying the supervisor and the surface driver to
// their input channels.

// Package desk is the application-lifecycle supervisor and
// surface-multiplexing runtime of the polymodo daemon. It hosts pluggable
// apps, routes their type-erased messages, tracks which rendered surface
// belongs to which app, and lets callers await an app's result.
package desk

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrEventStreamClosed reports that the dispatcher closed its event
	// stream. Both input streams are proof-of-life of an upstream
	// collaborator; closure is fatal to the whole process.
	ErrEventStreamClosed = errors.New("desk: surface event stream closed")
	// ErrStopped reports that the runtime loop is no longer accepting
	// spawn requests.
	ErrStopped = errors.New("desk: runtime stopped")
)

type newAppRequest struct {
	key   AppKey
	build func() (appDriver, any, []Task, error)
	done  chan error
}

// Desk is the runtime hosting the supervisor and the surface driver. All
// app and surface state is confined to the single goroutine running Run;
// everything else talks to it through channels. Running both components on
// one goroutine is what makes direct App calls safe without locks.
type Desk struct {
	log *zap.Logger
	sup *Supervisor
	drv *SurfaceDriver

	surfaceEvents <-chan SurfaceEvent
	newApps       chan newAppRequest

	taskCtx    context.Context
	taskCancel context.CancelFunc
	tasks      map[AppKey]context.CancelFunc
}

// New builds a desk around the surface-creation collaborator and the
// dispatcher's event stream.
func New(log *zap.Logger, creator SurfaceCreator, events <-chan SurfaceEvent) *Desk {
	taskCtx, taskCancel := context.WithCancel(context.Background())
	return &Desk{
		log:           log,
		sup:           newSupervisor(log.Named("supervisor")),
		drv:           newSurfaceDriver(log.Named("surfaces"), creator),
		surfaceEvents: events,
		newApps:       make(chan newAppRequest),
		taskCtx:       taskCtx,
		taskCancel:    taskCancel,
		tasks:         make(map[AppKey]context.CancelFunc),
	}
}

// Supervisor exposes the waiter and app-table operations callable from any
// goroutine.
func (d *Desk) Supervisor() *Supervisor { return d.sup }

// IsAppRunning reports whether a live app carries the given name.
func (d *Desk) IsAppRunning(name string) bool { return d.sup.IsAppRunning(name) }

// WaitForAppStop suspends until the app's output is available. See
// Supervisor.WaitForAppStop.
func (d *Desk) WaitForAppStop(ctx context.Context, key AppKey) (any, error) {
	return d.sup.WaitForAppStop(ctx, key)
}

// Run drives the supervisor and the surface driver until the context ends
// or an input stream closes. It processes exactly one event per iteration.
func (d *Desk) Run(ctx context.Context) error {
	defer d.taskCancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-d.surfaceEvents:
			if !ok {
				d.log.Error("surface event stream closed, shutting down")
				return ErrEventStreamClosed
			}
			d.drv.handleEvent(ev)

		case req := <-d.newApps:
			req.done <- d.install(req)

		case ev := <-d.sup.events:
			d.handleAppEvent(ev)
		}
	}
}

// install constructs and registers one app on the runtime goroutine.
func (d *Desk) install(req newAppRequest) error {
	drv, instance, tasks, err := req.build()
	if err != nil {
		return err
	}
	d.sup.insert(req.key, drv)
	d.drv.addApp(req.key, instance)

	if len(tasks) > 0 {
		ctx, cancel := context.WithCancel(d.taskCtx)
		d.tasks[req.key] = cancel
		for _, task := range tasks {
			go task(ctx)
		}
	}
	d.log.Info("app spawned",
		zap.Stringer("app", req.key), zap.String("name", drv.Name()))
	return nil
}

func (d *Desk) handleAppEvent(ev appEvent) {
	switch ev.kind {
	case eventMessage:
		d.sup.deliver(ev.key, ev.payload)

	case eventFinished:
		out, ok := d.sup.finish(ev.key)
		if !ok {
			return
		}
		d.drv.removeApp(ev.key)
		if cancel, exists := d.tasks[ev.key]; exists {
			cancel()
			delete(d.tasks, ev.key)
		}
		if !d.sup.resolveWaiter(ev.key, out) {
			d.log.Info("app result discarded, no waiter registered",
				zap.Stringer("app", ev.key))
		}
	}
}

// Spawn allocates a key, marshals construction of the app onto the runtime
// goroutine, and returns once the app is inserted into the supervisor's
// table: a message sent with the returned key cannot race its own
// registration. Must not be called from the runtime goroutine.
func Spawn[M any](d *Desk, create CreateFunc[M]) (AppKey, error) {
	key := NewAppKey()
	sender := Sender[M]{key: key, events: d.sup.events}
	req := newAppRequest{
		key: key,
		build: func() (appDriver, any, []Task, error) {
			app, tasks, err := create(sender)
			if err != nil {
				return nil, nil, nil, err
			}
			return typedDriver[M]{app: app}, app, tasks, nil
		},
		done: make(chan error, 1),
	}
	select {
	case d.newApps <- req:
	case <-d.taskCtx.Done():
		return AppKey{}, ErrStopped
	}
	select {
	case err := <-req.done:
		if err != nil {
			return AppKey{}, err
		}
		return key, nil
	case <-d.taskCtx.Done():
		return AppKey{}, ErrStopped
	}
}
