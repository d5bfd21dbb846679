// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/supervisor.go
// Summary: Owns the table of live apps, routes their messages, and resolves
// single-use completion waiters.

package desk

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrNoResult is returned by WaitForAppStop when the waiter was invalidated
// without ever receiving a value, e.g. because a later waiter replaced it.
var ErrNoResult = errors.New("desk: app produced no result")

// Supervisor owns all live app instances as type-erased drivers. The app
// table and the waiter table are independent synchronization points; the
// only ordering requirement between them is that an app's removal from the
// table happens before its waiter is resolved.
type Supervisor struct {
	log *zap.Logger

	mu   sync.Mutex
	apps map[AppKey]appDriver

	waiterMu sync.Mutex
	waiters  map[AppKey]chan any

	// events is the single shared channel carrying every app's messages
	// and completion notifications.
	events chan appEvent
}

func newSupervisor(log *zap.Logger) *Supervisor {
	return &Supervisor{
		log:     log,
		apps:    make(map[AppKey]appDriver),
		waiters: make(map[AppKey]chan any),
		events:  make(chan appEvent, 128),
	}
}

func (s *Supervisor) insert(key AppKey, drv appDriver) {
	s.mu.Lock()
	s.apps[key] = drv
	s.mu.Unlock()
}

func (s *Supervisor) lookup(key AppKey) (appDriver, bool) {
	s.mu.Lock()
	drv, ok := s.apps[key]
	s.mu.Unlock()
	return drv, ok
}

// IsAppRunning reports whether a live app carries the given name. Used for
// single-instance spawn semantics.
func (s *Supervisor) IsAppRunning(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, drv := range s.apps {
		if drv.Name() == name {
			return true
		}
	}
	return false
}

// AppCount reports the number of live apps.
func (s *Supervisor) AppCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apps)
}

// deliver routes one message to its app. A missing app is an expected race
// (the app may have finished between sending and processing), never an
// error.
func (s *Supervisor) deliver(key AppKey, payload any) {
	drv, ok := s.lookup(key)
	if !ok {
		s.log.Warn("dropping message for unknown or removed app",
			zap.Stringer("app", key))
		return
	}
	drv.OnMessage(payload)
}

// finish removes the app and stops it for its output. The table removal
// happens before the caller resolves any waiter.
func (s *Supervisor) finish(key AppKey) (any, bool) {
	s.mu.Lock()
	drv, ok := s.apps[key]
	if ok {
		delete(s.apps, key)
	}
	s.mu.Unlock()
	if !ok {
		s.log.Info("finished event for unknown app, ignoring",
			zap.Stringer("app", key))
		return nil, false
	}
	return drv.Stop(), true
}

// registerWaiter installs a fresh single-use waiter for key, invalidating
// any prior one: the replaced waiter resolves to no result.
func (s *Supervisor) registerWaiter(key AppKey) chan any {
	ch := make(chan any, 1)
	s.waiterMu.Lock()
	old := s.waiters[key]
	s.waiters[key] = ch
	s.waiterMu.Unlock()
	if old != nil {
		close(old)
	}
	return ch
}

// resolveWaiter hands the output to the registered waiter, if any.
func (s *Supervisor) resolveWaiter(key AppKey, out any) bool {
	s.waiterMu.Lock()
	ch, ok := s.waiters[key]
	if ok {
		delete(s.waiters, key)
	}
	s.waiterMu.Unlock()
	if !ok {
		return false
	}
	ch <- out
	close(ch)
	return true
}

// WaitForAppStop registers a completion waiter for key and suspends until it
// resolves with the app's output. At most one waiter is active per key;
// registering replaces and invalidates any previous one. A waiter for a key
// that never finishes stays registered until replaced, the context ends, or
// the process exits.
func (s *Supervisor) WaitForAppStop(ctx context.Context, key AppKey) (any, error) {
	ch := s.registerWaiter(key)
	select {
	case out, ok := <-ch:
		if !ok {
			return nil, ErrNoResult
		}
		return out, nil
	case <-ctx.Done():
		s.waiterMu.Lock()
		if s.waiters[key] == ch {
			delete(s.waiters, key)
		}
		s.waiterMu.Unlock()
		return nil, ctx.Err()
	}
}
