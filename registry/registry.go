// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: registry/registry.go
// Summary: App name → spawn-function registry used by the IPC daemon.

// Package registry maps app names to spawn functions. Registries are plain
// instances owned by whoever wires the daemon; there is no process-wide
// registration, so tests can build isolated registries with their own
// dependencies.
package registry

import (
	"sort"
	"sync"

	"github.com/polymodo/polymodo/desk"
)

// SpawnFunc starts a new instance of an app on the given desk and returns
// its key.
type SpawnFunc func(d *desk.Desk) (desk.AppKey, error)

// Registry is the collection of spawnable apps.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]SpawnFunc
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]SpawnFunc)}
}

// Register binds name to a spawn function, replacing any previous binding.
func (r *Registry) Register(name string, spawn SpawnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = spawn
}

// Lookup returns the spawn function for name.
func (r *Registry) Lookup(name string) (SpawnFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spawn, ok := r.entries[name]
	return spawn, ok
}

// Names lists the registered app names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
