// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/launcher/entries.go
// Summary: Launchable entries and the providers that discover them.

package launcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one launchable item.
type Entry struct {
	// Name is the label shown and matched against.
	Name string
	// Exec is the shell command run on selection.
	Exec string
}

// Provider discovers launchable entries. Discovery runs on a background
// task, never on the render path.
type Provider interface {
	Entries() ([]Entry, error)
}

// PathProvider lists the executables on $PATH.
type PathProvider struct{}

// Entries scans every $PATH directory once and returns its executables,
// deduplicated by name and sorted.
func (PathProvider) Entries() ([]Entry, error) {
	seen := make(map[string]struct{})
	var entries []Entry
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		items, err := os.ReadDir(dir)
		if err != nil {
			continue // unreadable PATH entries are skipped, not fatal
		}
		for _, item := range items {
			name := item.Name()
			if _, dup := seen[name]; dup {
				continue
			}
			info, err := item.Info()
			if err != nil || info.Mode()&0o111 == 0 || info.Mode()&fs.ModeType != 0 {
				continue
			}
			seen[name] = struct{}{}
			entries = append(entries, Entry{Name: name, Exec: name})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// StaticProvider serves a fixed entry list. Used by tests and for
// configured extra entries.
type StaticProvider []Entry

func (p StaticProvider) Entries() ([]Entry, error) {
	return append([]Entry(nil), p...), nil
}
