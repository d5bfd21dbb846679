// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/launcher/fuzzy.go
// Summary: Thin wrapper around fzf's matcher for ranking entries.

package launcher

import (
	"sort"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

type match struct {
	entry Entry
	score int
	count int
}

// rank filters entries against query and orders them best-first. An empty
// query keeps everything, ordered by launch count and then name. Launch
// counts break score ties so habitual choices surface.
func rank(entries []Entry, counts map[string]int, query string) []Entry {
	if query == "" {
		ranked := append([]Entry(nil), entries...)
		sort.SliceStable(ranked, func(i, j int) bool {
			ci, cj := counts[ranked[i].Name], counts[ranked[j].Name]
			if ci != cj {
				return ci > cj
			}
			return strings.ToLower(ranked[i].Name) < strings.ToLower(ranked[j].Name)
		})
		return ranked
	}

	pattern := []rune(strings.ToLower(query))
	slab := util.MakeSlab(slab16Size, slab32Size)

	var matches []match
	for _, entry := range entries {
		chars := util.ToChars([]byte(entry.Name))
		result, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, slab)
		if result.Score <= 0 {
			continue
		}
		matches = append(matches, match{entry: entry, score: result.Score, count: counts[entry.Name]})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].count != matches[j].count {
			return matches[i].count > matches[j].count
		}
		return strings.ToLower(matches[i].entry.Name) < strings.ToLower(matches[j].entry.Name)
	})

	ranked := make([]Entry, len(matches))
	for i, m := range matches {
		ranked[i] = m.entry
	}
	return ranked
}
