// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/launcher/launcher.go
// Summary: The launcher app: fuzzy entry search, selection, and launch.

// Package launcher implements the daemon's flagship app: a query prompt
// over the discovered entries, ranked by fuzzy score and launch history.
package launcher

import (
	"context"
	"os/exec"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/polymodo/polymodo/desk"
	"github.com/polymodo/polymodo/store"
)

// AppName is the discriminant used for single-instance spawn checks.
const AppName = "launcher"

// Msg is the launcher's private message type.
type Msg struct {
	entries []Entry
	counts  map[string]int
	err     error
}

// Runner launches a selected entry. The default detaches a shell command.
type Runner func(entry Entry) error

func defaultRunner(entry Entry) error {
	cmd := exec.Command("/bin/sh", "-c", entry.Exec)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Options bundles the launcher's explicitly owned collaborators.
type Options struct {
	Log      *zap.Logger
	History  *store.History // optional
	Provider Provider
	Runner   Runner // optional
}

type launcher struct {
	log     *zap.Logger
	history *store.History
	runner  Runner
	send    desk.Sender[Msg]

	entries  []Entry
	counts   map[string]int
	loadErr  error
	query    string
	ranked   []Entry
	selected int
	result   string
}

// New returns a CreateFunc for desk.Spawn. Entry discovery and history
// loading run on a background task so construction never blocks the
// runtime goroutine.
func New(opts Options) desk.CreateFunc[Msg] {
	return func(send desk.Sender[Msg]) (desk.App[Msg], []desk.Task, error) {
		log := opts.Log
		if log == nil {
			log = zap.NewNop()
		}
		runner := opts.Runner
		if runner == nil {
			runner = defaultRunner
		}
		a := &launcher{
			log:     log,
			history: opts.History,
			runner:  runner,
			send:    send,
			counts:  make(map[string]int),
		}
		load := func(ctx context.Context) {
			msg := Msg{}
			msg.entries, msg.err = opts.Provider.Entries()
			if opts.History != nil {
				if counts, err := opts.History.Counts(); err == nil {
					msg.counts = counts
				} else {
					log.Warn("loading launch history failed", zap.Error(err))
				}
			}
			select {
			case <-ctx.Done():
			default:
				send.Send(msg)
			}
		}
		return a, []desk.Task{load}, nil
	}
}

func (a *launcher) Name() string { return AppName }

func (a *launcher) OnMessage(msg Msg) {
	if msg.err != nil {
		a.loadErr = msg.err
		a.log.Error("entry discovery failed", zap.Error(msg.err))
	}
	a.entries = msg.entries
	if msg.counts != nil {
		a.counts = msg.counts
	}
	a.rerank()
}

// Stop consumes the app and yields the launched entry name, empty when the
// launcher was dismissed.
func (a *launcher) Stop() any { return a.result }

func (a *launcher) rerank() {
	a.ranked = rank(a.entries, a.counts, a.query)
	if a.selected >= len(a.ranked) {
		a.selected = 0
	}
}

// Render consumes the queued input and draws the prompt plus the ranked
// list.
func (a *launcher) Render(rc *desk.RenderContext) {
	for _, ev := range rc.Events {
		a.handleInput(ev)
	}
	a.draw(rc)
}

func (a *launcher) handleInput(ev desk.InputEvent) {
	switch ev.Kind {
	case desk.InputText:
		a.query += ev.Text
		a.rerank()
	case desk.InputKeyDown:
		a.handleKey(ev.Key)
	case desk.InputPointer:
		if ev.Pointer.Kind == desk.PointerScroll {
			a.move(ev.Pointer.ScrollY)
		}
	}
}

func (a *launcher) handleKey(key desk.Key) {
	switch key.Code {
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if a.query != "" {
			runes := []rune(a.query)
			a.query = string(runes[:len(runes)-1])
			a.rerank()
		}
	case tcell.KeyUp, tcell.KeyCtrlP:
		a.move(-1)
	case tcell.KeyDown, tcell.KeyCtrlN:
		a.move(1)
	case tcell.KeyEnter:
		a.launchSelected()
	case tcell.KeyEscape, tcell.KeyCtrlC:
		a.send.Finish()
	}
}

func (a *launcher) move(delta int) {
	if len(a.ranked) == 0 {
		return
	}
	a.selected = (a.selected + delta + len(a.ranked)) % len(a.ranked)
}

func (a *launcher) launchSelected() {
	if a.selected >= len(a.ranked) {
		return
	}
	entry := a.ranked[a.selected]
	if err := a.runner(entry); err != nil {
		a.log.Error("launching entry failed",
			zap.String("entry", entry.Name), zap.Error(err))
		return
	}
	if a.history != nil {
		if err := a.history.RecordLaunch(entry.Name); err != nil {
			a.log.Warn("recording launch failed", zap.Error(err))
		}
	}
	a.result = entry.Name
	a.send.Finish()
}

func (a *launcher) draw(rc *desk.RenderContext) {
	w, h := rc.Frame.Size()
	if w == 0 || h == 0 {
		return
	}

	promptStyle := tcell.StyleDefault.Bold(true)
	drawText(&rc.Frame, 0, 0, w, "> "+a.query, promptStyle)

	listStyle := tcell.StyleDefault
	selStyle := tcell.StyleDefault.Reverse(true)
	for i, entry := range a.ranked {
		y := i + 1
		if y >= h {
			break
		}
		style := listStyle
		if i == a.selected {
			style = selStyle
		}
		drawText(&rc.Frame, 0, y, w, entry.Name, style)
	}
}

func drawText(frame *desk.Frame, x, y, maxW int, text string, style tcell.Style) {
	for i, ch := range []rune(text) {
		if x+i >= maxW {
			return
		}
		frame.SetCell(x+i, y, ch, style)
	}
}
