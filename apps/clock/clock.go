// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/clock/clock.go
// Summary: A minimal demo app: a ticking clock on its own surface.

// Package clock hosts a trivial app useful for exercising the daemon: a
// background ticker feeds the app's private message type once a second.
package clock

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/polymodo/polymodo/desk"
)

// AppName is the discriminant used for single-instance spawn checks.
const AppName = "clock"

// Msg carries one tick.
type Msg struct {
	now time.Time
}

type clock struct {
	send    desk.Sender[Msg]
	current string
}

// New returns a CreateFunc for desk.Spawn.
func New() desk.CreateFunc[Msg] {
	return func(send desk.Sender[Msg]) (desk.App[Msg], []desk.Task, error) {
		a := &clock{send: send, current: time.Now().Format("15:04:05")}
		tick := func(ctx context.Context) {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					send.Send(Msg{now: now})
				}
			}
		}
		return a, []desk.Task{tick}, nil
	}
}

func (a *clock) Name() string { return AppName }

func (a *clock) OnMessage(msg Msg) {
	a.current = msg.now.Format("15:04:05")
}

// Stop yields the last displayed time.
func (a *clock) Stop() any { return a.current }

func (a *clock) Render(rc *desk.RenderContext) {
	for _, ev := range rc.Events {
		if ev.Kind != desk.InputKeyDown {
			continue
		}
		switch ev.Key.Code {
		case tcell.KeyEscape, tcell.KeyEnter, tcell.KeyCtrlC:
			a.send.Finish()
		}
	}

	w, h := rc.Frame.Size()
	text := a.current
	x := (w - len(text)) / 2
	y := h / 2
	for i, ch := range text {
		rc.Frame.SetCell(x+i, y, ch, tcell.StyleDefault.Bold(true))
	}
}
