// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/protocol_test.go
// Summary: Exercises framing and decode-buffer behaviour.

package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func allVariants() []Message {
	return []Message{
		Ping{},
		Pong{},
		Spawn{AppName: "launcher", Single: true},
		Spawn{AppName: "clock"},
		Running{AppName: "launcher", Running: true},
		AppResult{Result: "firefox"},
		AppResult{},
		Goodbye{},
	}
}

func TestRoundTripAllVariants(t *testing.T) {
	for _, msg := range allVariants() {
		buf := &bytes.Buffer{}
		if err := WriteMessage(buf, msg); err != nil {
			t.Fatalf("write %T failed: %v", msg, err)
		}
		got, err := ReadMessage(buf)
		if err != nil {
			t.Fatalf("read %T failed: %v", msg, err)
		}
		if !reflect.DeepEqual(got, msg) {
			t.Fatalf("round trip mismatch: %#v vs %#v", got, msg)
		}
	}
}

func TestBufferSplitAtEveryBoundary(t *testing.T) {
	msg := Spawn{AppName: "launcher", Single: true}
	frame, err := AppendMessage(nil, msg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	for split := 0; split <= len(frame); split++ {
		var b Buffer
		if _, err := b.Write(frame[:split]); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		got, err := b.Next()
		if err != nil {
			t.Fatalf("split %d: unexpected error: %v", split, err)
		}
		if split < len(frame) && got != nil {
			t.Fatalf("split %d: decoded from incomplete frame", split)
		}
		if _, err := b.Write(frame[split:]); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		// At split == len(frame) the first Next already consumed the
		// complete frame; only decode again if it reported "incomplete".
		if got == nil {
			got, err = b.Next()
			if err != nil {
				t.Fatalf("split %d: decode failed: %v", split, err)
			}
		}
		if !reflect.DeepEqual(got, msg) {
			t.Fatalf("split %d: mismatch: %#v", split, got)
		}
		if b.Len() != 0 {
			t.Fatalf("split %d: %d stray bytes left", split, b.Len())
		}
	}
}

func TestBufferPipelinedFrames(t *testing.T) {
	msgs := allVariants()
	var frame []byte
	var err error
	for _, msg := range msgs {
		frame, err = AppendMessage(frame, msg)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
	}

	var b Buffer
	if _, err := b.Write(frame); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	for i, want := range msgs {
		got, err := b.Next()
		if err != nil {
			t.Fatalf("message %d: decode failed: %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("message %d: mismatch: %#v vs %#v", i, got, want)
		}
	}
	if got, err := b.Next(); err != nil || got != nil {
		t.Fatalf("expected drained buffer, got %#v, %v", got, err)
	}
}

func TestBufferInvalidMagic(t *testing.T) {
	var b Buffer
	if _, err := b.Write(make([]byte, headerSize)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := b.Next(); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestBufferChecksumMismatch(t *testing.T) {
	frame, err := AppendMessage(nil, AppResult{Result: "firefox"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	frame[len(frame)-1] ^= 0xFF // flip a payload byte

	var b Buffer
	if _, err := b.Write(frame); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := b.Next(); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
}

func TestUnsupportedVersion(t *testing.T) {
	frame, err := AppendMessage(nil, Ping{})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	frame[4] = Version + 1

	var b Buffer
	if _, err := b.Write(frame); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := b.Next(); !errors.Is(err, ErrUnsupportedVer) {
		t.Fatalf("expected ErrUnsupportedVer, got %v", err)
	}
}

func TestDeterministicEncoding(t *testing.T) {
	msg := Spawn{AppName: "launcher", Single: true}
	a, err := AppendMessage(nil, msg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	b, err := AppendMessage(nil, msg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("encoding is not deterministic")
	}
}
