package main

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// EventSink abstracts the display layer so the TUI, the GUI and the plain
// console all receive the same status stream.
type EventSink interface {
	Status(text string)
	ModeLine(text string)
	DeviceLine(text string)
}

var sink EventSink = newConsoleSink(os.Stdout)

type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleSink(w io.Writer) *consoleSink {
	return &consoleSink{w: w}
}

func (c *consoleSink) Status(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, text)
}

func (c *consoleSink) ModeLine(text string) {
	c.Status(text)
}

func (c *consoleSink) DeviceLine(text string) {
	c.Status(text)
}

// tuiSink forwards to the running TUI and falls back to the console once
// the program has exited.
type tuiSink struct {
	fallback EventSink
}

func (t tuiSink) Status(text string) {
	if !tuiSend(StatusMsg{Text: text}) {
		t.fallback.Status(text)
	}
}

func (t tuiSink) ModeLine(text string) {
	if !tuiSend(ModeLineMsg{Text: text}) {
		t.fallback.ModeLine(text)
	}
}

func (t tuiSink) DeviceLine(text string) {
	if !tuiSend(DeviceLineMsg{Text: text}) {
		t.fallback.DeviceLine(text)
	}
}
