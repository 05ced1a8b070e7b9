package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"procrec/audio"
	"procrec/completion"
	"procrec/pipeline"
	"procrec/procedure"
	"procrec/transcriber"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.tui || cfg.gui || cfg.temperature != 0.25 || cfg.stt != "" || cfg.llm != "" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-stt", "groq", "-llm", "ollama", "-model", "llama3.1", "-temperature", "0", "-tui=false", "-file", "x.wav"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.stt != "groq" || cfg.llm != "ollama" || cfg.model != "llama3.1" || cfg.temperature != 0 || cfg.tui || cfg.file != "x.wav" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-file", "a.wav", "-simulate", "b.wav"},
		{"-temperature", "3"},
		{"-bogus"},
	} {
		if _, err := parseFlags(args, io.Discard); err == nil {
			t.Errorf("parseFlags(%q) succeeded", args)
		}
	}
}

func TestModeLineText(t *testing.T) {
	tr := transcriber.NewFake("", nil)
	tr.SetLanguage("de")
	got := modeLineText(tr, completion.NewFake("", nil))
	if got != "[stt: fake fake (de) | llm: fake fake]" {
		t.Errorf("modeLineText = %q", got)
	}
}

func TestDeviceLineText(t *testing.T) {
	for _, tt := range []struct{ in, want string }{
		{"", "mic: system default"},
		{"Built-in Microphone", "mic: Built-in Microphone"},
		{"AirPods Pro", "mic: AirPods Pro (BT!)"},
	} {
		if got := deviceLineText(tt.in); got != tt.want {
			t.Errorf("deviceLineText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTUISinkFallsBackWithoutProgram(t *testing.T) {
	var buf bytes.Buffer
	s := tuiSink{fallback: newConsoleSink(&buf)}
	s.Status("Recording started...")
	s.ModeLine("[stt: x]")
	if buf.String() != "Recording started...\n[stt: x]\n" {
		t.Errorf("fallback output = %q", buf.String())
	}
}

func tonePCM(n int) []byte {
	pcm := make([]byte, n*2)
	for i := range n {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16((i%100)*200-10000)))
	}
	return pcm
}

func TestRunConsoleRecordsAndExports(t *testing.T) {
	var buf bytes.Buffer
	old := sink
	sink = newConsoleSink(&buf)
	t.Cleanup(func() { sink = old })

	dir := t.TempDir()
	out := filepath.Join(dir, procedure.DefaultOutputFile)
	p := pipeline.New(
		transcriber.NewFake("prep then assemble", nil),
		completion.NewFake("Section 1: Prep\nStep 1: Gather tools", nil),
		pipeline.WithOutputPath(out),
		pipeline.WithStatus(func(s string) { sink.Status(s) }),
	)
	capture, _ := audio.NewFakeContextPCM(tonePCM(4096), false).NewCapture(nil, audio.DefaultCaptureConfig())
	session := pipeline.NewSession(p, audio.NewRecorder(capture, audio.DefaultCaptureConfig(), dir))

	runConsole(context.Background(), session, strings.NewReader("\n\n"))
	session.Wait()

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Step Name,,Notes\nPrep,,\nStep 1,Gather tools,\n,,\n" {
		t.Errorf("csv = %q", data)
	}
	for _, want := range []string{
		"Press Enter to start/stop recording",
		"Recording started...",
		"Recording finished. Duration: 0:00:00. Transcribing audio...",
		"Export complete! File saved as '" + out + "'",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "recorded_audio_*.wav"))
	if len(matches) != 1 {
		t.Errorf("recordings = %v", matches)
	}
}

func TestRunConsoleStopsOnCancel(t *testing.T) {
	old := sink
	sink = newConsoleSink(io.Discard)
	t.Cleanup(func() { sink = old })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan struct{})
	go func() {
		runConsole(ctx, nil, pr)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runConsole did not return after cancel")
	}
}

type fakeSession struct {
	state   pipeline.State
	elapsed time.Duration
	toggles int
	result  *pipeline.Result
}

func (f *fakeSession) State() pipeline.State           { return f.state }
func (f *fakeSession) Elapsed() time.Duration          { return f.elapsed }
func (f *fakeSession) Exported() int                   { return 0 }
func (f *fakeSession) Last() (*pipeline.Result, error) { return f.result, nil }
func (f *fakeSession) Toggle(_ context.Context) error  { f.toggles++; return nil }

func TestTUIModelToggleAndQuit(t *testing.T) {
	fs := &fakeSession{}
	var m tea.Model = newTUIModel(context.Background(), fs, "[mode]", "mic: fake")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if cmd == nil {
		t.Fatal("space should return a toggle command")
	}
	if msg := cmd(); msg != (toggleDoneMsg{}) {
		t.Errorf("toggle msg = %#v", msg)
	}
	if fs.toggles != 1 {
		t.Errorf("toggles = %d", fs.toggles)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not produce QuitMsg")
	}
}

func TestTUIModelView(t *testing.T) {
	proc := procedure.Parse("Section 1: Prep\nStep 1: Gather tools\nStep 1 Note: Check battery")
	fs := &fakeSession{
		state:   pipeline.StateRecording,
		elapsed: 65 * time.Second,
		result:  &pipeline.Result{Procedure: proc, OutputPath: "out.csv"},
	}
	var m tea.Model = newTUIModel(context.Background(), fs, "[stt: openai]", "mic: fake")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = m.Update(StatusMsg{Text: "Recording started..."})

	view := m.View()
	for _, want := range []string{"REC 0:01:05", "[stt: openai]", "mic: fake", "Recording started...", "Prep", "1. Gather tools", "note: Check battery"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	fs.state = pipeline.StateIdle
	m, _ = m.Update(tickMsg(time.Now()))
	if !strings.Contains(m.View(), "STANDBY") {
		t.Error("idle view missing STANDBY")
	}
}

func TestTUIModelBusy(t *testing.T) {
	fs := &fakeSession{state: pipeline.StateProcessing}
	var m tea.Model = newTUIModel(context.Background(), fs, "", "")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m, _ = m.Update(toggleDoneMsg{err: pipeline.ErrBusy})
	view := m.View()
	if !strings.Contains(view, "PROCESSING") || !strings.Contains(view, "Still processing") {
		t.Errorf("view = %s", view)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("tighten the four bolts evenly", 12)
	want := []string{"tighten the", "four bolts", "evenly"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText = %q, want %q", got, want)
	}
}
