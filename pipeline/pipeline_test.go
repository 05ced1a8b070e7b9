package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"procrec/audio"
	"procrec/completion"
	"procrec/log"
	"procrec/transcriber"
)

const exampleReply = `Section 1: Prep
Step 1: Gather tools
Step 1 Note: Check battery
Section 2: Assembly
Step 2: Attach part A`

const exampleCSV = "Step Name,,Notes\nPrep,,\nStep 1,Gather tools,Check battery\n,,\nAssembly,,\nStep 2,Attach part A,\n,,\n"

type statusLog struct {
	mu   sync.Mutex
	msgs []string
}

func (s *statusLog) add(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *statusLog) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

func (s *statusLog) last() string {
	msgs := s.all()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func newTestPipeline(t *testing.T, tr transcriber.Transcriber, c completion.Completer) (*Pipeline, *statusLog, string) {
	t.Helper()
	status := &statusLog{}
	out := filepath.Join(t.TempDir(), "procedure_steps_from_audio.csv")
	return New(tr, c, WithOutputPath(out), WithStatus(status.add)), status, out
}

func TestProcessExample(t *testing.T) {
	tr := transcriber.NewFake("we prep then assemble", nil)
	c := completion.NewFake(exampleReply, nil)
	p, status, out := newTestPipeline(t, tr, c)

	res, err := p.Process(context.Background(), "recorded_audio_20260101_000000.wav")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != exampleCSV {
		t.Errorf("csv =\n%q\nwant\n%q", data, exampleCSV)
	}
	if res.Rows != 7 || res.OutputPath != out || res.Transcript != "we prep then assemble" {
		t.Errorf("result = %+v", res)
	}

	if len(c.Prompts) != 1 || !strings.HasPrefix(c.Prompts[0], "we prep then assemble\n\nTurn the informal") {
		t.Errorf("prompt = %q", c.Prompts)
	}
	if len(tr.Calls) != 1 || tr.Calls[0] != "recorded_audio_20260101_000000.wav" {
		t.Errorf("transcriber calls = %v", tr.Calls)
	}

	want := []string{
		"Transcription complete. Parsing procedure...",
		"Procedure parsed. Exporting to CSV...",
		"Export complete! File saved as '" + out + "'",
	}
	if got := status.all(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("status = %q, want %q", got, want)
	}
}

func TestProcessDefaultOutputPath(t *testing.T) {
	p := New(transcriber.NewFake("x", nil), completion.NewFake("y", nil))
	if p.OutputPath() != "procedure_steps_from_audio.csv" {
		t.Errorf("OutputPath = %q", p.OutputPath())
	}
}

func TestProcessFailures(t *testing.T) {
	boom := errors.New("boom")
	for _, tt := range []struct {
		name       string
		transcript string
		trErr      error
		reply      string
		cErr       error
		stage      Stage
		sentinel   error
		status     string
		completes  int
	}{
		{"transcribe error", "", boom, exampleReply, nil, StageTranscribe, boom, "Error in transcription.", 0},
		{"empty transcript", "  \n", nil, exampleReply, nil, StageTranscribe, ErrEmptyTranscript, "Error in transcription.", 0},
		{"completion error", "text", nil, "", boom, StageComplete, boom, "Error in completion response.", 1},
		{"empty completion", "text", nil, "", nil, StageComplete, ErrEmptyCompletion, "Error in completion response.", 1},
		{"unparseable reply", "text", nil, "Sure! Here is your procedure.", nil, StageParse, ErrEmptyProcedure, "Error parsing procedure.", 1},
		{"section headers only", "text", nil, "Section 1: Overview\nSection 2: Work", nil, StageParse, ErrEmptyProcedure, "Error parsing procedure.", 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := completion.NewFake(tt.reply, tt.cErr)
			p, status, out := newTestPipeline(t, transcriber.NewFake(tt.transcript, tt.trErr), c)

			_, err := p.Process(context.Background(), "a.wav")
			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *StageError", err)
			}
			if se.Stage != tt.stage {
				t.Errorf("stage = %s, want %s", se.Stage, tt.stage)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v", err, tt.sentinel)
			}
			if status.last() != tt.status {
				t.Errorf("status = %q, want %q", status.last(), tt.status)
			}
			if parsed := slices.Contains(status.all(), "Procedure parsed. Exporting to CSV..."); parsed != (tt.stage == StageParse) {
				t.Errorf("status = %q, parse progress reported = %v", status.all(), parsed)
			}
			if len(c.Prompts) != tt.completes {
				t.Errorf("completer called %d times, want %d", len(c.Prompts), tt.completes)
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Errorf("csv written after failure: %v", err)
			}
		})
	}
}

func TestProcessExportError(t *testing.T) {
	status := &statusLog{}
	out := filepath.Join(t.TempDir(), "missing", "out.csv")
	p := New(transcriber.NewFake("t", nil), completion.NewFake(exampleReply, nil), WithOutputPath(out), WithStatus(status.add))

	res, err := p.Process(context.Background(), "a.wav")
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageExport {
		t.Fatalf("err = %v, want export StageError", err)
	}
	if res.Procedure == nil {
		t.Error("parsed procedure should be kept on export failure")
	}
	if !strings.HasPrefix(status.last(), "Error exporting to CSV: ") {
		t.Errorf("status = %q", status.last())
	}
}

func TestProcessStepsBeforeSection(t *testing.T) {
	p, _, out := newTestPipeline(t, transcriber.NewFake("t", nil), completion.NewFake("Step 1: Orphan\nSection 1: Later", nil))
	if _, err := p.Process(context.Background(), "a.wav"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(out)
	want := "Step Name,,Notes\n,,\nStep 1,Orphan,\n,,\n"
	if string(data) != want {
		t.Errorf("csv = %q, want %q", data, want)
	}
}

func TestProcessCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, status, _ := newTestPipeline(t, transcriber.NewFake("t", nil), completion.NewFake(exampleReply, nil))
	_, err := p.Process(ctx, "a.wav")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if status.last() != "Error in transcription." {
		t.Errorf("status = %q", status.last())
	}
}

func TestStatusMessage(t *testing.T) {
	for _, tt := range []struct {
		err  error
		want string
	}{
		{&StageError{StageRecord, errors.New("no device")}, "Error recording: no device"},
		{&StageError{StageExport, errors.New("disk full")}, "Error exporting to CSV: disk full"},
		{&StageError{StageParse, ErrEmptyProcedure}, "Error parsing procedure."},
		{errors.New("other"), "Error: other"},
	} {
		if got := StatusMessage(tt.err); got != tt.want {
			t.Errorf("StatusMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

type stubRecorder struct {
	mu        sync.Mutex
	recording bool
	startErr  error
	dir       string
	duration  time.Duration
}

func (r *stubRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	if r.recording {
		return audio.ErrRecording
	}
	r.recording = true
	return nil
}

func (r *stubRecorder) Stop() (audio.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return audio.Recording{}, audio.ErrNotRecording
	}
	r.recording = false
	return audio.Recording{Path: filepath.Join(r.dir, "take.wav"), Duration: r.duration, Frames: 10}, nil
}

func (r *stubRecorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *stubRecorder) Elapsed() time.Duration { return 0 }

func TestSessionToggle(t *testing.T) {
	tr := transcriber.NewFake("t", nil)
	p, status, out := newTestPipeline(t, tr, completion.NewFake(exampleReply, nil))
	rec := &stubRecorder{dir: t.TempDir(), duration: 3*time.Minute + 7*time.Second}
	s := NewSession(p, rec)

	if s.State() != StateIdle {
		t.Errorf("State = %s", s.State())
	}
	if err := s.Toggle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateRecording {
		t.Errorf("State = %s, want recording", s.State())
	}
	if err := s.Toggle(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Wait()

	if s.State() != StateIdle || s.Exported() != 1 {
		t.Errorf("State = %s Exported = %d", s.State(), s.Exported())
	}
	if res, err := s.Last(); err != nil || res.Rows != 7 {
		t.Errorf("Last = %+v, %v", res, err)
	}
	if tr.Calls[0] != filepath.Join(rec.dir, "take.wav") {
		t.Errorf("transcribed %q", tr.Calls[0])
	}
	if _, err := os.Stat(out); err != nil {
		t.Error(err)
	}

	msgs := status.all()
	if len(msgs) != 5 {
		t.Fatalf("status = %q", msgs)
	}
	if msgs[0] != "Recording started..." {
		t.Errorf("msgs[0] = %q", msgs[0])
	}
	if msgs[1] != "Recording finished. Duration: 0:03:07. Transcribing audio..." {
		t.Errorf("msgs[1] = %q", msgs[1])
	}
}

func TestSessionStartError(t *testing.T) {
	p, status, _ := newTestPipeline(t, transcriber.NewFake("t", nil), completion.NewFake(exampleReply, nil))
	s := NewSession(p, &stubRecorder{startErr: errors.New("device busy")})

	err := s.Toggle(context.Background())
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageRecord {
		t.Fatalf("err = %v", err)
	}
	if status.last() != "Error recording: device busy" {
		t.Errorf("status = %q", status.last())
	}
	if s.State() != StateIdle {
		t.Errorf("State = %s", s.State())
	}
}

type blockingTranscriber struct {
	*transcriber.FakeTranscriber
	release chan struct{}
}

func (b *blockingTranscriber) Transcribe(ctx context.Context, path string) (*transcriber.Result, error) {
	<-b.release
	return b.FakeTranscriber.Transcribe(ctx, path)
}

func TestSessionBusyWhileProcessing(t *testing.T) {
	bt := &blockingTranscriber{FakeTranscriber: transcriber.NewFake("t", nil), release: make(chan struct{})}
	p, _, _ := newTestPipeline(t, bt, completion.NewFake(exampleReply, nil))
	s := NewSession(p, &stubRecorder{dir: t.TempDir()})

	s.Toggle(context.Background())
	s.Toggle(context.Background())
	if s.State() != StateProcessing {
		t.Errorf("State = %s, want processing", s.State())
	}
	if err := s.Toggle(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("Toggle = %v, want ErrBusy", err)
	}
	close(bt.release)
	s.Wait()
	if s.State() != StateIdle {
		t.Errorf("State = %s", s.State())
	}
}

func TestSessionCloseStopsRecording(t *testing.T) {
	tr := transcriber.NewFake("t", nil)
	p, _, _ := newTestPipeline(t, tr, completion.NewFake(exampleReply, nil))
	rec := &stubRecorder{dir: t.TempDir()}
	s := NewSession(p, rec)

	s.Toggle(context.Background())
	s.Close()
	if rec.Recording() {
		t.Error("still recording after Close")
	}
	if len(tr.Calls) != 0 {
		t.Errorf("Close should not process, calls = %v", tr.Calls)
	}
}

type metricsTranscriber struct {
	*transcriber.FakeTranscriber
}

func (m metricsTranscriber) Transcribe(ctx context.Context, path string) (*transcriber.Result, error) {
	return &transcriber.Result{
		Text: "t",
		Metrics: &transcriber.NetworkMetrics{
			DNS:         2 * time.Millisecond,
			TLS:         3 * time.Millisecond,
			TTFB:        5 * time.Millisecond,
			Total:       40 * time.Millisecond,
			TLSProtocol: "TLS 1.3",
		},
		RateLimit: "42/100",
		AudioKB:   100,
		RawKB:     200,
		Format:    "flac",
		Duration:  3,
	}, nil
}

func TestProcessLogsTranscriptionMetrics(t *testing.T) {
	dir := t.TempDir()
	log.SetDir(dir)
	if err := log.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close(); log.SetDir("") })

	p, _, _ := newTestPipeline(t, metricsTranscriber{transcriber.NewFake("", nil)}, completion.NewFake(exampleReply, nil))
	if _, err := p.Process(context.Background(), "a.wav"); err != nil {
		t.Fatal(err)
	}
	log.Close()

	data, err := os.ReadFile(filepath.Join(dir, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"format=flac", "audio_s=3", "raw_kb=200", "audio_kb=100", "compression_pct=50",
		`tls="TLS 1.3"`, "total_ms=10", "wall_ms=40", "rate_limit=42/100",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("diagnostics missing %q:\n%s", want, data)
		}
	}
}
