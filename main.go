package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"procrec/audio"
	"procrec/completion"
	"procrec/log"
	"procrec/pipeline"
	"procrec/shutdown"
	"procrec/transcriber"
)

var version = "dev"

type config struct {
	stt         string
	llm         string
	model       string
	temperature float64
	lang        string
	device      string
	setup       bool
	file        string
	simulate    string
	tui         bool
	gui         bool
	logPath     string
	version     bool
}

func parseFlags(args []string, output io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("procrec", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.stt, "stt", "", "Speech-to-text provider: openai or groq (default: first with an API key)")
	fs.StringVar(&cfg.llm, "llm", "", "Completion provider: openai, groq or ollama (default: first with an API key)")
	fs.StringVar(&cfg.model, "model", "", "Completion model (default: gpt-4 for openai)")
	fs.Float64Var(&cfg.temperature, "temperature", completion.DefaultTemperature, "Completion sampling temperature")
	fs.StringVar(&cfg.lang, "lang", "", "Language code for transcription (e.g., en, es, fr). Empty = auto-detect")
	fs.StringVar(&cfg.device, "device", "", "Use named microphone device")
	fs.BoolVar(&cfg.setup, "setup", false, "Select microphone device (otherwise uses system default)")
	fs.StringVar(&cfg.file, "file", "", "Process an existing recording and exit")
	fs.StringVar(&cfg.simulate, "simulate", "", "Replay a WAV file as the microphone")
	fs.BoolVar(&cfg.tui, "tui", true, "Run with terminal UI")
	fs.BoolVar(&cfg.gui, "gui", false, "Run the desktop window (requires -tags gui)")
	fs.StringVar(&cfg.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.BoolVar(&cfg.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.file != "" && cfg.simulate != "" {
		return nil, fmt.Errorf("-file and -simulate cannot be combined")
	}
	if cfg.temperature < 0 || cfg.temperature > 2 {
		return nil, fmt.Errorf("-temperature must be between 0 and 2, got %v", cfg.temperature)
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if cfg.version {
		fmt.Printf("procrec %s\n", version)
		return
	}

	if err := initLogging(cfg.logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	var code int
	switch {
	case cfg.file != "":
		code = runFile(cfg)
	case cfg.gui:
		code = runGUI(cfg)
	default:
		code = run(cfg)
	}
	log.Close()
	os.Exit(code)
}

func initLogging(flagPath string) error {
	logPath, err := log.ResolveDir(flagPath)
	if err != nil {
		return fmt.Errorf("failed to resolve log directory: %w", err)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		return err
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if err := log.Init(); err != nil {
		return fmt.Errorf("could not init logging: %w", err)
	}
	return nil
}

func newPipeline(cfg *config, status func(string)) (*pipeline.Pipeline, string, error) {
	tr, err := transcriber.New(cfg.stt)
	if err != nil {
		return nil, "", err
	}
	if cfg.lang != "" {
		tr.SetLanguage(cfg.lang)
	}

	llm, err := completion.New(completion.Config{
		Provider:    cfg.llm,
		Model:       cfg.model,
		Temperature: cfg.temperature,
	})
	if err != nil {
		return nil, "", err
	}

	log.SessionStart(tr.Name(), llm.Name(), llm.Model())
	return pipeline.New(tr, llm, pipeline.WithStatus(status)), modeLineText(tr, llm), nil
}

func modeLineText(tr transcriber.Transcriber, llm completion.Completer) string {
	stt := tr.Name() + " " + tr.Model()
	if lang := tr.GetLanguage(); lang != "" {
		stt += " (" + lang + ")"
	}
	return fmt.Sprintf("[stt: %s | llm: %s %s]", stt, llm.Name(), llm.Model())
}

func deviceLineText(name string) string {
	if name == "" {
		name = "system default"
	}
	if audio.IsBluetooth(name) {
		name += " (BT!)"
	}
	return "mic: " + name
}

type recorderEnv struct {
	ctx      audio.Context
	capture  audio.CaptureDevice
	recorder *audio.Recorder
}

func (e *recorderEnv) Close() {
	e.capture.Close()
	e.ctx.Close()
}

func openRecorder(cfg *config) (*recorderEnv, error) {
	captureConfig := audio.DefaultCaptureConfig()

	var actx audio.Context
	if cfg.simulate != "" {
		fc, err := audio.NewFakeContext(cfg.simulate, true)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", cfg.simulate, err)
		}
		captureConfig = fc.Config()
		actx = fc
	} else {
		var err error
		actx, err = audio.NewContext()
		if err != nil {
			log.Errorf("audio context init error: %v", err)
			return nil, fmt.Errorf("initializing audio context: %w", err)
		}
	}

	var selected *audio.DeviceInfo
	if cfg.device != "" {
		dev, err := audio.FindDevice(actx, cfg.device)
		if err != nil || dev == nil {
			log.Warnf("device %q not available, using default", cfg.device)
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, falling back to default device\n", cfg.device)
		}
		selected = dev
	} else if cfg.setup {
		dev, err := audio.SelectDevice(actx)
		if errors.Is(err, audio.ErrSelectionAborted) {
			actx.Close()
			return nil, err
		}
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\nFalling back to default device\n", err)
		}
		selected = dev
	}

	capture, err := actx.NewCapture(selected, captureConfig)
	if err != nil {
		actx.Close()
		log.Errorf("capture device init error: %v", err)
		return nil, fmt.Errorf("initializing capture device: %w", err)
	}
	log.Info("recording_device: " + capture.DeviceName())

	return &recorderEnv{
		ctx:      actx,
		capture:  capture,
		recorder: audio.NewRecorder(capture, captureConfig, ""),
	}, nil
}

// runFile pushes an existing recording through the pipeline once.
func runFile(cfg *config) int {
	p, mode, err := newPipeline(cfg, sink.Status)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	sink.ModeLine(mode)

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	sink.Status(fmt.Sprintf("Transcribing %s...", cfg.file))
	_, err = p.Process(ctx, cfg.file)
	if err != nil {
		log.SessionEnd(0)
		return 1
	}
	log.SessionEnd(1)
	return 0
}

func run(cfg *config) int {
	if cfg.tui {
		sink = tuiSink{fallback: sink}
	}

	p, mode, err := newPipeline(cfg, func(text string) { sink.Status(text) })
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	env, err := openRecorder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer env.Close()

	session := pipeline.NewSession(p, env.recorder)

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	device := deviceLineText(env.capture.DeviceName())
	if cfg.tui {
		err = runTUI(ctx, session, mode, device)
	} else {
		sink.ModeLine(mode)
		sink.DeviceLine(device)
		runConsole(ctx, session, os.Stdin)
	}

	if session.State() == pipeline.StateProcessing {
		sink.Status("Waiting for the current recording to finish processing...")
	}
	session.Close()
	log.SessionEnd(session.Exported())

	if err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runTUI(ctx context.Context, session *pipeline.Session, mode, device string) error {
	prog := NewTUIProgram(ctx, session, mode, device)
	tuiMu.Lock()
	tuiProgram = prog
	tuiMu.Unlock()

	_, err := prog.Run()

	tuiMu.Lock()
	tuiProgram = nil
	tuiMu.Unlock()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// runConsole toggles recording on every line read from in until EOF or a
// termination signal.
func runConsole(ctx context.Context, session *pipeline.Session, in io.Reader) {
	sink.Status("Press Enter to start/stop recording, Ctrl+D to quit.")

	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-lines:
			if !ok {
				return
			}
			if err := session.Toggle(ctx); errors.Is(err, pipeline.ErrBusy) {
				sink.Status("Still processing the previous recording...")
			}
		}
	}
}
