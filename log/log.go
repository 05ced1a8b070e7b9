package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absPath(flagPath)
	}

	// Priority 2: PROCREC_LOG_PATH environment variable
	if envPath := os.Getenv("PROCREC_LOG_PATH"); envPath != "" {
		return absPath(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(stt, llm, model string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("stt", stt).
		Str("llm", llm).
		Str("model", model).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("session_end")
}

func Recording(path string, duration time.Duration, frames uint64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("path", path).
		Float64("duration_s", duration.Seconds()).
		Uint64("frames", frames).
		Msg("recording")
}

type NetworkMetrics struct {
	AudioKB      float64
	RawKB        float64
	Format       string
	AudioSeconds float64
	DNSMs        float64
	TLSMs        float64
	TTFBMs       float64
	TotalMs      float64 // sum of the traced phases
	WallMs       float64
	ConnReused   bool
	TLSProtocol  string
	RateLimit    string
}

func TranscriptionMetrics(m NetworkMetrics, provider string) {
	if !logReady {
		return
	}

	connStatus := "new"
	if m.ConnReused {
		connStatus = "reused"
	}
	compression := 0.0
	if m.RawKB > 0 {
		compression = (1 - m.AudioKB/m.RawKB) * 100
	}

	diagLog.Info().
		Str("provider", provider).
		Str("conn", connStatus).
		Str("tls", m.TLSProtocol).
		Str("format", m.Format).
		Float64("audio_s", m.AudioSeconds).
		Float64("raw_kb", m.RawKB).
		Float64("audio_kb", m.AudioKB).
		Float64("compression_pct", compression).
		Float64("dns_ms", m.DNSMs).
		Float64("tls_ms", m.TLSMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalMs).
		Float64("wall_ms", m.WallMs).
		Str("rate_limit", m.RateLimit).
		Msg("transcription")
}

func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}

func Completion(provider, model string, promptChars, replyChars int, elapsed time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("provider", provider).
		Str("model", model).
		Int("prompt_chars", promptChars).
		Int("reply_chars", replyChars).
		Int64("total_ms", elapsed.Milliseconds()).
		Msg("completion")
}

func Procedure(sections, steps, notes, skipped int) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if skipped > 0 {
		ev = diagLog.Warn()
	}
	ev.Int("sections", sections).
		Int("steps", steps).
		Int("notes", notes).
		Int("skipped_lines", skipped).
		Msg("procedure")
}

func Export(path string, rows int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("path", path).
		Int("rows", rows).
		Msg("export")
}
