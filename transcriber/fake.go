package transcriber

import (
	"context"
	"fmt"
	"os"
)

type FakeTranscriber struct {
	text  string
	err   error
	lang  string
	Calls []string
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, err: err}
}

func (f *FakeTranscriber) Name() string           { return "fake" }
func (f *FakeTranscriber) Model() string          { return "fake" }
func (f *FakeTranscriber) SetLanguage(lang string) { f.lang = lang }
func (f *FakeTranscriber) GetLanguage() string     { return f.lang }

func (f *FakeTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	f.Calls = append(f.Calls, audioPath)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, fmt.Errorf("fake transcriber error: %w", f.err)
	}
	var kb float64
	if st, err := os.Stat(audioPath); err == nil {
		kb = float64(st.Size()) / 1024
	}
	return &Result{
		Text:    f.text,
		Metrics: &NetworkMetrics{},
		AudioKB: kb,
	}, nil
}
