package completion

import (
	"context"
	"fmt"
)

type FakeCompleter struct {
	reply   string
	err     error
	Prompts []string
}

func NewFake(reply string, err error) *FakeCompleter {
	return &FakeCompleter{reply: reply, err: err}
}

func (f *FakeCompleter) Name() string  { return "fake" }
func (f *FakeCompleter) Model() string { return "fake" }

func (f *FakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.Prompts = append(f.Prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", fmt.Errorf("fake completer error: %w", f.err)
	}
	return f.reply, nil
}
