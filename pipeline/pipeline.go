package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"procrec/completion"
	"procrec/log"
	"procrec/procedure"
	"procrec/transcriber"
)

// Result carries the output of every stage that ran.
type Result struct {
	Transcript string
	Reply      string
	Procedure  *procedure.Procedure
	OutputPath string
	Rows       int
}

type Pipeline struct {
	transcriber transcriber.Transcriber
	completer   completion.Completer
	outputPath  string
	status      func(string)
}

type Option func(*Pipeline)

func WithOutputPath(path string) Option {
	return func(p *Pipeline) { p.outputPath = path }
}

// WithStatus receives every user-facing progress and error message.
func WithStatus(fn func(string)) Option {
	return func(p *Pipeline) { p.status = fn }
}

func New(t transcriber.Transcriber, c completion.Completer, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcriber: t,
		completer:   c,
		outputPath:  procedure.DefaultOutputFile,
		status:      func(string) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) OutputPath() string { return p.outputPath }

func (p *Pipeline) report(msg string) {
	p.status(msg)
}

func (p *Pipeline) fail(stage Stage, err error) error {
	se := &StageError{Stage: stage, Err: err}
	log.Errorf("pipeline %s failed: %v", stage, err)
	p.report(StatusMessage(se))
	return se
}

// Process runs transcription, completion, parsing and export on a
// finished recording. It stops at the first failing stage and returns a
// *StageError alongside whatever was produced before it.
func (p *Pipeline) Process(ctx context.Context, audioPath string) (*Result, error) {
	res := &Result{}

	tr, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return res, p.fail(StageTranscribe, err)
	}
	if tr.Metrics != nil {
		log.TranscriptionMetrics(log.NetworkMetrics{
			AudioKB:      tr.AudioKB,
			RawKB:        tr.RawKB,
			Format:       tr.Format,
			AudioSeconds: tr.Duration,
			DNSMs:        ms(tr.Metrics.DNS),
			TLSMs:        ms(tr.Metrics.TLS),
			TTFBMs:       ms(tr.Metrics.TTFB),
			TotalMs:      ms(tr.Metrics.Sum()),
			WallMs:       ms(tr.Metrics.Total),
			ConnReused:   tr.Metrics.ConnReused,
			TLSProtocol:  tr.Metrics.TLSProtocol,
			RateLimit:    tr.RateLimit,
		}, p.transcriber.Name())
	}
	if strings.TrimSpace(tr.Text) == "" {
		return res, p.fail(StageTranscribe, ErrEmptyTranscript)
	}
	res.Transcript = tr.Text
	log.TranscriptionText(tr.Text)
	p.report("Transcription complete. Parsing procedure...")

	prompt := completion.BuildPrompt(tr.Text)
	start := time.Now()
	reply, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return res, p.fail(StageComplete, err)
	}
	log.Completion(p.completer.Name(), p.completer.Model(), len(prompt), len(reply), time.Since(start))
	if strings.TrimSpace(reply) == "" {
		return res, p.fail(StageComplete, ErrEmptyCompletion)
	}
	res.Reply = reply
	p.report("Procedure parsed. Exporting to CSV...")

	proc, err := parse(reply)
	if err != nil {
		return res, p.fail(StageParse, err)
	}
	st := proc.Stats()
	log.Procedure(st.Sections, st.Steps, st.Notes, st.Skipped)
	if proc.Empty() {
		return res, p.fail(StageParse, ErrEmptyProcedure)
	}
	res.Procedure = proc

	rows, err := procedure.Export(proc, p.outputPath)
	if err != nil {
		return res, p.fail(StageExport, err)
	}
	res.OutputPath = p.outputPath
	res.Rows = rows
	log.Export(p.outputPath, rows)
	p.report(fmt.Sprintf("Export complete! File saved as '%s'", p.outputPath))
	return res, nil
}

func parse(reply string) (proc *procedure.Procedure, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while parsing: %v", r)
		}
	}()
	return procedure.Parse(reply), nil
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
