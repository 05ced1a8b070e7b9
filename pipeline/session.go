package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"procrec/audio"
	"procrec/log"
)

// Recorder is the capture side of a session. *audio.Recorder satisfies it.
type Recorder interface {
	Start() error
	Stop() (audio.Recording, error)
	Recording() bool
	Elapsed() time.Duration
}

type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	}
	return "idle"
}

// Session is the record button: each Toggle either starts a capture or
// stops it and hands the file to the pipeline in the background.
type Session struct {
	pipeline *Pipeline
	recorder Recorder

	toggleMu sync.Mutex

	mu         sync.Mutex
	processing bool
	exported   int
	last       *Result
	lastErr    error
	wg         sync.WaitGroup
}

func NewSession(p *Pipeline, r Recorder) *Session {
	return &Session{pipeline: p, recorder: r}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return StateProcessing
	}
	if s.recorder.Recording() {
		return StateRecording
	}
	return StateIdle
}

// Elapsed is the length of the capture in progress.
func (s *Session) Elapsed() time.Duration {
	return s.recorder.Elapsed()
}

// Exported counts recordings that made it all the way to the CSV file.
func (s *Session) Exported() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exported
}

// Last returns the outcome of the most recent processing run.
func (s *Session) Last() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastErr
}

func (s *Session) Toggle(ctx context.Context) error {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return ErrBusy
	}
	s.mu.Unlock()

	if s.recorder.Recording() {
		return s.stop(ctx)
	}
	return s.start()
}

func (s *Session) start() error {
	if err := s.recorder.Start(); err != nil {
		return s.pipeline.fail(StageRecord, err)
	}
	log.Info("recording started")
	s.pipeline.report("Recording started...")
	return nil
}

func (s *Session) stop(ctx context.Context) error {
	s.mu.Lock()
	s.processing = true
	s.mu.Unlock()

	rec, err := s.recorder.Stop()
	if err != nil {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
		return s.pipeline.fail(StageRecord, err)
	}
	log.Recording(rec.Path, rec.Duration, rec.Frames)
	s.pipeline.report(fmt.Sprintf("Recording finished. Duration: %s. Transcribing audio...", audio.FormatDuration(rec.Duration)))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res, err := s.pipeline.Process(ctx, rec.Path)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.processing = false
		s.last, s.lastErr = res, err
		if err == nil {
			s.exported++
		}
	}()
	return nil
}

// Wait blocks until background processing has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close stops a capture that is still running without processing it and
// waits for any in-flight processing.
func (s *Session) Close() {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()
	if s.recorder.Recording() {
		if rec, err := s.recorder.Stop(); err != nil {
			log.Errorf("stopping recorder on close: %v", err)
		} else {
			log.Recording(rec.Path, rec.Duration, rec.Frames)
		}
	}
	s.wg.Wait()
}
