package pipeline

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageRecord     Stage = "record"
	StageTranscribe Stage = "transcribe"
	StageComplete   Stage = "complete"
	StageParse      Stage = "parse"
	StageExport     Stage = "export"
)

var (
	ErrEmptyTranscript = errors.New("transcription returned no text")
	ErrEmptyCompletion = errors.New("completion returned no text")
	ErrEmptyProcedure  = errors.New("reply contained no sections or steps")
	ErrBusy            = errors.New("still processing the previous recording")
)

// StageError reports which stage stopped the pipeline.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StatusMessage renders a pipeline failure the way it is shown to the user.
func StatusMessage(err error) string {
	var se *StageError
	if !errors.As(err, &se) {
		return fmt.Sprintf("Error: %v", err)
	}
	switch se.Stage {
	case StageRecord:
		return fmt.Sprintf("Error recording: %v", se.Err)
	case StageTranscribe:
		return "Error in transcription."
	case StageComplete:
		return "Error in completion response."
	case StageParse:
		return "Error parsing procedure."
	case StageExport:
		return fmt.Sprintf("Error exporting to CSV: %v", se.Err)
	}
	return fmt.Sprintf("Error: %v", se.Err)
}
