package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

var (
	ErrRecording    = errors.New("already recording")
	ErrNotRecording = errors.New("not recording")
)

// Recording describes a finished capture written to disk.
type Recording struct {
	Path     string
	Duration time.Duration
	Frames   uint64
}

// Recorder buffers PCM from a capture device between Start and Stop and
// writes it out as recorded_audio_<timestamp>.wav.
type Recorder struct {
	capture CaptureDevice
	config  CaptureConfig
	dir     string
	now     func() time.Time

	mu        sync.Mutex
	pcm       []byte
	frames    uint64
	recording bool
	started   time.Time
	stopped   chan struct{}
}

// NewRecorder writes recordings into dir ("" means the working directory).
func NewRecorder(capture CaptureDevice, config CaptureConfig, dir string) *Recorder {
	return &Recorder{capture: capture, config: config, dir: dir, now: time.Now}
}

func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrRecording
	}
	r.recording = true
	r.pcm = r.pcm[:0]
	r.frames = 0
	r.started = r.now()
	stopped := make(chan struct{})
	r.stopped = stopped
	r.mu.Unlock()

	r.capture.SetCallback(func(data []byte, frameCount uint32) {
		select {
		case <-stopped:
			return
		default:
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.stopped != stopped {
			return
		}
		r.pcm = append(r.pcm, data...)
		r.frames += uint64(frameCount)
	})

	if err := r.capture.Start(); err != nil {
		r.capture.ClearCallback()
		r.mu.Lock()
		r.recording = false
		close(stopped)
		r.stopped = nil
		r.mu.Unlock()
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Elapsed returns the wall-clock time since Start, or 0 when idle.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return 0
	}
	return r.now().Sub(r.started)
}

// Stop ends the capture and writes the buffered audio to disk.
func (r *Recorder) Stop() (Recording, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return Recording{}, ErrNotRecording
	}
	close(r.stopped)
	r.mu.Unlock()

	r.capture.ClearCallback()
	r.capture.Stop()

	r.mu.Lock()
	end := r.now()
	rec := Recording{
		Path:     filepath.Join(r.dir, FileName(end)),
		Duration: end.Sub(r.started),
		Frames:   r.frames,
	}
	pcm := make([]byte, len(r.pcm))
	copy(pcm, r.pcm)
	r.recording = false
	r.stopped = nil
	r.mu.Unlock()

	if err := WriteWAV(rec.Path, pcm, r.config); err != nil {
		return Recording{}, err
	}
	return rec, nil
}

// FileName is the recording file name for a capture that ended at t.
func FileName(t time.Time) string {
	return "recorded_audio_" + t.Format("20060102_150405") + ".wav"
}

// FormatDuration renders d as H:MM:SS, truncated to whole seconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
}
