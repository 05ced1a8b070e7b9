package audio

import (
	"sync"
	"time"
)

const fakeFrameSize = 1024

// FakeContext replays a WAV file as if it came from a microphone.
type FakeContext struct {
	pcm      []byte
	config   CaptureConfig
	realtime bool
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	pcm, cfg, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	return &FakeContext{pcm: pcm, config: cfg, realtime: realtime}, nil
}

// NewFakeContextPCM replays raw 16-bit mono PCM.
func NewFakeContextPCM(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, config: DefaultCaptureConfig(), realtime: realtime}
}

// Config is the format of the replayed audio.
func (f *FakeContext) Config() CaptureConfig { return f.config }

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime, rate: f.config.SampleRate}, nil
}

// FakeCapture delivers its PCM in fakeFrameSize chunks. Without realtime
// the whole buffer is delivered synchronously inside Start; with realtime
// it is paced at the sample rate on a goroutine.
type FakeCapture struct {
	pcm      []byte
	realtime bool
	rate     uint32

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos int) int {
	end := min(pos+fakeFrameSize*BytesPerFrame, len(f.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/BytesPerFrame))
	return end
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	if !f.realtime {
		if cb := f.callback(); cb != nil {
			for pos := 0; pos < len(f.pcm); {
				pos = f.feedChunk(cb, pos)
			}
		}
		close(f.feedDone)
		return nil
	}

	rate := f.rate
	if rate == 0 {
		rate = SampleRate
	}
	interval := time.Duration(fakeFrameSize) * time.Second / time.Duration(rate)
	go func() {
		defer close(f.feedDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for pos := 0; pos < len(f.pcm); {
			select {
			case <-f.stopCh:
				return
			case <-ticker.C:
			}
			if cb := f.callback(); cb != nil {
				pos = f.feedChunk(cb, pos)
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() { f.Stop() }
