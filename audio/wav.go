package audio

import (
	"encoding/binary"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WriteWAV writes little-endian 16-bit PCM to path as a WAV file.
func WriteWAV(path string, pcm []byte, cfg CaptureConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	enc := wav.NewEncoder(f, int(cfg.SampleRate), BitsPerSample, int(cfg.Channels), wavFormatPCM)
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: int(cfg.Channels), SampleRate: int(cfg.SampleRate)},
		Data:           samples,
		SourceBitDepth: BitsPerSample,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("wav write: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("wav close: %w", err)
	}
	return f.Close()
}

// ReadWAV loads a 16-bit PCM WAV file and returns its samples as
// little-endian bytes together with the file's format.
func ReadWAV(path string) ([]byte, CaptureConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, CaptureConfig{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, CaptureConfig{}, fmt.Errorf("%s: not a valid wav file", path)
	}
	if dec.BitDepth != BitsPerSample {
		return nil, CaptureConfig{}, fmt.Errorf("%s: %d-bit audio, want %d-bit", path, dec.BitDepth, BitsPerSample)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, CaptureConfig{}, fmt.Errorf("%s: %w", path, err)
	}

	pcm := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s)))
	}
	cfg := CaptureConfig{SampleRate: dec.SampleRate, Channels: uint32(dec.NumChans)}
	return pcm, cfg, nil
}
