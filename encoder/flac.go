// Package encoder compresses recorded PCM for upload.
package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const (
	BitsPerSample = 16
	BlockSize     = 4096
)

// Flac encodes mono 16-bit samples into an in-memory FLAC stream.
type Flac struct {
	buf         bytes.Buffer
	enc         *flac.Encoder
	sampleRate  uint32
	totalFrames uint64
}

func NewFlac(sampleRate uint32) (*Flac, error) {
	e := &Flac{sampleRate: sampleRate}
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    sampleRate,
		NChannels:     1,
		BitsPerSample: BitsPerSample,
	}
	enc, err := flac.NewEncoder(&e.buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	e.enc = enc
	return e, nil
}

// EncodeBlock writes one frame. Only the final block may be shorter than
// BlockSize.
func (e *Flac) EncodeBlock(block []int16) error {
	samples := make([]int32, len(block))
	for i, s := range block {
		samples[i] = int32(s)
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    e.sampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  len(block),
		}},
	}
	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *Flac) Close() error {
	return e.enc.Close()
}

func (e *Flac) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *Flac) TotalFrames() uint64 {
	return e.totalFrames
}

// EncodePCM compresses little-endian 16-bit mono PCM to FLAC.
func EncodePCM(pcm []byte, sampleRate uint32) ([]byte, error) {
	e, err := NewFlac(sampleRate)
	if err != nil {
		return nil, err
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	for start := 0; start < len(samples); start += BlockSize {
		end := min(start+BlockSize, len(samples))
		if err := e.EncodeBlock(samples[start:end]); err != nil {
			return nil, err
		}
	}
	if err := e.Close(); err != nil {
		return nil, fmt.Errorf("closing flac encoder: %w", err)
	}
	return e.Bytes(), nil
}
