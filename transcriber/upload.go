package transcriber

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"procrec/audio"
	"procrec/encoder"
)

// upload is the audio body sent to the provider.
type upload struct {
	data     []byte
	name     string
	format   string  // "flac", or the file extension when sent as-is
	rawBytes int     // size of the file on disk
	seconds  float64 // audio length, 0 when unknown
}

// prepareUpload reads the recording and, unless raw is set, compresses a
// mono 16-bit WAV to FLAC. Anything that cannot be decoded or encoded goes
// out unchanged. The file on disk is never modified.
func prepareUpload(audioPath string, raw bool) (*upload, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}

	base := filepath.Base(audioPath)
	ext := filepath.Ext(base)
	up := &upload{
		data:     data,
		name:     base,
		format:   strings.TrimPrefix(strings.ToLower(ext), "."),
		rawBytes: len(data),
	}
	if raw || !strings.EqualFold(ext, ".wav") {
		return up, nil
	}

	pcm, cfg, err := audio.ReadWAV(audioPath)
	if err != nil || cfg.Channels != 1 || cfg.SampleRate == 0 {
		return up, nil
	}
	up.seconds = float64(len(pcm)/2) / float64(cfg.SampleRate)

	flacData, err := encoder.EncodePCM(pcm, cfg.SampleRate)
	if err != nil {
		return up, nil
	}
	up.data = flacData
	up.name = strings.TrimSuffix(base, ext) + ".flac"
	up.format = "flac"
	return up, nil
}
