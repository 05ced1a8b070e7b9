package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	groqAPIURL = "https://api.groq.com/openai/v1/audio/transcriptions"
	groqModel  = "whisper-large-v3-turbo"
)

type Groq struct {
	baseTranscriber
}

func NewGroq(apiKey string, opts ...Option) *Groq {
	return &Groq{baseTranscriber: newBase(groqAPIURL, apiKey, groqModel, opts)}
}

func (g *Groq) Name() string { return "groq" }

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

func (g *Groq) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	resp, up, err := g.post(ctx, audioPath, "verbose_json")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	res := newResult(gResp.Text, resp, up)
	if gResp.Duration > 0 {
		res.Duration = gResp.Duration
	}
	return res, nil
}
