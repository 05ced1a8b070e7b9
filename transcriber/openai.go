package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	openaiAPIURL = "https://api.openai.com/v1/audio/transcriptions"
	openaiModel  = "whisper-1"
)

type OpenAI struct {
	baseTranscriber
}

func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	return &OpenAI{baseTranscriber: newBase(openaiAPIURL, apiKey, openaiModel, opts)}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	resp, up, err := o.post(ctx, audioPath, "json")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("openai API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var oResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &oResp); err != nil {
		return nil, fmt.Errorf("openai response parse error: %w", err)
	}

	return newResult(oResp.Text, resp, up), nil
}
