package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type Result struct {
	Text      string
	Metrics   *NetworkMetrics
	RateLimit string
	AudioKB   float64 // uploaded size
	RawKB     float64 // recording size on disk
	Format    string  // upload encoding
	Duration  float64 // audio seconds
}

func newResult(text string, resp *TracedResponse, up *upload) *Result {
	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")
	return &Result{
		Text:      text,
		Metrics:   resp.Metrics,
		RateLimit: remaining + "/" + limit,
		AudioKB:   float64(len(up.data)) / 1024,
		RawKB:     float64(up.rawBytes) / 1024,
		Format:    up.format,
		Duration:  up.seconds,
	}
}

// Transcriber turns a recorded audio file into text.
type Transcriber interface {
	Name() string
	Model() string
	SetLanguage(lang string)
	GetLanguage() string
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

type Option func(*baseTranscriber)

// WithAPIURL points the client at a different transcription endpoint.
func WithAPIURL(url string) Option {
	return func(b *baseTranscriber) { b.apiURL = url }
}

func WithModel(model string) Option {
	return func(b *baseTranscriber) { b.model = model }
}

// WithRawUpload sends the recording as-is instead of compressing it.
func WithRawUpload() Option {
	return func(b *baseTranscriber) { b.raw = true }
}

type baseTranscriber struct {
	client *TracedClient
	apiURL string
	apiKey string
	model  string
	lang   string
	raw    bool
}

func newBase(apiURL, apiKey, model string, opts []Option) baseTranscriber {
	b := baseTranscriber{
		client: NewTracedClient(),
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *baseTranscriber) SetLanguage(lang string) { b.lang = lang }

func (b *baseTranscriber) GetLanguage() string { return b.lang }

func (b *baseTranscriber) Model() string { return b.model }

// post uploads the recording as a multipart form in the shape shared by
// the OpenAI-compatible transcription endpoints.
func (b *baseTranscriber) post(ctx context.Context, audioPath, responseFormat string) (*TracedResponse, *upload, error) {
	up, err := prepareUpload(audioPath, b.raw)
	if err != nil {
		return nil, nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", up.name)
	if err != nil {
		return nil, nil, err
	}
	if _, err := part.Write(up.data); err != nil {
		return nil, nil, err
	}

	writer.WriteField("model", b.model)
	writer.WriteField("response_format", responseFormat)
	if b.lang != "" {
		writer.WriteField("language", b.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", b.apiURL, &body)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	return resp, up, nil
}

// New picks a provider by name. An empty name selects OpenAI when
// OPENAI_API_KEY is set and Groq otherwise.
func New(provider string, opts ...Option) (Transcriber, error) {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	groqKey := os.Getenv("GROQ_API_KEY")

	if provider == "" {
		switch {
		case openaiKey != "":
			provider = "openai"
		case groqKey != "":
			provider = "groq"
		default:
			return nil, fmt.Errorf("set OPENAI_API_KEY or GROQ_API_KEY environment variable")
		}
	}

	switch provider {
	case "openai":
		if openaiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return NewOpenAI(openaiKey, opts...), nil
	case "groq":
		if groqKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is not set")
		}
		return NewGroq(groqKey, opts...), nil
	}
	return nil, fmt.Errorf("unknown transcription provider %q", provider)
}
