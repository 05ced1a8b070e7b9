package completion

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"

	DefaultTemperature = 0.25

	groqBaseURL       = "https://api.groq.com/openai/v1"
	defaultOllamaHost = "http://localhost:11434"
)

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4",
	ProviderGroq:   "llama-3.3-70b-versatile",
	ProviderOllama: "llama3.1",
}

// Completer turns a prompt into the model's reply text.
type Completer interface {
	Name() string
	Model() string
	Complete(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Provider    string
	Model       string
	Temperature float64
	// BaseURL overrides the provider endpoint. For Ollama it is the server URL.
	BaseURL string
}

// LLM is a Completer backed by a langchaingo chat model.
type LLM struct {
	llm         llms.Model
	provider    string
	modelName   string
	temperature float64
}

// New builds a Completer from cfg. An empty provider selects OpenAI when
// OPENAI_API_KEY is set and Groq otherwise.
func New(cfg Config) (*LLM, error) {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	groqKey := os.Getenv("GROQ_API_KEY")

	if cfg.Provider == "" {
		switch {
		case openaiKey != "":
			cfg.Provider = ProviderOpenAI
		case groqKey != "":
			cfg.Provider = ProviderGroq
		default:
			return nil, fmt.Errorf("set OPENAI_API_KEY or GROQ_API_KEY environment variable")
		}
	}
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}

	var model llms.Model
	var err error

	switch cfg.Provider {
	case ProviderOpenAI:
		if openaiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		opts := []openai.Option{openai.WithToken(openaiKey), openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case ProviderGroq:
		if groqKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is not set")
		}
		baseURL := groqBaseURL
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		model, err = openai.New(
			openai.WithToken(groqKey),
			openai.WithModel(cfg.Model),
			openai.WithBaseURL(baseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("create groq model: %w", err)
		}

	case ProviderOllama:
		host := cfg.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = defaultOllamaHost
		}
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(host),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}

	return &LLM{
		llm:         model,
		provider:    cfg.Provider,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (l *LLM) Name() string { return l.provider }

func (l *LLM) Model() string { return l.modelName }

func (l *LLM) Complete(ctx context.Context, prompt string) (string, error) {
	reply, err := llms.GenerateFromSinglePrompt(ctx, l.llm, prompt, llms.WithTemperature(l.temperature))
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", l.provider, err)
	}
	return reply, nil
}
