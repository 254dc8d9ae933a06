// Package upstream provides the reply sources a chat turn can be answered by:
// the NLP worker over HTTP, Gemini, Anthropic, or a local mock. Every source
// makes one blocking round trip and returns the complete reply text.
package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"lingo-backend/internal/models"
)

const (
	ProviderHTTP      = "http"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

type Source interface {
	Reply(ctx context.Context, req models.ChatRequest) (models.UpstreamReply, error)
}

type Options struct {
	Provider string

	NLPWorkerURL string
	HTTPClient   *http.Client

	GeminiAPIKey      string
	GeminiModel       string
	GeminiConcurrency int

	AnthropicAPIKey string
	AnthropicModel  string
}

// New builds the source named by opts.Provider. Sources holding network
// clients also implement io.Closer.
func New(ctx context.Context, opts Options) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderHTTP:
		return NewHTTPSource(opts.NLPWorkerURL, opts.HTTPClient), nil
	case ProviderGemini:
		if opts.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for provider %q", ProviderGemini)
		}
		src, err := NewGeminiSource(ctx, opts.GeminiAPIKey, opts.GeminiModel, opts.GeminiConcurrency)
		if err != nil {
			return nil, err
		}
		return src, nil
	case ProviderAnthropic:
		if opts.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", ProviderAnthropic)
		}
		src, err := NewAnthropicSourceFromAPIKey(opts.AnthropicAPIKey, opts.AnthropicModel)
		if err != nil {
			return nil, err
		}
		return src, nil
	case ProviderMock:
		return MockSource{}, nil
	default:
		return nil, fmt.Errorf("unknown upstream provider %q", opts.Provider)
	}
}
