package upstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"goa.design/clue/log"
	"google.golang.org/api/option"

	"lingo-backend/internal/models"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// rateWait bounds how long a turn queues for a free Gemini slot.
const rateWait = time.Minute

type GeminiSource struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewGeminiSource(ctx context.Context, apiKey, modelName string, concurrentReqs int) (*GeminiSource, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.4)
	model.SetTopP(0.95)

	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiSource{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *GeminiSource) Close() error {
	return s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiSource) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(rateWait):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiSource) releaseRate() {
	s.rateChan <- struct{}{}
}

func (s *GeminiSource) Reply(ctx context.Context, req models.ChatRequest) (models.UpstreamReply, error) {
	if err := s.acquireRate(ctx); err != nil {
		return models.UpstreamReply{}, err
	}
	defer s.releaseRate()

	resp, err := s.model.GenerateContent(ctx, genai.Text(buildTutorPrompt(req)))
	if err != nil {
		return models.UpstreamReply{}, fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Print(ctx, log.KV{K: "msg", V: "gemini candidate stopped early"},
				log.KV{K: "candidate", V: i}, log.KV{K: "finish_reason", V: cand.FinishReason.String()})
		}
	}

	return models.UpstreamReply{Text: extractText(resp)}, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	// first candidate only
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
