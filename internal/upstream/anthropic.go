package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"lingo-backend/internal/models"
)

const (
	DefaultAnthropicModel = "claude-sonnet-4-5"

	anthropicMaxTokens = 1024
)

// MessagesClient is the part of the Anthropic SDK the source calls. It is
// satisfied by *sdk.MessageService.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

type AnthropicSource struct {
	msg   MessagesClient
	model string
}

func NewAnthropicSource(msg MessagesClient, model string) *AnthropicSource {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicSource{msg: msg, model: model}
}

// NewAnthropicSourceFromAPIKey builds a source on the default SDK HTTP client.
func NewAnthropicSourceFromAPIKey(apiKey, model string) (*AnthropicSource, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicSource(&client.Messages, model), nil
}

func (s *AnthropicSource) Reply(ctx context.Context, req models.ChatRequest) (models.UpstreamReply, error) {
	params := sdk.MessageNewParams{
		MaxTokens: anthropicMaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(buildTutorPrompt(req))),
		},
		Model: sdk.Model(s.model),
	}

	msg, err := s.msg.New(ctx, params)
	if err != nil {
		return models.UpstreamReply{}, fmt.Errorf("anthropic messages.new: %w", err)
	}
	if msg == nil {
		return models.UpstreamReply{}, nil
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return models.UpstreamReply{Text: text.String()}, nil
}
