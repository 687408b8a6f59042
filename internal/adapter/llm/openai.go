package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// OpenAI summarizes through an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	chat model.BaseChatModel
	caller
}

// NewOpenAI creates the chat model. APIKey is required.
func NewOpenAI(ctx context.Context, cfg Config, logger *slog.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("LLM_API_KEY is required for the openai summarizer")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	temp := float32(temperature)
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     baseURL,
		APIKey:      cfg.APIKey,
		Model:       modelName,
		Temperature: &temp,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return &OpenAI{chat: cm, caller: newCaller(ProviderOpenAI, cfg, logger)}, nil
}

// Summarize sends the system and user prompts and returns the reply text.
func (o *OpenAI) Summarize(ctx context.Context, system, prompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: prompt},
	}
	return o.do(ctx, func(ctx context.Context) (string, error) {
		resp, err := o.chat.Generate(ctx, messages)
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Content == "" {
			return "", errEmptyResponse
		}
		return resp.Content, nil
	})
}
