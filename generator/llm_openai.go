package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAILLM writes plans through chat completions. DeepSeek and other
// OpenAI-compatible providers are reached through LLMSettings.BaseURL.
type OpenAILLM struct {
	Model    string
	settings LLMSettings
	client   openai.Client
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s api key missing; provide llm.api_key or llm.api_key_env", cfg.Provider)
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAILLM{Model: cfg.Model, settings: *cfg, client: openai.NewClient(opts...)}, nil
}

// params turns a prompt into a chat request. Earlier feedback is replayed
// between the system rules and the current request.
func (o *OpenAILLM) params(prompt Prompt) openai.ChatCompletionNewParams {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt.System),
	}
	for _, h := range prompt.History {
		if h.Role == "assistant" {
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(h.Content))
			continue
		}
		msgs = append(msgs, openai.UserMessage(h.Content))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	p := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	}
	if o.settings.Temperature > 0 {
		p.Temperature = openai.Float(o.settings.Temperature)
	}
	if o.settings.MaxTokens > 0 {
		p.MaxCompletionTokens = openai.Int(o.settings.MaxTokens)
	}
	return p
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, o.params(prompt))
	if err != nil {
		return "", fmt.Errorf("%s: %w", o.settings.Provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices", o.settings.Provider)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		return "", fmt.Errorf("%s: plan cut off at the token limit", o.settings.Provider)
	}
	return strings.TrimSpace(choice.Message.Content), nil
}
