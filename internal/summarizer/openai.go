package summarizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You summarize personal notes. Reply with a concise plain-text summary of at most %d sentences. Do not add facts that are not in the note."

// OpenAI summarizes through a chat-completion model.
type OpenAI struct {
	client       *openai.Client
	model        string
	maxSentences int
}

// NewOpenAI creates an OpenAI-backed Function. baseURL may be empty to use
// the public API.
func NewOpenAI(apiKey, baseURL, model string, maxSentences int) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client:       openai.NewClientWithConfig(cfg),
		model:        model,
		maxSentences: maxSentences,
	}
}

// Summarize implements Function.
func (o *OpenAI) Summarize(ctx context.Context, content string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, o.maxSentences)},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("summarizer: openai call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("summarizer: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
