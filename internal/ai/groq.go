package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// GroqClient работает с OpenAI-совместимым API Groq.
type GroqClient struct {
	endpoint
}

type groqChatRequest struct {
	Model          string              `json:"model"`
	Messages       []Message           `json:"messages"`
	Temperature    float64             `json:"temperature,omitempty"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *groqResponseFormat `json:"response_format,omitempty"`
}

type groqResponseFormat struct {
	Type string `json:"type"`
}

type groqChatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// NewGroqClient создает клиент Groq с заданными параметрами.
func NewGroqClient(apiKey, baseURL, model string, timeout time.Duration, maxTokens int) *GroqClient {
	return &GroqClient{endpoint: newEndpoint("groq", apiKey, baseURL, model, timeout, maxTokens)}
}

// Chat отправляет сообщения в Groq в режиме JSON-ответа.
func (c *GroqClient) Chat(ctx context.Context, messages []Message) (string, []byte, error) {
	payload := groqChatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    defaultTemperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: &groqResponseFormat{Type: "json_object"},
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)

	var parsed groqChatResponse
	raw, err := c.post(ctx, c.baseURL+"/chat/completions", headers, payload, &parsed)
	if err != nil {
		return "", raw, err
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", raw, fmt.Errorf("groq: %w", ErrEmptyCompletion)
	}

	return parsed.Choices[0].Message.Content, raw, nil
}
