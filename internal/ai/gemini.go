package ai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// GeminiClient работает с Google Generative Language API.
type GeminiClient struct {
	endpoint
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiConfig    `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

var errNoUserContent = errors.New("gemini request has no user content")

// NewGeminiClient создает клиент Gemini с заданными параметрами.
func NewGeminiClient(apiKey, baseURL, model string, timeout time.Duration, maxTokens int) *GeminiClient {
	return &GeminiClient{endpoint: newEndpoint("gemini", apiKey, baseURL, model, timeout, maxTokens)}
}

// Chat отправляет сообщения в Gemini; системные сообщения уходят в systemInstruction.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (string, []byte, error) {
	payload, err := buildGeminiRequest(messages, c.maxTokens)
	if err != nil {
		return "", nil, err
	}

	target := c.baseURL + "/models/" + url.PathEscape(c.model) + ":generateContent?key=" + url.QueryEscape(c.apiKey)

	var parsed geminiResponse
	raw, err := c.post(ctx, target, nil, payload, &parsed)
	if err != nil {
		return "", raw, err
	}

	for _, candidate := range parsed.Candidates {
		if text := joinParts(candidate.Content.Parts); text != "" {
			return text, raw, nil
		}
	}

	return "", raw, fmt.Errorf("gemini: %w", ErrEmptyCompletion)
}

func buildGeminiRequest(messages []Message, maxTokens int) (geminiRequest, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	request := geminiRequest{
		GenerationConfig: geminiConfig{
			Temperature:      defaultTemperature,
			MaxOutputTokens:  maxTokens,
			ResponseMimeType: "application/json",
		},
	}

	var system []geminiPart
	for _, message := range messages {
		text := strings.TrimSpace(message.Content)
		if text == "" {
			continue
		}

		role := geminiRole(message.Role)
		if role == "system" {
			system = append(system, geminiPart{Text: text})
			continue
		}
		request.Contents = append(request.Contents, geminiContent{Role: role, Parts: []geminiPart{{Text: text}}})
	}

	if len(request.Contents) == 0 {
		return geminiRequest{}, errNoUserContent
	}
	if len(system) > 0 {
		request.SystemInstruction = &geminiContent{Parts: system}
	}

	return request, nil
}

// geminiRole переводит роль OpenAI-формата в роль Gemini.
func geminiRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "system":
		return "system"
	case "assistant", "model":
		return "model"
	default:
		return "user"
	}
}

func joinParts(parts []geminiPart) string {
	var builder strings.Builder
	for _, part := range parts {
		builder.WriteString(part.Text)
	}
	return strings.TrimSpace(builder.String())
}
