package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMaxTokens   = 4096
	defaultTemperature = 0.2
)

var (
	ErrMissingAPIKey   = errors.New("ai api key is missing")
	ErrEmptyCompletion = errors.New("ai response has no content")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client отправляет сообщения модели и возвращает текст ответа и сырой ответ API.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, []byte, error)
}

// ProviderError описывает не-2xx ответ провайдера.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.Status, e.Message)
}

// apiErrorBody общий для Groq и Gemini формат тела ошибки.
type apiErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// endpoint хранит общие для провайдеров параметры подключения.
type endpoint struct {
	provider   string
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

func newEndpoint(provider, apiKey, baseURL, model string, timeout time.Duration, maxTokens int) endpoint {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return endpoint{
		provider:   provider,
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// post отправляет payload и декодирует успешный ответ в out.
// Сырое тело возвращается всегда, когда оно было прочитано.
func (e endpoint) post(ctx context.Context, url string, headers http.Header, payload, out interface{}) ([]byte, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", e.provider, ErrMissingAPIKey)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", e.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = headers.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", e.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", e.provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, e.providerError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return raw, fmt.Errorf("decode %s response: %w", e.provider, err)
	}

	return raw, nil
}

func (e endpoint) providerError(status int, raw []byte) error {
	message := strings.TrimSpace(string(raw))

	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil && strings.TrimSpace(body.Error.Message) != "" {
		message = body.Error.Message
	}

	return &ProviderError{Provider: e.provider, Status: status, Message: message}
}
