package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/museumops/curio/common/redact"
	"github.com/museumops/curio/common/trace"
	"github.com/museumops/curio/internal/curio/memory"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second

	// historyTurns is how many recent messages are sent as context.
	historyTurns = 12
)

// Config configures the OpenAI-compatible chat assistant.
type Config struct {
	// APIKey is the bearer token for the API.
	APIKey string

	// BaseURL overrides the endpoint for local or hosted compatible APIs.
	// Defaults to https://api.openai.com/v1.
	BaseURL string

	// Model defaults to gpt-4o-mini.
	Model string

	// Timeout is the HTTP request timeout. Defaults to 30 s.
	Timeout time.Duration
}

// OpenAI implements Assistant with the chat completions API.
type OpenAI struct {
	cfg    Config
	client *http.Client
}

// NewOpenAI returns an assistant backed by an OpenAI-compatible API.
func NewOpenAI(cfg Config) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAI{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiRequest struct {
	Model     string       `json:"model"`
	Messages  []oaiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens,omitempty"`
}

type oaiResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

const systemPrompt = `You are Curio, the reporting assistant of a museum back office.
Staff ask you for reports about visitors, events, donations, cultural objects,
archives and finances. Report requests are handled by a separate workflow; you
only answer the remaining small talk and questions. Keep answers short. When the
user seems to want a report, tell them to ask for it directly, for example
"visitor report" or "donation list for last month". Never invent figures.`

// Reply implements Assistant.
func (o *OpenAI) Reply(ctx context.Context, history []memory.Message, text string) (string, error) {
	msgs := []oaiMessage{{Role: "system", Content: systemPrompt}}
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	for _, m := range history {
		role := "user"
		if m.Author == memory.AuthorAssistant {
			role = "assistant"
		}
		msgs = append(msgs, oaiMessage{Role: role, Content: m.Text})
	}
	msgs = append(msgs, oaiMessage{Role: "user", Content: text})

	data, err := json.Marshal(oaiRequest{Model: o.cfg.Model, Messages: msgs, MaxTokens: 400})
	if err != nil {
		return "", fmt.Errorf("assistant: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("assistant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	trace.Inject(ctx, req)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("assistant: read body: %w", err)
	}
	var out oaiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("assistant: decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("assistant: API error (%s): %s", out.Error.Type, redact.String(out.Error.Message, o.cfg.APIKey))
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("assistant: no choices returned (HTTP %d)", resp.StatusCode)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
