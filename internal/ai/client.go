package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config configures the upstream endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client invokes study actions against the configured model.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient returns a Client. A zero timeout means 60s.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

// Invoke runs action over text. count applies to flashcard generation only.
func (c *Client) Invoke(ctx context.Context, action Action, text string, count int) (Result, error) {
	if c.cfg.APIKey == "" {
		return Result{}, ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}
	if count <= 0 {
		count = DefaultFlashcardCount
	}
	def, err := defFor(action, count)
	if err != nil {
		return Result{}, err
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: def.prompt},
			{Role: "user", Content: text},
		},
		Tools:      []tool{{Type: "function", Function: def.fn}},
		ToolChoice: toolChoice{Type: "function", Function: toolChoiceFunction{Name: def.fn.Name}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("ai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{}, ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return Result{}, ErrInsufficientCredits
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error("ai: gateway error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(snippet)))
		return Result{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("%w: decode body: %v", ErrInvalidResponse, err)
	}
	if len(out.Choices) == 0 || len(out.Choices[0].Message.ToolCalls) == 0 {
		return Result{}, fmt.Errorf("%w: no tool call", ErrInvalidResponse)
	}

	var result Result
	args := out.Choices[0].Message.ToolCalls[0].Function.Arguments
	if err := json.Unmarshal([]byte(args), &result); err != nil {
		return Result{}, fmt.Errorf("%w: decode arguments: %v", ErrInvalidResponse, err)
	}
	return result, nil
}

type actionDef struct {
	prompt string
	fn     function
}

func defFor(action Action, count int) (actionDef, error) {
	switch action {
	case ActionGenerateFlashcards:
		return actionDef{
			prompt: fmt.Sprintf(`You are an educational assistant that writes study flashcards.
Read the text and create flashcards with a question on the "front" and the answer on the "back".
Questions must test the important concepts of the text. Answers must be concise but complete.
Create exactly %d flashcards.`, count),
			fn: function{
				Name:        "create_flashcards",
				Description: "Create flashcards from the provided text",
				Parameters: object(map[string]any{
					"flashcards": arrayOf(object(map[string]any{
						"front": str("The question or prompt"),
						"back":  str("The answer or explanation"),
					}, "front", "back")),
				}, "flashcards"),
			},
		}, nil
	case ActionSummarizeNotes:
		return actionDef{
			prompt: `You are an educational assistant that summarizes study notes.
Write a clear, concise summary of the text that captures its main points and key concepts.
Use bullet points where appropriate. Answer in the language of the text.`,
			fn: function{
				Name:        "create_summary",
				Description: "Create a summary of the notes",
				Parameters: object(map[string]any{
					"summary": str("The summarized content"),
				}, "summary"),
			},
		}, nil
	case ActionSuggestKeywords:
		return actionDef{
			prompt: `You are an educational assistant that identifies keywords and important concepts.
Extract the most important keywords from the text and give a brief definition for each.
Return between 5 and 10 keywords.`,
			fn: function{
				Name:        "extract_keywords",
				Description: "Extract keywords from the text",
				Parameters: object(map[string]any{
					"keywords": arrayOf(object(map[string]any{
						"text":       str("The keyword or key phrase"),
						"definition": str("Brief definition or explanation"),
					}, "text", "definition")),
				}, "keywords"),
			},
		}, nil
	}
	return actionDef{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
}

// JSON schema helpers.

func object(props map[string]any, required ...string) map[string]any {
	return map[string]any{"type": "object", "properties": props, "required": required}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// Wire types for the chat completions API.

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []tool        `json:"tools"`
	ToolChoice toolChoice    `json:"tool_choice"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Type     string   `json:"type"`
	Function function `json:"function"`
}

type function struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type toolChoice struct {
	Type     string             `json:"type"`
	Function toolChoiceFunction `json:"function"`
}

type toolChoiceFunction struct {
	Name string `json:"name"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}
