package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"flowdiagram/internal/domain/entity"
	"flowdiagram/internal/domain/repository"
	"flowdiagram/internal/infrastructure/metrics"
)

// ErrInvalidModelJSON is returned when the model content cannot be parsed
// as a JSON object. No recovery is attempted.
var ErrInvalidModelJSON = errors.New("model returned invalid JSON")

type ChatGenerator struct {
	apiKey      string
	baseURL     string
	model       string
	client      *http.Client
	temperature float64
}

func NewChatGenerator(apiKey, baseURL, model string, timeout time.Duration) repository.DiagramGenerator {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &ChatGenerator{
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		client:      &http.Client{Timeout: timeout},
		temperature: 0.2,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *ChatGenerator) GenerateDiagram(ctx context.Context, flow string, prompt entity.Prompt) (entity.GenerationResult, error) {
	metrics.IncLLMRequest(g.model)

	request := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User(flow)},
		},
		Temperature:    g.temperature,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	content, err := g.makeRequest(ctx, request)
	if err != nil {
		metrics.IncError("llm", "make_request")
		return entity.GenerationResult{}, err
	}

	result, err := g.parseContent(content)
	if err != nil {
		metrics.IncError("llm", "parse_content")
		return entity.GenerationResult{}, err
	}

	return result, nil
}

func (g *ChatGenerator) makeRequest(ctx context.Context, request chatRequest) (string, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		metrics.IncError("llm", "marshal_request")
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		metrics.IncError("llm", "create_request")
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.IncError("llm", "http_do")
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		err := resp.Body.Close()
		if err != nil {
			log.Printf("close body err: %s", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		metrics.IncError("llm", fmt.Sprintf("api_error_%d", resp.StatusCode))
		return "", fmt.Errorf("chat api error: %d - %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		metrics.IncError("llm", "decode_response")
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("invalid response format: no choices")
	}

	return response.Choices[0].Message.Content, nil
}

// parseContent extracts the two expected fields from the model content.
// Missing or wrongly-typed fields default to empty strings.
func (g *ChatGenerator) parseContent(content string) (entity.GenerationResult, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return entity.GenerationResult{}, ErrInvalidModelJSON
	}

	mermaid, _ := payload["mermaid"].(string)
	notes, _ := payload["notes"].(string)

	return entity.GenerationResult{
		Mermaid: mermaid,
		Notes:   notes,
	}, nil
}
