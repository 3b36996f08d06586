package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float32         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// ChatGPT is the optional cheaper text-only provider tried ahead of
// Gemini for plain-text and JSON requests without attachments.
type ChatGPT struct {
	APIKey string
	Model  string
	URL    string
	Client *http.Client
}

func NewChatGPT(apiKey, model string) *ChatGPT {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &ChatGPT{
		APIKey: apiKey,
		Model:  model,
		URL:    "https://api.openai.com/v1/chat/completions",
		Client: &http.Client{},
	}
}

// httpStatusError keeps the provider's status code so the gateway can
// classify the failure as transient or not.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.status, e.body)
}

func (c *ChatGPT) generate(ctx context.Context, req InferRequest) (string, error) {
	messages := make([]openAIMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})

	requestData := openAIRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		requestData.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request data: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{status: resp.StatusCode, body: string(body)}
	}

	var responseData struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &responseData); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(responseData.Choices) == 0 {
		return "", fmt.Errorf("unexpected response format")
	}
	return cleanModelOutput(responseData.Choices[0].Message.Content), nil
}

func (c *ChatGPT) backend() backend {
	return backend{
		name:     "openai/" + c.Model,
		textOnly: true,
		generate: c.generate,
	}
}
