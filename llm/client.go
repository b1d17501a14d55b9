package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// systemMessage is the default system message for the market coach
const systemMessage = "You are a patient financial educator. Explain the provided metrics in plain language, " +
	"using only the numbers you are given. Never invent news, never predict prices, and never recommend " +
	"buying or selling. Keep it short and end by reminding the reader this is education, not advice."

const (
	coachTemperature = 0.4
	coachMaxTokens   = 600
)

// Client is an OpenAI-compatible LLM client
type Client struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewClient creates a new LLM client
func NewClient(endpoint, apiKey, model string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client: &http.Client{
			Transport: transport,
			// No timeout, the caller's context controls it
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest carries only what the coach sets
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// chatResponse keeps the first choice's text and why generation stopped
type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Analyze sends the prompt with the coach system message and returns the
// reply. A reply cut off by the token limit is trimmed to its last full sentence.
func (c *Client) Analyze(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: prompt},
		},
		Temperature: coachTemperature,
		MaxTokens:   coachMaxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.Errorf("API error %d: %s", resp.StatusCode, string(msg))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}

	choice := chatResp.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)
	if choice.FinishReason == "length" {
		text = trimToSentence(text)
	}
	if text == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}

// trimToSentence drops a trailing partial sentence
func trimToSentence(text string) string {
	if i := strings.LastIndexAny(text, ".!?"); i >= 0 {
		return text[:i+1]
	}
	return text
}
