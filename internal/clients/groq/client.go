// Package groq provides a client for the Groq chat-completions API, used to
// generate farmer-facing recommendations and to parse voice commands.
package groq

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/settings"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
)

// ErrNotConfigured is returned when no API key is available. Callers fall
// back to rule-based output.
var ErrNotConfigured = errors.New("groq API key not configured")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// Client is the Groq chat-completions client. The API key lives in the
// settings database so it can be rotated at runtime without a restart.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
	settings   *settings.Repository

	mu     sync.RWMutex
	apiKey string
}

// NewClient creates a Groq client and loads the API key from settings.
// settingsRepo is optional; if nil the client stays unconfigured.
func NewClient(settingsRepo *settings.Repository, log zerolog.Logger) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:      log.With().Str("client", "groq").Logger(),
		settings: settingsRepo,
	}
	c.RefreshCredentials()
	return c
}

// SetModel overrides the default chat model.
func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// RefreshCredentials re-reads the API key from the settings database.
// Called after a settings update.
func (c *Client) RefreshCredentials() {
	if c.settings == nil {
		return
	}

	key, err := c.settings.Get(settings.KeyGroqAPIKey)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to read Groq API key from settings")
		return
	}

	c.mu.Lock()
	if key != nil {
		c.apiKey = *key
	} else {
		c.apiKey = ""
	}
	configured := c.apiKey != ""
	c.mu.Unlock()

	c.log.Debug().Bool("configured", configured).Msg("Groq credentials refreshed")
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// Complete sends a chat completion request and returns the raw assistant
// content. jsonMode asks the API for a JSON object response.
func (c *Client) Complete(messages []Message, temperature float64, jsonMode bool) (string, error) {
	c.mu.RLock()
	apiKey := c.apiKey
	c.mu.RUnlock()
	if apiKey == "" {
		return "", ErrNotConfigured
	}

	chatReq := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	}
	if jsonMode {
		chatReq.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	c.log.Debug().Float64("temperature", temperature).Bool("json_mode", jsonMode).Msg("Making Groq request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("groq API error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("groq API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("groq API returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// CompleteJSON runs a system+user prompt in JSON mode and unmarshals the
// completion into v, tolerating prose around the JSON object.
func (c *Client) CompleteJSON(systemPrompt, userPrompt string, temperature float64, v interface{}) error {
	content, err := c.Complete([]Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, temperature, true)
	if err != nil {
		return err
	}
	return UnmarshalLoose(content, v)
}

// ExtractJSON returns the substring from the first '{' to the last '}' in s,
// or "" when s contains no JSON object. Models occasionally wrap their JSON
// in prose despite JSON-mode prompts.
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

// UnmarshalLoose unmarshals content into v, falling back to the first
// brace-delimited object when the content is not pure JSON.
func UnmarshalLoose(content string, v interface{}) error {
	if err := json.Unmarshal([]byte(content), v); err == nil {
		return nil
	}

	extracted := ExtractJSON(content)
	if extracted == "" {
		return fmt.Errorf("completion contains no JSON object: %q", truncate(content, 120))
	}
	if err := json.Unmarshal([]byte(extracted), v); err != nil {
		return fmt.Errorf("failed to parse completion JSON: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
