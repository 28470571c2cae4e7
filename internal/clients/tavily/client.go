// Package tavily provides a client for the Tavily search API, used for
// weather lookups and crop market news.
package tavily

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/settings"
)

const (
	defaultBaseURL    = "https://api.tavily.com"
	defaultDepth      = "basic"
	defaultMaxResults = 5
)

// ErrNotConfigured is returned when no API key is available. Callers serve
// a degraded response instead of failing the request.
var ErrNotConfigured = errors.New("tavily API key not configured")

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

// SearchResult is one search hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// SearchResponse is the Tavily search payload.
type SearchResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer"`
	Results []SearchResult `json:"results"`
}

// Client is the Tavily search client. Like the Groq client, its API key is
// read from the settings database and can be rotated at runtime.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	settings   *settings.Repository

	mu     sync.RWMutex
	apiKey string
}

// NewClient creates a Tavily client and loads the API key from settings.
// settingsRepo is optional; if nil the client stays unconfigured.
func NewClient(settingsRepo *settings.Repository, log zerolog.Logger) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log:      log.With().Str("client", "tavily").Logger(),
		settings: settingsRepo,
	}
	c.RefreshCredentials()
	return c
}

// RefreshCredentials re-reads the API key from the settings database.
func (c *Client) RefreshCredentials() {
	if c.settings == nil {
		return
	}

	key, err := c.settings.Get(settings.KeyTavilyAPIKey)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to read Tavily API key from settings")
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

	c.log.Debug().Bool("configured", configured).Msg("Tavily credentials refreshed")
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// Search runs one search with an AI-composed answer included.
func (c *Client) Search(query string) (*SearchResponse, error) {
	c.mu.RLock()
	apiKey := c.apiKey
	c.mu.RUnlock()
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(searchRequest{
		APIKey:        apiKey,
		Query:         query,
		SearchDepth:   defaultDepth,
		MaxResults:    defaultMaxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("query", query).Msg("Making Tavily request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tavily API error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &searchResp, nil
}
