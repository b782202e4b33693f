// Package genai asks a chat-completions endpoint for study spaces near a class location.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultEndpoint is the chat completions endpoint used when none is configured
const DefaultEndpoint = "https://genai.rcac.purdue.edu/api/chat/completions"

// DefaultModel is the model requested when none is configured
const DefaultModel = "llama3.1:latest"

// ErrNotConfigured is returned when no API key is available
var ErrNotConfigured = errors.New("genai: api key not configured")

// ErrEmptyResponse is returned when the reply carries no usable study spaces
var ErrEmptyResponse = errors.New("genai: empty or unparseable response")

// StudySpace is one candidate location with its advantages
type StudySpace struct {
	LocationName string
	Pros         []string
}

// Config holds the client settings
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
}

// Client calls the chat completions API
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client. A nil httpClient uses http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.cfg.APIKey) != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Prompt returns the question sent for a class at location
func Prompt(location string) string {
	return fmt.Sprintf("I have a class at %s, find me study spaces within a 0.25 mile radius and list pros of each location", location)
}

// StudySpaces asks for study spaces near location. It returns ErrNotConfigured
// without a key and ErrEmptyResponse when nothing could be parsed.
func (c *Client) StudySpaces(ctx context.Context, location string) ([]StudySpace, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: Prompt(location)}},
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("genai: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("genai: unexpected status %d", resp.StatusCode)
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("genai: failed to decode response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	spaces := ParseStudySpaces(payload.Choices[0].Message.Content)
	if len(spaces) == 0 {
		return nil, ErrEmptyResponse
	}
	return spaces, nil
}
