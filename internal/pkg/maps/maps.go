// Package maps resolves walking distances between campus locations.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultEndpoint is the distance matrix endpoint used when none is configured
const DefaultEndpoint = "https://maps.googleapis.com/maps/api/distancematrix/json"

const directionsURL = "https://www.google.com/maps/dir/?api=1"

// Distance sources reported with each distance
const (
	SourceGoogle    = "google-maps"
	SourceLocalMock = "local-mock"
	SourceMapsMock  = "maps-mock"
)

// Fallback texts
const (
	MockedWalkText  = "≈5 min walk (mocked)"
	UnavailableText = "distance unavailable (mocked)"
	noDistanceText  = "distance unavailable"
)

// ErrNotConfigured is returned by Lookup when no API key is set
var ErrNotConfigured = errors.New("maps: api key not configured")

// errNoDistance is returned when the response holds no usable element
var errNoDistance = errors.New("maps: no distance data returned")

const redacted = "REDACTED"

// Distance is a resolved walking distance with a directions link
type Distance struct {
	Text   string
	URL    string
	Source string
}

// Config holds the client settings
type Config struct {
	Endpoint string
	APIKey   string
}

// Client queries the distance matrix API
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client. A nil httpClient uses http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
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

// DirectionsURL builds a Google Maps directions link from origin to destination
func DirectionsURL(origin, destination string) string {
	return directionsURL + "&origin=" + encodeComponent(origin) + "&destination=" + encodeComponent(destination)
}

// componentUnescaper restores the characters a browser's
// encodeURIComponent leaves as they are
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes s for use as a single query value, spaces as %20
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// redactedError hides secrets that the wrapped error may echo, such as the
// request URL carrying the API key
type redactedError struct {
	err     error
	secrets []string
}

func (e *redactedError) Error() string {
	msg := e.err.Error()
	for _, s := range e.secrets {
		if s != "" {
			msg = strings.ReplaceAll(msg, s, redacted)
		}
	}
	return msg
}

func (e *redactedError) Unwrap() error { return e.err }

func (c *Client) redact(err error) error {
	key := c.cfg.APIKey
	return &redactedError{err: err, secrets: []string{url.QueryEscape(key), url.PathEscape(key), key}}
}

type matrixResponse struct {
	Rows []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance *struct {
				Text string `json:"text"`
			} `json:"distance"`
			Duration *struct {
				Text string `json:"text"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// Lookup queries the walking distance between origin and destination
func (c *Client) Lookup(ctx context.Context, origin, destination string) (Distance, error) {
	if !c.Configured() {
		return Distance{}, ErrNotConfigured
	}

	query := url.Values{}
	query.Set("origins", origin)
	query.Set("destinations", destination)
	query.Set("mode", "walking")
	query.Set("units", "imperial")
	query.Set("key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return Distance{}, fmt.Errorf("maps: failed to create request: %w", c.redact(err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Distance{}, fmt.Errorf("maps: request failed: %w", c.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Distance{}, fmt.Errorf("maps: unexpected status %d", resp.StatusCode)
	}

	var payload matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Distance{}, fmt.Errorf("maps: failed to decode response: %w", err)
	}

	if len(payload.Rows) == 0 || len(payload.Rows[0].Elements) == 0 {
		return Distance{}, errNoDistance
	}
	el := payload.Rows[0].Elements[0]
	if el.Status != "OK" {
		return Distance{}, fmt.Errorf("%w: element status %s", errNoDistance, el.Status)
	}

	text := noDistanceText
	switch {
	case el.Distance != nil && el.Distance.Text != "":
		text = el.Distance.Text
	case el.Duration != nil && el.Duration.Text != "":
		text = el.Duration.Text
	}

	return Distance{Text: text, URL: DirectionsURL(origin, destination), Source: SourceGoogle}, nil
}

// Resolve never fails: without a key it returns a mocked walk, and on a
// lookup error it returns an unavailable distance. The error from the lookup,
// if any, is returned alongside for logging.
func (c *Client) Resolve(ctx context.Context, origin, destination string) (Distance, error) {
	link := DirectionsURL(origin, destination)
	if !c.Configured() {
		return Distance{Text: MockedWalkText, URL: link, Source: SourceLocalMock}, nil
	}

	d, err := c.Lookup(ctx, origin, destination)
	if err != nil {
		return Distance{Text: UnavailableText, URL: link, Source: SourceMapsMock}, err
	}
	return d, nil
}
