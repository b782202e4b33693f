package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/studygraph/internal/pkg/httpclient"
)

func TestDirectionsURL(t *testing.T) {
	got := DirectionsURL("Purdue Memorial Union, West Lafayette, IN", "1101 3rd Street")

	assert.Equal(t,
		"https://www.google.com/maps/dir/?api=1&origin=Purdue%20Memorial%20Union%2C%20West%20Lafayette%2C%20IN&destination=1101%203rd%20Street",
		got)
}

func TestResolve_NotConfigured(t *testing.T) {
	client := NewClient(Config{}, nil)

	d, err := client.Resolve(context.Background(), "PMU", "WALC")

	require.NoError(t, err)
	assert.Equal(t, MockedWalkText, d.Text)
	assert.Equal(t, SourceLocalMock, d.Source)
	assert.Equal(t, DirectionsURL("PMU", "WALC"), d.URL)
}

func TestResolve_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "PMU", q.Get("origins"))
		assert.Equal(t, "WALC", q.Get("destinations"))
		assert.Equal(t, "walking", q.Get("mode"))
		assert.Equal(t, "imperial", q.Get("units"))
		assert.Equal(t, "k", q.Get("key"))
		_, _ = w.Write([]byte(`{"rows":[{"elements":[{"status":"OK","distance":{"text":"0.3 mi"},"duration":{"text":"6 mins"}}]}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, APIKey: "k"}, srv.Client())
	d, err := client.Resolve(context.Background(), "PMU", "WALC")

	require.NoError(t, err)
	assert.Equal(t, Distance{Text: "0.3 mi", URL: DirectionsURL("PMU", "WALC"), Source: SourceGoogle}, d)
}

func TestLookup_DurationWhenNoDistance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows":[{"elements":[{"status":"OK","duration":{"text":"6 mins"}}]}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, APIKey: "k"}, srv.Client())
	d, err := client.Lookup(context.Background(), "a", "b")

	require.NoError(t, err)
	assert.Equal(t, "6 mins", d.Text)
	assert.Equal(t, SourceGoogle, d.Source)
}

func TestResolve_MissingElementFallsBackToMock(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not found", `{"rows":[{"elements":[{"status":"NOT_FOUND"}]}]}`},
		{"zero results", `{"rows":[{"elements":[{"status":"ZERO_RESULTS"}]}]}`},
		{"no elements", `{"rows":[{"elements":[]}]}`},
		{"no rows", `{"rows":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(Config{Endpoint: srv.URL, APIKey: "k"}, srv.Client())

			_, err := client.Lookup(context.Background(), "a", "b")
			assert.ErrorIs(t, err, errNoDistance)

			d, err := client.Resolve(context.Background(), "a", "b")
			assert.ErrorIs(t, err, errNoDistance)
			assert.Equal(t, UnavailableText, d.Text)
			assert.Equal(t, SourceMapsMock, d.Source)
			assert.Equal(t, DirectionsURL("a", "b"), d.URL)
		})
	}
}

func TestLookup_ErrorHidesAPIKey(t *testing.T) {
	const key = "SECRET-KEY-123"
	hc := httpclient.New(httpclient.Options{Timeout: time.Second, RetryMax: 0}, zerolog.Nop())
	client := NewClient(Config{Endpoint: "http://127.0.0.1:1/dm", APIKey: key}, hc)

	_, err := client.Lookup(context.Background(), "PMU", "WALC")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), key)
	assert.Contains(t, err.Error(), "key=REDACTED")

	var urlErr *url.Error
	assert.ErrorAs(t, err, &urlErr)

	d, err := client.Resolve(context.Background(), "PMU", "WALC")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), key)
	assert.Equal(t, SourceMapsMock, d.Source)
}

func TestDirectionsURL_KeepsUnreservedMarks(t *testing.T) {
	got := DirectionsURL("Lilly Hall (LILY) - Room 1105*", "Stewart's Center!")

	assert.Equal(t,
		"https://www.google.com/maps/dir/?api=1&origin=Lilly%20Hall%20(LILY)%20-%20Room%201105*&destination=Stewart's%20Center!",
		got)
}

func TestResolve_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, APIKey: "k"}, srv.Client())
	d, err := client.Resolve(context.Background(), "PMU", "WALC")

	assert.Error(t, err)
	assert.Equal(t, UnavailableText, d.Text)
	assert.Equal(t, SourceMapsMock, d.Source)
	assert.Equal(t, DirectionsURL("PMU", "WALC"), d.URL)
}
