package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStudySpaces(t *testing.T) {
	text := "1. Hicks Undergraduate Library\n- Open late\n• Group rooms\n\n2 WALC\n\n\nKrach Leadership Center\n   - Big tables  \n"

	spaces := ParseStudySpaces(text)

	require.Len(t, spaces, 3)
	assert.Equal(t, StudySpace{LocationName: "Hicks Undergraduate Library", Pros: []string{"Open late", "Group rooms"}}, spaces[0])
	assert.Equal(t, StudySpace{LocationName: "WALC", Pros: []string{"Quiet tables", "Close to class"}}, spaces[1])
	assert.Equal(t, StudySpace{LocationName: "Krach Leadership Center", Pros: []string{"Big tables"}}, spaces[2])
}

func TestParseStudySpaces_Empty(t *testing.T) {
	assert.Empty(t, ParseStudySpaces(""))
	assert.Empty(t, ParseStudySpaces("  \n\n  "))
	assert.Empty(t, ParseStudySpaces("12."))
}

func TestStudySpaces_NotConfigured(t *testing.T) {
	client := NewClient(Config{}, nil)

	assert.False(t, client.Configured())
	_, err := client.StudySpaces(context.Background(), "WALC")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStudySpaces_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, Prompt("Lawson 1142"), req.Messages[0].Content)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "Lawson Commons\n- Outlets"}}},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, APIKey: "secret"}, srv.Client())
	spaces, err := client.StudySpaces(context.Background(), "Lawson 1142")

	require.NoError(t, err)
	assert.Equal(t, []StudySpace{{LocationName: "Lawson Commons", Pros: []string{"Outlets"}}}, spaces)
}

func TestStudySpaces_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("{not json")) }},
		{"no choices", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"choices":[]}`)) }},
		{"blank content", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(Config{Endpoint: srv.URL, APIKey: "k"}, srv.Client())
			_, err := client.StudySpaces(context.Background(), "WALC")
			assert.Error(t, err)
		})
	}
}
