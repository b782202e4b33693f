package planner

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/pkg/genai"
	"github.com/yigit/studygraph/internal/pkg/maps"
)

type fakeSuggester struct {
	calls  atomic.Int32
	spaces []genai.StudySpace
	err    error
}

func (f *fakeSuggester) StudySpaces(ctx context.Context, location string) ([]genai.StudySpace, error) {
	f.calls.Add(1)
	return f.spaces, f.err
}

type fakeDistancer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeDistancer) Resolve(ctx context.Context, origin, destination string) (maps.Distance, error) {
	f.calls.Add(1)
	link := maps.DirectionsURL(origin, destination)
	if f.err != nil {
		return maps.Distance{Text: maps.UnavailableText, URL: link, Source: maps.SourceMapsMock}, f.err
	}
	return maps.Distance{Text: "0.2 mi", URL: link, Source: maps.SourceGoogle}, nil
}

func TestGetStudySuggestions_NoCourses(t *testing.T) {
	ai := &fakeSuggester{}
	dist := &fakeDistancer{}
	p := New(ai, dist, Options{Seed: 1}, zerolog.Nop())

	got, err := p.GetStudySuggestions(context.Background(), nil, "X")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, ai.calls.Load())
	assert.Zero(t, dist.calls.Load())
}

func TestGetStudySuggestions_MockFallback(t *testing.T) {
	p := New(nil, nil, Options{Seed: 7}, zerolog.Nop())

	got, err := p.GetStudySuggestions(context.Background(), []models.Course{{ID: "c1", Location: "WALC"}}, "PMU")

	require.NoError(t, err)
	require.Len(t, got, 3)

	names := map[string]bool{}
	for i, s := range got {
		assert.Contains(t, s.MapsURL, "origin=PMU")
		assert.Equal(t, maps.MockedWalkText, s.DistanceText)
		assert.Equal(t, maps.SourceLocalMock, s.DistanceSource)
		assert.Equal(t, DefaultCourseName, s.CourseName)
		assert.Equal(t, "WALC", s.ClassLocation)
		assert.Equal(t, "c1-"+s.LocationName, s.ID)
		assert.NotEmpty(t, s.Pros)
		assert.Equal(t, "Nearby WALC • suggestion #"+string(rune('1'+i)), s.CourseContext)
		assert.Contains(t, CatalogNames(), s.LocationName)
		names[s.LocationName] = true
	}
	assert.Len(t, names, 3)
}

func TestGetStudySuggestions_SeededShuffleIsReproducible(t *testing.T) {
	courses := []models.Course{{ID: "c1", CourseName: "CS 180", Location: "Lawson"}}

	a, err := New(nil, nil, Options{Seed: 42}, zerolog.Nop()).GetStudySuggestions(context.Background(), courses, "PMU")
	require.NoError(t, err)
	b, err := New(nil, nil, Options{Seed: 42}, zerolog.Nop()).GetStudySuggestions(context.Background(), courses, "PMU")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGetStudySuggestions_AIAnswer(t *testing.T) {
	ai := &fakeSuggester{spaces: []genai.StudySpace{
		{LocationName: "Lawson Commons", Pros: []string{"Outlets"}},
		{LocationName: "Lilly Library"},
	}}
	dist := &fakeDistancer{}
	p := New(ai, dist, Options{Seed: 1}, zerolog.Nop())

	got, err := p.GetStudySuggestions(context.Background(), []models.Course{{CourseName: " CS 180 ", Location: "Lawson 1142"}}, "PMU")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "CS 180-Lawson Commons", got[0].ID)
	assert.Equal(t, []string{"Outlets"}, got[0].Pros)
	assert.Equal(t, "Suggested for CS 180", got[0].CourseContext)
	assert.Equal(t, "0.2 mi", got[0].DistanceText)
	assert.Equal(t, maps.SourceGoogle, got[0].DistanceSource)
	assert.Equal(t, []string{"Open seating", "Power outlets nearby"}, got[1].Pros)
	assert.Equal(t, int32(2), dist.calls.Load())
}

func TestGetStudySuggestions_FallbackTotality(t *testing.T) {
	tests := []struct {
		name       string
		ai         Suggester
		dist       Distancer
		wantSource string
	}{
		{"ai error", &fakeSuggester{err: errors.New("boom")}, &fakeDistancer{}, maps.SourceGoogle},
		{"ai not configured", &fakeSuggester{err: genai.ErrNotConfigured}, nil, maps.SourceLocalMock},
		{"ai empty", &fakeSuggester{}, &fakeDistancer{err: errors.New("quota")}, maps.SourceMapsMock},
		{"unconfigured clients", genai.NewClient(genai.Config{}, nil), maps.NewClient(maps.Config{}, nil), maps.SourceLocalMock},
	}

	courses := []models.Course{{ID: "a", Location: "WALC"}, {ID: "b"}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.ai, tt.dist, Options{Seed: 3}, zerolog.Nop())

			got, err := p.GetStudySuggestions(context.Background(), courses, "")

			require.NoError(t, err)
			require.Len(t, got, 6)
			for _, s := range got {
				assert.NotEmpty(t, s.MapsURL)
				assert.NotEmpty(t, s.DistanceText)
				assert.Equal(t, tt.wantSource, s.DistanceSource)
			}
			assert.Equal(t, DefaultLocation, got[3].ClassLocation)
			assert.True(t, strings.HasPrefix(got[3].ID, "b-"))
		})
	}
}

func TestGetStudySuggestions_ParallelKeepsCourseOrder(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Location: "A"}, {ID: "c2", Location: "B"}, {ID: "c3", Location: "C"}, {ID: "c4", Location: "D"},
	}
	p := New(nil, &fakeDistancer{}, Options{Seed: 9, Parallelism: 3}, zerolog.Nop())

	got, err := p.GetStudySuggestions(context.Background(), courses, "PMU")

	require.NoError(t, err)
	require.Len(t, got, 12)
	for i, s := range got {
		assert.Equal(t, courses[i/3].Location, s.ClassLocation)
	}
}

func TestGetStudySuggestions_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, nil, Options{Seed: 1}, zerolog.Nop()).GetStudySuggestions(ctx, []models.Course{{ID: "c1"}}, "PMU")

	assert.ErrorIs(t, err, context.Canceled)
}
