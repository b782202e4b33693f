// Package planner builds study-space suggestions for a set of shared courses.
//
// Every course always yields suggestions: AI answers that are missing or
// unusable are replaced by a shuffled pick from a built-in catalog, and
// distances that cannot be resolved are reported with a mocked text.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/pkg/genai"
	"github.com/yigit/studygraph/internal/pkg/maps"
)

// Defaults applied to sanitized input
const (
	DefaultCourseName = "Shared course"
	DefaultLocation   = "Purdue campus"
	DefaultOrigin     = "Purdue Memorial Union, West Lafayette, IN"
)

var defaultPros = []string{"Open seating", "Power outlets nearby"}

// Suggester proposes study spaces near a class location
type Suggester interface {
	StudySpaces(ctx context.Context, location string) ([]genai.StudySpace, error)
}

// Distancer resolves the walking distance between two places. It returns a
// usable Distance even when err is non-nil.
type Distancer interface {
	Resolve(ctx context.Context, origin, destination string) (maps.Distance, error)
}

// Options configures a Planner
type Options struct {
	// Parallelism above 1 plans that many courses concurrently
	Parallelism int
	// Seed for the mock shuffle; 0 seeds from the clock
	Seed uint64
}

// Planner produces StudySuggestions
type Planner struct {
	ai          Suggester
	distances   Distancer
	parallelism int
	logger      zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Planner
func New(ai Suggester, distances Distancer, opts Options, logger zerolog.Logger) *Planner {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Planner{
		ai:          ai,
		distances:   distances,
		parallelism: opts.Parallelism,
		logger:      logger,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// GetStudySuggestions returns suggestions for every course, in course order.
// An error is returned only when ctx ends before planning completes.
func (p *Planner) GetStudySuggestions(ctx context.Context, courses []models.Course, origin string) ([]models.StudySuggestion, error) {
	if len(courses) == 0 {
		return []models.StudySuggestion{}, nil
	}
	if origin = strings.TrimSpace(origin); origin == "" {
		origin = DefaultOrigin
	}

	perCourse := make([][]models.StudySuggestion, len(courses))

	if p.parallelism > 1 && len(courses) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.parallelism)
		for i, course := range courses {
			g.Go(func() error {
				res, err := p.planCourse(gctx, course, origin)
				perCourse[i] = res
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, course := range courses {
			res, err := p.planCourse(ctx, course, origin)
			if err != nil {
				return nil, err
			}
			perCourse[i] = res
		}
	}

	suggestions := make([]models.StudySuggestion, 0, len(courses)*mockPicks)
	for _, res := range perCourse {
		suggestions = append(suggestions, res...)
	}
	return suggestions, nil
}

func (p *Planner) planCourse(ctx context.Context, course models.Course, origin string) ([]models.StudySuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	courseName := sanitize(course.CourseName, DefaultCourseName)
	location := sanitize(course.Location, DefaultLocation)

	candidates := p.aiCandidates(ctx, location)
	if len(candidates) == 0 {
		candidates = p.mockCandidates(location)
	}

	idPrefix := course.ID
	if idPrefix == "" {
		idPrefix = courseName
	}

	out := make([]models.StudySuggestion, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		destination := c.Anchor
		if destination == "" {
			destination = c.LocationName
		}
		distance := p.resolveDistance(ctx, origin, destination)

		pros := c.Pros
		if len(pros) == 0 {
			pros = defaultPros
		}
		courseContext := c.Context
		if courseContext == "" {
			courseContext = "Suggested for " + courseName
		}

		out = append(out, models.StudySuggestion{
			ID:             idPrefix + "-" + c.LocationName,
			CourseName:     courseName,
			ClassLocation:  location,
			LocationName:   c.LocationName,
			Pros:           append([]string(nil), pros...),
			DistanceText:   distance.Text,
			MapsURL:        distance.URL,
			DistanceSource: distance.Source,
			CourseContext:  courseContext,
		})
	}
	return out, nil
}

func (p *Planner) aiCandidates(ctx context.Context, location string) []candidate {
	if p.ai == nil {
		return nil
	}

	spaces, err := p.ai.StudySpaces(ctx, location)
	if err != nil {
		if !errors.Is(err, genai.ErrNotConfigured) && ctx.Err() == nil {
			p.logger.Warn().Err(err).Str("location", location).Msg("AI study space lookup failed, using catalog")
		}
		return nil
	}

	candidates := make([]candidate, 0, len(spaces))
	for _, s := range spaces {
		if strings.TrimSpace(s.LocationName) == "" {
			continue
		}
		candidates = append(candidates, candidate{LocationName: s.LocationName, Pros: s.Pros})
	}
	return candidates
}

func (p *Planner) mockCandidates(location string) []candidate {
	shuffled := make([]candidate, len(catalog))
	copy(shuffled, catalog)

	p.mu.Lock()
	p.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	p.mu.Unlock()

	picks := shuffled[:mockPicks]
	for i := range picks {
		picks[i].Context = fmt.Sprintf("Nearby %s • suggestion #%d", location, i+1)
	}
	return picks
}

func (p *Planner) resolveDistance(ctx context.Context, origin, destination string) maps.Distance {
	if p.distances == nil {
		return maps.Distance{Text: maps.MockedWalkText, URL: maps.DirectionsURL(origin, destination), Source: maps.SourceLocalMock}
	}

	d, err := p.distances.Resolve(ctx, origin, destination)
	if err != nil && ctx.Err() == nil {
		p.logger.Warn().Err(err).Str("destination", destination).Msg("distance lookup failed, using mocked distance")
	}
	if d.Text == "" {
		d.Text = maps.UnavailableText
		d.Source = maps.SourceMapsMock
	}
	if d.URL == "" {
		d.URL = maps.DirectionsURL(origin, destination)
	}
	return d
}

func sanitize(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
