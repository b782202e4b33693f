package services

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/pkg/planner"
)

// Selection is a request to plan study spaces with one match.
// SharedCourses is nil when the client did not send a course array.
type Selection struct {
	Username      string
	SharedCourses []models.SharedCourse
}

// Valid reports whether the selection can be acted on
func (s Selection) Valid() bool {
	return strings.TrimSpace(s.Username) != "" && s.SharedCourses != nil
}

// SuggestionService runs the study suggestion pipeline, one tracker per user
type SuggestionService struct {
	planner       *planner.Planner
	matches       *MatchService
	defaultOrigin string
	logger        zerolog.Logger
	sub           *Subscription

	mu       sync.Mutex
	sessions map[string]*planner.Tracker
}

// NewSuggestionService creates a new SuggestionService
func NewSuggestionService(p *planner.Planner, matches *MatchService, defaultOrigin string, logger zerolog.Logger) *SuggestionService {
	if defaultOrigin == "" {
		defaultOrigin = planner.DefaultOrigin
	}
	s := &SuggestionService{
		planner:       p,
		matches:       matches,
		defaultOrigin: defaultOrigin,
		logger:        logger,
		sessions:      make(map[string]*planner.Tracker),
	}
	s.sub = matches.feed.Subscribe(s.onSnapshot)
	return s
}

// onSnapshot replans any active session whose user changed origin
func (s *SuggestionService) onSnapshot(snap Snapshot) {
	for _, u := range snap.Users {
		s.mu.Lock()
		t, ok := s.sessions[u.Key()]
		s.mu.Unlock()
		if !ok {
			continue
		}
		origin := s.origin(u)
		if t.Origin() == origin {
			continue
		}
		st := t.Restart(origin)
		s.logger.Debug().Str("user", u.Key()).Str("origin", origin).Uint64("generation", st.Generation).Msg("Origin changed, replanning")
	}
}

func (s *SuggestionService) tracker(userKey string) *planner.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.sessions[userKey]
	if !ok {
		t = planner.NewTracker(s.planner.GetStudySuggestions, s.logger.With().Str("user", userKey).Logger())
		s.sessions[userKey] = t
	}
	return t
}

func (s *SuggestionService) origin(user *models.User) string {
	if o := strings.TrimSpace(user.Origin); o != "" {
		return o
	}
	return s.defaultOrigin
}

// Select starts planning for a match the user picked. Invalid selections
// are ignored: the current state is returned and accepted is false.
func (s *SuggestionService) Select(user *models.User, sel Selection) (state planner.State, accepted bool) {
	t := s.tracker(user.Key())
	if !sel.Valid() {
		s.logger.Debug().Str("user", user.Key()).Msg("Ignoring invalid selection payload")
		return t.State(), false
	}

	return t.Begin(planner.Request{
		User:        user.Key(),
		Counterpart: strings.TrimSpace(sel.Username),
		Courses:     sel.SharedCourses,
		Origin:      s.origin(user),
	}), true
}

// SelectMatch looks up the courses the user shares with counterpart and
// starts planning for them.
func (s *SuggestionService) SelectMatch(ctx context.Context, user *models.User, counterpart string) (planner.State, error) {
	shared, err := s.matches.SharedWith(ctx, user.Key(), counterpart)
	if err != nil {
		return planner.State{}, err
	}
	if shared == nil {
		shared = []models.SharedCourse{}
	}
	state, _ := s.Select(user, Selection{Username: counterpart, SharedCourses: shared})
	return state, nil
}

// State returns the user's current suggestion state
func (s *SuggestionService) State(user *models.User) planner.State {
	return s.tracker(user.Key()).State()
}

// Wait blocks until the user's current run completes or ctx ends
func (s *SuggestionService) Wait(ctx context.Context, user *models.User) error {
	return s.tracker(user.Key()).Wait(ctx)
}

// Preview runs the pipeline synchronously for arbitrary courses
func (s *SuggestionService) Preview(ctx context.Context, courses []models.Course, origin string) ([]models.StudySuggestion, error) {
	if strings.TrimSpace(origin) == "" {
		origin = s.defaultOrigin
	}
	return s.planner.GetStudySuggestions(ctx, courses, origin)
}

// Close stops following the profile feed and cancels every in-flight run
func (s *SuggestionService) Close() {
	s.sub.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.sessions {
		t.Close()
	}
}
