package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/pkg/matching"
)

// MatchService ranks other users by course overlap against the latest profile snapshot
type MatchService struct {
	feed   *ProfileFeed
	memo   *matching.Memo
	logger zerolog.Logger

	mu   sync.RWMutex
	snap *Snapshot
	sub  *Subscription
}

// NewMatchService creates a MatchService subscribed to feed
func NewMatchService(feed *ProfileFeed, logger zerolog.Logger) *MatchService {
	s := &MatchService{feed: feed, memo: matching.NewMemo(), logger: logger}
	s.sub = feed.Subscribe(s.onSnapshot)
	return s
}

func (s *MatchService) onSnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil || snap.Version > s.snap.Version {
		s.snap = &snap
	}
}

func (s *MatchService) snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil {
		return *snap, nil
	}
	return s.feed.Current(ctx)
}

// Matches returns the ranked matches of the user with the given key
func (s *MatchService) Matches(ctx context.Context, userKey string) ([]models.MatchResult, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.MatchesIn(snap, userKey), nil
}

// MatchesIn ranks against a specific snapshot
func (s *MatchService) MatchesIn(snap Snapshot, userKey string) []models.MatchResult {
	return s.memo.Matches(userKey, snap.Version, snap.CourseMap)
}

// SharedWith returns the courses the user shares with other, or nil when
// other is not among the user's matches.
func (s *MatchService) SharedWith(ctx context.Context, userKey, other string) ([]models.SharedCourse, error) {
	matches, err := s.Matches(ctx, userKey)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.Username == other {
			return m.SharedCourses, nil
		}
	}
	return nil, nil
}

// Close stops following the profile feed
func (s *MatchService) Close() {
	s.sub.Cancel()
}
