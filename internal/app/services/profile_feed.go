package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/app/repositories"
	"github.com/yigit/studygraph/internal/pkg/matching"
)

// Snapshot is one consistent view of every stored profile
type Snapshot struct {
	Version   uint64
	Users     []*models.User
	CourseMap *matching.CourseMap
}

// Subscription is returned by ProfileFeed.Subscribe
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel stops delivery to the subscriber. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// ProfileFeed loads profile snapshots from persistence and pushes each new
// snapshot to its subscribers, in subscription order.
type ProfileFeed struct {
	users  repositories.UserRepository
	logger zerolog.Logger

	refreshMu sync.Mutex

	mu      sync.RWMutex
	current *Snapshot
	subs    map[uint64]func(Snapshot)
	order   []uint64
	nextID  uint64
}

// NewProfileFeed creates a ProfileFeed without any snapshot loaded
func NewProfileFeed(users repositories.UserRepository, logger zerolog.Logger) *ProfileFeed {
	return &ProfileFeed{
		users:  users,
		logger: logger,
		subs:   make(map[uint64]func(Snapshot)),
	}
}

// Refresh loads a new snapshot, bumps the version and delivers it to every subscriber
func (f *ProfileFeed) Refresh(ctx context.Context) (Snapshot, error) {
	f.refreshMu.Lock()
	defer f.refreshMu.Unlock()

	users, err := f.users.ListUsers(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load profiles: %w", err)
	}

	f.mu.Lock()
	var version uint64 = 1
	if f.current != nil {
		version = f.current.Version + 1
	}
	snap := Snapshot{Version: version, Users: users, CourseMap: matching.CourseMapFromUsers(users)}
	f.current = &snap
	listeners := f.listenersLocked()
	f.mu.Unlock()

	f.logger.Debug().Uint64("version", version).Int("profiles", len(users)).Msg("Profile snapshot refreshed")

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

// Current returns the latest snapshot, loading one if none exists yet
func (f *ProfileFeed) Current(ctx context.Context) (Snapshot, error) {
	f.mu.RLock()
	cur := f.current
	f.mu.RUnlock()

	if cur != nil {
		return *cur, nil
	}
	return f.Refresh(ctx)
}

// Subscribe registers fn for every future snapshot. If a snapshot is already
// loaded, fn receives it immediately.
func (f *ProfileFeed) Subscribe(fn func(Snapshot)) *Subscription {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.order = append(f.order, id)
	cur := f.current
	f.mu.Unlock()

	if cur != nil {
		fn(*cur)
	}

	return &Subscription{cancel: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
		for i, sid := range f.order {
			if sid == id {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}}
}

// RefreshQuietly refreshes and logs instead of returning an error. Writes
// that already succeeded use it so a failed reload does not fail the request.
func (f *ProfileFeed) RefreshQuietly(ctx context.Context) {
	if _, err := f.Refresh(ctx); err != nil {
		f.logger.Warn().Err(err).Msg("Profile snapshot refresh failed")
	}
}

func (f *ProfileFeed) listenersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.subs[id])
	}
	return out
}
