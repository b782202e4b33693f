// Package memory keeps users and friendships in process memory. It backs the
// "memory" storage driver and the service tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/app/repositories"
	"github.com/yigit/studygraph/internal/pkg/apperrors"
	"github.com/yigit/studygraph/internal/pkg/friendship"
)

// UserRepository is an in-memory repositories.UserRepository
type UserRepository struct {
	mu    sync.RWMutex
	users []*models.User
	now   func() time.Time
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates an empty UserRepository
func NewUserRepository() *UserRepository {
	return &UserRepository{now: time.Now}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Courses = append([]models.Course{}, u.Courses...)
	return &c
}

// Create stores a copy of user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
		if user.Username != "" && strings.EqualFold(u.Username, user.Username) {
			return apperrors.ErrUsernameTaken
		}
	}

	now := r.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Courses == nil {
		user.Courses = []models.Course{}
	}

	r.users = append(r.users, cloneUser(user))
	return nil
}

func (r *UserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

// GetByUsername retrieves a user by username, ignoring case
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username != "" && strings.EqualFold(u.Username, username) })
}

// ListUsers returns copies of all users in creation order
func (r *UserRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.User, len(r.users))
	for i, u := range r.users {
		out[i] = cloneUser(u)
	}
	return out, nil
}

func (r *UserRepository) update(id string, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == id {
			fn(u)
			u.UpdatedAt = r.now().UTC()
			return nil
		}
	}
	return apperrors.ErrUserNotFound
}

// ReplaceCourses replaces the user's courses and attachment
func (r *UserRepository) ReplaceCourses(ctx context.Context, userID string, courses []models.Course, attachment *models.Attachment) error {
	return r.update(userID, func(u *models.User) {
		u.Courses = append([]models.Course{}, courses...)
		u.CSVFileName, u.CSVURL, u.CSVUploadedAt = nil, nil, nil
		if attachment != nil {
			name, url, at := attachment.FileName, attachment.URL, attachment.UploadedAt
			u.CSVFileName, u.CSVURL, u.CSVUploadedAt = &name, &url, &at
		}
	})
}

// UpdateOrigin sets the user's origin
func (r *UserRepository) UpdateOrigin(ctx context.Context, userID, origin string) error {
	return r.update(userID, func(u *models.User) { u.Origin = origin })
}

// FriendshipRepository is an in-memory repositories.FriendshipRepository
type FriendshipRepository struct {
	mu      sync.RWMutex
	entries map[string][]string
}

var _ repositories.FriendshipRepository = (*FriendshipRepository)(nil)

// NewFriendshipRepository creates an empty FriendshipRepository
func NewFriendshipRepository() *FriendshipRepository {
	return &FriendshipRepository{entries: make(map[string][]string)}
}

// GetLedger returns a copy of the stored ledger
func (r *FriendshipRepository) GetLedger(ctx context.Context) (friendship.Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return friendship.FromLists(r.entries), nil
}

// SaveEntries replaces the entries of keys
func (r *FriendshipRepository) SaveEntries(ctx context.Context, ledger friendship.Ledger, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		friends := ledger.Friends(key)
		if len(friends) == 0 {
			delete(r.entries, key)
			continue
		}
		r.entries[key] = friends
	}
	return nil
}

// NewRepositories returns a fresh in-memory repository set
func NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		UserRepository:       NewUserRepository(),
		FriendshipRepository: NewFriendshipRepository(),
	}
}
