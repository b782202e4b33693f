package repositories

import (
	"context"

	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/db"
	"github.com/yigit/studygraph/internal/pkg/friendship"
)

// UserRepository persists user profiles together with their course lists.
// Users returned by it always carry their courses in upload order.
type UserRepository interface {
	// Create stores a new user; fails with apperrors.ErrEmailAlreadyExists or apperrors.ErrUsernameTaken
	Create(ctx context.Context, user *models.User) error
	// GetByID, GetByEmail and GetByUsername fail with apperrors.ErrUserNotFound
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// ListUsers returns every user ordered by creation time
	ListUsers(ctx context.Context) ([]*models.User, error)
	// ReplaceCourses swaps the user's whole course list and records the uploaded file
	ReplaceCourses(ctx context.Context, userID string, courses []models.Course, attachment *models.Attachment) error
	// UpdateOrigin sets the starting point used for walking distances
	UpdateOrigin(ctx context.Context, userID, origin string) error
}

// FriendshipRepository persists the friendship ledger
type FriendshipRepository interface {
	// GetLedger loads the whole ledger
	GetLedger(ctx context.Context) (friendship.Ledger, error)
	// SaveEntries replaces the stored entries of the given user keys with
	// their values in ledger, atomically.
	SaveEntries(ctx context.Context, ledger friendship.Ledger, keys ...string) error
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository       UserRepository
	FriendshipRepository FriendshipRepository
}

// NewRepositories initializes the PostgreSQL repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:       NewUserRepository(database),
		FriendshipRepository: NewFriendshipRepository(database),
	}
}
