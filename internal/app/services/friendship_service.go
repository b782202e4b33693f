package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/app/repositories"
	"github.com/yigit/studygraph/internal/pkg/apperrors"
	"github.com/yigit/studygraph/internal/pkg/friendship"
)

// FriendshipService confirms and lists friendships
type FriendshipService struct {
	userRepo   repositories.UserRepository
	friendRepo repositories.FriendshipRepository
	logger     zerolog.Logger

	// serializes read-modify-write of the ledger
	mu sync.Mutex
}

// NewFriendshipService creates a new FriendshipService
func NewFriendshipService(userRepo repositories.UserRepository, friendRepo repositories.FriendshipRepository, logger zerolog.Logger) *FriendshipService {
	return &FriendshipService{userRepo: userRepo, friendRepo: friendRepo, logger: logger}
}

// findByKey resolves a user key (username, else email, else id) to a stored user
func findByKey(ctx context.Context, repo repositories.UserRepository, key string) (*models.User, error) {
	if u, err := repo.GetByUsername(ctx, key); err == nil {
		return u, nil
	}
	if u, err := repo.GetByEmail(ctx, normalizeEmail(key)); err == nil {
		return u, nil
	}
	return repo.GetByID(ctx, key)
}

// Confirm makes userKey and friendKey friends of each other. friendKey may be
// a username, email or id; the resolved key is returned with the user's
// updated friend list.
func (s *FriendshipService) Confirm(ctx context.Context, userKey, friendKey string) (friend string, friends []string, err error) {
	if friendKey == "" {
		return "", nil, apperrors.NewValidationError("Username is required.")
	}
	if friendKey == userKey {
		return "", nil, apperrors.NewBadRequestError("You cannot add yourself as a friend.")
	}

	other, err := findByKey(ctx, s.userRepo, friendKey)
	if err != nil {
		return "", nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, fmt.Sprintf("User %q not found.", friendKey))
	}
	friend = other.Key()
	if friend == userKey {
		return "", nil, apperrors.NewBadRequestError("You cannot add yourself as a friend.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.friendRepo.GetLedger(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load friendships: %w", err)
	}

	next := friendship.ConfirmFriendship(ledger, userKey, friend)
	if err := s.friendRepo.SaveEntries(ctx, next, userKey, friend); err != nil {
		return "", nil, fmt.Errorf("failed to save friendship: %w", err)
	}

	s.logger.Info().Str("user", userKey).Str("friend", friend).Msg("Friendship confirmed")
	return friend, next.Friends(userKey), nil
}

// List returns the friends of userKey, sorted
func (s *FriendshipService) List(ctx context.Context, userKey string) ([]string, error) {
	ledger, err := s.friendRepo.GetLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load friendships: %w", err)
	}
	return ledger.Friends(userKey), nil
}

// Ledger returns the whole friendship ledger
func (s *FriendshipService) Ledger(ctx context.Context) (friendship.Ledger, error) {
	return s.friendRepo.GetLedger(ctx)
}
