package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/app/repositories"
	"github.com/yigit/studygraph/internal/pkg/apperrors"
	"github.com/yigit/studygraph/internal/pkg/auth"
	"github.com/yigit/studygraph/internal/pkg/validation"
)

// AuthResult is returned by registration and login
type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresIn int
	IsNew     bool
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtService *auth.JWTService
	feed       *ProfileFeed
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.UserRepository,
	jwtService *auth.JWTService,
	feed *ProfileFeed,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		feed:       feed,
		logger:     logger,
	}
}

// normalizeEmail lowercases and trims an email address
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateCredentials checks the email and password supplied by the client
func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return apperrors.NewValidationError("Email and password are required.")
	}
	if !validation.ValidEmail(email) {
		return apperrors.NewValidationError("Email address is not valid.")
	}
	if len(password) < validation.PasswordMinLength {
		return apperrors.NewValidationError(fmt.Sprintf("Password should be at least %d characters.", validation.PasswordMinLength))
	}
	return nil
}

// RegisterOrSignIn creates an account for a new email. When the email is
// already registered it signs in instead and reports IsNew=false. Without a
// username the part of the email before '@' is used.
func (s *AuthService) RegisterOrSignIn(ctx context.Context, email, password, username string) (*AuthResult, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Username: username,
		Password: hash,
		Courses:  []models.Course{},
	}

	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		s.logger.Debug().Str("email", email).Msg("Email already registered, signing in")
		return s.Login(ctx, email, password)
	}
	if errors.Is(err, apperrors.ErrUsernameTaken) {
		return nil, apperrors.NewCustomError(apperrors.ErrConflict, fmt.Sprintf("Username %q is already taken.", username))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Str("userId", user.ID).Str("username", user.Username).Msg("User registered")
	s.feed.RefreshQuietly(ctx)

	return s.issue(user, true)
}

// Login verifies email and password and returns a token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Email and password are required.")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !auth.CheckPassword(user.Password, password) {
		s.logger.Warn().Str("email", email).Msg("Failed login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(user, false)
}

func (s *AuthService) issue(user *models.User, isNew bool) (*AuthResult, error) {
	token, expiresIn, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresIn: expiresIn, IsNew: isNew}, nil
}

// Profile returns the stored profile of userID
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateOrigin sets where the user walks from
func (s *AuthService) UpdateOrigin(ctx context.Context, userID, origin string) (*models.User, error) {
	origin = strings.TrimSpace(origin)
	if err := s.userRepo.UpdateOrigin(ctx, userID, origin); err != nil {
		return nil, err
	}
	s.feed.RefreshQuietly(ctx)
	return s.userRepo.GetByID(ctx, userID)
}
