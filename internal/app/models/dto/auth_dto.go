package dto

import (
	"time"

	"github.com/yigit/studygraph/internal/app/models"
)

// RegisterRequest registers a new account or signs in to an existing one
type RegisterRequest struct {
	Email    string `json:"email" example:"amelia@purdue.edu"`
	Password string `json:"password" example:"Boiler#1"`
	Username string `json:"username" binding:"omitempty,username" example:"amelia"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"amelia@purdue.edu"`
	Password string `json:"password" binding:"required" example:"Boiler#1"`
}

// UpdateOriginRequest sets where the user walks from
type UpdateOriginRequest struct {
	Origin string `json:"origin" binding:"max=200" example:"Hicks Undergraduate Library"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn" example:"3600"`
}

// UserResponse is the public view of a profile
type UserResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	Origin        string     `json:"origin"`
	CSVFileName   *string    `json:"csvFileName,omitempty"`
	CSVURL        *string    `json:"csvUrl,omitempty"`
	CSVUploadedAt *time.Time `json:"csvUploadedAt,omitempty"`
	CourseCount   int        `json:"courseCount"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
	IsNew bool          `json:"isNew"`
}

// NewUserResponse converts a stored profile
func NewUserResponse(u *models.User) UserResponse {
	if u == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Origin:        u.Origin,
		CSVFileName:   u.CSVFileName,
		CSVURL:        u.CSVURL,
		CSVUploadedAt: u.CSVUploadedAt,
		CourseCount:   len(u.Courses),
		CreatedAt:     u.CreatedAt,
	}
}

// DirectoryEntry is one row of the public user directory
type DirectoryEntry struct {
	Username    string `json:"username"`
	CourseCount int    `json:"courseCount"`
}
