package models

import (
	"time"
)

// User defines the user model based on the 'users' table / collection
type User struct {
	ID            string     `json:"id" bson:"_id" db:"id" example:"4b3a9d5e-5f43-4f0e-9f3a-0c3e6f3f6f11"` // Unique identifier for the user
	Email         string     `json:"email" bson:"email" db:"email" example:"student@purdue.edu"`          // User's email address
	Username      string     `json:"username" bson:"username" db:"username" example:"amelia"`             // Display name used as match key
	Password      string     `json:"-" bson:"password" db:"password"`                                     // User's hashed password (excluded from JSON)
	Origin        string     `json:"origin" bson:"origin" db:"origin" example:"Purdue Memorial Union, West Lafayette, IN"`
	CSVFileName   *string    `json:"csvFileName,omitempty" bson:"csvFileName,omitempty" db:"csv_file_name"`
	CSVURL        *string    `json:"csvUrl,omitempty" bson:"csvUrl,omitempty" db:"csv_url"`
	CSVUploadedAt *time.Time `json:"csvUploadedAt,omitempty" bson:"csvUploadedAt,omitempty" db:"csv_uploaded_at"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"`
	Courses       []Course   `json:"courses" bson:"courses" db:"-"`
}

// Key returns the identifier the matcher uses for this user: username,
// falling back to email and then id.
func (u *User) Key() string {
	switch {
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

// Attachment describes the stored copy of an uploaded schedule file
type Attachment struct {
	FileName   string
	URL        string
	UploadedAt time.Time
}
