package validation

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Email validation pattern, applied to lowercased input
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	// Usernames are used as match keys
	UsernamePattern = `^[A-Za-z0-9._\-]{2,32}$`

	// Password min length
	PasswordMinLength = 6
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email    *regexp.Regexp
	Username *regexp.Regexp
}{
	Email:    regexp.MustCompile(EmailPattern),
	Username: regexp.MustCompile(UsernamePattern),
}

// ValidEmail reports whether email matches EmailPattern
func ValidEmail(email string) bool {
	return CompiledPatterns.Email.MatchString(email)
}

// ValidUsername reports whether username matches UsernamePattern
func ValidUsername(username string) bool {
	return CompiledPatterns.Username.MatchString(username)
}

// Register adds the custom tags to v
func Register(v *validator.Validate) error {
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
}

// RegisterWithGin adds the custom tags to gin's binding validator
func RegisterWithGin() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return Register(v)
	}
	return nil
}
