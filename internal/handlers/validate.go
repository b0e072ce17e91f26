package handlers

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type registerForm struct {
	FirstName string `validate:"required,alpha,min=2"`
	LastName  string `validate:"required,alpha,min=2"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=8"`
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type blogForm struct {
	Title   string `validate:"required,min=3,max=50"`
	Content string `validate:"required,min=100,max=1500"`
	Status  string `validate:"omitempty,oneof=public private"`
}

// validationMessages flattens validator errors into the per-field
// messages carried in the failure envelope.
func validationMessages(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{"Invalid input data!"}
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters!", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters!", fe.Field(), fe.Param())
	case "email":
		return "Invalid email!"
	case "alpha":
		return fmt.Sprintf("%s must only contain letters!", fe.Field())
	case "oneof":
		return fmt.Sprintf("Invalid %s!", fe.Field())
	}
	return fmt.Sprintf("Invalid %s!", fe.Field())
}

// strongPassword enforces the registration password policy: at least one
// uppercase letter, one lowercase letter, one digit and one special
// character, with no spaces.
func strongPassword(pw string) bool {
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsSpace(r):
			return false
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}
