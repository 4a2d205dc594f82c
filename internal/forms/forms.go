// Package forms validates user input before anything is sent to the server.
package forms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/five82/shelf/internal/failure"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// messages maps "<Struct>.<Field>.<tag>" to the text shown to the user.
var messages = map[string]string{
	"LoginForm.Username.notblank": "Username is required",
	"LoginForm.Password.required": "Password is required",

	"RegisterForm.FullName.min":      "Full name must be between 2 and 100 characters",
	"RegisterForm.FullName.max":      "Full name must be between 2 and 100 characters",
	"RegisterForm.Username.notblank": "Username (Gmail) is required",
	"RegisterForm.Username.email":    "Username must be a valid email address",
	"RegisterForm.Password.required": "Password is required",
	"RegisterForm.Password.min":      "Password must be at least 6 characters",

	"PasswordForm.Current.required": "Current password is required",
	"PasswordForm.Confirm.eqfield":  "New passwords do not match",
	"PasswordForm.New.min":          "New password must be at least 6 characters long",

	"BookForm.Title.notblank": "Title is required",

	"ProfileForm.FullName.notblank": "Full name is required",
	"ProfileForm.Username.notblank": "Username is required",
}

// LoginForm is the sign-in input.
type LoginForm struct {
	Username string `validate:"notblank"`
	Password string `validate:"required"`
}

// RegisterForm is the sign-up input.
type RegisterForm struct {
	FullName string `validate:"min=2,max=100"`
	Username string `validate:"notblank,email"`
	Password string `validate:"required,min=6"`
}

// PasswordForm is the password change input. Confirm is declared before New
// so a mismatch is reported ahead of the length rule.
type PasswordForm struct {
	Current string `validate:"required"`
	Confirm string `validate:"eqfield=New"`
	New     string `validate:"min=6"`
}

// BookForm carries the fields of a book that need checking.
type BookForm struct {
	Title string `validate:"notblank"`
}

// ProfileForm is the profile update input.
type ProfileForm struct {
	FullName string `validate:"notblank"`
	Username string `validate:"notblank"`
}

// Check validates v and returns the first problem as a validation failure.
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return failure.Invalid("Invalid input")
	}
	return failure.Invalid(message(fieldErrs[0]))
}

func message(e validator.FieldError) string {
	key := e.StructNamespace() + "." + e.Tag()
	if msg, ok := messages[key]; ok {
		return msg
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", e.Field(), e.Tag())
}
