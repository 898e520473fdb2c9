// Package validation checks login form input before anything reaches the
// authentication backend.
package validation

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Reason is the outcome of validating a single field.
type Reason int

const (
	Valid Reason = iota
	InvalidEmailFormat
	PasswordTooShort
	PasswordMissingLetterOrDigit
)

func (r Reason) String() string {
	switch r {
	case Valid:
		return "valid"
	case InvalidEmailFormat:
		return "invalid_email_format"
	case PasswordTooShort:
		return "password_too_short"
	case PasswordMissingLetterOrDigit:
		return "password_missing_letter_or_digit"
	}
	return "unknown"
}

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 8

const (
	tagEmailShape  = "email_shape"
	tagLetterDigit = "letter_digit"
)

var passwordRules = "min=" + strconv.Itoa(MinPasswordLength) + "," + tagLetterDigit

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(tagEmailShape, func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation(tagLetterDigit, func(fl validator.FieldLevel) bool {
		return hasLetterAndDigit(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateEmail reports whether s has the local@domain.tld shape.
func ValidateEmail(s string) Reason {
	if failedTag(validate.Var(s, "required,"+tagEmailShape)) != "" {
		return InvalidEmailFormat
	}
	return Valid
}

// ValidatePassword enforces the password policy. Length is checked before
// composition, so a short password only ever reports PasswordTooShort.
func ValidatePassword(s string) Reason {
	switch failedTag(validate.Var(s, passwordRules)) {
	case "":
		return Valid
	case tagLetterDigit:
		return PasswordMissingLetterOrDigit
	default:
		return PasswordTooShort
	}
}

// failedTag returns the tag of the first failing rule, or "" when err is nil.
func failedTag(err error) string {
	if err == nil {
		return ""
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return ve[0].Tag()
	}
	return "invalid"
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			letter = true
		case c >= '0' && c <= '9':
			digit = true
		}
	}
	return letter && digit
}
