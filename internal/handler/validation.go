package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"notes-api/pkg/response"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var personNamePattern = regexp.MustCompile(`^[a-zA-Z\s-]+$`)

// newValidator returns a validator that reports JSON field names and knows
// the password, name and non-blank rules used by the request types.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
	v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// isStrongPassword requires an upper-case letter, a lower-case letter, a
// digit and a symbol.
func isStrongPassword(s string) bool {
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// bodyError is a client mistake in the request body; its text is shown to
// the caller as is.
type bodyError string

func (e bodyError) Error() string { return string(e) }

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return bodyError("Request body is required")
		}
		if strings.HasPrefix(err.Error(), "json: unknown field ") {
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return bodyError("Unrecognized key: " + field)
		}
		return bodyError("Invalid request body")
	}
	return nil
}

// validationMessages turns validator errors into user-facing messages, one
// per failed field.
func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldMessage(fe))
	}
	return messages
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", displayName(field))
	case "email":
		return "Email is not valid"
	case "min":
		if field == "password" || field == "newPassword" {
			return "Password is too short - should be at least 8 characters"
		}
		return fmt.Sprintf("%s must be at least %s characters", displayName(field), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s long", displayName(field), fe.Param())
	case "strongpassword":
		return "Password should contain capital letters, small letters, numbers and special characters"
	case "personname":
		return fmt.Sprintf("%s must only contain letters, spaces, and hyphens", displayName(field))
	case "notblank":
		return fmt.Sprintf("%s cannot be empty", displayName(field))
	}

	return fmt.Sprintf("%s is invalid", displayName(field))
}

func displayName(field string) string {
	switch field {
	case "firstName":
		return "Firstname"
	case "lastName":
		return "Lastname"
	case "newPassword", "currentPassword":
		return "Password"
	}
	if field == "" {
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

// bind decodes and validates the body into dst. On failure it has already
// written the 400 response.
func bind(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		response.BadRequest(w, err.Error())
		return false
	}

	if err := v.Struct(dst); err != nil {
		messages := validationMessages(err)
		response.ValidationError(w, strings.Join(messages, ", "), messages)
		return false
	}

	return true
}
