package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// FieldError describes a single violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors accumulates every violated field so callers can report them all at
// once instead of failing on the first one.
type Errors struct {
	Fields []FieldError `json:"fields"`
}

func (e *Errors) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *Errors) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error implements the error interface
func (e *Errors) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns the accumulated errors, or nil when everything validated.
func (e *Errors) Err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// Required adds an error when value is empty after trimming.
func (e *Errors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "is required")
	}
}

// Email adds an error when value is not a parseable address. Empty values are
// ignored so optional emails can be checked with Required separately.
func (e *Errors) Email(field, value string) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		e.Add(field, "must be a valid email address")
	}
}

// URL adds an error when value is not an absolute http(s) URL.
func (e *Errors) URL(field, value string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		e.Add(field, "must be a valid http(s) URL")
	}
}

// OneOf adds an error when value is not in the allowed set.
func (e *Errors) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	e.Add(field, fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")))
}

// ValidateUUID checks that id is a well-formed UUID.
func ValidateUUID(id, fieldName string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid %s format: %w", fieldName, err)
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email for use as a dedup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
