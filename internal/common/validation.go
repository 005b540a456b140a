package common

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/receipts-parser/constants"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error wrapping ErrInvalidInput, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case []byte:
		if len(v) == 0 {
			return &ValidationError{Field: fieldName, Value: "<empty>", Message: "is required"}
		}
	}
	return nil
}

// MaxBytes rejects byte slices larger than max.
func MaxBytes(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		b, ok := value.([]byte)
		if !ok || len(b) <= max {
			return nil
		}
		return &ValidationError{
			Field:   fieldName,
			Value:   fmt.Sprintf("<%d bytes>", len(b)),
			Message: fmt.Sprintf("must be at most %d bytes", max),
		}
	}
}

// SupportedExtension accepts a file name or bare extension whose format is known.
func SupportedExtension(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	ext := str
	if i := strings.LastIndex(str, "."); i >= 0 {
		ext = str[i+1:]
	}
	if constants.MapExtToFormat(ext) == "" {
		return &ValidationError{Field: fieldName, Value: value, Message: "has an unsupported file extension"}
	}
	return nil
}

// ValidateAndReturnError validates and returns InvalidArgumentError if validation fails
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return InvalidArgumentError(validator.ErrorMessage())
	}
	return nil
}
