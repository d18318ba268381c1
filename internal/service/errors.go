package service

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	ErrTooManyAttempts = errors.New("too many failed login attempts")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrEmailTaken      = errors.New("email already exists")
	ErrUserNotFound    = errors.New("user not found")
)

// ValidationError reports invalid service input. Field and Message describe the
// first failing field in name order; Fields holds every failure.
type ValidationError struct {
	Field   string
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Details returns every failing field with its message.
func (e *ValidationError) Details() map[string]any {
	details := make(map[string]any, len(e.Fields)+1)
	for field, message := range e.Fields {
		details[field] = message
	}
	if e.Field != "" {
		details[e.Field] = e.Message
	}
	return details
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func fromValidation(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	errs, _ = errs.Filter().(validation.Errors)
	if len(errs) == 0 {
		return nil
	}

	fields := make([]string, 0, len(errs))
	messages := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		fields = append(fields, field)
		messages[field] = fieldErr.Error()
	}
	sort.Strings(fields)
	return &ValidationError{Field: fields[0], Message: messages[fields[0]], Fields: messages}
}
