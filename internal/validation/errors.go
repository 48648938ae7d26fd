package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors lists every violated field of a rejected input.
type Errors struct {
	Fields []FieldError
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Message returns the first message reported for field.
func (e *Errors) Message(field string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message, true
		}
	}
	return "", false
}

func (e *Errors) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *Errors) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// FromDecodeError turns a JSON type mismatch into a field diagnostic.
// Other decode errors are reported against the body as a whole.
func FromDecodeError(err error) *Errors {
	errs := &Errors{}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		errs.add(typeErr.Field, fmt.Sprintf("must be of type %s", typeErr.Type))
		return errs
	}
	errs.add("body", "invalid json")
	return errs
}
