package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/BuzzLyutic/taskflow/internal/validation"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object. An empty body is reported as a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &validation.Errors{Fields: []validation.FieldError{{Field: "body", Message: "request body is required"}}}
		}
		return validation.FromDecodeError(err)
	}
	return nil
}
