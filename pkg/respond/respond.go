// Package respond writes every API response in a single envelope:
// {success, data?, error?, message?, fields?}.
package respond

import (
	"encoding/json"
	"net/http"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, r *http.Request, code int, data any, message string) {
	JSON(w, r, code, Envelope{Success: true, Data: data, Message: message})
}

// Message отвечает успехом без данных
func Message(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, Envelope{Success: true, Message: message})
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, Envelope{Success: false, Error: message})
}

// Invalid reports a rejected input; message is the first field's message when empty.
func Invalid(w http.ResponseWriter, r *http.Request, message string, fields []FieldError) {
	if message == "" && len(fields) > 0 {
		message = fields[0].Message
	}
	JSON(w, r, http.StatusBadRequest, Envelope{Success: false, Error: message, Fields: fields})
}
