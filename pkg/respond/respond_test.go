package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	return got
}

func TestOK(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		data     interface{}
		message  string
		wantBody map[string]interface{}
	}{
		{
			name:     "object payload",
			code:     http.StatusOK,
			data:     map[string]string{"title": "a"},
			wantBody: map[string]interface{}{"success": true, "data": map[string]interface{}{"title": "a"}},
		},
		{
			name:     "created with message",
			code:     http.StatusCreated,
			data:     map[string]int{"id": 123},
			message:  "Task created successfully",
			wantBody: map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"id": float64(123)}, // JSON unmarshals numbers as float64
				"message": "Task created successfully",
			},
		},
		{
			name:     "empty list is kept",
			code:     http.StatusOK,
			data:     []string{},
			wantBody: map[string]interface{}{"success": true, "data": []interface{}{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			OK(w, r, tt.code, tt.data, tt.message)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, decode(t, w))
		})
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		message string
	}{
		{"bad request", http.StatusBadRequest, "invalid input"},
		{"not found", http.StatusNotFound, "Task not found"},
		{"internal error", http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			Error(w, r, tt.code, tt.message)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, map[string]interface{}{"success": false, "error": tt.message}, decode(t, w))
		})
	}
}

func TestMessage(t *testing.T) {
	w := httptest.NewRecorder()
	Message(w, httptest.NewRequest(http.MethodDelete, "/", nil), http.StatusOK, "Task deleted successfully")

	assert.Equal(t, map[string]interface{}{"success": true, "message": "Task deleted successfully"}, decode(t, w))
}

func TestInvalid(t *testing.T) {
	w := httptest.NewRecorder()
	Invalid(w, httptest.NewRequest(http.MethodPost, "/", nil), "", []FieldError{
		{Field: "title", Message: "Title is required"},
		{Field: "priority", Message: "Priority is required"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	got := decode(t, w)
	assert.Equal(t, false, got["success"])
	assert.Equal(t, "Title is required", got["error"])
	assert.Len(t, got["fields"], 2)
}
