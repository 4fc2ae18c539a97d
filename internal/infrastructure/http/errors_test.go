package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"3tcapital/ms_extraccion_gastos/internal/testutil"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		message    string
		errors     []string
	}{
		{
			name:       "validation error",
			statusCode: http.StatusBadRequest,
			message:    "Error de Validación",
			errors:     []string{"El campo adjunto es requerido"},
		},
		{
			name:       "multiple details",
			statusCode: http.StatusUnprocessableEntity,
			message:    "Error de Validación",
			errors:     []string{"LOW_RESOLUTION", "MISSING_TOTAL"},
		},
		{
			name:       "empty details",
			statusCode: http.StatusInternalServerError,
			message:    "Error Interno",
			errors:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.statusCode, tt.message, tt.errors, testutil.NewNullLogger())

			if rec.Code != tt.statusCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.statusCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var got ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if got.Message != tt.message {
				t.Errorf("message = %q, want %q", got.Message, tt.message)
			}
			if !reflect.DeepEqual(got.Errors, tt.errors) {
				t.Errorf("errors = %v, want %v", got.Errors, tt.errors)
			}
		})
	}
}

func TestWriteError_NilLogger(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "Error de Validación", []string{"detalle"}, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

type failingResponseWriter struct {
	http.ResponseWriter
}

func (f *failingResponseWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestWriteError_EncodingFailureDoesNotPanic(t *testing.T) {
	w := &failingResponseWriter{ResponseWriter: httptest.NewRecorder()}
	WriteError(w, http.StatusBadRequest, "Error Interno", []string{"detalle"}, testutil.NewNullLogger())
}
