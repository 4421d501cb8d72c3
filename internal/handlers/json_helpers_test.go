package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Fannysbth/kel1paw/internal/errs"
	"github.com/Fannysbth/kel1paw/internal/models"
)

func TestJSONResponseNormalizesNilSlices(t *testing.T) {
	w := httptest.NewRecorder()

	JSONResponse(w, http.StatusOK, models.User{GroupName: "Kelompok 1"})

	body := w.Body.String()
	if !strings.Contains(body, `"members":[]`) {
		t.Errorf("Expected nil slice encoded as [], got %s", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
}

func TestJSONResponseNestedSlices(t *testing.T) {
	w := httptest.NewRecorder()

	var comments []models.Comment
	JSONResponse(w, http.StatusOK, map[string]interface{}{"comments": comments})

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if string(decoded["comments"]) == "null" {
		t.Error("Expected empty array, got null")
	}
}

func TestErrorResponseStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", errs.NotFound("project not found"), http.StatusNotFound},
		{"forbidden", errs.Forbidden("not the owner"), http.StatusForbidden},
		{"conflict", errs.Conflict("duplicate"), http.StatusConflict},
		{"validation", errs.Validation("bad input"), http.StatusBadRequest},
		{"upstream", errs.Upstream("store failed", errors.New("timeout")), http.StatusBadGateway},
		{"untyped", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(w, tt.err)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestErrorResponseHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(w, errors.New("dial tcp 10.0.0.1: connection refused"))

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Errorf("Expected generic message, got %q", body["error"])
	}
}
