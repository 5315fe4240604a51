package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func TestProperty_ErrorEnvelopeIsConsistent(t *testing.T) {
	standardCodes := []int{
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusGone,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
	}

	properties := gopter.NewProperties(nil)

	properties.Property("every error response carries the same envelope", prop.ForAll(
		func(message string) bool {
			statusCode := standardCodes[len(message)%len(standardCodes)]

			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode {
				t.Logf("FAIL: expected status %d, got %d", statusCode, w.Code)
				return false
			}
			if w.Header().Get("Content-Type") != "application/json" {
				t.Logf("FAIL: wrong content type %q", w.Header().Get("Content-Type"))
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Logf("FAIL: body is not valid JSON: %v", err)
				return false
			}

			if response.Success {
				t.Logf("FAIL: error envelope reported success")
				return false
			}
			if response.Error.Code == "" {
				t.Logf("FAIL: missing error code")
				return false
			}
			if response.Error.Message != message {
				t.Logf("FAIL: expected message %q, got %q", message, response.Error.Message)
				return false
			}
			if _, err := time.Parse(time.RFC3339, response.Error.Timestamp); err != nil {
				t.Logf("FAIL: timestamp not RFC3339: %v", err)
				return false
			}

			return true
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t)
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{
		{Field: "Email", Message: "Invalid email format"},
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Success {
		t.Fatal("validation failure reported success")
	}
	if _, ok := response.Error.Details["validation_errors"]; !ok {
		t.Fatal("expected validation_errors in details")
	}
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, http.StatusCreated, map[string]string{"status": "created"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("wrong content type %q", w.Header().Get("Content-Type"))
	}

	var payload map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload["status"] != "created" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestErrorHandlingMiddlewareRecoversPanics(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	handler := ErrorHandlingMiddleware(logger)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		},
	))

	req := httptest.NewRequest("GET", "/api/products", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", w.Code)
	}

	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Error.Message != "internal server error" {
		t.Fatalf("unexpected message %q", response.Error.Message)
	}
}
