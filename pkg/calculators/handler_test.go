package calculators

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandler_BMI(t *testing.T) {
	rec := serve(t, Handler(), http.MethodGet, "/api/calculators/bmi?weight=70&height=175")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
	var payload struct {
		Data BMIResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.Value != 22.9 || payload.Data.Category != Normal {
		t.Fatalf("unexpected payload: %+v", payload.Data)
	}
}

func TestHandler_ValidationError(t *testing.T) {
	rec := serve(t, Handler(), http.MethodGet, "/api/calculators/calories?sex=male&age=30&weight=80")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var payload errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Field != "height" || payload.Error != "is required" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHandler_MethodsAndGuard(t *testing.T) {
	rec := serve(t, Handler(), http.MethodPost, "/api/calculators/bmi")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = serve(t, Handler(), http.MethodGet, "/api/calculators/tdee")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	guarded := Handler(WithGuard(func(*http.Request) error {
		return StatusError{Code: http.StatusTooManyRequests}
	}))
	rec = serve(t, guarded, http.MethodGet, "/api/calculators/bmi?weight=70&height=175")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	rec = serve(t, Handler(), http.MethodHead, "/api/calculators/bmi?weight=70&height=175")
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("HEAD should return 200 with no body, got %d %q", rec.Code, rec.Body.String())
	}
}
