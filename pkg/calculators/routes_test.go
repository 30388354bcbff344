package calculators

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	cases := map[string]string{
		"":       "/api/calculators",
		"/":      "/api/calculators",
		"site":   "/site/api/calculators",
		"/site/": "/site/api/calculators",
	}
	for base, want := range cases {
		if got := MountPath(base); got != want {
			t.Fatalf("MountPath(%q) = %q, want %q", base, got, want)
		}
	}
	if got := MountPath("/v1", WithRoutePath("calc/")); got != "/v1/calc" {
		t.Fatalf("custom route path = %q", got)
	}
}

func TestComponent_RegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	prefix, err := New().RegisterRoutes(mux, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, target := range []string{
		prefix + "/bmi?weight=70&height=175",
		prefix + "/calories?sex=female&age=30&weight=60&height=165",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", target, rec.Code, rec.Body.String())
		}
	}

	if _, err := RegisterRoutes(nil, ""); err == nil {
		t.Fatalf("expected error for nil mux")
	}
}
