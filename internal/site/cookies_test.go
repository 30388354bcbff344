package site

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCookieJar_SignVerify(t *testing.T) {
	jar := cookieJar{secret: []byte("one")}
	signed := jar.sign("dark")
	got, ok := jar.verify(signed)
	if !ok || got != "dark" {
		t.Fatalf("verify = %q %v", got, ok)
	}

	other := cookieJar{secret: []byte("two")}
	if _, ok := other.verify(signed); ok {
		t.Fatalf("verified with the wrong secret")
	}
	value, sig, _ := strings.Cut(signed, ".")
	light, _, _ := strings.Cut(jar.sign("light"), ".")
	for _, tampered := range []string{value, light + "." + sig, value + ".", ""} {
		if _, ok := jar.verify(tampered); ok {
			t.Errorf("tampered value %q verified", tampered)
		}
	}
}

func TestCookieJar_Flash(t *testing.T) {
	jar := cookieJar{secret: []byte("secret")}
	rec := httptest.NewRecorder()
	jar.setFlash(rec, "success", "Saved.")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	out := httptest.NewRecorder()
	flash, ok := jar.popFlash(out, req)
	if !ok {
		t.Fatalf("flash not found")
	}
	if diff := cmp.Diff(Flash{Kind: "success", Message: "Saved."}, flash); diff != "" {
		t.Fatalf("flash mismatch (-want +got):\n%s", diff)
	}
	cleared := out.Result().Cookies()
	if len(cleared) != 1 || cleared[0].Name != flashCookie || cleared[0].MaxAge >= 0 {
		t.Fatalf("flash cookie not cleared: %+v", cleared)
	}
}

func TestCookieJar_CSRF(t *testing.T) {
	jar := cookieJar{secret: []byte("secret")}
	rec := httptest.NewRecorder()
	token := jar.csrfToken(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if token == "" {
		t.Fatalf("empty token")
	}
	cookies := rec.Result().Cookies()

	submit := func(value string) bool {
		form := url.Values{csrfField: {value}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		return jar.validCSRF(req)
	}
	if !submit(token) {
		t.Fatalf("matching token rejected")
	}
	if submit("forged") {
		t.Fatalf("forged token accepted")
	}

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		again.AddCookie(c)
	}
	reuse := httptest.NewRecorder()
	if got := jar.csrfToken(reuse, again); got != token {
		t.Fatalf("token rotated: %q != %q", got, token)
	}
	if len(reuse.Result().Cookies()) != 0 {
		t.Fatalf("cookie reissued for a valid token")
	}
}

func TestCredentials(t *testing.T) {
	creds := Credentials{Username: "editor", Password: "pw"}
	if !creds.enabled() || !creds.matches("editor", "pw") {
		t.Fatalf("valid credentials rejected")
	}
	if creds.matches("editor", "nope") || creds.matches("admin", "pw") {
		t.Fatalf("invalid credentials accepted")
	}
	if (Credentials{Username: "editor"}).enabled() {
		t.Fatalf("credentials without password should be disabled")
	}
}
