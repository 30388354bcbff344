package site

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	flashCookie = "vp_flash"
	csrfCookie  = "vp_csrf"
	themeCookie = "vp_theme"
	csrfField   = "_csrf"
)

// Flash is a one-off notice shown as a toast on the next page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// cookieJar signs cookie values with HMAC-SHA256.
type cookieJar struct {
	secret []byte
	secure bool
}

func (c cookieJar) sign(value string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString([]byte(value)) + "." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (c cookieJar) verify(raw string) (string, bool) {
	encoded, signature, ok := strings.Cut(raw, ".")
	if !ok {
		return "", false
	}
	value, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(value)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", false
	}
	return string(value), true
}

func (c cookieJar) set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    c.sign(value),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c cookieJar) read(r *http.Request, name string) (string, bool) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.verify(cookie.Value)
}

func (c cookieJar) setFlash(w http.ResponseWriter, kind, message string) {
	raw, err := json.Marshal(Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	c.set(w, flashCookie, string(raw), 60)
}

// popFlash returns the pending flash and clears it.
func (c cookieJar) popFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	raw, ok := c.read(r, flashCookie)
	if !ok {
		return Flash{}, false
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	var flash Flash
	if err := json.Unmarshal([]byte(raw), &flash); err != nil || flash.Message == "" {
		return Flash{}, false
	}
	return flash, true
}

// csrfToken returns the double submit token, issuing a cookie when the
// request carries none.
func (c cookieJar) csrfToken(w http.ResponseWriter, r *http.Request) string {
	if token, ok := c.read(r, csrfCookie); ok && token != "" {
		return token
	}
	token := uuid.NewString()
	c.set(w, csrfCookie, token, 0)
	return token
}

func (c cookieJar) validCSRF(r *http.Request) bool {
	token, ok := c.read(r, csrfCookie)
	if !ok || token == "" {
		return false
	}
	submitted := r.PostFormValue(csrfField)
	return subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) == 1
}
