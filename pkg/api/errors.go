package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotConfigured is returned when the client has no base URL.
	ErrNotConfigured = errors.New("api: backend url is not configured")
	// ErrRateLimited is returned when the local generate limiter has no
	// token left. The request is not sent.
	ErrRateLimited = errors.New("api: generate rate limit exceeded")
)

// StatusError reports a non-2xx backend response. Fields carries per-input
// messages from 422 payloads keyed by the path the backend reported.
type StatusError struct {
	Code    int
	Op      string
	Message string
	Fields  map[string][]string
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return fmt.Sprintf("api: %s: %d %s", e.Op, e.Code, msg)
}

// StatusCode exposes the backend status for HTTP error mapping.
func (e *StatusError) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Code
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

// IsValidation reports whether err carries field level validation messages.
func IsValidation(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && (statusErr.Code == http.StatusUnprocessableEntity || len(statusErr.Fields) > 0)
}

// IsRateLimited reports whether err is the local generate limit or a backend
// 429.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests
}

// FieldErrors extracts field messages from err, or nil.
func FieldErrors(err error) map[string][]string {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return nil
	}
	return statusErr.Fields
}

// newStatusError decodes whatever error body the backend produced. Supported
// shapes: {"message"|"error": "..."} with optional "errors" given as
// {path: "msg"}, {path: ["msg", ...]} or [{"path"|"field": "...", "message": "..."}].
func newStatusError(op string, code int, body []byte) *StatusError {
	out := &StatusError{Code: code, Op: op}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return out
	}

	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		out.Message = truncate(trimmed, 200)
		return out
	}
	out.Message = payload.Message
	if out.Message == "" && len(payload.Error) > 0 {
		var text string
		if json.Unmarshal(payload.Error, &text) == nil {
			out.Message = text
		}
	}
	out.Fields = decodeFieldErrors(payload.Errors)
	return out
}

func decodeFieldErrors(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	fields := map[string][]string{}

	var byPath map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byPath); err == nil {
		for path, value := range byPath {
			var one string
			if json.Unmarshal(value, &one) == nil {
				fields[path] = append(fields[path], one)
				continue
			}
			var many []string
			if json.Unmarshal(value, &many) == nil {
				fields[path] = append(fields[path], many...)
			}
		}
		return nonEmpty(fields)
	}

	var list []struct {
		Path    string `json:"path"`
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			path := item.Path
			if path == "" {
				path = item.Field
			}
			fields[path] = append(fields[path], item.Message)
		}
	}
	return nonEmpty(fields)
}

func nonEmpty(fields map[string][]string) map[string][]string {
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
