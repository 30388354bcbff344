package render

import (
	"strings"

	"github.com/goliatone/go-vitalpress/pkg/model"
)

// ErrorMapping splits backend errors into field and form level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// wrapperSegments prefix field paths in some backend error payloads.
var wrapperSegments = map[string]struct{}{
	"body":    {},
	"data":    {},
	"payload": {},
	"request": {},
}

// MergeFormErrors concatenates messages, trimming and dropping duplicates
// while keeping order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload maps backend error keys onto dotted paths of form. Keys may
// be dotted, bracketed or JSON pointers and keep their collection indexes.
// A key the form does not know is attached to its nearest known ancestor, or
// to the form when no ancestor exists.
func MapErrorPayload(form model.FormModel, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	for raw, messages := range payload {
		messages = normalizeMessages(messages)
		if len(messages) == 0 {
			continue
		}
		path := resolveErrorPath(form, raw)
		if path == "" {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[path] = normalizeMessages(append(mapping.Fields[path], messages...))
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func resolveErrorPath(form model.FormModel, raw string) string {
	segments := errorSegments(raw)
	for len(segments) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(segments[0])]; !ok {
			break
		}
		if _, known := form.Lookup(segments[0]); known {
			break
		}
		segments = segments[1:]
	}
	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if _, ok := form.Lookup(candidate); ok {
			return candidate
		}
	}
	return ""
}

func errorSegments(raw string) []string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimLeft(clean, "#$")
	clean = strings.NewReplacer("[", ".", "]", "", "~1", "\x00", "~0", "~").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })
	for i := range parts {
		parts[i] = strings.ReplaceAll(strings.TrimSpace(parts[i]), "\x00", "/")
	}
	return parts
}

func normalizeMessages(messages []string) []string {
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
