package model

import "strings"

func splitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), ".")
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func isIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Locate returns a pointer to the field at path inside fields so callers can
// adjust it in place. Array items are reached with or without a numeric
// segment, so "content.body.0.headline" and "content.body.headline" match.
func Locate(fields []Field, path string) *Field {
	return locate(fields, splitPath(path))
}

func locate(fields []Field, segments []string) *Field {
	if len(segments) == 0 {
		return nil
	}
	for i := range fields {
		if fields[i].Name != segments[0] {
			continue
		}
		current := &fields[i]
		rest := segments[1:]
		for len(rest) > 0 && isIndex(rest[0]) {
			if current.Items == nil {
				return nil
			}
			current = current.Items
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return current
		}
		if current.Type == FieldTypeArray && current.Items != nil {
			current = current.Items
		}
		return locate(current.Nested, rest)
	}
	return nil
}
