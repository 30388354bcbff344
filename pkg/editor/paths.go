package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidPath is returned when a path does not address a post field.
	ErrInvalidPath = errors.New("editor: invalid path")
	// ErrIndexOutOfRange is returned when a path references a missing item.
	ErrIndexOutOfRange = errors.New("editor: index out of range")
	// ErrUnknownAction is returned for unrecognised form actions.
	ErrUnknownAction = errors.New("editor: unknown action")
)

// Collection paths that accept Add.
const (
	PathSummary        = "content.summary"
	PathBody           = "content.body"
	PathRelatedStudies = "related_studies"
)

// SubsectionsPath returns the subsection collection path for a body section.
func SubsectionsPath(section int) string {
	return fmt.Sprintf("%s.%d.subsections", PathBody, section)
}

// HyperlinksPath returns the hyperlink collection path for a body section.
func HyperlinksPath(section int) string {
	return fmt.Sprintf("%s.%d.hyperlinks", PathBody, section)
}

// SplitPath breaks a dotted or bracketed field name into segments.
// "content[body][0][headline]" and "content.body.0.headline" are equivalent.
func SplitPath(path string) []string {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return nil
	}
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.Split(clean, ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		out = append(out, canonicalSegment(segment))
	}
	return out
}

// JoinPath joins segments back into a dotted path.
func JoinPath(segments ...string) string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, ".")
}

func canonicalSegment(segment string) string {
	switch segment {
	case "relatedStudies", "related-studies":
		return "related_studies"
	case "read_time", "readtime":
		return "readTime"
	default:
		return segment
	}
}

func parseIndex(segment string) (int, bool) {
	if segment == "" {
		return 0, false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	index, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return index, true
}

func invalidPath(path string) error {
	return fmt.Errorf("%w: %q", ErrInvalidPath, path)
}

func outOfRange(path string, index, length int) error {
	return fmt.Errorf("%w: %q (index %d, length %d)", ErrIndexOutOfRange, path, index, length)
}
