package post

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// UnmarshalJSON accepts the `_id` spelling used by document stores and
// normalises the decoded post.
func (p *Post) UnmarshalJSON(data []byte) error {
	type alias Post
	var wire struct {
		alias
		DocumentID     string         `json:"_id"`
		RelatedStudies []RelatedStudy `json:"relatedStudies"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("post: decode: %w", err)
	}
	decoded := Post(wire.alias)
	if strings.TrimSpace(decoded.ID) == "" {
		decoded.ID = wire.DocumentID
	}
	if len(decoded.RelatedStudies) == 0 && len(wire.RelatedStudies) > 0 {
		decoded.RelatedStudies = wire.RelatedStudies
	}
	if pos, err := ParsePosition(string(decoded.Position)); err == nil {
		decoded.Position = pos
	}
	Normalize(&decoded)
	*p = decoded
	return nil
}

// UnmarshalJSON tolerates summary/body blocks shipped as null, a single
// object or a bare string.
func (c *Content) UnmarshalJSON(data []byte) error {
	var wire struct {
		Summary json.RawMessage `json:"summary"`
		Body    json.RawMessage `json:"body"`
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = Content{Summary: []SummaryItem{}, Body: []BodySection{}}
		return nil
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return fmt.Errorf("post: decode content: %w", err)
	}

	summary, err := decodeList(wire.Summary, func(text string) SummaryItem {
		return SummaryItem{Text: text}
	})
	if err != nil {
		return fmt.Errorf("post: decode content.summary: %w", err)
	}
	body, err := decodeList(wire.Body, func(text string) BodySection {
		return BodySection{Content: text}
	})
	if err != nil {
		return fmt.Errorf("post: decode content.body: %w", err)
	}

	*c = Content{Summary: summary, Body: body}
	return nil
}

// UnmarshalJSON accepts keywords either as a list or as comma separated text.
func (s *BodySection) UnmarshalJSON(data []byte) error {
	type alias BodySection
	var wire struct {
		alias
		Keywords json.RawMessage `json:"keywords"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	section := BodySection(wire.alias)

	keywords, err := decodeKeywords(wire.Keywords)
	if err != nil {
		return fmt.Errorf("keywords: %w", err)
	}
	section.Keywords = keywords
	*s = section
	return nil
}

// UnmarshalJSON accepts the `_id` spelling for videos as well.
func (v *Video) UnmarshalJSON(data []byte) error {
	type alias Video
	var wire struct {
		alias
		DocumentID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("post: decode video: %w", err)
	}
	video := Video(wire.alias)
	if strings.TrimSpace(video.ID) == "" {
		video.ID = wire.DocumentID
	}
	*v = video
	return nil
}

func decodeList[T any](raw json.RawMessage, fromText func(string) T) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	case '{':
		var item T
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return nil, err
		}
		return []T{item}, nil
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return []T{}, nil
		}
		return []T{fromText(text)}, nil
	default:
		return nil, fmt.Errorf("unexpected JSON value %q", truncate(string(trimmed), 32))
	}
}

func decodeKeywords(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []string{}, nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, err
		}
		return SplitKeywords(text), nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	return NormalizeKeywords(list), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
