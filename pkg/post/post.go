package post

import (
	"sort"
	"strings"
	"time"
)

// Post is the article document managed through the admin editor.
type Post struct {
	ID             string         `json:"id,omitempty"`
	Title          string         `json:"title"`
	Position       Position       `json:"position"`
	Image          string         `json:"image,omitempty"`
	Meta           Meta           `json:"meta"`
	Content        Content        `json:"content"`
	RelatedStudies []RelatedStudy `json:"related_studies"`
}

// Meta carries byline information.
type Meta struct {
	Author   string `json:"author,omitempty"`
	Date     string `json:"date,omitempty"`
	Reviewer string `json:"reviewer,omitempty"`
	ReadTime string `json:"readTime,omitempty"`
}

// Content groups the summary blocks and the article body.
type Content struct {
	Summary []SummaryItem `json:"summary"`
	Body    []BodySection `json:"body"`
}

type SummaryItem struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// BodySection is a headline plus content with optional nested subsections,
// hyperlinks and keywords.
type BodySection struct {
	Headline    string       `json:"headline"`
	Content     string       `json:"content"`
	Subsections []Subsection `json:"subsections"`
	Hyperlinks  []Hyperlink  `json:"hyperlinks"`
	Keywords    []string     `json:"keywords"`
}

type Subsection struct {
	Subheading string `json:"subheading"`
	Content    string `json:"content"`
}

type Hyperlink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type RelatedStudy struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Normalize guarantees non-nil collections and tidies keywords in place.
func Normalize(p *Post) {
	if p == nil {
		return
	}
	p.ID = strings.TrimSpace(p.ID)
	if p.Content.Summary == nil {
		p.Content.Summary = []SummaryItem{}
	}
	if p.Content.Body == nil {
		p.Content.Body = []BodySection{}
	}
	for i := range p.Content.Body {
		section := &p.Content.Body[i]
		if section.Subsections == nil {
			section.Subsections = []Subsection{}
		}
		if section.Hyperlinks == nil {
			section.Hyperlinks = []Hyperlink{}
		}
		section.Keywords = NormalizeKeywords(section.Keywords)
	}
	if p.RelatedStudies == nil {
		p.RelatedStudies = []RelatedStudy{}
	}
}

// NormalizeKeywords trims entries, drops empties and duplicates (case
// insensitive) while keeping the first occurrence order.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, keyword := range keywords {
		trimmed := strings.TrimSpace(keyword)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// SplitKeywords parses comma separated keyword input.
func SplitKeywords(raw string) []string {
	return NormalizeKeywords(strings.Split(raw, ","))
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	out := p
	out.Content.Summary = append([]SummaryItem{}, p.Content.Summary...)
	out.Content.Body = make([]BodySection, len(p.Content.Body))
	for i, section := range p.Content.Body {
		out.Content.Body[i] = section.Clone()
	}
	out.RelatedStudies = append([]RelatedStudy{}, p.RelatedStudies...)
	return out
}

// Clone returns a deep copy of the section.
func (s BodySection) Clone() BodySection {
	out := s
	out.Subsections = append([]Subsection{}, s.Subsections...)
	out.Hyperlinks = append([]Hyperlink{}, s.Hyperlinks...)
	out.Keywords = append([]string{}, s.Keywords...)
	return out
}

// IsNew reports whether the post has not been persisted yet.
func (p Post) IsNew() bool {
	return strings.TrimSpace(p.ID) == ""
}

// Keywords returns every keyword across body sections, de-duplicated.
func (p Post) Keywords() []string {
	var all []string
	for _, section := range p.Content.Body {
		all = append(all, section.Keywords...)
	}
	return NormalizeKeywords(all)
}

// PublishedAt parses Meta.Date using the layouts the backend has used.
func (p Post) PublishedAt() (time.Time, bool) {
	raw := strings.TrimSpace(p.Meta.Date)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "January 2, 2006", "Jan 2, 2006", "02/01/2006"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Filter returns the posts placed in the given slot, preserving order.
func Filter(posts []Post, position Position) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.Position == position {
			out = append(out, p)
		}
	}
	return out
}

// SortByDate orders posts newest first. Posts without a parseable date keep
// their relative order after the dated ones.
func SortByDate(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		ti, okI := posts[i].PublishedAt()
		tj, okJ := posts[j].PublishedAt()
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})
}
