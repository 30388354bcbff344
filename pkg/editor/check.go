package editor

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

// Check runs the editor-level rules the backend contract cannot express and
// returns messages keyed by dotted path. An empty result means the draft can
// be submitted.
func (e *Editor) Check() map[string][]string {
	p := e.post
	issues := map[string][]string{}
	add := func(path, message string) {
		issues[path] = append(issues[path], message)
	}

	if strings.TrimSpace(p.Title) == "" {
		add("title", "Title is required")
	}
	if !p.Position.Valid() {
		add("position", "Choose a position")
	}
	if p.Image != "" && !isLink(p.Image, true) {
		add("image", "Image must be an http(s) URL or a site path")
	}
	if p.Meta.Date != "" {
		if _, ok := p.PublishedAt(); !ok {
			add("meta.date", "Date is not recognised")
		}
	}
	for i, section := range p.Content.Body {
		prefix := PathBody + "." + strconv.Itoa(i)
		if strings.TrimSpace(section.Headline) == "" && strings.TrimSpace(section.Content) != "" {
			add(prefix+".headline", "Headline is required when the section has content")
		}
		for j, link := range section.Hyperlinks {
			linkPrefix := prefix + ".hyperlinks." + strconv.Itoa(j)
			switch {
			case link.URL == "" && link.Text != "":
				add(linkPrefix+".url", "URL is required")
			case link.URL != "" && !isLink(link.URL, false):
				add(linkPrefix+".url", "URL must start with http:// or https://")
			}
		}
	}
	for i, study := range p.RelatedStudies {
		prefix := PathRelatedStudies + "." + strconv.Itoa(i)
		if study.Link != "" && !isLink(study.Link, false) {
			add(prefix+".link", "Link must start with http:// or https://")
		}
		if study.Link != "" && strings.TrimSpace(study.Title) == "" {
			add(prefix+".title", "Title is required")
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return issues
}

func isLink(raw string, allowPath bool) bool {
	if allowPath && strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// Merge copies generated summary and body content into the draft. Fields the
// editor already filled in are kept; generation only fills the gaps.
func (e *Editor) Merge(generated post.Post) {
	generated = generated.Clone()
	post.Normalize(&generated)
	if strings.TrimSpace(e.post.Title) == "" {
		e.post.Title = generated.Title
	}
	if e.post.Image == "" {
		e.post.Image = generated.Image
	}
	if isEmptySummary(e.post.Content.Summary) {
		e.post.Content.Summary = generated.Content.Summary
	}
	if isEmptyBody(e.post.Content.Body) {
		e.post.Content.Body = generated.Content.Body
	}
	if len(e.post.RelatedStudies) == 0 {
		e.post.RelatedStudies = generated.RelatedStudies
	}
	if e.post.Meta.ReadTime == "" {
		e.post.Meta.ReadTime = generated.Meta.ReadTime
	}
}

func isEmptySummary(items []post.SummaryItem) bool {
	for _, item := range items {
		if strings.TrimSpace(item.Title) != "" || strings.TrimSpace(item.Text) != "" {
			return false
		}
	}
	return true
}

func isEmptyBody(sections []post.BodySection) bool {
	for _, section := range sections {
		if strings.TrimSpace(section.Headline) != "" || strings.TrimSpace(section.Content) != "" ||
			len(section.Subsections) > 0 || len(section.Hyperlinks) > 0 {
			return false
		}
	}
	return true
}
