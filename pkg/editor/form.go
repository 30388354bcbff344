package editor

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

// Apply replaces the draft with the contents of a submitted form. Keys that do
// not address a post field (such as _action or _csrf) are ignored. Item
// indexes are compacted in numeric order, so gaps left by a removed row never
// produce empty items. The draft id survives when the form omits it. A
// collection key with a non-numeric index fails the whole submission and
// leaves the draft untouched.
func (e *Editor) Apply(values url.Values) error {
	root := newNode()
	for key, entries := range values {
		if strings.HasPrefix(key, "_") || len(entries) == 0 {
			continue
		}
		root.insert(SplitPath(key), entries[len(entries)-1])
	}

	var bad []string
	list := func(n *node, path string) []*node {
		items, invalid := n.items()
		for _, key := range invalid {
			bad = append(bad, JoinPath(path, key))
		}
		return items
	}

	next := post.Post{
		ID:       root.text("id"),
		Title:    root.text("title"),
		Image:    root.text("image"),
		Position: parsePosition(root.text("position")),
	}
	if next.ID == "" {
		next.ID = e.post.ID
	}
	if meta := root.child("meta"); meta != nil {
		next.Meta = post.Meta{
			Author:   meta.text("author"),
			Date:     meta.text("date"),
			Reviewer: meta.text("reviewer"),
			ReadTime: meta.text("readTime"),
		}
	}
	content := root.child("content")
	for _, item := range list(content.child("summary"), PathSummary) {
		next.Content.Summary = append(next.Content.Summary, post.SummaryItem{
			Title: item.text("title"),
			Text:  item.block("text"),
		})
	}
	for i, item := range list(content.child("body"), PathBody) {
		section := blankSection()
		section.Headline = item.text("headline")
		section.Content = item.block("content")
		section.Keywords = post.SplitKeywords(item.text("keywords"))
		for _, sub := range list(item.child("subsections"), SubsectionsPath(i)) {
			section.Subsections = append(section.Subsections, post.Subsection{
				Subheading: sub.text("subheading"),
				Content:    sub.block("content"),
			})
		}
		for _, link := range list(item.child("hyperlinks"), HyperlinksPath(i)) {
			section.Hyperlinks = append(section.Hyperlinks, post.Hyperlink{
				Text: link.text("text"),
				URL:  link.text("url"),
			})
		}
		next.Content.Body = append(next.Content.Body, section)
	}
	for _, item := range list(root.child("related_studies"), PathRelatedStudies) {
		next.RelatedStudies = append(next.RelatedStudies, post.RelatedStudy{
			Title: item.text("title"),
			Link:  item.text("link"),
		})
	}

	if len(bad) > 0 {
		sort.Strings(bad)
		return invalidPath(strings.Join(bad, ", "))
	}
	post.Normalize(&next)
	e.post = next
	return nil
}

// Values flattens the draft into dotted-path prefill values for the renderer.
// Keywords are joined with ", " to match the single text input they edit.
func (e *Editor) Values() map[string]any {
	p := e.post
	out := map[string]any{
		"id":            p.ID,
		"title":         p.Title,
		"image":         p.Image,
		"position":      p.Position.String(),
		"meta.author":   p.Meta.Author,
		"meta.date":     p.Meta.Date,
		"meta.reviewer": p.Meta.Reviewer,
		"meta.readTime": p.Meta.ReadTime,
	}
	for i, item := range p.Content.Summary {
		prefix := PathSummary + "." + strconv.Itoa(i)
		out[prefix+".title"] = item.Title
		out[prefix+".text"] = item.Text
	}
	for i, section := range p.Content.Body {
		prefix := PathBody + "." + strconv.Itoa(i)
		out[prefix+".headline"] = section.Headline
		out[prefix+".content"] = section.Content
		out[prefix+".keywords"] = strings.Join(section.Keywords, ", ")
		for j, sub := range section.Subsections {
			subPrefix := prefix + ".subsections." + strconv.Itoa(j)
			out[subPrefix+".subheading"] = sub.Subheading
			out[subPrefix+".content"] = sub.Content
		}
		for j, link := range section.Hyperlinks {
			linkPrefix := prefix + ".hyperlinks." + strconv.Itoa(j)
			out[linkPrefix+".text"] = link.Text
			out[linkPrefix+".url"] = link.URL
		}
	}
	for i, study := range p.RelatedStudies {
		prefix := PathRelatedStudies + "." + strconv.Itoa(i)
		out[prefix+".title"] = study.Title
		out[prefix+".link"] = study.Link
	}
	return out
}

// Counts reports the item count of every collection in the draft, keyed by
// collection path. Empty collections are included so the renderer can show
// their add button.
func (e *Editor) Counts() map[string]int {
	p := e.post
	out := map[string]int{
		PathSummary:        len(p.Content.Summary),
		PathBody:           len(p.Content.Body),
		PathRelatedStudies: len(p.RelatedStudies),
	}
	for i, section := range p.Content.Body {
		out[SubsectionsPath(i)] = len(section.Subsections)
		out[HyperlinksPath(i)] = len(section.Hyperlinks)
	}
	return out
}

type node struct {
	value    string
	children map[string]*node
}

func newNode() *node {
	return &node{children: map[string]*node{}}
}

func (n *node) insert(segments []string, value string) {
	current := n
	for _, segment := range segments {
		next, ok := current.children[segment]
		if !ok {
			next = newNode()
			current.children[segment] = next
		}
		current = next
	}
	current.value = value
}

func (n *node) child(name string) *node {
	if n == nil {
		return nil
	}
	return n.children[name]
}

// text returns a single-line value with surrounding space removed.
func (n *node) text(name string) string {
	if c := n.child(name); c != nil {
		return strings.TrimSpace(c.value)
	}
	return ""
}

// block returns multi-line Markdown as submitted, with CRLF line endings
// folded to LF. Indentation is significant there.
func (n *node) block(name string) string {
	if c := n.child(name); c != nil {
		return strings.ReplaceAll(c.value, "\r\n", "\n")
	}
	return ""
}

// items returns numeric children ordered by index plus any non-numeric keys.
func (n *node) items() ([]*node, []string) {
	if n == nil {
		return nil, nil
	}
	var invalid []string
	indexes := make([]int, 0, len(n.children))
	byIndex := make(map[int]*node, len(n.children))
	for key, c := range n.children {
		index, ok := parseIndex(key)
		if !ok {
			invalid = append(invalid, key)
			continue
		}
		indexes = append(indexes, index)
		byIndex[index] = c
	}
	sort.Ints(indexes)
	out := make([]*node, 0, len(indexes))
	for _, index := range indexes {
		out = append(out, byIndex[index])
	}
	return out, invalid
}
