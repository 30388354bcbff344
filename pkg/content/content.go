// Package content turns article markdown into sanitized HTML and estimates
// read times.
package content

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

// WordsPerMinute is the reading speed used by ReadTime.
const WordsPerMinute = 200

// Renderer converts markdown to HTML safe to embed in pages.
type Renderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewRenderer builds a GFM renderer with the UGC sanitizer policy. Links
// get rel="nofollow noopener" and open in a new tab.
func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: policy,
	}
}

var (
	defaultOnce     sync.Once
	defaultRenderer *Renderer
)

// Default returns a shared renderer.
func Default() *Renderer {
	defaultOnce.Do(func() { defaultRenderer = NewRenderer() })
	return defaultRenderer
}

// HTML renders markdown and sanitizes the result.
func (r *Renderer) HTML(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("content: render markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// Sanitize cleans an HTML fragment with the renderer policy.
func (r *Renderer) Sanitize(fragment string) string {
	return r.policy.Sanitize(fragment)
}

// Words counts the words of the visible text in an HTML fragment.
func Words(fragment string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return 0, fmt.Errorf("content: parse html: %w", err)
	}
	return len(strings.Fields(doc.Text())), nil
}

// ReadTime estimates the minutes needed to read an HTML fragment. The
// result is never below one minute.
func ReadTime(fragment string) (int, error) {
	words, err := Words(fragment)
	if err != nil {
		return 0, err
	}
	return minutes(words), nil
}

func minutes(words int) int {
	return max(1, int(math.Ceil(float64(words)/WordsPerMinute)))
}

// PostReadTime renders every text block of p and returns the estimate
// formatted the way the site shows it, e.g. "4 min".
func (r *Renderer) PostReadTime(p post.Post) (string, error) {
	var sb strings.Builder
	for _, item := range p.Content.Summary {
		sb.WriteString(item.Title + "\n\n" + item.Text + "\n\n")
	}
	for _, section := range p.Content.Body {
		sb.WriteString("## " + section.Headline + "\n\n" + section.Content + "\n\n")
		for _, sub := range section.Subsections {
			sb.WriteString("### " + sub.Subheading + "\n\n" + sub.Content + "\n\n")
		}
	}
	rendered, err := r.HTML(sb.String())
	if err != nil {
		return "", err
	}
	n, err := ReadTime(rendered)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d min", n), nil
}

// FillReadTime sets Meta.ReadTime when it is empty.
func (r *Renderer) FillReadTime(p *post.Post) error {
	if p == nil || strings.TrimSpace(p.Meta.ReadTime) != "" {
		return nil
	}
	value, err := r.PostReadTime(*p)
	if err != nil {
		return err
	}
	p.Meta.ReadTime = value
	return nil
}

// Excerpt returns the first n words of the visible text of fragment,
// followed by an ellipsis when truncated.
func Excerpt(fragment string, n int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("content: parse html: %w", err)
	}
	words := strings.Fields(doc.Text())
	if n <= 0 || len(words) <= n {
		return strings.Join(words, " "), nil
	}
	return strings.Join(words[:n], " ") + "…", nil
}
