package site

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-vitalpress/pkg/api"
	"github.com/goliatone/go-vitalpress/pkg/content"
	"github.com/goliatone/go-vitalpress/pkg/post"
)

const (
	excerptLength   = 160
	defaultPageSize = 12
	slotFetchLimit  = 4
)

// render executes a page template with the shared layout data and writes
// it with status. A template failure is logged and reported as a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	for key, value := range s.layoutData(w, r) {
		if _, exists := data[key]; !exists {
			data[key] = value
		}
	}
	var buf bytes.Buffer
	if _, err := s.pages.Load().RenderTemplate(name, data, &buf); err != nil {
		s.logger.Error("render page", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) layoutData(w http.ResponseWriter, r *http.Request) map[string]any {
	nav := make([]map[string]any, 0, len(s.catalog.Sections))
	for _, section := range s.catalog.Sections {
		nav = append(nav, map[string]any{
			"slug":   section.Slug,
			"title":  section.Title,
			"icon":   section.Icon,
			"active": r.URL.Path == "/"+section.Slug,
		})
	}
	data := map[string]any{
		"site_title": s.title,
		"nav":        nav,
		"path":       r.URL.Path,
		"year":       s.now().Year(),
	}
	if cfg := s.themeFor(r); cfg != nil {
		data["theme"] = map[string]any{
			"name":     cfg.Theme,
			"variant":  cfg.Variant,
			"css_vars": cfg.CSSVars,
		}
		if cfg.AssetURL != nil {
			data["assets"] = map[string]string{
				"stylesheet": cfg.AssetURL("site.css"),
				"logo":       cfg.AssetURL("logo"),
			}
		}
	}
	if flash, ok := s.cookies.popFlash(w, r); ok {
		data["flash"] = flash
	}
	return data
}

// renderError shows a message page. Upstream failures get a retry link
// back to the requested URL.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	data := map[string]any{
		"title":   title,
		"message": message,
		"status":  status,
	}
	if status == http.StatusBadGateway {
		data["retry"] = r.URL.RequestURI()
	}
	s.render(w, r, status, "pages/error", data)
}

func (s *Server) backendFailure(w http.ResponseWriter, r *http.Request, what string, err error) {
	s.logger.Warn("backend request failed", "what", what, "path", r.URL.Path, "error", err)
	s.renderError(w, r, http.StatusBadGateway, "We could not load "+what,
		"The content service did not answer. Please try again in a moment.")
}

// card is the template view of a post summary.
type card struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	Position string `json:"position"`
	Label    string `json:"label"`
	Author   string `json:"author"`
	Date     string `json:"date"`
	ReadTime string `json:"read_time"`
	Excerpt  string `json:"excerpt"`
}

func (s *Server) card(p post.Post) card {
	c := card{
		ID:       p.ID,
		URL:      "/articles/" + url.PathEscape(p.ID),
		Title:    p.Title,
		Image:    p.Image,
		Position: string(p.Position),
		Label:    p.Position.Label(),
		Author:   p.Meta.Author,
		Date:     displayDate(p),
		ReadTime: p.Meta.ReadTime,
	}
	if c.ReadTime == "" {
		if rt, err := s.content.PostReadTime(p); err == nil {
			c.ReadTime = rt
		}
	}
	c.Excerpt = s.excerpt(p)
	return c
}

func (s *Server) excerpt(p post.Post) string {
	var source string
	for _, item := range p.Content.Summary {
		if strings.TrimSpace(item.Text) != "" {
			source = item.Text
			break
		}
	}
	if source == "" {
		for _, section := range p.Content.Body {
			if strings.TrimSpace(section.Content) != "" {
				source = section.Content
				break
			}
		}
	}
	if source == "" {
		return ""
	}
	html, err := s.content.HTML(source)
	if err != nil {
		return ""
	}
	text, err := content.Excerpt(html, excerptLength)
	if err != nil {
		return ""
	}
	return text
}

func (s *Server) cards(posts []post.Post, limit int) []card {
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	out := make([]card, 0, len(posts))
	for _, p := range posts {
		out = append(out, s.card(p))
	}
	return out
}

func displayDate(p post.Post) string {
	if published, ok := p.PublishedAt(); ok {
		return published.Format("January 2, 2006")
	}
	return p.Meta.Date
}

type slotView struct {
	Title  string `json:"title"`
	Layout string `json:"layout"`
	Slug   string `json:"slug"`
	Cards  []card `json:"cards"`
	Failed bool   `json:"failed"`
}

// handleHome fetches every home slot concurrently. A failed slot renders
// its retry state without hiding the others; only a page where every slot
// failed answers 502.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	slots := make([]slotView, len(s.catalog.Home))
	var g errgroup.Group
	g.SetLimit(slotFetchLimit)
	for i, slot := range s.catalog.Home {
		slots[i] = slotView{Title: slot.Title, Layout: slot.Layout, Slug: string(slot.Position)}
		g.Go(func() error {
			posts, err := s.backend.ListPosts(r.Context(), slot.Position)
			if err != nil {
				s.logger.Warn("home slot failed", "position", slot.Position, "error", err)
				slots[i].Failed = true
				return nil
			}
			slots[i].Cards = s.cards(posts, slot.Limit)
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	failed := 0
	for _, slot := range slots {
		if slot.Failed {
			failed++
		}
	}
	if len(slots) > 0 && failed == len(slots) {
		status = http.StatusBadGateway
	}
	s.render(w, r, status, "pages/home", map[string]any{
		"title": s.title,
		"slots": slots,
		"retry": r.URL.RequestURI(),
	})
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	section, ok := s.catalog.Section(r.PathValue("slug"))
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Page not found", "There is nothing at this address.")
		return
	}
	posts, err := s.backend.ListPosts(r.Context(), section.Position)
	if err != nil {
		s.backendFailure(w, r, section.Title, err)
		return
	}

	size := section.Limit
	if size <= 0 {
		size = defaultPageSize
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pages := (len(posts) + size - 1) / size
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}
	start := min((page-1)*size, len(posts))
	end := min(start+size, len(posts))

	data := map[string]any{
		"title":   section.Title,
		"section": section,
		"cards":   s.cards(posts[start:end], 0),
		"page":    page,
		"pages":   pages,
	}
	if page > 1 {
		data["prev"] = pageURL(r.URL, page-1)
	}
	if page < pages {
		data["next"] = pageURL(r.URL, page+1)
	}
	s.render(w, r, http.StatusOK, "pages/category", data)
}

func pageURL(u *url.URL, page int) string {
	q := u.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	if encoded := q.Encode(); encoded != "" {
		return u.Path + "?" + encoded
	}
	return u.Path
}

type sectionView struct {
	Anchor      string           `json:"anchor"`
	Headline    string           `json:"headline"`
	HTML        string           `json:"html"`
	Subsections []subsectionView `json:"subsections"`
	Hyperlinks  []post.Hyperlink `json:"hyperlinks"`
	Keywords    []string         `json:"keywords"`
}

type subsectionView struct {
	Subheading string `json:"subheading"`
	HTML       string `json:"html"`
}

type summaryView struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	p, err := s.backend.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		if api.IsNotFound(err) {
			s.renderError(w, r, http.StatusNotFound, "Article not found", "This article was moved or never existed.")
			return
		}
		s.backendFailure(w, r, "this article", err)
		return
	}

	summary := make([]summaryView, 0, len(p.Content.Summary))
	for _, item := range p.Content.Summary {
		html, err := s.content.HTML(item.Text)
		if err != nil {
			s.logger.Warn("summary markdown", "post", p.ID, "error", err)
		}
		summary = append(summary, summaryView{Title: item.Title, HTML: html})
	}
	sections := make([]sectionView, 0, len(p.Content.Body))
	for i, section := range p.Content.Body {
		view := sectionView{
			Anchor:     "section-" + strconv.Itoa(i+1),
			Headline:   section.Headline,
			Hyperlinks: safeLinks(section.Hyperlinks),
			Keywords:   section.Keywords,
		}
		if view.HTML, err = s.content.HTML(section.Content); err != nil {
			s.logger.Warn("section markdown", "post", p.ID, "section", i, "error", err)
		}
		for _, sub := range section.Subsections {
			html, err := s.content.HTML(sub.Content)
			if err != nil {
				s.logger.Warn("subsection markdown", "post", p.ID, "section", i, "error", err)
			}
			view.Subsections = append(view.Subsections, subsectionView{Subheading: sub.Subheading, HTML: html})
		}
		sections = append(sections, view)
	}

	readTime := p.Meta.ReadTime
	if readTime == "" {
		readTime, _ = s.content.PostReadTime(p)
	}
	data := map[string]any{
		"title":     p.Title,
		"post":      p,
		"label":     p.Position.Label(),
		"date":      displayDate(p),
		"read_time": readTime,
		"summary":   summary,
		"sections":  sections,
		"related":   safeStudies(p.RelatedStudies),
	}
	for _, section := range s.catalog.Sections {
		if section.Position == p.Position {
			data["section"] = section
			break
		}
	}
	if more, err := s.backend.ListPosts(r.Context(), p.Position); err == nil {
		others := make([]post.Post, 0, len(more))
		for _, other := range more {
			if other.ID != p.ID {
				others = append(others, other)
			}
		}
		data["more"] = s.cards(others, 3)
	}
	s.render(w, r, http.StatusOK, "pages/article", data)
}

// safeLinks drops links whose scheme could run script in the page.
func safeLinks(links []post.Hyperlink) []post.Hyperlink {
	out := make([]post.Hyperlink, 0, len(links))
	for _, link := range links {
		if isSafeURL(link.URL) {
			out = append(out, link)
		}
	}
	return out
}

func safeStudies(studies []post.RelatedStudy) []post.RelatedStudy {
	out := make([]post.RelatedStudy, 0, len(studies))
	for _, study := range studies {
		if isSafeURL(study.Link) {
			out = append(out, study)
		}
	}
	return out
}

func isSafeURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || raw == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "":
		return true
	}
	return false
}

type videoView struct {
	post.Video
	Embed string `json:"embed"`
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.backend.ListVideos(r.Context())
	if err != nil {
		s.backendFailure(w, r, "the video gallery", err)
		return
	}
	active := strings.TrimSpace(r.URL.Query().Get("category"))
	var categories []string
	seen := map[string]struct{}{}
	views := make([]videoView, 0, len(videos))
	for _, video := range videos {
		if video.Category != "" {
			if _, ok := seen[video.Category]; !ok {
				seen[video.Category] = struct{}{}
				categories = append(categories, video.Category)
			}
		}
		if active != "" && !strings.EqualFold(video.Category, active) {
			continue
		}
		views = append(views, videoView{Video: video, Embed: EmbedURL(video.URL)})
	}
	s.render(w, r, http.StatusOK, "pages/videos", map[string]any{
		"title":      "Videos",
		"videos":     views,
		"categories": categories,
		"active":     active,
	})
}

// EmbedURL rewrites YouTube and Vimeo watch links into their embeddable
// player URL. Other links are returned unchanged.
func EmbedURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return "https://www.youtube-nocookie.com/embed/" + url.PathEscape(id)
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok && rest != "" {
			return "https://www.youtube-nocookie.com/embed/" + url.PathEscape(rest)
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "https://www.youtube-nocookie.com/embed/" + url.PathEscape(id)
		}
	case "vimeo.com":
		if id := strings.Trim(u.Path, "/"); id != "" && !strings.Contains(id, "/") {
			return "https://player.vimeo.com/video/" + url.PathEscape(id)
		}
	}
	return raw
}
