// Package site serves the public publication and the admin post editor as
// server rendered HTML.
package site

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	goTheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-vitalpress/contract"
	"github.com/goliatone/go-vitalpress/internal/drafts"
	"github.com/goliatone/go-vitalpress/internal/openapi/loader"
	"github.com/goliatone/go-vitalpress/pkg/api"
	"github.com/goliatone/go-vitalpress/pkg/calculators"
	"github.com/goliatone/go-vitalpress/pkg/content"
	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
	"github.com/goliatone/go-vitalpress/pkg/orchestrator"
	"github.com/goliatone/go-vitalpress/pkg/render/template/gotemplate"
	"github.com/goliatone/go-vitalpress/pkg/renderers/vanilla"
	pkgtheme "github.com/goliatone/go-vitalpress/pkg/theme"
	"github.com/goliatone/go-vitalpress/pkg/validation"
)

//go:embed templates
var embeddedTemplates embed.FS

//go:embed static
var embeddedStatic embed.FS

// DraftStore persists unsaved editor state.
type DraftStore interface {
	Save(ctx context.Context, d drafts.Draft) (drafts.Draft, error)
	Get(ctx context.Context, id string) (drafts.Draft, error)
	List(ctx context.Context, limit int) ([]drafts.Draft, error)
	Delete(ctx context.Context, id string) error
	DeleteForPost(ctx context.Context, postID string) error
}

var _ DraftStore = (*drafts.Store)(nil)

// Options wires the server collaborators. Only Backend is required.
type Options struct {
	Backend   api.Backend
	Forms     *orchestrator.Orchestrator
	Validator *validation.Validator
	Themes    *pkgtheme.Resolver
	// ThemeName and ThemeVariant select the default look. Visitors can
	// switch variant through /theme/{variant}.
	ThemeName    string
	ThemeVariant string
	Catalog      *Catalog
	// Drafts is optional; nil hides the draft actions.
	Drafts  DraftStore
	Content *content.Renderer
	Metrics *Metrics
	Logger  *slog.Logger
	// AdminLogger defaults to Logger.
	AdminLogger *slog.Logger
	Admin       Credentials
	// CookieSecret signs flash and CSRF cookies.
	CookieSecret []byte
	SecureCookie bool
	Title        string
	// TemplatesDir shadows the embedded page templates with files on disk.
	TemplatesDir string
	// Static is served under /static/ ahead of the embedded assets.
	Static fs.FS
	Now    func() time.Time
}

// Server renders every page of the site.
type Server struct {
	backend   api.Backend
	forms     *orchestrator.Orchestrator
	validator *validation.Validator
	themes    *pkgtheme.Resolver
	themeName string
	variant   string
	catalog   *Catalog
	drafts    DraftStore
	content   *content.Renderer
	metrics   *Metrics
	logger    *slog.Logger
	adminLog  *slog.Logger
	admin     Credentials
	cookies   cookieJar
	title     string
	pages     atomic.Pointer[gotemplate.Engine]
	templDir  string
	static    fs.FS
	now       func() time.Time
}

// New validates opts and fills the defaults.
func New(opts Options) (*Server, error) {
	if opts.Backend == nil {
		return nil, errors.New("site: backend is required")
	}
	s := &Server{
		backend:   opts.Backend,
		forms:     opts.Forms,
		validator: opts.Validator,
		themes:    opts.Themes,
		themeName: opts.ThemeName,
		variant:   opts.ThemeVariant,
		catalog:   opts.Catalog,
		drafts:    opts.Drafts,
		content:   opts.Content,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		adminLog:  opts.AdminLogger,
		admin:     opts.Admin,
		cookies:   cookieJar{secret: opts.CookieSecret, secure: opts.SecureCookie},
		title:     strings.TrimSpace(opts.Title),
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.adminLog == nil {
		s.adminLog = s.logger
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.title == "" {
		s.title = "VitalPress"
	}
	if s.content == nil {
		s.content = content.Default()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if len(s.cookies.secret) == 0 {
		return nil, errors.New("site: cookie secret is required")
	}

	var err error
	if s.themes == nil {
		if s.themes, err = pkgtheme.NewDefaultResolver(); err != nil {
			return nil, fmt.Errorf("site: themes: %w", err)
		}
	}
	if s.catalog == nil {
		if s.catalog, err = DefaultCatalog(); err != nil {
			return nil, err
		}
	}
	if s.forms == nil {
		if s.forms, err = DefaultForms(s.themes); err != nil {
			return nil, err
		}
	}
	if s.validator == nil {
		if s.validator, err = validation.New(context.Background(), contract.MustRead(contract.Backend)); err != nil {
			return nil, fmt.Errorf("site: contract validator: %w", err)
		}
	}

	if dir := strings.TrimSpace(opts.TemplatesDir); dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("site: templates dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("site: templates dir %q is not a directory", dir)
		}
		s.templDir = dir
	}
	pages, err := s.newPages()
	if err != nil {
		return nil, err
	}
	s.pages.Store(pages)

	static, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return nil, fmt.Errorf("site: static: %w", err)
	}
	layers := []fs.FS{static, vanilla.AssetsFS()}
	if opts.Static != nil {
		layers = append([]fs.FS{opts.Static}, layers...)
	}
	s.static = layeredFS(layers)
	return s, nil
}

// DefaultForms builds the form pipeline over the embedded contract with the
// editorial presets applied.
func DefaultForms(themes *pkgtheme.Resolver) (*orchestrator.Orchestrator, error) {
	presets, err := orchestrator.NewPresetTransformerFromFS(contract.FS(), contract.Presets)
	if err != nil {
		return nil, fmt.Errorf("site: form presets: %w", err)
	}
	options := []orchestrator.Option{
		orchestrator.WithLoader(loader.New(pkgopenapi.NewLoaderOptions(pkgopenapi.WithFileSystem(contract.FS())))),
		orchestrator.WithSchemaTransformer(presets),
	}
	if themes != nil {
		options = append(options, orchestrator.WithThemeSelector(themes))
	}
	return orchestrator.New(options...), nil
}

// Reload swaps in a freshly loaded page template set and drops cached form
// operations. A template set that fails to load leaves the current one in
// place.
func (s *Server) Reload() {
	pages, err := s.newPages()
	if err != nil {
		s.logger.Error("reload templates", "error", err)
		return
	}
	s.pages.Store(pages)
	s.forms.Invalidate()
	s.logger.Info("templates reloaded")
}

// newPages loads the page templates. Files under the templates dir shadow
// the embedded ones.
func (s *Server) newPages() (*gotemplate.Engine, error) {
	embedded, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("site: templates: %w", err)
	}
	var files fs.FS = embedded
	if s.templDir != "" {
		files = layeredFS{os.DirFS(s.templDir), embedded}
	}
	pages, err := gotemplate.New(gotemplate.WithFS(files), gotemplate.WithExtension(".tmpl"))
	if err != nil {
		return nil, fmt.Errorf("site: page templates: %w", err)
	}
	return pages, nil
}

// Metrics returns the collector the server records into.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the full route table wrapped in request instrumentation.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /{slug}", s.handleCategory)
	mux.HandleFunc("GET /articles/{id}", s.handleArticle)
	mux.HandleFunc("GET /videos", s.handleVideos)
	mux.HandleFunc("GET /calculators/bmi", s.handleBMI)
	mux.HandleFunc("GET /calculators/calories", s.handleCalories)
	mux.HandleFunc("GET /theme/{variant}", s.handleThemeSwitch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))

	// The JSON calculator endpoints are method checked by the component.
	if _, err := calculators.RegisterRoutes(mux, "/"); err != nil {
		s.logger.Error("calculator routes", "error", err)
	}

	if s.admin.enabled() {
		mux.Handle("/admin/", s.requireAdmin(s.adminRoutes()))
		mux.Handle("GET /admin", http.RedirectHandler("/admin/posts", http.StatusFound))
	} else {
		s.adminLog.Warn("admin credentials not configured, editor disabled")
	}

	return s.instrument(mux)
}

func (s *Server) adminRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /admin/{$}", http.RedirectHandler("/admin/posts", http.StatusFound))
	mux.HandleFunc("GET /admin/posts", s.handleAdminPosts)
	mux.HandleFunc("GET /admin/posts/new", s.handleNewPost)
	mux.HandleFunc("POST /admin/posts/new", s.handleSubmitPost)
	mux.HandleFunc("GET /admin/posts/{id}/edit", s.handleEditPost)
	mux.HandleFunc("POST /admin/posts/{id}/edit", s.handleSubmitPost)
	mux.HandleFunc("POST /admin/posts/{id}/delete", s.handleDeletePost)
	mux.HandleFunc("GET /admin/drafts", s.handleDrafts)
	mux.HandleFunc("GET /admin/drafts/{id}", s.handleResumeDraft)
	mux.HandleFunc("POST /admin/drafts/{id}/delete", s.handleDeleteDraft)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleThemeSwitch stores the variant in a cookie and returns to the
// referring page.
func (s *Server) handleThemeSwitch(w http.ResponseWriter, r *http.Request) {
	variant := r.PathValue("variant")
	if _, err := s.themes.Select(s.themeName, variant); err != nil {
		s.renderError(w, r, http.StatusNotFound, "Unknown theme", "That colour scheme does not exist.")
		return
	}
	s.cookies.set(w, themeCookie, variant, 365*24*60*60)
	http.Redirect(w, r, localReferer(r), http.StatusSeeOther)
}

// themeFor resolves the visitor's variant, falling back to the default when
// the cookie is missing or stale.
func (s *Server) themeFor(r *http.Request) *goTheme.RendererConfig {
	selection, err := s.themes.Select(s.themeName, s.variantFor(r))
	if err != nil {
		selection, err = s.themes.Select(s.themeName, s.variant)
		if err != nil {
			s.logger.Warn("theme selection failed", "theme", s.themeName, "error", err)
			return nil
		}
	}
	return pkgtheme.RendererConfig(selection, pkgtheme.Fallbacks())
}

func (s *Server) variantFor(r *http.Request) string {
	if stored, ok := s.cookies.read(r, themeCookie); ok {
		if _, err := s.themes.Select(s.themeName, stored); err == nil {
			return stored
		}
	}
	return s.variant
}

// localReferer only follows same site referers.
func localReferer(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	if i := strings.Index(ref, "://"); i >= 0 {
		rest := ref[i+3:]
		host, path, _ := strings.Cut(rest, "/")
		if host != r.Host {
			return "/"
		}
		ref = "/" + path
	}
	if !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return "/"
	}
	return ref
}

// layeredFS opens a name from the first layer that has it.
type layeredFS []fs.FS

func (l layeredFS) Open(name string) (fs.File, error) {
	var firstErr error
	for _, layer := range l {
		f, err := layer.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return nil, firstErr
}
