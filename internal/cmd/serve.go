package cmd

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-vitalpress/internal/config"
	"github.com/goliatone/go-vitalpress/internal/drafts"
	"github.com/goliatone/go-vitalpress/internal/logging"
	"github.com/goliatone/go-vitalpress/internal/site"
	"github.com/goliatone/go-vitalpress/internal/warmup"
	"github.com/goliatone/go-vitalpress/pkg/post"
	pkgtheme "github.com/goliatone/go-vitalpress/pkg/theme"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the public site and the admin editor",
		Long: `Start the HTTP server.

Example:
  vitalpress serve                          # listen on server.addr (default :8080)
  vitalpress serve --addr 127.0.0.1:3000    # override the listen address
  VITALPRESS_SITE_TEMPLATES_DIR=./templates vitalpress serve   # live template edits`,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := logging.Web()

	metrics := site.NewMetrics()
	svc, err := newServices(ctx, cfg, metrics.ObserveBackend)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts, cleanup, err := siteOptions(ctx, cfg)
	defer cleanup()
	if err != nil {
		return err
	}
	opts.Backend = svc.backend
	opts.Metrics = metrics

	server, err := site.New(opts)
	if err != nil {
		return err
	}

	if dir := cfg.Site.TemplatesDir; dir != "" {
		reloader, err := site.NewReloader(server.Reload, logger, dir)
		if err != nil {
			return fmt.Errorf("watch templates: %w", err)
		}
		defer reloader.Close()
		logger.Info("watching templates", "dir", dir)
	}

	g, ctx := errgroup.WithContext(ctx)

	if svc.cached != nil && cfg.Warmup.Schedule != "" {
		scheduler, err := warmup.New(svc.cached, warmupConfig(cfg), logging.Warmup())
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		g.Go(func() error {
			if err := scheduler.RunOnce(ctx); err != nil {
				logging.Warmup().Warn("initial warmup incomplete", "error", err)
			}
			return nil
		})
	}
	if svc.memory != nil {
		g.Go(func() error {
			sweepCache(ctx, svc, cfg.Cache.TTL)
			return nil
		})
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	g.Go(func() error {
		logger.Info("listening", "addr", addr, "backend", svc.client.BaseURL(), "admin", cfg.AdminEnabled())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// siteOptions maps configuration onto site.Options. cleanup is always
// safe to call.
func siteOptions(ctx context.Context, c config.Config) (site.Options, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, fn := range closers {
			_ = fn()
		}
	}
	opts := site.Options{
		ThemeName:    c.Theme.Name,
		ThemeVariant: c.Theme.Variant,
		Logger:       logging.Web(),
		AdminLogger:  logging.Admin(),
		SecureCookie: c.Admin.SecureCookie,
		Title:        c.Site.Title,
		TemplatesDir: c.Site.TemplatesDir,
	}

	themes, err := pkgtheme.NewDefaultResolver()
	if err != nil {
		return opts, cleanup, err
	}
	if c.Theme.Dir != "" {
		if err := themes.LoadFS(os.DirFS(c.Theme.Dir), "."); err != nil {
			return opts, cleanup, err
		}
	}
	opts.Themes = themes

	if c.Site.Sections != "" {
		if opts.Catalog, err = site.LoadCatalogFile(c.Site.Sections); err != nil {
			return opts, cleanup, err
		}
	}

	if c.AdminEnabled() {
		opts.Admin = site.Credentials{Username: c.Admin.Username, Password: c.Admin.Password}
	}
	opts.CookieSecret = []byte(c.Admin.CookieSecret)
	if len(opts.CookieSecret) == 0 {
		opts.CookieSecret = make([]byte, 32)
		if _, err := rand.Read(opts.CookieSecret); err != nil {
			return opts, cleanup, fmt.Errorf("cookie secret: %w", err)
		}
		logging.Admin().Warn("admin.cookie_secret not set, editor sessions end on restart")
	}

	if c.Drafts.Path != "" {
		store, err := drafts.Open(ctx, c.Drafts.Path)
		if err != nil {
			return opts, cleanup, err
		}
		closers = append(closers, store.Close)
		opts.Drafts = store
		logging.Drafts().Info("drafts enabled", "path", c.Drafts.Path)
	}
	return opts, cleanup, nil
}

func warmupConfig(c config.Config) warmup.Config {
	positions := make([]post.Position, 0, len(c.Warmup.Positions))
	for _, raw := range c.Warmup.Positions {
		// Validated when the config was loaded.
		if p, err := post.ParsePosition(raw); err == nil {
			positions = append(positions, p)
		}
	}
	return warmup.Config{
		Schedule:  c.Warmup.Schedule,
		Positions: positions,
		Videos:    c.Warmup.Videos,
	}
}

// sweepCache drops expired in-memory entries until ctx ends.
func sweepCache(ctx context.Context, svc *services, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.memory.Sweep(); n > 0 {
				logging.Cache().Debug("swept cache", "expired", n)
			}
		}
	}
}
