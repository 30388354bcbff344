package theme_test

import (
	"errors"
	"testing"

	gotheme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-vitalpress/pkg/theme"
)

func TestDefaultResolver_SelectsVariant(t *testing.T) {
	resolver, err := theme.NewDefaultResolver()
	if err != nil {
		t.Fatalf("default resolver: %v", err)
	}
	if diff := cmp.Diff([]string{"vital"}, resolver.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	selection, err := resolver.Select("", "dark")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	cfg := theme.RendererConfig(selection, theme.Fallbacks())

	if cfg.Theme != "vital" || cfg.Variant != "dark" {
		t.Fatalf("selection = %s/%s", cfg.Theme, cfg.Variant)
	}
	if got := cfg.CSSVars["--color-surface"]; got != "#111827" {
		t.Fatalf("variant token not applied: %q", got)
	}
	if got := cfg.CSSVars["--color-accent"]; got != "#0f766e" {
		t.Fatalf("base token lost: %q", got)
	}
	if got := cfg.AssetURL("logo"); got != "/static/img/logo-dark.svg" {
		t.Fatalf("logo url = %q", got)
	}
	if got := cfg.AssetURL("site.css"); got != "/static/css/site.css" {
		t.Fatalf("site.css url = %q", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("missing asset url = %q", got)
	}
	if got := cfg.Partials["forms.input"]; got != "templates/components/input.tmpl" {
		t.Fatalf("fallback partial = %q", got)
	}
}

func TestResolver_Errors(t *testing.T) {
	resolver := theme.NewResolver("acme", "")
	if err := resolver.Register(&gotheme.Manifest{
		Name:      "acme",
		Version:   "1.0.0",
		Tokens:    map[string]string{"brand": "#123456"},
		Templates: map[string]string{"forms.input": "themes/acme/input.tmpl"},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := resolver.Select("nope", ""); !errors.Is(err, theme.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	if _, err := resolver.Select("acme", "sepia"); err == nil {
		t.Fatalf("expected unknown variant error")
	}

	selection, err := resolver.Select("", "")
	if err != nil {
		t.Fatalf("select default: %v", err)
	}
	cfg := theme.RendererConfig(selection, theme.Fallbacks())
	if got := cfg.Partials["forms.input"]; got != "themes/acme/input.tmpl" {
		t.Fatalf("manifest partial should win over fallback, got %q", got)
	}
	if got := cfg.CSSVars["--brand"]; got != "#123456" {
		t.Fatalf("css var = %q", got)
	}
	if theme.RendererConfig(nil, nil) != nil {
		t.Fatalf("nil selection should yield nil config")
	}
}
