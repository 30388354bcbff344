package site

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

func TestDefaultCatalog(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	var layouts []string
	for _, slot := range catalog.Home {
		layouts = append(layouts, slot.Layout)
	}
	if diff := cmp.Diff([]string{"hero", "carousel", "list", "grid", "grid"}, layouts); diff != "" {
		t.Fatalf("home layouts mismatch (-want +got):\n%s", diff)
	}
	section, ok := catalog.Section("reviews")
	if !ok {
		t.Fatalf("reviews section missing")
	}
	if section.Position != post.PositionReviews || section.Title != "Product Reviews" {
		t.Fatalf("unexpected reviews section %+v", section)
	}
	for _, s := range catalog.Sections {
		if s.Icon != "" && !strings.HasPrefix(s.Icon, "<svg") {
			t.Errorf("section %s icon = %q", s.Slug, s.Icon)
		}
	}
}

func TestParseCatalog_JSONAndDefaults(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`{
		"home": [{"position": "Latest"}],
		"sections": [{"slug": "/Sleep/", "position": "sleep"}]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := &Catalog{
		Home:     []Slot{{Position: post.PositionLatest, Title: post.PositionLatest.Label(), Layout: "grid"}},
		Sections: []Section{{Slug: "sleep", Position: post.PositionSleep, Title: post.PositionSleep.Label()}},
	}
	if diff := cmp.Diff(want, catalog); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCatalog_SanitizesIcons(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`
sections:
  - slug: fitness
    position: fitness
    icon: <svg viewBox="0 0 24 24" onload="alert(1)"><script>alert(2)</script><path d="M0 0h24"/></svg>
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	icon := catalog.Sections[0].Icon
	for _, banned := range []string{"onload", "script", "alert"} {
		if strings.Contains(icon, banned) {
			t.Fatalf("icon kept %q: %s", banned, icon)
		}
	}
	if !strings.Contains(icon, `d="M0 0h24"`) {
		t.Fatalf("icon lost its path: %s", icon)
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":          "  ",
		"duplicate slug": `{"sections":[{"slug":"a","position":"sleep"},{"slug":"A","position":"sleep"}]}`,
		"missing slug":   `{"sections":[{"position":"sleep"}]}`,
		"bad position":   `{"sections":[{"slug":"a","position":"nowhere"}]}`,
		"bad layout":     `{"home":[{"position":"hero","layout":"masonry"}]}`,
		"not a catalog":  "- just\n- a list",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(input)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.yaml")
	if err := os.WriteFile(path, []byte("sections:\n  - slug: sleep\n    position: sleep\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	catalog, err := LoadCatalogFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := catalog.Section("sleep"); !ok {
		t.Fatalf("sleep section missing")
	}
	if _, err := LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
