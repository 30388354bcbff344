package site

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

//go:embed sections.yaml
var defaultSections []byte

// Slot is a block of the home page fed by one backend position.
type Slot struct {
	Position post.Position `json:"position" yaml:"position"`
	Title    string        `json:"title" yaml:"title"`
	// Layout is hero, carousel, grid or list.
	Layout string `json:"layout" yaml:"layout"`
	Limit  int    `json:"limit" yaml:"limit"`
}

// Section is a category page reachable from the navigation.
type Section struct {
	Slug        string        `json:"slug" yaml:"slug"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Position    post.Position `json:"position" yaml:"position"`
	Limit       int           `json:"limit" yaml:"limit"`
	// Icon is inline SVG markup, sanitized on load.
	Icon string `json:"icon" yaml:"icon"`
}

// Catalog lists the home page slots and the category sections.
type Catalog struct {
	Home     []Slot    `json:"home" yaml:"home"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultSections)
}

// LoadCatalogFile reads a YAML or JSON catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("site: read sections: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes JSON first and YAML second, then validates and
// sanitizes the result.
func ParseCatalog(data []byte) (*Catalog, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("site: sections catalog is empty")
	}
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		if yamlErr := yaml.Unmarshal(data, &catalog); yamlErr != nil {
			return nil, fmt.Errorf("site: decode sections: %w", yamlErr)
		}
	}
	if err := catalog.normalize(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Catalog) normalize() error {
	policy := iconPolicy()
	seen := make(map[string]struct{}, len(c.Sections))
	var errs []error
	for i := range c.Sections {
		section := &c.Sections[i]
		section.Slug = strings.Trim(strings.ToLower(strings.TrimSpace(section.Slug)), "/")
		if section.Slug == "" {
			errs = append(errs, fmt.Errorf("section %d: slug is required", i))
			continue
		}
		if _, dup := seen[section.Slug]; dup {
			errs = append(errs, fmt.Errorf("section %q: duplicate slug", section.Slug))
		}
		seen[section.Slug] = struct{}{}
		position, err := post.ParsePosition(string(section.Position))
		if err != nil {
			errs = append(errs, fmt.Errorf("section %q: %w", section.Slug, err))
		}
		section.Position = position
		if section.Title == "" {
			section.Title = position.Label()
		}
		section.Icon = strings.TrimSpace(policy.Sanitize(section.Icon))
	}
	for i := range c.Home {
		slot := &c.Home[i]
		position, err := post.ParsePosition(string(slot.Position))
		if err != nil {
			errs = append(errs, fmt.Errorf("home slot %d: %w", i, err))
		}
		slot.Position = position
		if slot.Title == "" {
			slot.Title = position.Label()
		}
		switch slot.Layout {
		case "hero", "carousel", "grid", "list":
		case "":
			slot.Layout = "grid"
		default:
			errs = append(errs, fmt.Errorf("home slot %q: unknown layout %q", slot.Position, slot.Layout))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("site: sections: %w", errors.Join(errs...))
	}
	return nil
}

// Section finds a category by slug.
func (c *Catalog) Section(slug string) (Section, bool) {
	for _, section := range c.Sections {
		if section.Slug == slug {
			return section, true
		}
	}
	return Section{}, false
}

// iconPolicy allows plain presentational SVG and nothing else.
func iconPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("svg", "g", "path", "circle", "rect", "line", "polyline", "polygon")
	p.AllowAttrs("viewbox", "xmlns", "width", "height", "fill", "stroke", "stroke-width",
		"stroke-linecap", "stroke-linejoin", "aria-hidden", "class").Globally()
	p.AllowAttrs("d").OnElements("path")
	p.AllowAttrs("cx", "cy", "r").OnElements("circle")
	p.AllowAttrs("x", "y", "rx", "ry").OnElements("rect")
	p.AllowAttrs("x1", "y1", "x2", "y2").OnElements("line")
	p.AllowAttrs("points").OnElements("polyline", "polygon")
	return p
}
