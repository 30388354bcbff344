// Package theme selects go-theme manifests and turns a selection into the
// renderer configuration used by forms and site pages.
package theme

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// Default theme shipped with the site.
const (
	DefaultName    = "vital"
	DefaultVariant = "light"
)

//go:embed manifests/*.yaml
var embedded embed.FS

// ErrUnknownTheme is returned when no manifest matches the requested name.
var ErrUnknownTheme = errors.New("theme: unknown theme")

// Fallbacks maps partial keys to the built-in component templates. They
// apply when a manifest does not override a partial.
func Fallbacks() map[string]string {
	return map[string]string{
		"forms.input":    "templates/components/input.tmpl",
		"forms.textarea": "templates/components/textarea.tmpl",
		"forms.select":   "templates/components/select.tmpl",
		"forms.checkbox": "templates/components/checkbox.tmpl",
		"forms.csv":      "templates/components/csv.tmpl",
	}
}

// Resolver stores manifests and implements theme.ThemeSelector.
type Resolver struct {
	mu             sync.RWMutex
	manifests      map[string]*theme.Manifest
	registry       interface{ Register(*theme.Manifest) error }
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Resolver)(nil)

// NewResolver creates a resolver whose empty selections fall back to
// defaultTheme and defaultVariant.
func NewResolver(defaultTheme, defaultVariant string) *Resolver {
	if defaultTheme == "" {
		defaultTheme = DefaultName
	}
	return &Resolver{
		manifests:      make(map[string]*theme.Manifest),
		registry:       theme.NewRegistry(),
		defaultTheme:   defaultTheme,
		defaultVariant: defaultVariant,
	}
}

// NewDefaultResolver returns a resolver loaded with the embedded manifests.
func NewDefaultResolver() (*Resolver, error) {
	r := NewResolver(DefaultName, DefaultVariant)
	if err := r.LoadFS(embedded, "manifests"); err != nil {
		return nil, err
	}
	return r, nil
}

// Register validates m with the go-theme registry and stores it.
func (r *Resolver) Register(m *theme.Manifest) error {
	if m == nil || strings.TrimSpace(m.Name) == "" {
		return errors.New("theme: manifest name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.registry.Register(m); err != nil {
		return fmt.Errorf("theme: register %q: %w", m.Name, err)
	}
	r.manifests[m.Name] = m
	return nil
}

// LoadFS registers every *.yaml manifest found directly under dir.
func (r *Resolver) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("theme: read manifests: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("theme: read %s: %w", entry.Name(), err)
		}
		manifest, err := ParseManifest(data)
		if err != nil {
			return fmt.Errorf("theme: %s: %w", entry.Name(), err)
		}
		if err := r.Register(manifest); err != nil {
			return err
		}
	}
	return nil
}

// Names lists the registered theme names.
func (r *Resolver) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.manifests))
	for name := range r.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves a theme and variant. Empty values use the defaults and an
// unknown variant is an error.
func (r *Resolver) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name = strings.TrimSpace(name); name == "" {
		name = r.defaultTheme
	}
	if variant = strings.TrimSpace(variant); variant == "" {
		variant = r.defaultVariant
	}

	r.mu.RLock()
	manifest, ok := r.manifests[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("theme: %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// RendererConfig merges the base manifest with the selected variant.
// Variant tokens, templates and asset files win over the base ones, and
// fallbacks fill partials neither defines.
func RendererConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	tokens := maps.Clone(manifest.Tokens)
	partials := maps.Clone(fallbacks)
	if partials == nil {
		partials = make(map[string]string)
	}
	maps.Copy(partials, manifest.Templates)
	files := maps.Clone(manifest.Assets.Files)
	prefix := manifest.Assets.Prefix

	if variant, ok := manifest.Variants[selection.Variant]; ok {
		if tokens == nil {
			tokens = make(map[string]string)
		}
		maps.Copy(tokens, variant.Tokens)
		maps.Copy(partials, variant.Templates)
		if files == nil {
			files = make(map[string]string)
		}
		maps.Copy(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Tokens:   tokens,
		CSSVars:  cssVars,
		Partials: partials,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") {
				return file
			}
			return strings.TrimRight(prefix, "/") + "/" + file
		},
	}
}

type manifestFile struct {
	Name      string                 `yaml:"name"`
	Version   string                 `yaml:"version"`
	Tokens    map[string]string      `yaml:"tokens"`
	Templates map[string]string      `yaml:"templates"`
	Assets    assetsFile             `yaml:"assets"`
	Variants  map[string]variantFile `yaml:"variants"`
}

type assetsFile struct {
	Prefix string            `yaml:"prefix"`
	Files  map[string]string `yaml:"files"`
}

type variantFile struct {
	Tokens    map[string]string `yaml:"tokens"`
	Templates map[string]string `yaml:"templates"`
	Assets    assetsFile        `yaml:"assets"`
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) (*theme.Manifest, error) {
	var raw manifestFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	manifest := &theme.Manifest{
		Name:      raw.Name,
		Version:   raw.Version,
		Tokens:    raw.Tokens,
		Templates: raw.Templates,
		Assets:    theme.Assets{Prefix: raw.Assets.Prefix, Files: raw.Assets.Files},
	}
	if len(raw.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(raw.Variants))
		for name, variant := range raw.Variants {
			manifest.Variants[name] = theme.Variant{
				Tokens:    variant.Tokens,
				Templates: variant.Templates,
				Assets:    theme.Assets{Prefix: variant.Assets.Prefix, Files: variant.Assets.Files},
			}
		}
	}
	return manifest, nil
}
