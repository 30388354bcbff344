package components

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-vitalpress/pkg/model"
	rendertemplate "github.com/goliatone/go-vitalpress/pkg/render/template"
)

// Renderer writes the control markup for one field instance into buf.
type Renderer func(buf *bytes.Buffer, field model.Field, data ComponentData) error

// ComponentData carries the instance state and helpers a component needs.
type ComponentData struct {
	Template rendertemplate.TemplateRenderer
	// RenderChild renders a nested field at an instance path, wrapped in the
	// usual label and message chrome.
	RenderChild func(field model.Field, path string) (string, error)
	Config      map[string]any
	// ThemePartials maps partial keys such as "forms.input" to template
	// names that replace the built-in ones.
	ThemePartials map[string]string

	// Path is the dotted instance path, e.g. "content.body.0.headline". It is
	// also the input name.
	Path   string
	Value  any
	Errors []string
	// Count is the number of rendered entries for collections.
	Count int
}

// ID returns the DOM id derived from Path.
func (d ComponentData) ID() string {
	return ControlID(d.Path)
}

// ControlID maps a dotted path to a DOM id.
func ControlID(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return "vp-" + strings.ReplaceAll(path, ".", "-")
}

// Descriptor bundles a renderer with the stylesheets it depends on.
type Descriptor struct {
	Name        string
	Renderer    Renderer
	Stylesheets []string
}

// Registry tracks component descriptors keyed by name.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{components: make(map[string]Descriptor)}
}

// Clone returns a copy that can be changed without affecting r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cloned := New()
	for name, descriptor := range r.components {
		descriptor.Stylesheets = slices.Clone(descriptor.Stylesheets)
		cloned.components[name] = descriptor
	}
	return cloned
}

// Register stores descriptor under name, replacing any existing entry.
func (r *Registry) Register(name string, descriptor Descriptor) error {
	if name = normalize(name); name == "" {
		return fmt.Errorf("components: component name is required")
	}
	if descriptor.Renderer == nil {
		return fmt.Errorf("components: renderer for %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	descriptor.Name = name
	descriptor.Stylesheets = slices.Clone(descriptor.Stylesheets)
	r.components[name] = descriptor
	return nil
}

// MustRegister panics when Register fails.
func (r *Registry) MustRegister(name string, descriptor Descriptor) {
	if err := r.Register(name, descriptor); err != nil {
		panic(err)
	}
}

// Descriptor fetches a descriptor by name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.components[normalize(name)]
	return descriptor, ok
}

// Names returns the registered names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Stylesheets returns the de-duplicated stylesheets of the named components.
func (r *Registry) Stylesheets(names []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, name := range names {
		descriptor, ok := r.components[normalize(name)]
		if !ok {
			continue
		}
		for _, href := range descriptor.Stylesheets {
			if href != "" && !slices.Contains(out, href) {
				out = append(out, href)
			}
		}
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
