package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	theme "github.com/goliatone/go-theme"

	internalLoader "github.com/goliatone/go-vitalpress/internal/openapi/loader"
	internalParser "github.com/goliatone/go-vitalpress/internal/openapi/parser"
	"github.com/goliatone/go-vitalpress/pkg/model"
	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
	"github.com/goliatone/go-vitalpress/pkg/render"
	"github.com/goliatone/go-vitalpress/pkg/renderers/vanilla"
	pkgtheme "github.com/goliatone/go-vitalpress/pkg/theme"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom OpenAPI loader.
func WithLoader(loader pkgopenapi.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithParser injects a custom OpenAPI parser.
func WithParser(parser pkgopenapi.Parser) Option {
	return func(o *Orchestrator) {
		o.parser = parser
	}
}

// WithModelBuilder injects a custom form model builder.
func WithModelBuilder(builder model.Builder) Option {
	return func(o *Orchestrator) {
		o.builder = builder
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits one.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer registers a Transformer that runs after the model is
// built and before decorators.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithDecorators registers decorators applied to every generated form.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithOperationDecorators registers decorators applied only to operationID.
func WithOperationDecorators(operationID string, decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		if o.operationDecorators == nil {
			o.operationDecorators = make(map[string][]model.Decorator)
		}
		o.operationDecorators[operationID] = append(o.operationDecorators[operationID], decorators...)
	}
}

// WithThemeSelector resolves request theme names into renderer config.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithThemeFallbacks sets the partials used when a theme omits them.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = fallbacks
	}
}

// Orchestrator runs contract → operations → form model → renderer. Parsed
// operations are cached per document location until Invalidate is called.
type Orchestrator struct {
	loader              pkgopenapi.Loader
	parser              pkgopenapi.Parser
	builder             model.Builder
	registry            *render.Registry
	defaultRenderer     string
	transformer         Transformer
	decorators          []model.Decorator
	operationDecorators map[string][]model.Decorator
	themeSelector       theme.ThemeSelector
	themeFallbacks      map[string]string
	initialiseErr       error

	mu         sync.RWMutex
	operations map[string]map[string]pkgopenapi.Operation
}

// New constructs an Orchestrator. Missing dependencies use the built-in
// loader, parser, builder and vanilla renderer.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		operations:      make(map[string]map[string]pkgopenapi.Operation),
	}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	o.applyDefaults()
	return o
}

// Request describes a single form render.
type Request struct {
	// Source locates the OpenAPI document. Optional when Document is set.
	Source pkgopenapi.Source

	// Document bypasses the loader.
	Document *pkgopenapi.Document

	// OperationID selects the operation to render.
	OperationID string

	// Renderer names the renderer. Empty uses the default.
	Renderer string

	// RenderOptions carries values, errors, counts and buttons.
	RenderOptions render.RenderOptions

	// ThemeName and ThemeVariant are resolved through the theme selector
	// unless RenderOptions.Theme is already set.
	ThemeName    string
	ThemeVariant string
}

// Generate renders the form for req.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	form, err := o.Form(ctx, req)
	if err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	options := req.RenderOptions
	if options.Theme == nil {
		cfg, err := o.themeConfig(req.ThemeName, req.ThemeVariant)
		if err != nil {
			return nil, err
		}
		options.Theme = cfg
	}

	output, err := renderer.Render(ctx, form, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Form builds the transformed and decorated form model without rendering
// it. The site uses it to map backend errors onto field paths.
func (o *Orchestrator) Form(ctx context.Context, req Request) (model.FormModel, error) {
	if ctx == nil {
		return model.FormModel{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return model.FormModel{}, err
	}
	if err := o.initialiseErr; err != nil {
		return model.FormModel{}, err
	}
	if req.OperationID == "" {
		return model.FormModel{}, errors.New("orchestrator: operation id is required")
	}

	op, err := o.operation(ctx, req)
	if err != nil {
		return model.FormModel{}, err
	}

	form, err := o.builder.Build(op)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("orchestrator: build form model: %w", err)
	}
	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &form); err != nil {
			return model.FormModel{}, fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}
	decorators := append(append([]model.Decorator(nil), o.decorators...), o.operationDecorators[req.OperationID]...)
	for _, decorator := range decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&form); err != nil {
			return model.FormModel{}, fmt.Errorf("orchestrator: decorate form: %w", err)
		}
	}
	return form, nil
}

// Invalidate drops cached operations so the next request re-reads the
// contract.
func (o *Orchestrator) Invalidate() {
	o.mu.Lock()
	o.operations = make(map[string]map[string]pkgopenapi.Operation)
	o.mu.Unlock()
}

func (o *Orchestrator) operation(ctx context.Context, req Request) (pkgopenapi.Operation, error) {
	key := ""
	switch {
	case req.Document != nil:
		key = req.Document.Location()
	case req.Source != nil:
		key = string(req.Source.Kind()) + ":" + req.Source.Location()
	default:
		return pkgopenapi.Operation{}, errors.New("orchestrator: source or document is required")
	}

	o.mu.RLock()
	operations, cached := o.operations[key]
	o.mu.RUnlock()

	if !cached || req.Document != nil {
		doc, err := o.resolveDocument(ctx, req)
		if err != nil {
			return pkgopenapi.Operation{}, err
		}
		operations, err = o.parser.Operations(ctx, doc)
		if err != nil {
			return pkgopenapi.Operation{}, fmt.Errorf("orchestrator: parse operations: %w", err)
		}
		if req.Document == nil {
			o.mu.Lock()
			o.operations[key] = operations
			o.mu.Unlock()
		}
	}

	op, ok := operations[req.OperationID]
	if !ok {
		return pkgopenapi.Operation{}, fmt.Errorf("orchestrator: operation %q not found", req.OperationID)
	}
	return op, nil
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (pkgopenapi.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) themeConfig(name, variant string) (*theme.RendererConfig, error) {
	if o.themeSelector == nil {
		return nil, nil
	}
	selection, err := o.themeSelector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme: %w", err)
	}
	return pkgtheme.RendererConfig(selection, o.themeFallbacks), nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}
	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	renderer, err := o.registry.Get(target)
	if err == nil {
		return renderer, nil
	}
	if name != "" {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
	}
	renderer, err = o.registry.Get("")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: no renderer available: %w", err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = internalLoader.New(pkgopenapi.NewLoaderOptions())
	}
	if o.parser == nil {
		o.parser = internalParser.New(pkgopenapi.NewParserOptions())
	}
	if o.builder == nil {
		o.builder = model.NewBuilder()
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		o.registry.MustRegister(renderer)
	}
	if o.themeSelector != nil && o.themeFallbacks == nil {
		o.themeFallbacks = pkgtheme.Fallbacks()
	}
}
