package vitalpress

import (
	"context"

	"github.com/goliatone/go-vitalpress/contract"
	"github.com/goliatone/go-vitalpress/internal/openapi/loader"
	"github.com/goliatone/go-vitalpress/internal/openapi/parser"
	"github.com/goliatone/go-vitalpress/internal/site"
	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
	"github.com/goliatone/go-vitalpress/pkg/orchestrator"
	"github.com/goliatone/go-vitalpress/pkg/render"
	pkgtheme "github.com/goliatone/go-vitalpress/pkg/theme"
)

// Contract documents embedded in the module.
const (
	BackendContract     = contract.Backend
	CalculatorsContract = contract.Calculators
)

// RenderOptions carries per-request values and server-side errors into a
// rendered form.
type RenderOptions = render.RenderOptions

// Request selects the operation, renderer and theme for one form.
type Request = orchestrator.Request

// NewForms returns the orchestrator the site uses: embedded contracts, the
// form presets and the built-in light and dark themes.
func NewForms() (*orchestrator.Orchestrator, error) {
	themes, err := pkgtheme.NewDefaultResolver()
	if err != nil {
		return nil, err
	}
	return site.DefaultForms(themes)
}

// RenderForm renders one operation of an embedded contract with the default
// theme variant.
func RenderForm(ctx context.Context, document, operationID string, opts RenderOptions) ([]byte, error) {
	forms, err := NewForms()
	if err != nil {
		return nil, err
	}
	return forms.Generate(ctx, Request{
		Source:        pkgopenapi.SourceFromFS(document),
		OperationID:   operationID,
		RenderOptions: opts,
	})
}

// NewLoader constructs a contract loader while keeping the concrete type
// hidden from consumers.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	return loader.New(pkgopenapi.NewLoaderOptions(options...))
}

// NewParser constructs a contract parser.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	return parser.New(pkgopenapi.NewParserOptions(options...))
}
