package gotemplate_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-vitalpress/pkg/render/template/gotemplate"
	"github.com/goliatone/go-vitalpress/pkg/testsupport"
)

//go:embed testdata/templates
var embedded embed.FS

func newEngine(t *testing.T, opts ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()
	files, err := fs.Sub(embedded, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithFS(files)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)
	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "  Ada "}, w)
	})
	if want := "Hello Ada!\n"; result != want || written != want {
		t.Fatalf("render mismatch: result %q written %q", result, written)
	}
}

func TestEngine_StructsUseJSONNames(t *testing.T) {
	engine := newEngine(t)
	data := struct {
		Name string `json:"name"`
	}{Name: "Grace"}
	got, err := engine.Render("hello", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Grace!\n" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_RelativeIncludes(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.RenderTemplate("pages/item", map[string]any{"title": " Protein "})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<span>Protein</span>\n" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_NumbersNeedFilters(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.RenderTemplate("numbers", map[string]any{"page": 2, "pages": 3, "bmi": 22.94})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Page 2 of 3, BMI 22.9\n" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_Globals(t *testing.T) {
	engine := newEngine(t, gotemplate.WithGlobalData(map[string]any{"site": map[string]any{"name": "VitalPress"}}))
	if err := engine.GlobalContext(map[string]any{"site": map[string]any{"name": "VitalPress", "env": "staging"}}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	got, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "VitalPress (staging)\n" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_TemplateFuncGlobals(t *testing.T) {
	engine := newEngine(t, gotemplate.WithTemplateFunc(map[string]any{
		"asset": func(name string) string { return "/static/" + name },
	}))
	got, err := engine.RenderString(`{{ asset("site.css") }}`, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "/static/site.css" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}
	if err := engine.RegisterFilter(" ", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected error for blank filter name")
	}
	got, err := engine.RenderTemplate("use-filter", map[string]any{"name": "ada", "author": "Dana Reyes"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA! DR\n" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_RenderString(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.Render("{{ a }}-{{ b }}", map[string]any{"a": "1", "b": "x"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "1-x" {
		t.Fatalf("got %q", got)
	}
}

func TestNew_FreshEngineSeesEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.tmpl")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	engine, err := gotemplate.New(gotemplate.WithBaseDir(dir))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if got, _ := engine.RenderTemplate("page", nil); got != "one" {
		t.Fatalf("first render %q", got)
	}
	if err := os.WriteFile(path, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, _ := engine.RenderTemplate("page", nil); got != "one" {
		t.Fatalf("cached render %q", got)
	}
	fresh, err := gotemplate.New(gotemplate.WithBaseDir(dir))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if got, _ := fresh.RenderTemplate("page", nil); got != "two" {
		t.Fatalf("render from fresh engine %q", got)
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without template source")
	}
}

func TestEngine_NilIsAnError(t *testing.T) {
	var engine *gotemplate.Engine
	if _, err := engine.RenderTemplate("hello", nil); err == nil {
		t.Fatalf("expected error from nil engine")
	}
}
