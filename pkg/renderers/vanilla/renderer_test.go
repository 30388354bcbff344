package vanilla_test

import (
	"context"
	"regexp"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-vitalpress/contract"
	"github.com/goliatone/go-vitalpress/pkg/editor"
	"github.com/goliatone/go-vitalpress/pkg/render"
	"github.com/goliatone/go-vitalpress/pkg/renderers/vanilla"
	"github.com/goliatone/go-vitalpress/pkg/testsupport"
)

func renderPostForm(t *testing.T, opts render.RenderOptions) string {
	t.Helper()
	form := testsupport.ContractForm(t, contract.Backend, contract.OpUpdatePost)
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(context.Background(), form, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(html, fragment) {
			t.Errorf("expected output to contain %q", fragment)
		}
	}
}

func TestRenderer_PrefillsEditorState(t *testing.T) {
	ed := editor.New(testsupport.SamplePost())
	html := renderPostForm(t, render.RenderOptions{
		Action: "/admin/posts/p-1",
		Values: ed.Values(),
		Counts: ed.Counts(),
	})

	assertContains(t, html,
		`action="/admin/posts/p-1"`,
		`method="post"`,
		`<input type="hidden" name="_method" value="PUT">`,
		`name="title" value="Protein timing for recovery"`,
		`<option value="nutrition" selected>Nutrition</option>`,
		`name="content.body.0.headline" value="Why timing matters"`,
		`name="content.body.0.keywords" value="protein, recovery"`,
		`name="content.body.0.hyperlinks.0.url" value="https://example.org/study"`,
		`value="remove:content.body.0"`,
		`value="add:content.body.0.subsections"`,
		`value="add:related_studies"`,
		`Save changes</button>`,
	)
	if strings.Contains(html, "content.body.1.") {
		t.Fatalf("rendered more sections than the draft holds")
	}
}

func TestRenderer_MoveButtonsDisabledAtEdges(t *testing.T) {
	p := testsupport.SamplePost()
	p.RelatedStudies = append(p.RelatedStudies, p.RelatedStudies[0])
	ed := editor.New(p)
	html := renderPostForm(t, render.RenderOptions{Values: ed.Values(), Counts: ed.Counts()})

	assertContains(t, html,
		`value="up:related_studies.0" title="Move up" formnovalidate disabled`,
		`value="down:related_studies.0" title="Move down" formnovalidate>`,
		`value="down:related_studies.1" title="Move down" formnovalidate disabled`,
	)
}

func TestRenderer_ErrorsFlashAndButtons(t *testing.T) {
	ed := editor.Blank()
	html := renderPostForm(t, render.RenderOptions{
		Values:     ed.Values(),
		Counts:     ed.Counts(),
		Errors:     map[string][]string{"title": {"Title is required"}},
		FormErrors: []string{"Backend rejected the post"},
		Flash:      "Draft saved",
		Hidden:     map[string]string{"_csrf": "tok"},
		Buttons: []render.Button{
			{Label: "Publish", Value: "save", Variant: "primary"},
			{Label: "Save draft", Value: "draft"},
			{Label: "Generate", Value: "generate"},
		},
	})

	assertContains(t, html,
		`<input type="hidden" name="_csrf" value="tok">`,
		`<div class="vp-flash" role="status">Draft saved</div>`,
		`<p>Backend rejected the post</p>`,
		`vp-field vp-field-invalid`,
		`<p class="vp-error" id="vp-title-error">Title is required</p>`,
		`aria-invalid="true"`,
		`name="_action" value="save">Publish</button>`,
		`name="_action" value="draft" formnovalidate>Save draft</button>`,
		`name="_action" value="generate" formnovalidate>Generate</button>`,
		`name="content.body.0.headline"`,
	)
}

func TestRenderer_EscapesValues(t *testing.T) {
	html := renderPostForm(t, render.RenderOptions{
		Values: map[string]any{"title": `<script>alert("x")</script>`},
	})
	if strings.Contains(html, "<script>") {
		t.Fatalf("value was not escaped")
	}
}

func TestRenderer_CalculatorUsesGet(t *testing.T) {
	form := testsupport.ContractForm(t, contract.Calculators, contract.OpBMI)
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(context.Background(), form, render.RenderOptions{
		Method: "GET",
		Action: "/calculators/bmi",
		Values: map[string]any{"weight": 70.5},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	assertContains(t, html,
		`method="get"`,
		`<option value="metric" selected>Metric</option>`,
		`type="number" id="vp-weight" name="weight" value="70.5" required min="1" max="1000" step="any"`,
		`Calculate BMI</button>`,
	)
	if strings.Contains(html, `name="_method"`) {
		t.Fatalf("GET forms must not carry a method override")
	}
}

func TestRenderer_ThemeVariables(t *testing.T) {
	html := renderPostForm(t, render.RenderOptions{
		Theme: &theme.RendererConfig{
			Theme:   "vital",
			Variant: "dark",
			CSSVars: map[string]string{"--color-accent": "#0f766e", "--radius": "4px"},
			AssetURL: func(key string) string {
				return "/static/themes/vital/" + key
			},
		},
	})
	assertContains(t, html,
		`--color-accent:#0f766e;--radius:4px;`,
		`href="/static/themes/vital/vitalpress-forms.css"`,
		`data-theme="vital" data-variant="dark"`,
	)
}

func TestRenderer_ComponentOverrideByCollectionPath(t *testing.T) {
	form := testsupport.ContractForm(t, contract.Backend, contract.OpCreatePost)
	renderer, err := vanilla.New(vanilla.WithComponentOverride("content.summary.text", "input"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(context.Background(), form, render.RenderOptions{
		Counts: map[string]int{"content.summary": 1},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if strings.Contains(html, `<textarea class="vp-textarea" id="vp-content-summary-0-text"`) {
		t.Fatalf("override should replace the textarea widget")
	}
	assertContains(t, string(out), `id="vp-content-summary-0-text" name="content.summary.0.text"`)
}

func TestRenderer_TextareaKeepsLeadingNewline(t *testing.T) {
	html := renderPostForm(t, render.RenderOptions{
		Values: map[string]any{"content.body.0.content": "\n    indented"},
		Counts: map[string]int{"content.body": 1},
	})
	// Browsers drop the first newline after the opening tag, so one is
	// always emitted before the value.
	assertContains(t, html, ">\n\n    indented</textarea>")
	if !regexp.MustCompile(`<textarea[^>]* rows="\d+"`).MatchString(html) {
		t.Fatalf("textarea rows should render as a whole number")
	}
}
