package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-vitalpress/pkg/render"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	merged := render.MergeHiddenFields(map[string]string{" id ": "42", "": "ignored"},
		render.CSRFToken("_csrf", "token123"),
		render.Hidden("revision", 4),
		render.Hidden("  ", "skip"),
	)

	wantMerged := map[string]string{"id": "42", "_csrf": "token123", "revision": "4"}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "id", Value: "42"},
		{Name: "revision", Value: "4"},
	}
	if diff := cmp.Diff(wantSorted, render.SortedHiddenFields(merged)); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
	if render.MergeHiddenFields(nil) != nil {
		t.Fatalf("expected nil for empty merge")
	}
}

type namedRenderer struct {
	render.Renderer
	name string
}

func (n namedRenderer) Name() string { return n.name }

func TestRegistryDefault(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister(namedRenderer{name: "vanilla"})
	registry.MustRegister(namedRenderer{name: "plain"})

	got, err := registry.Get("")
	if err != nil || got.Name() != "vanilla" {
		t.Fatalf("default renderer = %v, %v", got, err)
	}
	if err := registry.SetDefault("plain"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if got, _ := registry.Get(""); got.Name() != "plain" {
		t.Fatalf("default after SetDefault = %s", got.Name())
	}
	if err := registry.Register(namedRenderer{name: "plain"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if diff := cmp.Diff([]string{"plain", "vanilla"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}
