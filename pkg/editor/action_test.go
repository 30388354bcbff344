package editor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		raw  string
		want Action
	}{
		{"", Action{Kind: ActionSave}},
		{"save", Action{Kind: ActionSave}},
		{"Draft", Action{Kind: ActionDraft}},
		{"generate", Action{Kind: ActionGenerate}},
		{"add:content.body", Action{Kind: ActionAdd, Path: "content.body"}},
		{"remove: content[body][1][hyperlinks][0]", Action{Kind: ActionRemove, Path: "content.body.1.hyperlinks.0"}},
		{"up:related_studies.2", Action{Kind: ActionUp, Path: "related_studies.2"}},
		{"down:relatedStudies.0", Action{Kind: ActionDown, Path: "related_studies.0"}},
	}
	for _, tc := range cases {
		got, err := ParseAction(tc.raw)
		if err != nil {
			t.Fatalf("ParseAction(%q): %v", tc.raw, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("ParseAction(%q) mismatch (-want +got):\n%s", tc.raw, diff)
		}
	}
}

func TestParseActionErrors(t *testing.T) {
	for _, raw := range []string{"publish", "add:", "remove", "save:title"} {
		if _, err := ParseAction(raw); !errors.Is(err, ErrUnknownAction) {
			t.Fatalf("ParseAction(%q) expected ErrUnknownAction, got %v", raw, err)
		}
	}
}

func TestActionStructural(t *testing.T) {
	if (Action{Kind: ActionSave}).Structural() {
		t.Fatalf("save must not be structural")
	}
	if !(Action{Kind: ActionRemove, Path: "content.summary.0"}).Structural() {
		t.Fatalf("remove must be structural")
	}
	if got := (Action{Kind: ActionAdd, Path: "content.summary"}).String(); got != "add:content.summary" {
		t.Fatalf("unexpected encoding %q", got)
	}
}

func TestPerformRejectsSubmitActions(t *testing.T) {
	ed := New(samplePost())
	if err := ed.Perform(Action{Kind: ActionGenerate}); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestSplitPath(t *testing.T) {
	got := SplitPath(" content[body][0].keywords ")
	if diff := cmp.Diff([]string{"content", "body", "0", "keywords"}, got); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
	if SplitPath("") != nil {
		t.Fatalf("expected nil for empty path")
	}
}
