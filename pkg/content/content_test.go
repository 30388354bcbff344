package content

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

func TestRenderer_HTMLSanitizes(t *testing.T) {
	r := NewRenderer()
	got, err := r.HTML("**Protein** matters.\n\n<script>alert(1)</script>\n\n[study](https://example.org/a)\n\n- [x] done")
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	for _, want := range []string{"<strong>Protein</strong>", `rel="nofollow noopener"`, `target="_blank"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %s", want, got)
		}
	}
	if strings.Contains(got, "<script") {
		t.Fatalf("script tag survived sanitization: %s", got)
	}

	empty, err := r.HTML("   ")
	if err != nil || empty != "" {
		t.Fatalf("blank input = %q, %v", empty, err)
	}
}

func TestReadTime(t *testing.T) {
	cases := []struct {
		name  string
		words int
		want  int
	}{
		{name: "empty", words: 0, want: 1},
		{name: "short", words: 20, want: 1},
		{name: "exact", words: 400, want: 2},
		{name: "rounds up", words: 401, want: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fragment := "<p>" + strings.TrimSpace(strings.Repeat("word ", tc.words)) + "</p>"
			got, err := ReadTime(fragment)
			if err != nil {
				t.Fatalf("read time: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ReadTime(%d words) = %d, want %d", tc.words, got, tc.want)
			}
		})
	}
}

func TestFillReadTime(t *testing.T) {
	r := Default()
	p := post.Post{Content: post.Content{Body: []post.BodySection{{
		Headline: "Sleep",
		Content:  strings.Repeat("rest well tonight ", 150),
	}}}}
	if err := r.FillReadTime(&p); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if p.Meta.ReadTime != "3 min" {
		t.Fatalf("read time = %q", p.Meta.ReadTime)
	}

	p.Meta.ReadTime = "10 min"
	if err := r.FillReadTime(&p); err != nil || p.Meta.ReadTime != "10 min" {
		t.Fatalf("existing read time should be kept, got %q (%v)", p.Meta.ReadTime, err)
	}
}

func TestExcerpt(t *testing.T) {
	got, err := Excerpt("<p>One <em>two</em> three four</p>", 2)
	if err != nil {
		t.Fatalf("excerpt: %v", err)
	}
	full, _ := Excerpt("<p>One two</p>", 5)
	if diff := cmp.Diff([]string{"One two…", "One two"}, []string{got, full}); diff != "" {
		t.Fatalf("excerpt mismatch (-want +got):\n%s", diff)
	}
}
