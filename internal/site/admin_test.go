package site

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-vitalpress/internal/drafts"
	"github.com/goliatone/go-vitalpress/pkg/api"
	"github.com/goliatone/go-vitalpress/pkg/post"
	"github.com/goliatone/go-vitalpress/pkg/testsupport"
)

// adminClient replays cookies between requests and signs in with the test
// credentials.
type adminClient struct {
	t       *testing.T
	server  *Server
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newAdminClient(t *testing.T, s *Server) *adminClient {
	return &adminClient{t: t, server: s, handler: s.Handler(), cookies: map[string]*http.Cookie{}}
}

func (c *adminClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	req.SetBasicAuth(testAdmin.Username, testAdmin.Password)
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rec
}

func (c *adminClient) get(target string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, target, nil))
}

// post submits form with the current CSRF token, fetching one first when
// the client has none.
func (c *adminClient) post(target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	if _, ok := c.cookies[csrfCookie]; !ok {
		c.get("/admin/posts/new")
	}
	token, _ := c.server.cookies.verify(c.cookies[csrfCookie].Value)
	form.Set(csrfField, token)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *adminClient) flash() Flash {
	c.t.Helper()
	cookie, ok := c.cookies[flashCookie]
	if !ok {
		return Flash{}
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	flash, _ := c.server.cookies.popFlash(httptest.NewRecorder(), req)
	return flash
}

func validPostForm() url.Values {
	return url.Values{
		"title":                   {"Protein timing"},
		"position":                {"nutrition"},
		"content.body.0.headline": {"Why it matters"},
		"content.body.0.content":  {"Eat after training."},
	}
}

func newDraftStore(t *testing.T) *drafts.Store {
	t.Helper()
	store, err := drafts.Open(context.Background(), filepath.Join(t.TempDir(), "drafts.db"))
	if err != nil {
		t.Fatalf("open drafts: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAdmin_RequiresCredentials(t *testing.T) {
	s := newTestServer(t, testsupport.NewBackend(nil, nil))
	h := s.Handler()

	rec := serve(t, h, http.MethodGet, "/admin/posts", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("missing auth challenge")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/posts", nil)
	req.SetBasicAuth("editor", "wrong")
	wrong := httptest.NewRecorder()
	h.ServeHTTP(wrong, req)
	if wrong.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", wrong.Code)
	}
}

func TestAdmin_DisabledWithoutCredentials(t *testing.T) {
	s := newTestServer(t, testsupport.NewBackend(nil, nil), func(o *Options) { o.Admin = Credentials{} })
	if rec := serve(t, s.Handler(), http.MethodGet, "/admin/posts", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAdmin_ListPosts(t *testing.T) {
	s := newTestServer(t, testsupport.NewBackend(fixturePosts(), nil))
	c := newAdminClient(t, s)
	rec := c.get("/admin/posts")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body:\n%s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	for _, want := range []string{"Protein timing for recovery", "/admin/posts/p-1/edit", "/admin/posts/p-1/delete"} {
		if !strings.Contains(body, want) {
			t.Errorf("post list missing %q", want)
		}
	}
	if _, ok := c.cookies[csrfCookie]; !ok {
		t.Fatalf("post list should issue a csrf cookie")
	}
}

func TestAdmin_EditorForms(t *testing.T) {
	s := newTestServer(t, testsupport.NewBackend(fixturePosts(), nil))
	c := newAdminClient(t, s)

	rec := c.get("/admin/posts/new")
	if rec.Code != http.StatusOK {
		t.Fatalf("new status = %d, body:\n%s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	for _, want := range []string{`name="_csrf"`, `value="generate"`, `form="vp-form-createPost"`} {
		if !strings.Contains(body, want) {
			t.Errorf("editor missing %q", want)
		}
	}
	if strings.Contains(body, `value="draft"`) {
		t.Errorf("draft button shown without a draft store")
	}

	edit := c.get("/admin/posts/p-1/edit")
	if edit.Code != http.StatusOK {
		t.Fatalf("edit status = %d", edit.Code)
	}
	if !strings.Contains(edit.Body.String(), "Why timing matters") {
		t.Fatalf("edit form should carry the post content")
	}
	if rec := c.get("/admin/posts/missing/edit"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing post status = %d", rec.Code)
	}
}

func TestAdmin_RejectsMissingCSRF(t *testing.T) {
	backend := testsupport.NewBackend(nil, nil)
	s := newTestServer(t, backend)
	c := newAdminClient(t, s)

	req := httptest.NewRequest(http.MethodPost, "/admin/posts/new", strings.NewReader(validPostForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := c.do(req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if len(backend.Posts()) != 0 {
		t.Fatalf("post created without a csrf token")
	}
}

func TestAdmin_CreatePost(t *testing.T) {
	backend := testsupport.NewBackend(nil, nil)
	s := newTestServer(t, backend)
	c := newAdminClient(t, s)

	form := validPostForm()
	form.Set("_action", "save")
	rec := c.post("/admin/posts/new", form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body:\n%s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Location"); got != "/admin/posts" {
		t.Fatalf("location = %q", got)
	}

	posts := backend.Posts()
	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(posts))
	}
	got := posts[0]
	if got.ID != "new-1" || got.Title != "Protein timing" || got.Position != post.PositionNutrition {
		t.Fatalf("unexpected post %+v", got)
	}
	if got.Meta.ReadTime == "" {
		t.Fatalf("read time should be filled before saving")
	}
	if flash := c.flash(); flash.Kind != "success" {
		t.Fatalf("flash = %+v", flash)
	}
}

func TestAdmin_UpdatePost(t *testing.T) {
	backend := testsupport.NewBackend(fixturePosts(), nil)
	s := newTestServer(t, backend)
	c := newAdminClient(t, s)

	form := validPostForm()
	form.Set("title", "Protein timing, revisited")
	rec := c.post("/admin/posts/p-1/edit", form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body:\n%s", rec.Code, rec.Body)
	}
	for _, p := range backend.Posts() {
		if p.ID == "p-1" && p.Title != "Protein timing, revisited" {
			t.Fatalf("post not updated: %q", p.Title)
		}
	}
	if diff := cmp.Diff("update post", backend.Calls[len(backend.Calls)-1]); diff != "" {
		t.Fatalf("last call mismatch (-want +got):\n%s", diff)
	}
}

// formFields collects what a browser would submit from the rendered page:
// every named input, textarea and selected option, without the buttons.
func formFields(t *testing.T, body string) url.Values {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	form := url.Values{}
	doc.Find("input[name], textarea[name], select[name]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		switch goquery.NodeName(sel) {
		case "input":
			kind, _ := sel.Attr("type")
			switch kind {
			case "submit", "button", "reset":
				return
			case "checkbox", "radio":
				if _, checked := sel.Attr("checked"); !checked {
					return
				}
			}
			value, _ := sel.Attr("value")
			form.Set(name, value)
		case "textarea":
			form.Set(name, sel.Text())
		case "select":
			value, _ := sel.Find("option[selected]").First().Attr("value")
			form.Set(name, value)
		}
	})
	return form
}

func TestAdmin_EditSaveReloadKeepsStructure(t *testing.T) {
	posts := fixturePosts()
	posts[0].Content.Body[0].Content = "Steps:\n\n    weigh the dose\n"
	posts[0].Content.Body[0].Subsections = append(posts[0].Content.Body[0].Subsections,
		post.Subsection{Subheading: "Timing", Content: "\nWithin two hours."})
	want := posts[0].Clone()
	backend := testsupport.NewBackend(posts, nil)
	s := newTestServer(t, backend)
	c := newAdminClient(t, s)

	page := c.get("/admin/posts/p-1/edit")
	if page.Code != http.StatusOK {
		t.Fatalf("edit status = %d", page.Code)
	}
	form := formFields(t, page.Body.String())
	if len(form) < 20 {
		t.Fatalf("expected the full editor to render, got %d fields", len(form))
	}
	form.Set("_action", "save")

	rec := c.post("/admin/posts/p-1/edit", form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("save status = %d, body:\n%s", rec.Code, rec.Body)
	}
	got, err := backend.GetPost(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("post changed across edit and save (-want +got):\n%s", diff)
	}

	again := formFields(t, c.get("/admin/posts/p-1/edit").Body.String())
	delete(again, csrfField)
	delete(form, csrfField)
	delete(form, "_action")
	if diff := cmp.Diff(form, again); diff != "" {
		t.Fatalf("reloaded editor differs (-want +got):\n%s", diff)
	}
}

func TestAdmin_InvalidPostIsNotSent(t *testing.T) {
	backend := testsupport.NewBackend(nil, nil)
	s := newTestServer(t, backend)
	c := newAdminClient(t, s)

	form := validPostForm()
	form.Set("title", "")
	form.Set("content.body.0.headline", "")
	rec := c.post("/admin/posts/new", form)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Title is required", "Headline is required when the section has content"} {
		if !strings.Contains(body, want) {
			t.Errorf("editor missing error %q", want)
		}
	}
	if len(backend.Calls) != 0 {
		t.Fatalf("backend called for an invalid post: %v", backend.Calls)
	}
}

// rejectingBackend answers every save with a field level validation error.
type rejectingBackend struct {
	*testsupport.Backend
}

func (rejectingBackend) CreatePost(context.Context, post.Post) (post.Post, error) {
	return post.Post{}, &api.StatusError{
		Code:    http.StatusUnprocessableEntity,
		Op:      "create post",
		Message: "invalid",
		Fields:  map[string][]string{"title": {"Title already used"}},
	}
}

func TestAdmin_BackendValidationErrors(t *testing.T) {
	s := newTestServer(t, rejectingBackend{testsupport.NewBackend(nil, nil)})
	c := newAdminClient(t, s)

	rec := c.post("/admin/posts/new", validPostForm())
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Title already used", "The content service rejected the post."} {
		if !strings.Contains(body, want) {
			t.Errorf("editor missing %q", want)
		}
	}
}

func TestAdmin_StructuralActionRerenders(t *testing.T) {
	backend := testsupport.NewBackend(nil, nil)
	s := newTestServer(t, backend)
	c := newAdminClient(t, s)

	form := validPostForm()
	form.Set("_action", "add:content.body")
	rec := c.post("/admin/posts/new", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body:\n%s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `name="content.body.1.headline"`) {
		t.Fatalf("expected a second body section")
	}
	if len(backend.Calls) != 0 {
		t.Fatalf("structural actions must not reach the backend: %v", backend.Calls)
	}

	form.Set("_action", "explode")
	if rec := c.post("/admin/posts/new", form); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown action status = %d", rec.Code)
	}
}

func TestAdmin_GenerateFillsGaps(t *testing.T) {
	backend := testsupport.NewBackend(nil, nil)
	backend.Generated = post.Post{
		Content: post.Content{
			Summary: []post.SummaryItem{{Title: "Generated point", Text: "Generated summary."}},
			Body: []post.BodySection{{
				Headline: "Generated headline",
				Content:  "Generated body.",
			}},
		},
	}
	s := newTestServer(t, backend)
	c := newAdminClient(t, s)

	form := url.Values{"title": {"Sleep hygiene"}, "position": {"sleep"}, "_action": {"generate"}, "_prompt": {"friendly tone"}}
	rec := c.post("/admin/posts/new", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body:\n%s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	for _, want := range []string{"Generated summary.", "Generated headline", "Review it before saving"} {
		if !strings.Contains(body, want) {
			t.Errorf("editor missing %q", want)
		}
	}
	if len(backend.Posts()) != 0 {
		t.Fatalf("generate must not save the post")
	}

	blank := c.post("/admin/posts/new", url.Values{"_action": {"generate"}})
	if blank.Code != http.StatusUnprocessableEntity {
		t.Fatalf("generate without title status = %d", blank.Code)
	}
}

func TestAdmin_GenerateRateLimited(t *testing.T) {
	backend := testsupport.NewBackend(nil, nil)
	backend.Err = &api.StatusError{Code: http.StatusTooManyRequests, Op: "generate", Message: "slow down"}
	s := newTestServer(t, backend)
	c := newAdminClient(t, s)

	rec := c.post("/admin/posts/new", url.Values{"title": {"Sleep hygiene"}, "_action": {"generate"}})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestAdmin_GenerateLocalLimit(t *testing.T) {
	var calls int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"content":{"summary":[{"title":"Generated","text":"Generated summary."}]}}`)
	}))
	t.Cleanup(upstream.Close)
	client, err := api.New(upstream.URL, api.WithGenerateLimit(rate.Every(time.Hour), 1))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	s := newTestServer(t, client)
	c := newAdminClient(t, s)
	form := url.Values{"title": {"Sleep hygiene"}, "_action": {"generate"}}

	if rec := c.post("/admin/posts/new", form); rec.Code != http.StatusOK {
		t.Fatalf("first generate status = %d", rec.Code)
	}
	start := time.Now()
	rec := c.post("/admin/posts/new", form)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("limited request blocked for %s", elapsed)
	}
	if !strings.Contains(rec.Body.String(), "Content generation is busy") {
		t.Fatalf("rate limit message missing")
	}
	if calls != 1 {
		t.Fatalf("backend calls = %d, want 1", calls)
	}
}

func TestAdmin_DraftLifecycle(t *testing.T) {
	backend := testsupport.NewBackend(nil, nil)
	store := newDraftStore(t)
	s := newTestServer(t, backend, func(o *Options) { o.Drafts = store })
	c := newAdminClient(t, s)

	if !strings.Contains(c.get("/admin/posts/new").Body.String(), `value="draft"`) {
		t.Fatalf("draft button missing with a draft store")
	}

	form := validPostForm()
	form.Set("_action", "draft")
	rec := c.post("/admin/posts/new", form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("draft status = %d, body:\n%s", rec.Code, rec.Body)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "/admin/drafts/") {
		t.Fatalf("location = %q", location)
	}
	draftID := strings.TrimPrefix(location, "/admin/drafts/")

	list := c.get("/admin/drafts")
	if list.Code != http.StatusOK || !strings.Contains(list.Body.String(), "Protein timing") {
		t.Fatalf("draft list = %d", list.Code)
	}

	resumed := c.get(location)
	if resumed.Code != http.StatusOK {
		t.Fatalf("resume status = %d", resumed.Code)
	}
	if !strings.Contains(resumed.Body.String(), `name="_draft" value="`+draftID+`"`) {
		t.Fatalf("resumed editor should carry the draft id")
	}

	form.Set("_action", "save")
	form.Set(draftField, draftID)
	if rec := c.post("/admin/posts/new", form); rec.Code != http.StatusSeeOther {
		t.Fatalf("publish status = %d", rec.Code)
	}
	if _, err := store.Get(context.Background(), draftID); err == nil {
		t.Fatalf("draft should be removed once the post is saved")
	}
	if rec := c.get(location); rec.Code != http.StatusNotFound {
		t.Fatalf("resume after publish status = %d", rec.Code)
	}
}

func TestAdmin_DraftWithoutStore(t *testing.T) {
	s := newTestServer(t, testsupport.NewBackend(nil, nil))
	c := newAdminClient(t, s)
	form := validPostForm()
	form.Set("_action", "draft")
	if rec := c.post("/admin/posts/new", form); rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if rec := c.get("/admin/drafts"); rec.Code != http.StatusNotFound {
		t.Fatalf("draft list status = %d", rec.Code)
	}
}

func TestAdmin_DeletePost(t *testing.T) {
	backend := testsupport.NewBackend(fixturePosts(), nil)
	store := newDraftStore(t)
	s := newTestServer(t, backend, func(o *Options) { o.Drafts = store })
	c := newAdminClient(t, s)

	if _, err := store.Save(context.Background(), drafts.Draft{PostID: "p-1", Title: "Pending edit"}); err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	rec := c.post("/admin/posts/p-1/delete", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, p := range backend.Posts() {
		if p.ID == "p-1" {
			t.Fatalf("post still present")
		}
	}
	list, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("drafts for the deleted post remain: %d", len(list))
	}
	if flash := c.flash(); flash.Message != "Post deleted." {
		t.Fatalf("flash = %+v", flash)
	}
}

func TestAdmin_FlashShownOnce(t *testing.T) {
	backend := testsupport.NewBackend(fixturePosts(), nil)
	s := newTestServer(t, backend)
	c := newAdminClient(t, s)

	c.post("/admin/posts/p-1/delete", url.Values{})
	first := c.get("/admin/posts")
	if !strings.Contains(first.Body.String(), "Post deleted.") {
		t.Fatalf("flash missing after redirect")
	}
	second := c.get("/admin/posts")
	if strings.Contains(second.Body.String(), "Post deleted.") {
		t.Fatalf("flash shown twice")
	}
}
