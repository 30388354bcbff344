package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-vitalpress/contract"
	"github.com/goliatone/go-vitalpress/internal/drafts"
	"github.com/goliatone/go-vitalpress/pkg/api"
	"github.com/goliatone/go-vitalpress/pkg/editor"
	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
	"github.com/goliatone/go-vitalpress/pkg/orchestrator"
	"github.com/goliatone/go-vitalpress/pkg/post"
	"github.com/goliatone/go-vitalpress/pkg/render"
)

const (
	draftField     = "_draft"
	promptField    = "_prompt"
	draftListLimit = 50
)

// editState is everything needed to render the post editor.
type editState struct {
	editor     *editor.Editor
	postID     string
	draftID    string
	errors     map[string][]string
	formErrors []string
	notice     string
}

func (st editState) operation() string {
	if st.postID == "" {
		return contract.OpCreatePost
	}
	return contract.OpUpdatePost
}

func (st editState) action() string {
	if st.postID == "" {
		return "/admin/posts/new"
	}
	return "/admin/posts/" + url.PathEscape(st.postID) + "/edit"
}

func (s *Server) handleAdminPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.backend.ListPosts(r.Context(), "")
	if err != nil {
		s.backendFailure(w, r, "the post list", err)
		return
	}
	rows := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, map[string]any{
			"id":       p.ID,
			"title":    p.Title,
			"position": p.Position.Label(),
			"author":   p.Meta.Author,
			"date":     displayDate(p),
			"edit":     "/admin/posts/" + url.PathEscape(p.ID) + "/edit",
			"delete":   "/admin/posts/" + url.PathEscape(p.ID) + "/delete",
			"view":     "/articles/" + url.PathEscape(p.ID),
		})
	}
	s.render(w, r, http.StatusOK, "admin/posts", map[string]any{
		"title":  "Posts",
		"posts":  rows,
		"csrf":   s.cookies.csrfToken(w, r),
		"drafts": s.drafts != nil,
	})
}

func (s *Server) handleNewPost(w http.ResponseWriter, r *http.Request) {
	s.renderEditor(w, r, http.StatusOK, editState{editor: editor.Blank()})
}

func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.backend.GetPost(r.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			s.renderError(w, r, http.StatusNotFound, "Post not found", "The post was deleted or never existed.")
			return
		}
		s.backendFailure(w, r, "the post", err)
		return
	}
	s.renderEditor(w, r, http.StatusOK, editState{editor: editor.New(p), postID: id})
}

// handleSubmitPost applies the submitted form and dispatches on _action.
func (s *Server) handleSubmitPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	if !s.cookies.validCSRF(r) {
		s.adminLog.Warn("csrf check failed", "path", r.URL.Path)
		s.renderError(w, r, http.StatusForbidden, "Form expired", "Reload the editor and submit again.")
		return
	}

	st := editState{
		editor:  editor.Blank(),
		postID:  r.PathValue("id"),
		draftID: strings.TrimSpace(r.PostForm.Get(draftField)),
	}
	if err := st.editor.Apply(r.PostForm); err != nil {
		st.formErrors = []string{"Some fields could not be read: " + err.Error()}
		s.renderEditor(w, r, http.StatusBadRequest, st)
		return
	}
	if st.postID != "" {
		if err := st.editor.Set("id", st.postID); err != nil {
			s.adminLog.Error("set post id", "error", err)
		}
	}

	action, err := editor.ParseAction(r.PostForm.Get(editor.ActionField))
	if err != nil {
		st.formErrors = []string{err.Error()}
		s.renderEditor(w, r, http.StatusBadRequest, st)
		return
	}

	switch {
	case action.Structural():
		if err := st.editor.Perform(action); err != nil {
			st.formErrors = []string{err.Error()}
			s.renderEditor(w, r, http.StatusBadRequest, st)
			return
		}
		s.renderEditor(w, r, http.StatusOK, st)
	case action.Kind == editor.ActionDraft:
		s.saveDraft(w, r, st)
	case action.Kind == editor.ActionGenerate:
		s.generate(w, r, st, r.PostForm.Get(promptField))
	default:
		s.savePost(w, r, st)
	}
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request, st editState) {
	if s.drafts == nil {
		st.formErrors = []string{"Drafts are not enabled on this server."}
		s.renderEditor(w, r, http.StatusConflict, st)
		return
	}
	p := st.editor.Post()
	saved, err := s.drafts.Save(r.Context(), drafts.Draft{
		ID:     st.draftID,
		PostID: st.postID,
		Title:  p.Title,
		Post:   p,
	})
	if err != nil {
		s.adminLog.Error("save draft", "draft", st.draftID, "error", err)
		st.formErrors = []string{"The draft could not be saved."}
		s.renderEditor(w, r, http.StatusInternalServerError, st)
		return
	}
	s.adminLog.Info("draft saved", "draft", saved.ID, "post", saved.PostID)
	s.cookies.setFlash(w, "success", "Draft saved.")
	http.Redirect(w, r, "/admin/drafts/"+url.PathEscape(saved.ID), http.StatusSeeOther)
}

// generate asks the backend for content and merges it into the gaps of the
// draft. Fields the editor filled in are never overwritten.
func (s *Server) generate(w http.ResponseWriter, r *http.Request, st editState, prompt string) {
	p := st.editor.Post()
	if strings.TrimSpace(p.Title) == "" {
		st.errors = map[string][]string{"title": {"Enter a title before generating content"}}
		s.renderEditor(w, r, http.StatusUnprocessableEntity, st)
		return
	}
	generated, err := s.backend.Generate(r.Context(), api.GenerateRequest{
		Title:    p.Title,
		Position: p.Position,
		Keywords: p.Keywords(),
		Prompt:   strings.TrimSpace(prompt),
	})
	if err != nil {
		s.adminLog.Warn("generate content", "title", p.Title, "error", err)
		status := http.StatusBadGateway
		message := "Content generation failed. Try again in a moment."
		if errors.Is(err, context.DeadlineExceeded) {
			message = "Content generation timed out."
		}
		if api.IsRateLimited(err) {
			status = http.StatusTooManyRequests
			message = "Content generation is busy. Wait a minute and try again."
		}
		st.formErrors = []string{message}
		s.renderEditor(w, r, status, st)
		return
	}
	st.editor.Merge(generated)
	st.notice = "Generated content was added to the empty sections. Review it before saving."
	s.renderEditor(w, r, http.StatusOK, st)
}

func (s *Server) savePost(w http.ResponseWriter, r *http.Request, st editState) {
	ctx := r.Context()
	issues := st.editor.Check()
	p := st.editor.Post()
	if err := s.content.FillReadTime(&p); err != nil {
		s.adminLog.Warn("read time", "error", err)
	}

	result, err := s.validator.Validate(ctx, st.operation(), p)
	if err != nil {
		s.adminLog.Error("contract validation", "operation", st.operation(), "error", err)
	}
	for path, messages := range result.Fields() {
		if issues == nil {
			issues = map[string][]string{}
		}
		issues[path] = append(issues[path], messages...)
	}
	if len(issues) > 0 {
		st.errors = issues
		st.formErrors = []string{"Fix the highlighted fields and save again."}
		s.renderEditor(w, r, http.StatusUnprocessableEntity, st)
		return
	}

	var saved post.Post
	if st.postID == "" {
		saved, err = s.backend.CreatePost(ctx, p)
	} else {
		saved, err = s.backend.UpdatePost(ctx, p)
	}
	if err != nil {
		s.saveFailed(w, r, st, err)
		return
	}

	if s.drafts != nil {
		if st.draftID != "" {
			if err := s.drafts.Delete(ctx, st.draftID); err != nil && !errors.Is(err, drafts.ErrNotFound) {
				s.adminLog.Warn("delete draft", "draft", st.draftID, "error", err)
			}
		}
		if err := s.drafts.DeleteForPost(ctx, saved.ID); err != nil {
			s.adminLog.Warn("delete post drafts", "post", saved.ID, "error", err)
		}
	}
	s.adminLog.Info("post saved", "post", saved.ID, "title", saved.Title, "created", st.postID == "")
	s.cookies.setFlash(w, "success", fmt.Sprintf("%q was saved.", saved.Title))
	http.Redirect(w, r, "/admin/posts", http.StatusSeeOther)
}

// saveFailed maps backend validation errors onto the form and reports any
// other failure above it.
func (s *Server) saveFailed(w http.ResponseWriter, r *http.Request, st editState, err error) {
	s.adminLog.Warn("save post", "post", st.postID, "error", err)
	if api.IsValidation(err) {
		form, formErr := s.forms.Form(r.Context(), s.editorRequest(st))
		if formErr != nil {
			s.adminLog.Error("form model", "error", formErr)
		}
		mapping := render.MapErrorPayload(form, api.FieldErrors(err))
		st.errors = mapping.Fields
		st.formErrors = render.MergeFormErrors(mapping.Form, "The content service rejected the post.")
		s.renderEditor(w, r, http.StatusUnprocessableEntity, st)
		return
	}
	if api.IsNotFound(err) {
		st.formErrors = []string{"The post no longer exists. Save a draft to keep your changes."}
		s.renderEditor(w, r, http.StatusNotFound, st)
		return
	}
	st.formErrors = []string{"The content service is unavailable. Your changes are still in the form."}
	s.renderEditor(w, r, http.StatusBadGateway, st)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !s.cookies.validCSRF(r) {
		s.renderError(w, r, http.StatusForbidden, "Form expired", "Reload the post list and try again.")
		return
	}
	id := r.PathValue("id")
	if err := s.backend.DeletePost(r.Context(), id); err != nil && !api.IsNotFound(err) {
		s.adminLog.Warn("delete post", "post", id, "error", err)
		s.cookies.setFlash(w, "error", "The post could not be deleted.")
		http.Redirect(w, r, "/admin/posts", http.StatusSeeOther)
		return
	}
	if s.drafts != nil {
		if err := s.drafts.DeleteForPost(r.Context(), id); err != nil {
			s.adminLog.Warn("delete post drafts", "post", id, "error", err)
		}
	}
	s.adminLog.Info("post deleted", "post", id)
	s.cookies.setFlash(w, "success", "Post deleted.")
	http.Redirect(w, r, "/admin/posts", http.StatusSeeOther)
}

func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	if s.drafts == nil {
		s.renderError(w, r, http.StatusNotFound, "Drafts disabled", "This server does not keep drafts.")
		return
	}
	list, err := s.drafts.List(r.Context(), draftListLimit)
	if err != nil {
		s.adminLog.Error("list drafts", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Drafts unavailable", "The draft store could not be read.")
		return
	}
	rows := make([]map[string]any, 0, len(list))
	for _, d := range list {
		title := d.Title
		if title == "" {
			title = "Untitled draft"
		}
		rows = append(rows, map[string]any{
			"id":      d.ID,
			"title":   title,
			"post_id": d.PostID,
			"updated": d.UpdatedAt.Format("Jan 2, 2006 15:04"),
			"resume":  "/admin/drafts/" + url.PathEscape(d.ID),
			"delete":  "/admin/drafts/" + url.PathEscape(d.ID) + "/delete",
		})
	}
	s.render(w, r, http.StatusOK, "admin/drafts", map[string]any{
		"title":  "Drafts",
		"drafts": rows,
		"csrf":   s.cookies.csrfToken(w, r),
	})
}

func (s *Server) handleResumeDraft(w http.ResponseWriter, r *http.Request) {
	if s.drafts == nil {
		s.renderError(w, r, http.StatusNotFound, "Drafts disabled", "This server does not keep drafts.")
		return
	}
	d, err := s.drafts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, drafts.ErrNotFound) {
			s.renderError(w, r, http.StatusNotFound, "Draft not found", "The draft was discarded or already published.")
			return
		}
		s.adminLog.Error("get draft", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Drafts unavailable", "The draft store could not be read.")
		return
	}
	s.renderEditor(w, r, http.StatusOK, editState{
		editor:  editor.New(d.Post),
		postID:  d.PostID,
		draftID: d.ID,
	})
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if s.drafts == nil {
		s.renderError(w, r, http.StatusNotFound, "Drafts disabled", "This server does not keep drafts.")
		return
	}
	if err := r.ParseForm(); err != nil || !s.cookies.validCSRF(r) {
		s.renderError(w, r, http.StatusForbidden, "Form expired", "Reload the draft list and try again.")
		return
	}
	id := r.PathValue("id")
	if err := s.drafts.Delete(r.Context(), id); err != nil && !errors.Is(err, drafts.ErrNotFound) {
		s.adminLog.Error("delete draft", "draft", id, "error", err)
		s.cookies.setFlash(w, "error", "The draft could not be discarded.")
	} else {
		s.cookies.setFlash(w, "success", "Draft discarded.")
	}
	http.Redirect(w, r, "/admin/drafts", http.StatusSeeOther)
}

func (s *Server) editorRequest(st editState) orchestrator.Request {
	return orchestrator.Request{
		Source:      pkgopenapi.SourceFromFS(contract.Backend),
		OperationID: st.operation(),
	}
}

func (s *Server) renderEditor(w http.ResponseWriter, r *http.Request, status int, st editState) {
	req := s.editorRequest(st)
	req.ThemeName = s.themeName
	req.ThemeVariant = s.variantFor(r)

	hidden := []render.HiddenField{render.CSRFToken(csrfField, s.cookies.csrfToken(w, r))}
	if st.draftID != "" {
		hidden = append(hidden, render.Hidden(draftField, st.draftID))
	}
	buttons := []render.Button{{Label: "Save", Value: string(editor.ActionSave), Variant: "primary"}}
	if s.drafts != nil {
		buttons = append(buttons, render.Button{Label: "Save draft", Value: string(editor.ActionDraft)})
	}
	buttons = append(buttons, render.Button{Label: "Generate content", Value: string(editor.ActionGenerate)})

	req.RenderOptions = render.RenderOptions{
		Method:     http.MethodPost,
		Action:     st.action(),
		Values:     st.editor.Values(),
		Counts:     st.editor.Counts(),
		Errors:     st.errors,
		FormErrors: st.formErrors,
		Flash:      st.notice,
		Hidden:     render.MergeHiddenFields(nil, hidden...),
		Buttons:    buttons,
	}
	form, err := s.forms.Generate(r.Context(), req)
	if err != nil {
		s.adminLog.Error("render editor", "operation", req.OperationID, "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Editor unavailable", "The post form could not be displayed.")
		return
	}

	title := "New post"
	if st.postID != "" {
		title = "Edit post"
	}
	p := st.editor.Post()
	s.render(w, r, status, "admin/edit", map[string]any{
		"title":      title,
		"form":       string(form),
		"post_title": p.Title,
		"post_id":    st.postID,
		"draft_id":   st.draftID,
		"view":       viewURL(st.postID),
		"prompt":     promptField,
		"form_id":    "vp-form-" + req.OperationID,
	})
}

func viewURL(id string) string {
	if id == "" {
		return ""
	}
	return "/articles/" + url.PathEscape(id)
}
