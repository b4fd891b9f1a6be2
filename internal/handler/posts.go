package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/paginate"
	"github.com/sakif/yatube/internal/service"
)

// ListingPage is the data of the index, group and profile pages. Group is
// set on the group page only; Profile and PostCount on the profile page.
type ListingPage struct {
	Viewer    *model.User
	Page      paginate.Page[model.Post]
	Group     *model.Group
	Profile   *model.User
	PostCount int
}

// DetailPage is the data of the single post page.
type DetailPage struct {
	Viewer          *model.User
	Post            *model.Post
	AuthorPostCount int
	CanEdit         bool
}

// PostForm holds the submitted values, echoed back when validation fails.
type PostForm struct {
	Text    string
	GroupID string
}

// PostFormPage is the data of the create and edit form. IsEdit tells the
// template which of the two it renders; Post is set only when editing.
type PostFormPage struct {
	Viewer *model.User
	Form   PostForm
	Errors map[string]string
	Groups []model.Group
	IsEdit bool
	Post   *model.Post
}

// PostHandler serves the post pages.
//
//	GET       /                      -> HandleIndex
//	GET       /group/{slug}/         -> HandleGroup
//	GET       /profile/{username}/   -> HandleProfile
//	GET       /posts/{id}/           -> HandleDetail
//	GET, POST /create/               -> HandleCreateForm, HandleCreate
//	GET, POST /posts/{id}/edit/      -> HandleEditForm, HandleEdit
type PostHandler struct {
	*views
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService, users *service.UserService, renderer Renderer, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		views: newViews(renderer, users, logger),
		posts: posts,
	}
}

// =========================================================================
// LISTINGS
// =========================================================================

func (h *PostHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewer(r)

	page, err := h.posts.List(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		h.writeError(w, r, viewer, err)
		return
	}

	h.render(w, r, http.StatusOK, PageIndex, ListingPage{Viewer: viewer, Page: page})
}

func (h *PostHandler) HandleGroup(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewer(r)

	group, page, err := h.posts.ListByGroup(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("page"))
	if err != nil {
		h.writeError(w, r, viewer, err)
		return
	}

	h.render(w, r, http.StatusOK, PageGroupList, ListingPage{Viewer: viewer, Page: page, Group: group})
}

func (h *PostHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewer(r)

	author, page, err := h.posts.ListByAuthor(r.Context(), chi.URLParam(r, "username"), r.URL.Query().Get("page"))
	if err != nil {
		h.writeError(w, r, viewer, err)
		return
	}

	h.render(w, r, http.StatusOK, PageProfile, ListingPage{
		Viewer:    viewer,
		Page:      page,
		Profile:   author,
		PostCount: page.TotalItems,
	})
}

// =========================================================================
// DETAIL
// =========================================================================

func (h *PostHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewer(r)

	post, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, viewer, err)
		return
	}

	count, err := h.posts.AuthorPostCount(r.Context(), post.AuthorID)
	if err != nil {
		h.writeError(w, r, viewer, err)
		return
	}

	h.render(w, r, http.StatusOK, PagePostDetail, DetailPage{
		Viewer:          viewer,
		Post:            post,
		AuthorPostCount: count,
		CanEdit:         post.IsAuthoredBy(viewer),
	})
}

// =========================================================================
// CREATE
// =========================================================================

func (h *PostHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewer(r)
	if viewer == nil {
		h.writeError(w, r, nil, apperror.Unauthenticated("login required"))
		return
	}

	h.renderForm(w, r, http.StatusOK, PostFormPage{Viewer: viewer})
}

// HandleCreate stores a new post by the viewer and redirects to their
// profile. Invalid input re-renders the form with the submitted values.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewer(r)
	form := parsePostForm(r)

	_, err := h.posts.Create(r.Context(), viewer, form.Text, form.GroupID)
	if err != nil {
		var verrs apperror.ValidationErrors
		if errors.As(err, &verrs) {
			h.renderForm(w, r, http.StatusOK, PostFormPage{
				Viewer: viewer,
				Form:   form,
				Errors: verrs.ByField(),
			})
			return
		}
		h.writeError(w, r, viewer, err)
		return
	}

	http.Redirect(w, r, profileURL(viewer.Username), http.StatusFound)
}

// =========================================================================
// EDIT
// =========================================================================

// HandleEditForm shows the form filled with the post. Anyone but the
// author is sent to the post page.
func (h *PostHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewer(r)
	rawID := chi.URLParam(r, "id")

	post, err := h.posts.GetForEdit(r.Context(), viewer, rawID)
	if err != nil {
		h.editError(w, r, viewer, rawID, err)
		return
	}

	h.renderForm(w, r, http.StatusOK, PostFormPage{
		Viewer: viewer,
		Form:   PostForm{Text: post.Text, GroupID: formatGroupID(post.GroupID)},
		IsEdit: true,
		Post:   post,
	})
}

// HandleEdit saves the text and group of the post and redirects to it.
func (h *PostHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewer(r)
	rawID := chi.URLParam(r, "id")
	form := parsePostForm(r)

	post, err := h.posts.Update(r.Context(), viewer, rawID, form.Text, form.GroupID)
	if err != nil {
		var verrs apperror.ValidationErrors
		if errors.As(err, &verrs) && post != nil {
			h.renderForm(w, r, http.StatusOK, PostFormPage{
				Viewer: viewer,
				Form:   form,
				Errors: verrs.ByField(),
				IsEdit: true,
				Post:   post,
			})
			return
		}
		h.editError(w, r, viewer, rawID, err)
		return
	}

	http.Redirect(w, r, postURL(post.ID), http.StatusFound)
}

func (h *PostHandler) editError(w http.ResponseWriter, r *http.Request, viewer *model.User, rawID string, err error) {
	if errors.Is(err, apperror.ErrForbidden) {
		// ErrForbidden is only returned for an existing post, so rawID parses.
		id, _ := strconv.ParseInt(rawID, 10, 64)
		http.Redirect(w, r, postURL(id), http.StatusFound)
		return
	}
	h.writeError(w, r, viewer, err)
}

// renderForm fills in the group choices and renders the post form.
func (h *PostHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data PostFormPage) {
	groups, err := h.posts.Groups(r.Context())
	if err != nil {
		h.writeError(w, r, data.Viewer, err)
		return
	}
	data.Groups = groups
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	h.render(w, r, status, PagePostForm, data)
}

func parsePostForm(r *http.Request) PostForm {
	// ParseForm errors leave PostForm empty, which then fails validation.
	_ = r.ParseForm()
	return PostForm{
		Text:    r.PostForm.Get("text"),
		GroupID: r.PostForm.Get("group"),
	}
}

func formatGroupID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func postURL(id int64) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}
