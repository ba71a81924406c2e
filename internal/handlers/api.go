package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"codewithbrain/internal/models"
	"codewithbrain/internal/render"
	"codewithbrain/internal/store"
)

// API serves the read-only public JSON API plus comment submission.
type API struct {
	posts      *store.PostStore
	categories *store.CategoryStore
	comments   *store.CommentStore
	pageSize   int
}

// NewAPI creates the public API handler group.
func NewAPI(posts *store.PostStore, categories *store.CategoryStore, comments *store.CommentStore, pageSize int) *API {
	return &API{posts: posts, categories: categories, comments: comments, pageSize: pageSize}
}

// postPage is one page of the published post listing.
type postPage struct {
	Count      int           `json:"count"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Results    []models.Post `json:"results"`
}

// Posts lists published posts, paginated with ?page=.
func (a *API) Posts(w http.ResponseWriter, r *http.Request) {
	page := render.PageParam(r.URL.Query().Get("page"))

	posts, total, err := a.posts.ListPublished(r.Context(), page, a.pageSize)
	if err != nil {
		serverError(w, "api list posts failed", err)
		return
	}
	pager := render.NewPagination(page, a.pageSize, total, "", nil)
	if pager.OutOfRange() {
		writeError(w, http.StatusNotFound, "invalid page")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	writeJSON(w, http.StatusOK, postPage{
		Count:      total,
		Page:       pager.Page,
		TotalPages: pager.TotalPages,
		Results:    posts,
	})
}

// publishedPost loads the {slug} post or writes a 404.
func (a *API) publishedPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	post, err := a.posts.FindPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		serverError(w, "api find post failed", err)
		return nil, false
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return post, true
}

// Post returns one published post.
func (a *API) Post(w http.ResponseWriter, r *http.Request) {
	post, ok := a.publishedPost(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Comments lists the approved comments of a published post.
func (a *API) Comments(w http.ResponseWriter, r *http.Request) {
	post, ok := a.publishedPost(w, r)
	if !ok {
		return
	}

	comments, err := a.comments.ListApproved(r.Context(), post.ID)
	if err != nil {
		serverError(w, "api list comments failed", err)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// CreateComment stores a reader comment. It stays hidden until approved.
func (a *API) CreateComment(w http.ResponseWriter, r *http.Request) {
	post, ok := a.publishedPost(w, r)
	if !ok {
		return
	}

	var in commentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.trim()
	if !checkInput(w, &in) {
		return
	}

	c, err := a.comments.Create(r.Context(), &models.Comment{
		PostID:      post.ID,
		AuthorName:  in.AuthorName,
		AuthorEmail: in.AuthorEmail,
		Content:     in.Content,
	})
	if err != nil {
		serverError(w, "api create comment failed", err)
		return
	}

	slog.Info("comment received", "post", post.Slug, "comment", c.ID)
	writeJSON(w, http.StatusCreated, c)
}

// Categories lists every category with its published post count.
func (a *API) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.categories.List(r.Context())
	if err != nil {
		serverError(w, "api list categories failed", err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// Category returns one category by slug.
func (a *API) Category(w http.ResponseWriter, r *http.Request) {
	cat, err := a.categories.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		serverError(w, "api find category failed", err)
		return
	}
	if cat == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}
