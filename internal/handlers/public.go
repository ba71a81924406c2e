// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"codewithbrain/internal/cache"
	"codewithbrain/internal/models"
	"codewithbrain/internal/render"
	"codewithbrain/internal/store"
)

// relatedLimit is how many related posts the detail page shows.
const relatedLimit = 3

// Public groups handlers for the server-rendered blog pages. Listing pages
// are looked up in the Valkey page cache first and stored there on a miss.
type Public struct {
	renderer   *render.Renderer
	posts      *store.PostStore
	categories *store.CategoryStore
	tags       *store.TagStore
	comments   *store.CommentStore
	pageCache  *cache.PageCache
	pageSize   int
}

// NewPublic creates a new Public handler group. pageCache may be nil, in
// which case every page is rendered fresh.
func NewPublic(renderer *render.Renderer, posts *store.PostStore, categories *store.CategoryStore, tags *store.TagStore, comments *store.CommentStore, pageCache *cache.PageCache, pageSize int) *Public {
	return &Public{
		renderer:   renderer,
		posts:      posts,
		categories: categories,
		tags:       tags,
		comments:   comments,
		pageCache:  pageCache,
		pageSize:   pageSize,
	}
}

// servePage renders a page, going through the page cache when key is set.
// HTMX partial requests always bypass the cache.
func (p *Public) servePage(w http.ResponseWriter, r *http.Request, key, name string, build func() (*render.PageData, bool)) {
	ctx := r.Context()
	cacheable := key != "" && p.pageCache != nil && !render.IsPartial(r)

	if cacheable {
		if cached, ok := p.pageCache.Get(ctx, key); ok {
			render.Write(w, cached)
			return
		}
	}

	data, ok := build()
	if !ok {
		return
	}

	body, err := p.renderer.Render(name, data, render.IsPartial(r))
	if err != nil {
		slog.Error("render page failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if cacheable {
		p.pageCache.Set(ctx, key, body)
	}
	render.Write(w, body)
}

// Index renders the homepage: published posts, newest first.
func (p *Public) Index(w http.ResponseWriter, r *http.Request) {
	page := render.PageParam(r.URL.Query().Get("page"))

	p.servePage(w, r, cache.HomepageKey(page), "list", func() (*render.PageData, bool) {
		posts, total, err := p.posts.ListPublished(r.Context(), page, p.pageSize)
		if err != nil {
			slog.Error("list published posts failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return nil, false
		}
		pager := render.NewPagination(page, p.pageSize, total, "/", nil)
		if pager.OutOfRange() {
			http.NotFound(w, r)
			return nil, false
		}
		categories, err := p.categories.List(r.Context())
		if err != nil {
			slog.Warn("list categories failed", "error", err)
		}

		return &render.PageData{
			Data: map[string]any{
				"Posts":      posts,
				"Categories": categories,
			},
			Pagination: pager,
		}, true
	})
}

// Detail renders one published post, counting the view.
func (p *Public) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, err := p.posts.FindPublishedBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("find post failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	if err := p.posts.IncrementViews(ctx, post.ID); err != nil {
		slog.Warn("increment views failed", "post", post.ID, "error", err)
	} else {
		post.Views++
	}

	related, err := p.posts.Related(ctx, post, relatedLimit)
	if err != nil {
		slog.Warn("related posts failed", "post", post.ID, "error", err)
	}
	comments, err := p.comments.ListApproved(ctx, post.ID)
	if err != nil {
		slog.Warn("list comments failed", "post", post.ID, "error", err)
	}

	p.renderer.Page(w, r, "post", &render.PageData{
		Title:       post.Title,
		Description: post.Excerpt,
		Data: map[string]any{
			"Post":     post,
			"Related":  related,
			"Comments": comments,
		},
	})
}

// Category lists published posts in one category.
func (p *Public) Category(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	page := render.PageParam(r.URL.Query().Get("page"))

	p.servePage(w, r, cache.CategoryKey(slugParam, page), "list", func() (*render.PageData, bool) {
		cat, err := p.categories.FindBySlug(r.Context(), slugParam)
		if err != nil {
			slog.Error("find category failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return nil, false
		}
		if cat == nil {
			http.NotFound(w, r)
			return nil, false
		}

		posts, total, err := p.posts.ByCategory(r.Context(), cat.Slug, page, p.pageSize)
		if err != nil {
			slog.Error("list category posts failed", "category", cat.Slug, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return nil, false
		}
		pager := render.NewPagination(page, p.pageSize, total, "/category/"+cat.Slug+"/", nil)
		if pager.OutOfRange() {
			http.NotFound(w, r)
			return nil, false
		}

		return &render.PageData{
			Title:       cat.Name,
			Description: cat.Description,
			Data: map[string]any{
				"Heading": cat.Name,
				"Intro":   cat.Description,
				"Posts":   posts,
			},
			Pagination: pager,
		}, true
	})
}

// Tag lists published posts carrying a tag.
func (p *Public) Tag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := render.PageParam(r.URL.Query().Get("page"))

	tag, err := p.tags.FindBySlug(ctx, chi.URLParam(r, "tag"))
	if err != nil {
		slog.Error("find tag failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if tag == nil {
		http.NotFound(w, r)
		return
	}

	posts, total, err := p.posts.ByTag(ctx, tag.Slug, page, p.pageSize)
	if err != nil {
		slog.Error("list tag posts failed", "tag", tag.Slug, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	pager := render.NewPagination(page, p.pageSize, total, "/tag/"+tag.Slug+"/", nil)
	if pager.OutOfRange() {
		http.NotFound(w, r)
		return
	}

	p.renderer.Page(w, r, "list", &render.PageData{
		Title: "#" + tag.Name,
		Data: map[string]any{
			"Heading": "Posts tagged #" + tag.Name,
			"Posts":   posts,
		},
		Pagination: pager,
	})
}

// Search matches the query against post titles and content. An empty
// query renders an empty result.
func (p *Public) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	page := render.PageParam(r.URL.Query().Get("page"))

	var (
		posts []models.Post
		total int
	)
	if q != "" {
		var err error
		posts, total, err = p.posts.Search(r.Context(), q, page, p.pageSize)
		if err != nil {
			slog.Error("search posts failed", "query", q, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	pager := render.NewPagination(page, p.pageSize, total, "/search/", url.Values{"q": {q}})
	if pager.OutOfRange() {
		http.NotFound(w, r)
		return
	}

	heading := "Search"
	if q != "" {
		heading = "Search results for: " + q
	}

	p.renderer.Page(w, r, "list", &render.PageData{
		Title: heading,
		Data: map[string]any{
			"Heading": heading,
			"Query":   q,
			"Posts":   posts,
		},
		Pagination: pager,
	})
}
