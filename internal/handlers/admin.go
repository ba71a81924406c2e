// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codewithbrain/internal/middleware"
	"codewithbrain/internal/models"
	"codewithbrain/internal/storage"
	"codewithbrain/internal/store"
)

const (
	// maxImageSize caps post image uploads.
	maxImageSize = 10 << 20

	// logLimit is how many change-log entries /admin/log returns.
	logLimit = 100
)

// Admin groups the JSON admin handlers and their dependencies. Every
// successful write is recorded in the change log.
type Admin struct {
	posts      *store.PostStore
	categories *store.CategoryStore
	tags       *store.TagStore
	comments   *store.CommentStore
	users      *store.UserStore
	log        *store.LogEntryStore
	storage    *storage.Client
}

// NewAdmin creates a new Admin handler group. storageClient may be nil if
// S3 is not configured; image uploads then answer 503.
func NewAdmin(posts *store.PostStore, categories *store.CategoryStore, tags *store.TagStore, comments *store.CommentStore, users *store.UserStore, log *store.LogEntryStore, storageClient *storage.Client) *Admin {
	return &Admin{
		posts:      posts,
		categories: categories,
		tags:       tags,
		comments:   comments,
		users:      users,
		log:        log,
		storage:    storageClient,
	}
}

// record writes one change-log entry. A failure is logged, not returned:
// the admin action itself already succeeded.
func (a *Admin) record(ctx context.Context, r *http.Request, kind string, obj fmt.Stringer, id string, flag models.ActionFlag, msg string) {
	if _, err := a.log.Log(ctx, actor(r), kind, obj, id, flag, msg); err != nil {
		slog.Error("write change log failed", "kind", kind, "object", id, "error", err)
	}
}

// writeStoreError maps store sentinels onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicateSlug):
		writeError(w, http.StatusConflict, "slug already exists")
	case errors.Is(err, store.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "username already exists")
	default:
		serverError(w, msg, err)
	}
}

// Me returns the signed-in user and a CSRF token for subsequent writes.
func (a *Admin) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       sess,
		"csrf_token": middleware.CSRFTokenFromCtx(r.Context()),
	})
}

// --- Posts ---

// ListPosts returns every post, optionally filtered with ?status=.
func (a *Admin) ListPosts(w http.ResponseWriter, r *http.Request) {
	status := models.PostStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	posts, err := a.posts.List(r.Context(), status)
	if err != nil {
		serverError(w, "admin list posts failed", err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// findPost loads the {id} post or writes an error.
func (a *Admin) findPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	post, err := a.posts.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, "admin find post failed", err)
		return nil, false
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return post, true
}

// GetPost returns one post of any status.
func (a *Admin) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := a.findPost(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// CreatePost creates a post authored by the signed-in user.
func (a *Admin) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in postInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.trim()
	if !checkInput(w, &in) {
		return
	}

	sess := middleware.SessionFromCtx(ctx)
	post := &models.Post{
		Title:      in.Title,
		Slug:       in.Slug,
		AuthorID:   sess.UserID,
		CategoryID: in.CategoryID,
		Excerpt:    in.Excerpt,
		Content:    in.Content,
		Status:     in.Status,
	}

	created, err := a.posts.Create(ctx, post)
	if err != nil {
		writeStoreError(w, "admin create post failed", err)
		return
	}

	tags := store.ParseTags(strings.Join(in.Tags, ","))
	if err := a.tags.SetForPost(ctx, created.ID, tags); err != nil {
		serverError(w, "admin set post tags failed", err)
		return
	}
	created.Tags = tags
	if created.Tags == nil {
		created.Tags = []string{}
	}

	a.record(ctx, r, models.KindPost, created, created.ID.String(), models.ActionAddition, msgAdded)
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePost replaces the editable fields of a post.
func (a *Admin) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	before, ok := a.findPost(w, r)
	if !ok {
		return
	}

	var in postInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.trim()
	if !checkInput(w, &in) {
		return
	}

	after := *before
	after.Title = in.Title
	if in.Slug != "" {
		after.Slug = in.Slug
	}
	after.CategoryID = in.CategoryID
	after.Excerpt = in.Excerpt
	after.Content = in.Content
	if in.Status != "" {
		after.Status = in.Status
	}
	after.Tags = store.ParseTags(strings.Join(in.Tags, ","))

	if err := a.posts.Update(ctx, &after); err != nil {
		writeStoreError(w, "admin update post failed", err)
		return
	}
	if err := a.tags.SetForPost(ctx, after.ID, after.Tags); err != nil {
		serverError(w, "admin set post tags failed", err)
		return
	}
	if after.Tags == nil {
		after.Tags = []string{}
	}

	msg := changeMessage(postChanges(before, &after))
	a.record(ctx, r, models.KindPost, &after, after.ID.String(), models.ActionChange, msg)
	writeJSON(w, http.StatusOK, &after)
}

// DeletePost removes a post and its stored image.
func (a *Admin) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, ok := a.findPost(w, r)
	if !ok {
		return
	}
	if err := a.posts.Delete(ctx, post.ID); err != nil {
		writeStoreError(w, "admin delete post failed", err)
		return
	}
	if post.ImageKey != nil && a.storage != nil {
		if err := a.storage.Delete(ctx, *post.ImageKey); err != nil {
			slog.Warn("delete post image failed", "key", *post.ImageKey, "error", err)
		}
	}

	a.record(ctx, r, models.KindPost, post, post.ID.String(), models.ActionDeletion, msgDeleted)
	w.WriteHeader(http.StatusNoContent)
}

// UploadPostImage stores a multipart "image" file in S3 and attaches it to
// the post, replacing any previous image.
func (a *Admin) UploadPostImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if a.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}
	post, ok := a.findPost(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<10)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "image too large or malformed upload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()
	if header.Size > maxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	key := storage.PostImageKey(time.Now(), header.Filename)
	if err := a.storage.Upload(ctx, key, contentType, file, header.Size); err != nil {
		serverError(w, "upload post image failed", err)
		return
	}
	if err := a.posts.SetImage(ctx, post.ID, key); err != nil {
		writeStoreError(w, "admin set post image failed", err)
		return
	}
	if post.ImageKey != nil && *post.ImageKey != key {
		if err := a.storage.Delete(ctx, *post.ImageKey); err != nil {
			slog.Warn("delete old post image failed", "key", *post.ImageKey, "error", err)
		}
	}

	a.record(ctx, r, models.KindPost, post, post.ID.String(), models.ActionChange, changeMessage([]string{"image"}))
	writeJSON(w, http.StatusOK, map[string]string{
		"image_key": key,
		"url":       a.storage.FileURL(key),
	})
}
