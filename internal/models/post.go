// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// PostSlugMaxLen is the width of posts.slug.
const PostSlugMaxLen = 250

// Post is a blog article. Content is Markdown that may embed raw HTML.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	AuthorID    uuid.UUID  `json:"author_id"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	ImageKey    *string    `json:"image_key,omitempty"`
	Status      PostStatus `json:"status"`
	Views       int64      `json:"views"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Virtual fields populated by store methods.
	AuthorName   string   `json:"author_name,omitempty"`
	CategoryName string   `json:"category_name,omitempty"`
	CategorySlug string   `json:"category_slug,omitempty"`
	Tags         []string `json:"tags"`
}

// IsPublished returns true if the post is in published status.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

func (p *Post) SlugSource() string { return p.Title }
func (p *Post) SlugValue() string  { return p.Slug }
func (p *Post) SetSlug(s string)   { p.Slug = s }
func (p *Post) SlugMaxLen() int    { return PostSlugMaxLen }

// PublishedAtValue returns the first-publication time, or nil if the post
// has never been published.
func (p *Post) PublishedAtValue() *time.Time { return p.PublishedAt }

// SetPublishedAt records the first-publication time.
func (p *Post) SetPublishedAt(t time.Time) { p.PublishedAt = &t }

func (p *Post) String() string { return p.Title }
