package models

import "github.com/google/uuid"

// TagSlugMaxLen is the width of tags.slug.
const TagSlugMaxLen = 100

// Tag is a free-form label attached to posts.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`

	PostCount int `json:"post_count"`
}

func (t *Tag) SlugSource() string { return t.Name }
func (t *Tag) SlugValue() string  { return t.Slug }
func (t *Tag) SetSlug(s string)   { t.Slug = s }
func (t *Tag) SlugMaxLen() int    { return TagSlugMaxLen }
