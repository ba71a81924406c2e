// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CategorySlugMaxLen is the width of categories.slug.
const CategorySlugMaxLen = 100

// Category groups posts. A post has at most one category.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Virtual field populated by store list methods.
	PostCount int `json:"post_count"`
}

func (c *Category) SlugSource() string { return c.Name }
func (c *Category) SlugValue() string  { return c.Slug }
func (c *Category) SetSlug(s string)   { c.Slug = s }
func (c *Category) SlugMaxLen() int    { return CategorySlugMaxLen }

func (c *Category) String() string { return c.Name }
