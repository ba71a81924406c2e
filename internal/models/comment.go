// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// commentPreviewRunes is how much of the content String() shows.
const commentPreviewRunes = 50

// Comment is a reader comment on a post. New comments are hidden until a
// staff member approves them.
type Comment struct {
	ID          uuid.UUID `json:"id"`
	PostID      uuid.UUID `json:"post_id"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"-"`
	Content     string    `json:"content"`
	IsApproved  bool      `json:"is_approved"`
	CreatedAt   time.Time `json:"created_at"`

	// Virtual field populated by admin listings.
	PostTitle string `json:"post_title,omitempty"`
}

// String returns "<author>: <first 50 characters of content>".
func (c *Comment) String() string {
	r := []rune(c.Content)
	if len(r) > commentPreviewRunes {
		r = r[:commentPreviewRunes]
	}
	return c.AuthorName + ": " + string(r)
}
