package handlers

import (
	"slices"
	"strings"

	"codewithbrain/internal/models"
)

// Change messages written to the admin change log.
const (
	msgAdded    = "Added."
	msgDeleted  = "Deleted."
	msgApproved = "Approved."
)

// changeMessage lists the changed fields: "Changed title, status." or
// "No fields changed." when nothing differs.
func changeMessage(fields []string) string {
	if len(fields) == 0 {
		return "No fields changed."
	}
	return "Changed " + strings.Join(fields, ", ") + "."
}

// postChanges names the fields that differ between before and after.
func postChanges(before, after *models.Post) []string {
	var fields []string
	if before.Title != after.Title {
		fields = append(fields, "title")
	}
	if before.Slug != after.Slug {
		fields = append(fields, "slug")
	}
	if !sameID(before.CategoryID, after.CategoryID) {
		fields = append(fields, "category")
	}
	if before.Excerpt != after.Excerpt {
		fields = append(fields, "excerpt")
	}
	if before.Content != after.Content {
		fields = append(fields, "content")
	}
	if before.Status != after.Status {
		fields = append(fields, "status")
	}
	if !slices.Equal(before.Tags, after.Tags) {
		fields = append(fields, "tags")
	}
	return fields
}

// categoryChanges names the fields that differ between before and after.
func categoryChanges(before, after *models.Category) []string {
	var fields []string
	if before.Name != after.Name {
		fields = append(fields, "name")
	}
	if before.Slug != after.Slug {
		fields = append(fields, "slug")
	}
	if before.Description != after.Description {
		fields = append(fields, "description")
	}
	return fields
}

func sameID[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
