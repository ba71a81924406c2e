package handlers

import (
	"net/http"

	"codewithbrain/internal/models"
)

// ListCategories returns every category.
func (a *Admin) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.categories.List(r.Context())
	if err != nil {
		serverError(w, "admin list categories failed", err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *Admin) findCategory(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	cat, err := a.categories.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, "admin find category failed", err)
		return nil, false
	}
	if cat == nil {
		writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return cat, true
}

// GetCategory returns one category.
func (a *Admin) GetCategory(w http.ResponseWriter, r *http.Request) {
	cat, ok := a.findCategory(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// CreateCategory creates a category. A blank slug is derived from the name.
func (a *Admin) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.trim()
	if !checkInput(w, &in) {
		return
	}

	created, err := a.categories.Create(r.Context(), &models.Category{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
	})
	if err != nil {
		writeStoreError(w, "admin create category failed", err)
		return
	}

	a.record(r.Context(), r, models.KindCategory, created, created.ID.String(), models.ActionAddition, msgAdded)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateCategory replaces a category's fields. A blank slug keeps the
// current one.
func (a *Admin) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	before, ok := a.findCategory(w, r)
	if !ok {
		return
	}

	var in categoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.trim()
	if !checkInput(w, &in) {
		return
	}

	after := *before
	after.Name = in.Name
	after.Description = in.Description
	if in.Slug != "" {
		after.Slug = in.Slug
	}

	if err := a.categories.Update(r.Context(), &after); err != nil {
		writeStoreError(w, "admin update category failed", err)
		return
	}

	msg := changeMessage(categoryChanges(before, &after))
	a.record(r.Context(), r, models.KindCategory, &after, after.ID.String(), models.ActionChange, msg)
	writeJSON(w, http.StatusOK, &after)
}

// DeleteCategory removes a category. Its posts keep existing without one.
func (a *Admin) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	cat, ok := a.findCategory(w, r)
	if !ok {
		return
	}
	if err := a.categories.Delete(r.Context(), cat.ID); err != nil {
		writeStoreError(w, "admin delete category failed", err)
		return
	}

	a.record(r.Context(), r, models.KindCategory, cat, cat.ID.String(), models.ActionDeletion, msgDeleted)
	w.WriteHeader(http.StatusNoContent)
}
