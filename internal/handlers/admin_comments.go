package handlers

import (
	"net/http"
	"strconv"

	"codewithbrain/internal/models"
)

// ListComments returns comments newest first. ?approved=true|false filters
// by moderation state.
func (a *Admin) ListComments(w http.ResponseWriter, r *http.Request) {
	var approved *bool
	if v := r.URL.Query().Get("approved"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "approved must be true or false")
			return
		}
		approved = &b
	}

	comments, err := a.comments.List(r.Context(), approved)
	if err != nil {
		serverError(w, "admin list comments failed", err)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// ApproveComments approves a batch of comments. Unknown ids are skipped;
// each approved comment gets its own change-log entry.
func (a *Admin) ApproveComments(w http.ResponseWriter, r *http.Request) {
	var in approveInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !checkInput(w, &in) {
		return
	}

	approved, err := a.comments.Approve(r.Context(), in.IDs)
	if err != nil {
		serverError(w, "admin approve comments failed", err)
		return
	}
	for i := range approved {
		c := &approved[i]
		a.record(r.Context(), r, models.KindComment, c, c.ID.String(), models.ActionChange, msgApproved)
	}

	writeJSON(w, http.StatusOK, map[string]int{"approved": len(approved)})
}

// DeleteComment removes one comment.
func (a *Admin) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	c, err := a.comments.Delete(r.Context(), id)
	if err != nil {
		writeStoreError(w, "admin delete comment failed", err)
		return
	}

	a.record(r.Context(), r, models.KindComment, c, c.ID.String(), models.ActionDeletion, msgDeleted)
	w.WriteHeader(http.StatusNoContent)
}
